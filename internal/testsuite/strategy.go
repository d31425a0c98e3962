// Package testsuite derives a test-generation strategy from a repository snapshot.
package testsuite

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/repodoc/internal/snapshot"
)

// Approach is the overall kind of test suite recommended.
type Approach string

const (
	ApproachUnit  Approach = "unit"
	ApproachSmoke Approach = "smoke"
	ApproachNone  Approach = "none"
)

const maxUnitTargets = 8

// Case is one proposed test case.
type Case struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Target      string `yaml:"target,omitempty" json:"target,omitempty"`
}

// Strategy is the generated test plan. An empty strategy carries a Reason.
type Strategy struct {
	Approach       Approach `yaml:"approach" json:"approach"`
	Language       string   `yaml:"language,omitempty" json:"language,omitempty"`
	Framework      string   `yaml:"framework,omitempty" json:"framework,omitempty"`
	FrameworkHint  string   `yaml:"framework_hint,omitempty" json:"framework_hint,omitempty"`
	CoverageTarget int      `yaml:"coverage_target,omitempty" json:"coverage_target,omitempty"`
	ExistingTests  int      `yaml:"existing_tests" json:"existing_tests"`
	Cases          []Case   `yaml:"cases" json:"cases"`
	Reason         string   `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Empty reports whether the strategy proposes no cases.
func (s Strategy) Empty() bool { return len(s.Cases) == 0 }

// YAML serializes the strategy.
func (s Strategy) YAML() ([]byte, error) {
	if s.Cases == nil {
		s.Cases = []Case{}
	}
	return yaml.Marshal(s)
}

type framework struct {
	name  string
	hint  string
	typed bool
}

// frameworks maps languages to their idiomatic test runner. Typed languages get
// a unit strategy; the rest get smoke tests.
var frameworks = map[string]framework{
	"go":         {"go test", "go test ./...", true},
	"rust":       {"cargo test", "cargo test", true},
	"java":       {"JUnit 5", "mvn test", true},
	"kotlin":     {"JUnit 5", "gradle test", true},
	"scala":      {"ScalaTest", "sbt test", true},
	"csharp":     {"xUnit", "dotnet test", true},
	"typescript": {"Jest", "npx jest", true},
	"swift":      {"XCTest", "swift test", true},
	"cpp":        {"GoogleTest", "ctest", true},
	"c":          {"CTest", "ctest", true},
	"python":     {"pytest", "pytest", false},
	"javascript": {"Jest", "npx jest", false},
	"ruby":       {"RSpec", "bundle exec rspec", false},
	"php":        {"PHPUnit", "vendor/bin/phpunit", false},
	"shell":      {"bats", "bats test", false},
}

// Generate derives a strategy from the dominant language of snap. It never
// fails: unknown languages and repositories without source files yield an
// empty strategy with a reason.
func Generate(snap *snapshot.Snapshot) Strategy {
	if snap == nil || snap.SourceFileCount() == 0 {
		return Strategy{Approach: ApproachNone, Cases: []Case{}, Reason: "repository has no content-bearing source files"}
	}
	sig := snap.Signals()
	lang := snap.DominantLanguage()
	fw, ok := frameworks[lang]
	if !ok {
		return Strategy{
			Approach:      ApproachNone,
			Language:      lang,
			ExistingTests: len(sig.TestFiles),
			Cases:         []Case{},
			Reason:        fmt.Sprintf("no test framework known for %s", snapshot.DisplayName(lang)),
		}
	}

	s := Strategy{
		Language:       lang,
		Framework:      fw.name,
		FrameworkHint:  fw.hint,
		CoverageTarget: coverageTarget(snap.SourceFileCount()),
		ExistingTests:  len(sig.TestFiles),
	}
	if fw.typed {
		s.Approach = ApproachUnit
		s.Cases = unitCases(snap, lang, sig)
	} else {
		s.Approach = ApproachSmoke
		s.Cases = smokeCases(snap, sig)
	}
	return s
}

func coverageTarget(files int) int {
	switch {
	case files < 10:
		return 60
	case files < 50:
		return 70
	default:
		return 80
	}
}

type dirCount struct {
	dir   string
	files int
}

func sourceDirs(snap *snapshot.Snapshot, lang string, tests []string) []dirCount {
	counts := map[string]int{}
	for _, f := range snap.Files() {
		if f.Oversized || f.Language != lang || slices.Contains(tests, f.Path) {
			continue
		}
		counts[path.Dir(f.Path)]++
	}
	out := make([]dirCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, dirCount{dir: d, files: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].files != out[j].files {
			return out[i].files > out[j].files
		}
		return out[i].dir < out[j].dir
	})
	return out
}

func unitCases(snap *snapshot.Snapshot, lang string, sig snapshot.Signals) []Case {
	var cases []Case
	for i, d := range sourceDirs(snap, lang, sig.TestFiles) {
		if i == maxUnitTargets {
			break
		}
		name := "root"
		if d.dir != "." {
			name = caseSlug(d.dir)
		}
		cases = append(cases, Case{
			Name: "unit_" + name,
			Description: fmt.Sprintf("Cover the exported behaviour of the %d %s file(s) in %s, including error paths.",
				d.files, snapshot.DisplayName(lang), d.dir),
			Target: d.dir,
		})
	}
	for _, ep := range sig.EntryPoints {
		cases = append(cases, Case{
			Name:        "startup_" + caseSlug(strings.TrimSuffix(ep, path.Ext(ep))),
			Description: "Start the program with default configuration and assert it initializes without error.",
			Target:      ep,
		})
	}
	return cases
}

func smokeCases(snap *snapshot.Snapshot, sig snapshot.Signals) []Case {
	var cases []Case
	for _, ep := range sig.EntryPoints {
		cases = append(cases, Case{
			Name:        "smoke_" + caseSlug(strings.TrimSuffix(ep, path.Ext(ep))),
			Description: "Run the entry point and assert it exits cleanly or starts listening.",
			Target:      ep,
		})
	}
	for _, dir := range sig.APIDirs {
		cases = append(cases, Case{
			Name:        "smoke_api_" + caseSlug(dir),
			Description: "Call each route defined under this directory and assert a non-error status.",
			Target:      dir,
		})
	}
	if len(cases) == 0 {
		cases = append(cases, Case{
			Name:        "smoke_import",
			Description: fmt.Sprintf("Load every %s module of the project and assert none fails to import.", snapshot.DisplayName(snap.DominantLanguage())),
			Target:      ".",
		})
	}
	return cases
}

func caseSlug(p string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, p)
}
