// Package snapshot builds an immutable, read-only view of a repository tree:
// files with their classified language, a language histogram, parsed dependency
// manifests, and a complexity estimate.
package snapshot

import (
	"slices"
	"strings"
)

// Complexity is a coarse estimate of repository size and heterogeneity.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ProjectType is the inferred kind of project.
type ProjectType string

const (
	ProjectWebAPI      ProjectType = "web_api"
	ProjectWebFrontend ProjectType = "web_frontend"
	ProjectApplication ProjectType = "application"
	ProjectLibrary     ProjectType = "library"
)

// FileEntry describes one regular file of the repository.
type FileEntry struct {
	Path      string // slash-separated, relative to the root
	Language  string // empty when unclassified
	Size      int64
	Oversized bool
}

// LanguageShare is one row of the language histogram.
type LanguageShare struct {
	Language   string
	Files      int
	Percentage float64
}

// Signals are structural hints consumed by planning and review.
type Signals struct {
	ReadmePath    string
	ReadmeExcerpt string
	LicenseFile   string
	ConfigFiles   []string
	CIFiles       []string
	EntryPoints   []string
	TestFiles     []string
	APIDirs       []string
	DocsDirs      []string
}

// Snapshot is an immutable view of a repository. All accessors return copies.
type Snapshot struct {
	root        string
	name        string
	files       []FileEntry
	histogram   []LanguageShare
	manifests   []Manifest
	complexity  Complexity
	projectType ProjectType
	signals     Signals
}

// Root returns the directory the snapshot was built from.
func (s *Snapshot) Root() string { return s.root }

// Name returns the base name of the repository directory.
func (s *Snapshot) Name() string { return s.name }

// Files returns all file entries ordered by path.
func (s *Snapshot) Files() []FileEntry { return slices.Clone(s.files) }

// Histogram returns language shares ordered by file count descending, then name.
func (s *Snapshot) Histogram() []LanguageShare { return slices.Clone(s.histogram) }

// Complexity returns the complexity estimate.
func (s *Snapshot) Complexity() Complexity { return s.complexity }

// ProjectType returns the inferred project type.
func (s *Snapshot) ProjectType() ProjectType { return s.projectType }

// Manifests returns parsed dependency manifests ordered by path.
func (s *Snapshot) Manifests() []Manifest {
	out := make([]Manifest, len(s.manifests))
	for i, m := range s.manifests {
		m.Dependencies = slices.Clone(m.Dependencies)
		m.Scripts = slices.Clone(m.Scripts)
		out[i] = m
	}
	return out
}

// Signals returns the structural hints.
func (s *Snapshot) Signals() Signals {
	sig := s.signals
	sig.ConfigFiles = slices.Clone(sig.ConfigFiles)
	sig.CIFiles = slices.Clone(sig.CIFiles)
	sig.EntryPoints = slices.Clone(sig.EntryPoints)
	sig.TestFiles = slices.Clone(sig.TestFiles)
	sig.APIDirs = slices.Clone(sig.APIDirs)
	sig.DocsDirs = slices.Clone(sig.DocsDirs)
	return sig
}

// SourceFileCount returns the number of content-bearing files in a code language.
func (s *Snapshot) SourceFileCount() int {
	n := 0
	for _, h := range s.histogram {
		n += h.Files
	}
	return n
}

// DominantLanguage returns the most frequent code language, or empty.
func (s *Snapshot) DominantLanguage() string {
	if len(s.histogram) == 0 {
		return ""
	}
	return s.histogram[0].Language
}

// TopLanguages returns up to n languages from the head of the histogram.
func (s *Snapshot) TopLanguages(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < len(s.histogram) && i < n; i++ {
		out = append(out, s.histogram[i].Language)
	}
	return out
}

// Dependencies returns all dependencies of an ecosystem across manifests.
func (s *Snapshot) Dependencies(eco Ecosystem) []string {
	var deps []string
	for _, m := range s.manifests {
		if m.Ecosystem == eco {
			deps = append(deps, m.Dependencies...)
		}
	}
	return sortedUnique(deps)
}

// Ecosystems returns the distinct ecosystems that have a manifest.
func (s *Snapshot) Ecosystems() []Ecosystem {
	var out []Ecosystem
	for _, m := range s.manifests {
		if !slices.Contains(out, m.Ecosystem) {
			out = append(out, m.Ecosystem)
		}
	}
	slices.Sort(out)
	return out
}

// HasDependency reports whether any manifest lists name, either verbatim or as
// the last segment of a module path or Maven coordinate.
func (s *Snapshot) HasDependency(name string) bool {
	for _, m := range s.manifests {
		for _, d := range m.Dependencies {
			if dependencyMatches(d, name) {
				return true
			}
		}
	}
	return false
}

func dependencyMatches(dep, name string) bool {
	dep = strings.ToLower(dep)
	return dep == name || strings.HasSuffix(dep, "/"+name) || strings.HasSuffix(dep, ":"+name)
}
