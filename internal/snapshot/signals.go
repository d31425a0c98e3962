package snapshot

import (
	"path"
	"slices"
	"strings"
)

var (
	configFileNames = map[string]struct{}{
		".env.example": {}, ".env.template": {}, ".env.sample": {},
		"config.json": {}, "config.yaml": {}, "config.yml": {}, "config.toml": {},
		"settings.py": {}, "application.properties": {}, "application.yml": {},
		"appsettings.json": {},
	}
	ciFileNames = map[string]struct{}{
		".gitlab-ci.yml": {}, ".travis.yml": {}, "azure-pipelines.yml": {},
		"appveyor.yml": {}, "Jenkinsfile": {}, "bitbucket-pipelines.yml": {},
	}
	entryPointNames = map[string]struct{}{
		"main.go": {}, "main.py": {}, "app.py": {}, "server.py": {}, "run.py": {},
		"manage.py": {}, "index.js": {}, "app.js": {}, "server.js": {}, "main.js": {},
		"index.ts": {}, "main.ts": {}, "Main.java": {}, "Application.java": {},
		"main.rs": {}, "Program.cs": {},
	}
	apiDirNames  = []string{"api", "routes", "handlers", "controllers", "endpoints"}
	docsDirNames = []string{"docs", "doc", "documentation"}
	testDirNames = []string{"test", "tests", "spec", "__tests__"}
)

// observePath records structural signals that depend on the path only.
func (s *Signals) observePath(rel string) {
	base := path.Base(rel)
	dir := path.Dir(rel)
	lower := strings.ToLower(base)

	if dir == "." && s.LicenseFile == "" && (strings.HasPrefix(lower, "license") || strings.HasPrefix(lower, "copying")) {
		s.LicenseFile = rel
	}
	if _, ok := configFileNames[base]; ok || strings.HasPrefix(rel, "config/") {
		s.ConfigFiles = append(s.ConfigFiles, rel)
	}
	if _, ok := ciFileNames[base]; ok || isWorkflowFile(rel) {
		s.CIFiles = append(s.CIFiles, rel)
	}
	if _, ok := entryPointNames[base]; ok && (dir == "." || strings.HasPrefix(rel, "cmd/") || strings.HasPrefix(rel, "src/")) {
		s.EntryPoints = append(s.EntryPoints, rel)
	}
	for _, segment := range strings.Split(dir, "/") {
		switch {
		case slices.Contains(apiDirNames, segment):
			s.APIDirs = appendUnique(s.APIDirs, dirUpTo(rel, segment))
		case slices.Contains(docsDirNames, segment):
			s.DocsDirs = appendUnique(s.DocsDirs, dirUpTo(rel, segment))
		}
	}
}

func isWorkflowFile(rel string) bool {
	if !strings.HasPrefix(rel, ".github/workflows/") && rel != ".circleci/config.yml" {
		return false
	}
	ext := path.Ext(rel)
	return ext == ".yml" || ext == ".yaml"
}

func isRootReadme(rel string) bool {
	return path.Dir(rel) == "." && strings.HasPrefix(strings.ToLower(rel), "readme")
}

func isTestFile(rel string) bool {
	base := path.Base(rel)
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"),
		strings.HasSuffix(base, "_test.py"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."),
		strings.HasSuffix(base, "Test.java"),
		strings.HasSuffix(base, "_spec.rb"):
		return true
	}
	for _, segment := range strings.Split(path.Dir(rel), "/") {
		if slices.Contains(testDirNames, segment) {
			return true
		}
	}
	return false
}

// dirUpTo returns the prefix of rel ending at the first directory named segment.
func dirUpTo(rel, segment string) string {
	parts := strings.Split(rel, "/")
	for i, p := range parts[:len(parts)-1] {
		if p == segment {
			return strings.Join(parts[:i+1], "/")
		}
	}
	return segment
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
