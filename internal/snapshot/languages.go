package snapshot

import (
	"path"
	"strings"
)

// languageKind separates programming languages from markup and data formats.
// Only code languages contribute to the histogram.
type languageKind int

const (
	kindCode languageKind = iota
	kindMarkup
)

type languageInfo struct {
	name string
	kind languageKind
}

var extensionLanguages = map[string]languageInfo{
	".go":    {"go", kindCode},
	".py":    {"python", kindCode},
	".pyw":   {"python", kindCode},
	".js":    {"javascript", kindCode},
	".jsx":   {"javascript", kindCode},
	".mjs":   {"javascript", kindCode},
	".cjs":   {"javascript", kindCode},
	".ts":    {"typescript", kindCode},
	".tsx":   {"typescript", kindCode},
	".java":  {"java", kindCode},
	".kt":    {"kotlin", kindCode},
	".kts":   {"kotlin", kindCode},
	".scala": {"scala", kindCode},
	".rs":    {"rust", kindCode},
	".c":     {"c", kindCode},
	".h":     {"c", kindCode},
	".cc":    {"cpp", kindCode},
	".cpp":   {"cpp", kindCode},
	".cxx":   {"cpp", kindCode},
	".hpp":   {"cpp", kindCode},
	".cs":    {"csharp", kindCode},
	".php":   {"php", kindCode},
	".rb":    {"ruby", kindCode},
	".swift": {"swift", kindCode},
	".sh":    {"shell", kindCode},
	".bash":  {"shell", kindCode},
	".zsh":   {"shell", kindCode},
	".pl":    {"perl", kindCode},
	".lua":   {"lua", kindCode},
	".html":  {"html", kindCode},
	".htm":   {"html", kindCode},
	".css":   {"css", kindCode},
	".scss":  {"css", kindCode},
	".vue":   {"vue", kindCode},
	".sql":   {"sql", kindCode},
	".md":    {"markdown", kindMarkup},
	".rst":   {"restructuredtext", kindMarkup},
	".txt":   {"text", kindMarkup},
	".yaml":  {"yaml", kindMarkup},
	".yml":   {"yaml", kindMarkup},
	".json":  {"json", kindMarkup},
	".toml":  {"toml", kindMarkup},
	".xml":   {"xml", kindMarkup},
	".ini":   {"ini", kindMarkup},
}

var fileNameLanguages = map[string]languageInfo{
	"Dockerfile":  {"dockerfile", kindMarkup},
	"Makefile":    {"makefile", kindMarkup},
	"makefile":    {"makefile", kindMarkup},
	"Rakefile":    {"ruby", kindCode},
	"Gemfile":     {"ruby", kindMarkup},
	"Jenkinsfile": {"groovy", kindCode},
}

var shebangLanguages = []struct {
	token string
	info  languageInfo
}{
	{"python", languageInfo{"python", kindCode}},
	{"node", languageInfo{"javascript", kindCode}},
	{"ruby", languageInfo{"ruby", kindCode}},
	{"perl", languageInfo{"perl", kindCode}},
	{"bash", languageInfo{"shell", kindCode}},
	{"/sh", languageInfo{"shell", kindCode}},
	{"zsh", languageInfo{"shell", kindCode}},
}

// classifyName resolves a language from the file name alone.
func classifyName(rel string) (languageInfo, bool) {
	base := path.Base(rel)
	if info, ok := fileNameLanguages[base]; ok {
		return info, true
	}
	if strings.HasPrefix(base, "Dockerfile.") {
		return fileNameLanguages["Dockerfile"], true
	}
	info, ok := extensionLanguages[strings.ToLower(path.Ext(base))]
	return info, ok
}

// classifyShebang resolves a language from the first line of an extensionless script.
func classifyShebang(firstLine string) (languageInfo, bool) {
	if !strings.HasPrefix(firstLine, "#!") {
		return languageInfo{}, false
	}
	for _, candidate := range shebangLanguages {
		if strings.Contains(firstLine, candidate.token) {
			return candidate.info, true
		}
	}
	return languageInfo{}, false
}

// IsCodeLanguage reports whether name is a programming language counted in the histogram.
func IsCodeLanguage(name string) bool {
	for _, info := range extensionLanguages {
		if info.name == name {
			return info.kind == kindCode
		}
	}
	for _, info := range fileNameLanguages {
		if info.name == name {
			return info.kind == kindCode
		}
	}
	return false
}

// DisplayName returns the conventional spelling of a language identifier.
func DisplayName(language string) string {
	switch language {
	case "go":
		return "Go"
	case "javascript":
		return "JavaScript"
	case "typescript":
		return "TypeScript"
	case "cpp":
		return "C++"
	case "csharp":
		return "C#"
	case "php":
		return "PHP"
	case "html":
		return "HTML"
	case "css":
		return "CSS"
	case "sql":
		return "SQL"
	case "dockerfile":
		return "Dockerfile"
	case "makefile":
		return "Make"
	case "":
		return ""
	default:
		return strings.ToUpper(language[:1]) + language[1:]
	}
}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	".venv":        {},
	"venv":         {},
	"__pycache__":  {},
	"dist":         {},
	"build":        {},
	"target":       {},
	".idea":        {},
	".vscode":      {},
}

// SkipDir reports whether a directory name is excluded from snapshots.
func SkipDir(name string) bool {
	_, ok := skipDirs[name]
	return ok
}
