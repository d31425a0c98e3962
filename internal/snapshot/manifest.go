package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// Ecosystem names a dependency-manifest family.
type Ecosystem string

const (
	EcosystemGo     Ecosystem = "go"
	EcosystemNode   Ecosystem = "node"
	EcosystemPython Ecosystem = "python"
	EcosystemRust   Ecosystem = "rust"
	EcosystemJava   Ecosystem = "java"
	EcosystemRuby   Ecosystem = "ruby"
	EcosystemPHP    Ecosystem = "php"
	EcosystemDocker Ecosystem = "docker"
)

// Manifest is the parsed content of one dependency file.
type Manifest struct {
	Ecosystem    Ecosystem
	Path         string
	Name         string
	Description  string
	Dependencies []string
	Scripts      []string
}

type manifestParser func(rel string, data []byte) (Manifest, error)

// manifestParsers is keyed by base file name.
var manifestParsers = map[string]struct {
	ecosystem Ecosystem
	parse     manifestParser
}{
	"go.mod":              {EcosystemGo, parseGoMod},
	"package.json":        {EcosystemNode, parsePackageJSON},
	"requirements.txt":    {EcosystemPython, parseRequirements},
	"pyproject.toml":      {EcosystemPython, parsePyProject},
	"Pipfile":             {EcosystemPython, parsePipfile},
	"setup.py":            {EcosystemPython, parseSetupPy},
	"Cargo.toml":          {EcosystemRust, parseCargo},
	"pom.xml":             {EcosystemJava, parsePOM},
	"build.gradle":        {EcosystemJava, parseGradle},
	"build.gradle.kts":    {EcosystemJava, parseGradle},
	"Gemfile":             {EcosystemRuby, parseGemfile},
	"composer.json":       {EcosystemPHP, parseComposer},
	"Dockerfile":          {EcosystemDocker, parseDockerfile},
	"docker-compose.yml":  {EcosystemDocker, parseCompose},
	"docker-compose.yaml": {EcosystemDocker, parseCompose},
	"compose.yaml":        {EcosystemDocker, parseCompose},
}

func isManifest(rel string) bool {
	_, ok := manifestParsers[path.Base(rel)]
	return ok
}

func parseManifest(rel string, data []byte) (Manifest, error) {
	entry := manifestParsers[path.Base(rel)]
	m, err := entry.parse(rel, data)
	if err != nil {
		return Manifest{}, err
	}
	m.Ecosystem = entry.ecosystem
	m.Path = rel
	m.Dependencies = sortedUnique(m.Dependencies)
	sort.Strings(m.Scripts)
	return m, nil
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func parseGoMod(rel string, data []byte) (Manifest, error) {
	f, err := modfile.ParseLax(rel, data, nil)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if f.Module != nil {
		m.Name = f.Module.Mod.Path
	}
	for _, req := range f.Require {
		if req.Indirect {
			continue
		}
		m.Dependencies = append(m.Dependencies, req.Mod.Path)
	}
	return m, nil
}

type packageJSON struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

func parsePackageJSON(_ string, data []byte) (Manifest, error) {
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Manifest{}, err
	}
	deps := append(mapKeys(pkg.Dependencies), mapKeys(pkg.DevDependencies)...)
	return Manifest{Name: pkg.Name, Description: pkg.Description, Dependencies: deps, Scripts: mapKeys(pkg.Scripts)}, nil
}

// requirementName strips version specifiers, extras and markers from a requirement line.
var requirementName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)

func pythonRequirement(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
		return ""
	}
	return strings.ToLower(requirementName.FindString(line))
}

func parseRequirements(_ string, data []byte) (Manifest, error) {
	var m Manifest
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if name := pythonRequirement(scanner.Text()); name != "" {
			m.Dependencies = append(m.Dependencies, name)
		}
	}
	return m, scanner.Err()
}

type pyProject struct {
	Project struct {
		Name         string   `toml:"name"`
		Description  string   `toml:"description"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name         string         `toml:"name"`
			Description  string         `toml:"description"`
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func parsePyProject(_ string, data []byte) (Manifest, error) {
	var p pyProject
	if err := toml.Unmarshal(data, &p); err != nil {
		return Manifest{}, err
	}
	m := Manifest{Name: p.Project.Name, Description: p.Project.Description}
	if m.Name == "" {
		m.Name = p.Tool.Poetry.Name
		m.Description = p.Tool.Poetry.Description
	}
	for _, dep := range p.Project.Dependencies {
		if name := pythonRequirement(dep); name != "" {
			m.Dependencies = append(m.Dependencies, name)
		}
	}
	for name := range p.Tool.Poetry.Dependencies {
		if name != "python" {
			m.Dependencies = append(m.Dependencies, strings.ToLower(name))
		}
	}
	return m, nil
}

func parsePipfile(_ string, data []byte) (Manifest, error) {
	var p struct {
		Packages    map[string]any `toml:"packages"`
		DevPackages map[string]any `toml:"dev-packages"`
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Manifest{}, err
	}
	return Manifest{Dependencies: append(mapKeys(p.Packages), mapKeys(p.DevPackages)...)}, nil
}

var setupRequires = regexp.MustCompile(`install_requires\s*=\s*\[([^\]]*)\]`)
var quoted = regexp.MustCompile(`["']([^"']+)["']`)

func parseSetupPy(_ string, data []byte) (Manifest, error) {
	var m Manifest
	block := setupRequires.FindSubmatch(data)
	if block == nil {
		return m, nil
	}
	for _, q := range quoted.FindAllSubmatch(block[1], -1) {
		if name := pythonRequirement(string(q[1])); name != "" {
			m.Dependencies = append(m.Dependencies, name)
		}
	}
	return m, nil
}

func parseCargo(_ string, data []byte) (Manifest, error) {
	var c struct {
		Package struct {
			Name        string `toml:"name"`
			Description string `toml:"description"`
		} `toml:"package"`
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return Manifest{}, err
	}
	return Manifest{
		Name:         c.Package.Name,
		Description:  c.Package.Description,
		Dependencies: append(mapKeys(c.Dependencies), mapKeys(c.DevDependencies)...),
	}, nil
}

type pomFile struct {
	ArtifactID   string `xml:"artifactId"`
	Description  string `xml:"description"`
	Dependencies []struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
	} `xml:"dependencies>dependency"`
}

func parsePOM(_ string, data []byte) (Manifest, error) {
	var pom pomFile
	if err := xml.Unmarshal(data, &pom); err != nil {
		return Manifest{}, err
	}
	m := Manifest{Name: pom.ArtifactID, Description: strings.TrimSpace(pom.Description)}
	for _, dep := range pom.Dependencies {
		m.Dependencies = append(m.Dependencies, dep.GroupID+":"+dep.ArtifactID)
	}
	return m, nil
}

var gradleDependency = regexp.MustCompile(`(?m)^\s*(?:implementation|api|compileOnly|runtimeOnly|testImplementation)\s*\(?\s*["']([^:"']+):([^:"']+)`)

func parseGradle(_ string, data []byte) (Manifest, error) {
	var m Manifest
	for _, match := range gradleDependency.FindAllSubmatch(data, -1) {
		m.Dependencies = append(m.Dependencies, string(match[1])+":"+string(match[2]))
	}
	return m, nil
}

var gemLine = regexp.MustCompile(`(?m)^\s*gem\s+["']([^"']+)["']`)

func parseGemfile(_ string, data []byte) (Manifest, error) {
	var m Manifest
	for _, match := range gemLine.FindAllSubmatch(data, -1) {
		m.Dependencies = append(m.Dependencies, string(match[1]))
	}
	return m, nil
}

func parseComposer(_ string, data []byte) (Manifest, error) {
	var c struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Require     map[string]string `json:"require"`
		RequireDev  map[string]string `json:"require-dev"`
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Manifest{}, err
	}
	var deps []string
	for name := range c.Require {
		if name != "php" && !strings.HasPrefix(name, "ext-") {
			deps = append(deps, name)
		}
	}
	return Manifest{Name: c.Name, Description: c.Description, Dependencies: append(deps, mapKeys(c.RequireDev)...)}, nil
}

func parseDockerfile(_ string, data []byte) (Manifest, error) {
	var m Manifest
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && strings.EqualFold(fields[0], "FROM") {
			image := fields[1]
			if strings.HasPrefix(image, "--") && len(fields) >= 3 {
				image = fields[2]
			}
			m.Dependencies = append(m.Dependencies, image)
		}
	}
	return m, scanner.Err()
}

func parseCompose(_ string, data []byte) (Manifest, error) {
	var c struct {
		Services map[string]struct {
			Image string `yaml:"image"`
		} `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Manifest{}, err
	}
	var m Manifest
	for name, svc := range c.Services {
		if svc.Image != "" {
			m.Dependencies = append(m.Dependencies, svc.Image)
		} else {
			m.Dependencies = append(m.Dependencies, name)
		}
	}
	return m, nil
}
