package outline

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/repodoc/internal/feedback"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/quality"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
)

// unknownPriority places sections the table does not know after every known
// section except contributing.
const unknownPriority = 900

var priorities = map[string]int{
	SectionOverview:         0,
	SectionFeatures:         10,
	SectionTechnologyStack:  20,
	SectionSetup:            30,
	SectionConfiguration:    40,
	SectionUsage:            50,
	SectionAPIDocumentation: 60,
	SectionProjectStructure: 70,
	SectionTesting:          80,
	SectionDeployment:       90,
	SectionLicense:          100,
	SectionContributing:     1000,
}

var titles = map[string]string{
	SectionOverview:         "Project Overview",
	SectionFeatures:         "Features",
	SectionTechnologyStack:  "Technology Stack",
	SectionSetup:            "Installation",
	SectionConfiguration:    "Configuration",
	SectionUsage:            "Usage",
	SectionAPIDocumentation: "API Documentation",
	SectionProjectStructure: "Project Structure",
	SectionTesting:          "Testing",
	SectionDeployment:       "Deployment",
	SectionLicense:          "License",
	SectionContributing:     "Contributing",
}

var titleCaser = cases.Title(language.English)

// TitleFor returns the display title of a section id.
func TitleFor(id string) string {
	if t, ok := titles[id]; ok {
		return t
	}
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

// IDForTitle maps a display title back to its section id. Unknown titles
// become lower-case ids with underscores.
func IDForTitle(title string) string {
	title = strings.TrimSpace(title)
	for id, t := range titles {
		if strings.EqualFold(t, title) {
			return id
		}
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case sb.Len() > 0 && !strings.HasSuffix(sb.String(), "_"):
			sb.WriteByte('_')
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

// Planner builds outlines. It never fails: missing snapshot detail yields generic hints.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner returns a planner logging through logger (slog.Default when nil).
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger}
}

// Plan derives the outline from the snapshot and, when present, the previous
// run's regeneration block. Required sections named by the block are added or
// promoted.
func (p *Planner) Plan(snap *snapshot.Snapshot, prior *feedback.Block) Outline {
	var specs []SectionSpec
	add := func(id string, required bool) {
		specs = append(specs, SectionSpec{ID: id, Title: TitleFor(id), Required: required, Hint: hintFor(id, snap)})
	}

	for _, id := range BaselineRequired {
		required := true
		// A repository without source files cannot support a technology stack
		// section, so a placeholder there must not fail assembly.
		if id == SectionTechnologyStack && (snap == nil || snap.SourceFileCount() == 0) {
			required = false
		}
		add(id, required)
	}
	for _, id := range optionalSections(snap) {
		add(id, false)
	}

	var guidance []string
	if prior != nil {
		for _, missing := range prior.MissingSections {
			id := normalizeID(missing.ID)
			if id == "" {
				p.logger.Warn("Ignoring prior feedback without a section id", slog.String("hint", missing.Hint))
				continue
			}
			missing.ID = id
			specs = mergeMissing(specs, missing)
			p.logger.Debug("Outline adjusted from prior feedback", logfields.Section(id))
		}
		for _, a := range prior.Actions {
			if a.SectionID == "" && a.Priority != quality.PriorityLow {
				guidance = append(guidance, a.String())
			}
		}
	}

	sort.SliceStable(specs, func(i, j int) bool {
		return priorityOf(specs[i].ID) < priorityOf(specs[j].ID)
	})
	return Outline{Sections: specs, Guidance: guidance}
}

func priorityOf(id string) int {
	if p, ok := priorities[id]; ok {
		return p
	}
	return unknownPriority
}

// normalizeID maps a stored section reference, either an id or a display
// title, onto the id the planner uses.
func normalizeID(raw string) string {
	raw = strings.TrimSpace(raw)
	if _, known := titles[raw]; known {
		return raw
	}
	return IDForTitle(raw)
}

func mergeMissing(specs []SectionSpec, missing feedback.MissingSection) []SectionSpec {
	for i := range specs {
		if specs[i].ID != missing.ID {
			continue
		}
		specs[i].Required = true
		if missing.Hint != "" {
			specs[i].Hint = strings.TrimSpace(specs[i].Hint + " Reviewer feedback: " + missing.Hint)
		}
		return specs
	}
	hint := missing.Hint
	if hint == "" {
		hint = genericHint(missing.ID)
	}
	return append(specs, SectionSpec{ID: missing.ID, Title: TitleFor(missing.ID), Required: true, Hint: hint})
}

// optionalSections returns the optional section ids signalled by the snapshot,
// in declaration order. Contributing is always offered.
func optionalSections(snap *snapshot.Snapshot) []string {
	if snap == nil {
		return []string{SectionContributing}
	}
	sig := snap.Signals()
	var ids []string
	if sig.ReadmePath != "" {
		ids = append(ids, SectionFeatures)
	}
	if len(sig.ConfigFiles) > 0 {
		ids = append(ids, SectionConfiguration)
	}
	if snap.ProjectType() == snapshot.ProjectWebAPI || len(sig.APIDirs) > 0 {
		ids = append(ids, SectionAPIDocumentation)
	}
	if snap.Complexity() != snapshot.ComplexityLow {
		ids = append(ids, SectionProjectStructure)
	}
	if len(sig.TestFiles) > 0 {
		ids = append(ids, SectionTesting)
	}
	if len(snap.Dependencies(snapshot.EcosystemDocker)) > 0 || len(sig.CIFiles) > 0 {
		ids = append(ids, SectionDeployment)
	}
	if sig.LicenseFile != "" {
		ids = append(ids, SectionLicense)
	}
	return append(ids, SectionContributing)
}

func genericHint(id string) string {
	return fmt.Sprintf("Describe the %s of the project for a new contributor.", strings.ToLower(TitleFor(id)))
}

func hintFor(id string, snap *snapshot.Snapshot) string {
	if snap == nil {
		return genericHint(id)
	}
	sig := snap.Signals()
	switch id {
	case SectionOverview:
		if sig.ReadmeExcerpt != "" {
			return "Explain what the project does and who it is for, consistent with the existing README."
		}
		return "Explain what the project does and who it is for, inferred from its source layout."
	case SectionTechnologyStack:
		langs := snap.TopLanguages(3)
		if len(langs) == 0 {
			return genericHint(id)
		}
		names := make([]string, len(langs))
		for i, l := range langs {
			names[i] = snapshot.DisplayName(l)
		}
		return fmt.Sprintf("Name the languages (%s) and the key frameworks and libraries from the dependency manifests.", strings.Join(names, ", "))
	case SectionSetup:
		if ecos := snap.Ecosystems(); len(ecos) > 0 {
			parts := make([]string, len(ecos))
			for i, e := range ecos {
				parts[i] = string(e)
			}
			return fmt.Sprintf("Give numbered installation steps with shell commands for the %s toolchain.", strings.Join(parts, ", "))
		}
		return "Give numbered installation steps with shell commands."
	case SectionUsage:
		if len(sig.EntryPoints) > 0 {
			return fmt.Sprintf("Show how to run the project starting from %s, with runnable examples.", strings.Join(sig.EntryPoints, ", "))
		}
		return "Show how to use the project with runnable examples."
	case SectionConfiguration:
		return fmt.Sprintf("Document the configuration files (%s) and the settings they control.", strings.Join(sig.ConfigFiles, ", "))
	case SectionAPIDocumentation:
		return "Document the public API surface: endpoints or exported entry points, parameters and responses."
	case SectionTesting:
		return "Explain how to run the test suite and where tests live."
	case SectionDeployment:
		return "Explain how the project is built and deployed, including container images and CI pipelines."
	case SectionLicense:
		return fmt.Sprintf("State the license declared in %s.", sig.LicenseFile)
	default:
		return genericHint(id)
	}
}
