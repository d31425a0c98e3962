// Package outline decides which documentation sections a run produces, in what
// order, and which of them are required.
package outline

import "slices"

// Section identifiers known to the planner.
const (
	SectionOverview         = "overview"
	SectionFeatures         = "features"
	SectionTechnologyStack  = "technology_stack"
	SectionSetup            = "setup"
	SectionConfiguration    = "configuration"
	SectionUsage            = "usage"
	SectionAPIDocumentation = "api_documentation"
	SectionProjectStructure = "project_structure"
	SectionTesting          = "testing"
	SectionDeployment       = "deployment"
	SectionLicense          = "license"
	SectionContributing     = "contributing"
)

// BaselineRequired lists the sections every outline carries.
var BaselineRequired = []string{SectionOverview, SectionTechnologyStack, SectionSetup, SectionUsage}

// SectionSpec describes one planned section.
type SectionSpec struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Required bool   `json:"required"`
	Hint     string `json:"hint"`
}

// Outline is the ordered list of planned sections plus run-wide guidance
// carried over from the previous review.
type Outline struct {
	Sections []SectionSpec `json:"sections"`
	Guidance []string      `json:"guidance,omitempty"`
}

// Index returns the position of id, or -1.
func (o Outline) Index(id string) int {
	return slices.IndexFunc(o.Sections, func(s SectionSpec) bool { return s.ID == id })
}

// Lookup returns the section spec for id.
func (o Outline) Lookup(id string) (SectionSpec, bool) {
	if i := o.Index(id); i >= 0 {
		return o.Sections[i], true
	}
	return SectionSpec{}, false
}

// IDs returns the section ids in outline order.
func (o Outline) IDs() []string {
	out := make([]string, len(o.Sections))
	for i, s := range o.Sections {
		out[i] = s.ID
	}
	return out
}

// PrecedingTitles returns the titles of the sections before id, in outline order.
func (o Outline) PrecedingTitles(id string) []string {
	i := o.Index(id)
	if i <= 0 {
		return nil
	}
	out := make([]string, 0, i)
	for _, s := range o.Sections[:i] {
		out = append(out, s.Title)
	}
	return out
}
