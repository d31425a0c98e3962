// Package feedback turns a review scorecard into the regeneration block that
// the next run of the same target reads during outline planning.
package feedback

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/quality"
)

// SchemaVersion is the regeneration block format written by this build.
const SchemaVersion = 1

// Action is one prioritized improvement for the next run.
type Action struct {
	Priority  quality.Priority `json:"priority"`
	Axis      quality.Axis     `json:"axis"`
	SectionID string           `json:"section_id,omitempty"`
	Text      string           `json:"text"`
}

// String renders the action as a single line.
func (a Action) String() string {
	s := fmt.Sprintf("[%s] %s: %s", a.Priority, a.Axis, a.Text)
	if a.SectionID != "" {
		s += fmt.Sprintf(" (section: %s)", a.SectionID)
	}
	return s
}

// MissingSection asks the planner to add a required section.
type MissingSection struct {
	ID       string           `json:"id"`
	Hint     string           `json:"hint"`
	Priority quality.Priority `json:"priority"`
}

// Block is the regeneration feedback for one target. A new block supersedes the previous one.
type Block struct {
	SchemaVersion   int               `json:"schema_version"`
	TargetID        string            `json:"target_id"`
	RunID           string            `json:"run_id,omitempty"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Source          quality.Scorecard `json:"source_scorecard"`
	Actions         []Action          `json:"prioritized_actions"`
	MissingSections []MissingSection  `json:"missing_sections,omitempty"`
}

// Build derives a block from a scorecard. Deficiencies are stably ordered
// high, medium, low so equal priorities keep the reviewer's order.
func Build(card quality.Scorecard, targetID, runID string, now time.Time) Block {
	defs := slices.Clone(card.Deficiencies)
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].Priority.Rank() < defs[j].Priority.Rank()
	})

	b := Block{
		SchemaVersion: SchemaVersion,
		TargetID:      targetID,
		RunID:         runID,
		GeneratedAt:   now.UTC(),
		Source:        card,
		Actions:       make([]Action, 0, len(defs)),
	}
	b.Source.Deficiencies = slices.Clone(card.Deficiencies)
	for _, d := range defs {
		b.Actions = append(b.Actions, Action{Priority: d.Priority, Axis: d.Axis, SectionID: d.SectionID, Text: d.Description})
		if d.Kind != quality.KindMissingSection || d.SectionID == "" {
			continue
		}
		if slices.ContainsFunc(b.MissingSections, func(m MissingSection) bool { return m.ID == d.SectionID }) {
			continue
		}
		b.MissingSections = append(b.MissingSections, MissingSection{ID: d.SectionID, Hint: d.Description, Priority: d.Priority})
	}
	return b
}

// ActionLines returns the actions rendered one per line, in priority order.
func (b Block) ActionLines() []string {
	out := make([]string, len(b.Actions))
	for i, a := range b.Actions {
		out[i] = a.String()
	}
	return out
}

// Marshal serializes a block as indented JSON.
func Marshal(b Block) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// Unmarshal parses a block and rejects unknown schema versions.
func Unmarshal(data []byte) (*Block, error) {
	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid regeneration block").Build()
	}
	if b.SchemaVersion < 1 || b.SchemaVersion > SchemaVersion {
		return nil, errors.NewError(errors.CategoryValidation, "unsupported regeneration block schema").
			WithContext("schema_version", b.SchemaVersion).
			Build()
	}
	return &b, nil
}

// Markdown renders a human-readable view of the block.
func (b Block) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Regeneration feedback: %s\n\n", b.TargetID)
	fmt.Fprintf(&sb, "Generated %s. Overall score %d/100 (%s).\n\n", b.GeneratedAt.Format(time.RFC3339), b.Source.Overall, b.Source.Approval)
	sb.WriteString("## Scores\n\n| Axis | Score |\n|---|---|\n")
	for _, axis := range quality.Axes {
		fmt.Fprintf(&sb, "| %s | %d |\n", axis, b.Source.Score(axis))
	}
	sb.WriteString("\n## Prioritized actions\n\n")
	if len(b.Actions) == 0 {
		sb.WriteString("No deficiencies were found.\n")
	}
	for i, line := range b.ActionLines() {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}
	if len(b.MissingSections) > 0 {
		sb.WriteString("\n## Sections to add\n\n")
		for _, m := range b.MissingSections {
			fmt.Fprintf(&sb, "- `%s`: %s\n", m.ID, m.Hint)
		}
	}
	return sb.String()
}
