// Package quality holds the scorecard model shared by the reviewer, the
// regeneration feedback builder and the outline planner.
package quality

// Axis is one scoring dimension.
type Axis string

const (
	AxisCompleteness Axis = "completeness"
	AxisAccuracy     Axis = "accuracy"
	AxisClarity      Axis = "clarity"
	AxisUsability    Axis = "usability"
)

// Axes lists every axis in reporting order.
var Axes = []Axis{AxisCompleteness, AxisAccuracy, AxisClarity, AxisUsability}

// Priority orders deficiencies for the next run.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sort key where high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// DeficiencyKind distinguishes axis shortfalls from structural gaps.
type DeficiencyKind string

const (
	KindAxisBelowThreshold DeficiencyKind = "axis_below_threshold"
	KindMissingSection     DeficiencyKind = "missing_section"
	KindPlaceholder        DeficiencyKind = "placeholder_content"
)

// Deficiency is one finding of the review.
type Deficiency struct {
	Axis        Axis           `json:"axis"`
	Kind        DeficiencyKind `json:"kind"`
	SectionID   string         `json:"section_id,omitempty"`
	Description string         `json:"description"`
	Priority    Priority       `json:"priority"`
}

// Approval is the overall verdict of a review.
type Approval string

const (
	Approved                    Approval = "approved"
	ApprovedWithRecommendations Approval = "approved_with_recommendations"
	RequiresRevision            Approval = "requires_revision"
)

// Scorecard is the immutable result of one review.
type Scorecard struct {
	AxisScores   map[Axis]int `json:"axis_scores"`
	Overall      int          `json:"overall"`
	Deficiencies []Deficiency `json:"deficiencies"`
	Approval     Approval     `json:"approval"`
}

// Score returns the score of an axis, or 0 when absent.
func (s Scorecard) Score(a Axis) int {
	return s.AxisScores[a]
}
