package review

import (
	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/quality"
)

// Policy holds every tunable threshold of the reviewer.
type Policy struct {
	PassThreshold      int
	ApprovedThreshold  int
	MinSectionWords    int
	MinSentenceWords   float64
	MaxSentenceWords   float64
	MaxBulletRatio     float64
	PlaceholderPenalty int
	// Shortfall below PassThreshold at which an axis deficiency becomes high
	// or medium priority. Smaller shortfalls are low.
	HighShortfall   int
	MediumShortfall int
}

// DefaultPolicy mirrors the configuration defaults.
func DefaultPolicy() Policy {
	cfg := config.Default()
	return PolicyFromConfig(cfg.Pipeline, cfg.Review)
}

// PolicyFromConfig builds a policy from configuration.
func PolicyFromConfig(p config.PipelineConfig, r config.ReviewConfig) Policy {
	return Policy{
		PassThreshold:      p.QualityPassThreshold,
		ApprovedThreshold:  r.ApprovedThreshold,
		MinSectionWords:    r.MinSectionWords,
		MinSentenceWords:   r.MinSentenceWords,
		MaxSentenceWords:   r.MaxSentenceWords,
		MaxBulletRatio:     r.MaxBulletRatio,
		PlaceholderPenalty: r.PlaceholderPenalty,
		HighShortfall:      r.HighShortfall,
		MediumShortfall:    r.MediumShortfall,
	}
}

// PriorityFor maps a shortfall below the pass threshold to a priority.
func (p Policy) PriorityFor(shortfall int) quality.Priority {
	switch {
	case shortfall >= p.HighShortfall:
		return quality.PriorityHigh
	case shortfall >= p.MediumShortfall:
		return quality.PriorityMedium
	default:
		return quality.PriorityLow
	}
}

// ApprovalFor maps an overall score to an approval status.
func (p Policy) ApprovalFor(overall int) quality.Approval {
	switch {
	case overall >= p.ApprovedThreshold:
		return quality.Approved
	case overall >= p.PassThreshold:
		return quality.ApprovedWithRecommendations
	default:
		return quality.RequiresRevision
	}
}
