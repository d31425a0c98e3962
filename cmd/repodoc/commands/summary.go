package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/repodoc/internal/history"
	"git.home.luguber.info/inful/repodoc/internal/pipeline"
	"git.home.luguber.info/inful/repodoc/internal/quality"
)

var (
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(14)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D29922"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case string(pipeline.OutcomeSuccess), string(quality.Approved):
		return okStyle
	case string(pipeline.OutcomeDegraded), string(quality.ApprovedWithRecommendations):
		return warnStyle
	default:
		return failStyle
	}
}

func kv(label, value string) string {
	return labelStyle.Render(label) + value
}

// RenderSummary renders the terminal summary of a run.
func RenderSummary(res *pipeline.Result) string {
	lines := []string{
		headStyle.Render("repodoc: " + res.TargetID),
		kv("Run", res.RunID),
		kv("Outcome", outcomeStyle(string(res.Outcome)).Render(string(res.Outcome))),
		kv("Duration", res.Duration().Round(time.Millisecond).String()),
	}
	if res.Commit != "" {
		lines = append(lines, kv("Commit", shortID(res.Commit)))
	}
	if res.FailedStage != "" {
		lines = append(lines, kv("Failed stage", string(res.FailedStage)))
	}
	if res.Scorecard != nil {
		lines = append(lines, "", RenderScorecard(*res.Scorecard))
	}
	if len(res.Degraded) > 0 {
		lines = append(lines, "", headStyle.Render("Degraded sections"))
		for _, d := range res.Degraded {
			lines = append(lines, fmt.Sprintf("  %s %s", d.SectionID, mutedStyle.Render(string(d.Kind)+": "+d.Reason)))
		}
	}
	if len(res.Warnings) > 0 {
		lines = append(lines, "", headStyle.Render("Warnings"))
		for _, w := range res.Warnings {
			lines = append(lines, "  "+warnStyle.Render("!")+" "+w)
		}
	}
	if len(res.Keys) > 0 {
		lines = append(lines, "", headStyle.Render("Artifacts"))
		for _, k := range res.Keys {
			lines = append(lines, "  "+k)
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderScorecard renders axis scores, the verdict and the top deficiencies.
func RenderScorecard(card quality.Scorecard) string {
	lines := []string{
		kv("Quality", fmt.Sprintf("%d/100 ", card.Overall)+outcomeStyle(string(card.Approval)).Render(string(card.Approval))),
	}
	for _, axis := range quality.Axes {
		lines = append(lines, kv("  "+string(axis), fmt.Sprintf("%3d %s", card.Score(axis), bar(card.Score(axis)))))
	}
	for i, d := range card.Deficiencies {
		if i == 5 {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  ... %d more", len(card.Deficiencies)-i)))
			break
		}
		lines = append(lines, fmt.Sprintf("  [%s] %s", d.Priority, d.Description))
	}
	return strings.Join(lines, "\n")
}

func bar(score int) string {
	n := score / 10
	return okStyle.Render(strings.Repeat("█", n)) + mutedStyle.Render(strings.Repeat("░", 10-n))
}

// RenderRuns renders recorded runs newest first.
func RenderRuns(runs []history.Run) string {
	if len(runs) == 0 {
		return mutedStyle.Render("no runs recorded")
	}
	var sb strings.Builder
	sb.WriteString(headStyle.Render(fmt.Sprintf("%-20s %-36s %-9s %5s  %s", "STARTED", "RUN", "OUTCOME", "SCORE", "TARGET")))
	sb.WriteByte('\n')
	for _, r := range runs {
		fmt.Fprintf(&sb, "%-20s %-36s %s %5d  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.RunID,
			outcomeStyle(r.Outcome).Render(fmt.Sprintf("%-9s", r.Outcome)),
			r.Overall,
			r.TargetID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func shortID(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
