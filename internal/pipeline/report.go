package pipeline

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/quality"
)

// RenderReport renders a Markdown summary of a run.
func RenderReport(res *Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Run report: %s\n\n", res.TargetID)
	fmt.Fprintf(&sb, "- Run: `%s`\n", res.RunID)
	if res.Locator != "" {
		fmt.Fprintf(&sb, "- Locator: `%s`\n", res.Locator)
	}
	if res.Commit != "" {
		fmt.Fprintf(&sb, "- Commit: `%s`\n", res.Commit)
	}
	fmt.Fprintf(&sb, "- Started: %s\n", res.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Outcome: **%s**\n", res.Outcome)
	if res.FailedStage != "" {
		fmt.Fprintf(&sb, "- Failed stage: %s\n", res.FailedStage)
	}
	if res.Err != nil {
		fmt.Fprintf(&sb, "- Error: %s\n", res.Err)
	}
	fmt.Fprintf(&sb, "- Planned with previous feedback: %t\n", res.PriorUsed)

	if len(res.Transitions) > 0 {
		sb.WriteString("\n## Stages\n\n| From | To | At |\n|---|---|---|\n")
		for _, t := range res.Transitions {
			from := string(t.From)
			if from == "" {
				from = "-"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", from, t.To, t.At.UTC().Format("15:04:05.000"))
		}
	}

	if len(res.Outline.Sections) > 0 {
		sb.WriteString("\n## Outline\n\n")
		for _, s := range res.Outline.Sections {
			req := "optional"
			if s.Required {
				req = "required"
			}
			fmt.Fprintf(&sb, "- `%s` %s (%s)\n", s.ID, s.Title, req)
		}
	}

	if res.Scorecard != nil {
		fmt.Fprintf(&sb, "\n## Quality\n\nOverall %d/100, %s.\n\n| Axis | Score |\n|---|---|\n",
			res.Scorecard.Overall, res.Scorecard.Approval)
		for _, axis := range quality.Axes {
			fmt.Fprintf(&sb, "| %s | %d |\n", axis, res.Scorecard.Score(axis))
		}
	}

	if len(res.Degraded) > 0 {
		sb.WriteString("\n## Degraded sections\n\n")
		for _, d := range res.Degraded {
			fmt.Fprintf(&sb, "- `%s`: %s after %d attempt(s)", d.SectionID, d.Kind, d.Attempts)
			if d.Reason != "" {
				fmt.Fprintf(&sb, " (%s)", d.Reason)
			}
			sb.WriteByte('\n')
		}
	}

	if len(res.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}

	if res.TestStrategy != nil && !res.TestStrategy.Empty() {
		fmt.Fprintf(&sb, "\n## Test strategy\n\n%s with %s, %d case(s), coverage target %d%%.\n",
			res.TestStrategy.Approach, res.TestStrategy.Framework, len(res.TestStrategy.Cases), res.TestStrategy.CoverageTarget)
	}
	return sb.String()
}
