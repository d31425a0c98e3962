package pipeline

import (
	"context"

	"git.home.luguber.info/inful/repodoc/internal/history"
	"git.home.luguber.info/inful/repodoc/internal/store"
)

// HistoryStore is the subset of history.SQLiteStore the pipeline writes to.
type HistoryStore interface {
	Append(ctx context.Context, runID, eventType string, payload any) error
	SaveRun(ctx context.Context, r history.Run) error
}

// HistorySink records every run event and the final run summary.
func HistorySink(h HistoryStore) Handler {
	return func(ctx context.Context, e Event) error {
		switch ev := e.(type) {
		case RunStarted:
			if err := h.SaveRun(ctx, history.Run{RunID: ev.RunID, TargetID: ev.TargetID, Locator: ev.Locator, StartedAt: ev.At}); err != nil {
				return err
			}
			return h.Append(ctx, ev.RunID, history.EventRunStarted, history.RunPayload{TargetID: ev.TargetID, Locator: ev.Locator})
		case StageCompleted:
			return h.Append(ctx, ev.RunID, history.EventStageCompleted, history.StagePayload{Stage: string(ev.Stage), DurationMS: ev.Duration.Milliseconds()})
		case StageFailed:
			return h.Append(ctx, ev.RunID, history.EventStageFailed, history.StagePayload{Stage: string(ev.Stage), DurationMS: ev.Duration.Milliseconds(), Error: ev.Err.Error()})
		case SectionDegraded:
			d := ev.Degradation
			return h.Append(ctx, ev.RunID, history.EventSectionDegraded, history.SectionPayload{SectionID: d.SectionID, Kind: string(d.Kind), Attempts: d.Attempts, Reason: d.Reason})
		case RunFinished:
			res := ev.Result
			if err := h.Append(ctx, res.RunID, history.EventRunFinished, history.RunPayload{TargetID: res.TargetID, Outcome: string(res.Outcome), Overall: overall(res)}); err != nil {
				return err
			}
			return h.SaveRun(ctx, summary(res))
		}
		return nil
	}
}

func summary(res *Result) history.Run {
	run := history.Run{
		RunID:       res.RunID,
		TargetID:    res.TargetID,
		Locator:     res.Locator,
		Commit:      res.Commit,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
		Outcome:     string(res.Outcome),
		FailedStage: string(res.FailedStage),
		Overall:     overall(res),
		Degraded:    len(res.Degraded),
	}
	if res.Err != nil {
		run.ErrorMessage = res.Err.Error()
	}
	if res.Scorecard != nil {
		run.Approval = string(res.Scorecard.Approval)
	}
	if res.Document != nil {
		run.Fingerprint = res.Document.Fingerprint()
	}
	return run
}

func overall(res *Result) int {
	if res.Scorecard == nil {
		return 0
	}
	return res.Scorecard.Overall
}

// PublisherSink announces successful and degraded runs.
func PublisherSink(p store.Publisher) Handler {
	return func(ctx context.Context, e Event) error {
		ev, ok := e.(RunFinished)
		if !ok {
			return nil
		}
		res := ev.Result
		if res.Outcome != OutcomeSuccess && res.Outcome != OutcomeDegraded {
			return nil
		}
		re := store.RunEvent{
			RunID:      res.RunID,
			TargetID:   res.TargetID,
			Outcome:    string(res.Outcome),
			Overall:    overall(res),
			Keys:       res.Keys,
			FinishedAt: res.FinishedAt,
		}
		if res.Scorecard != nil {
			re.Approval = string(res.Scorecard.Approval)
		}
		return p.PublishRunCompleted(ctx, re)
	}
}
