package pipeline

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repodoc/internal/quality"
	"git.home.luguber.info/inful/repodoc/internal/section"
)

func TestBus_DeliversInRegistrationOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.SubscribeAll(func(_ context.Context, e Event) error { got = append(got, "all:"+e.Name()); return nil })
	b.Subscribe(EventRunStarted, func(context.Context, Event) error { got = append(got, "started"); return nil })
	b.Subscribe(EventRunFinished, func(context.Context, Event) error { got = append(got, "finished"); return nil })

	require.NoError(t, b.Publish(context.Background(), RunStarted{RunID: "r"}))
	require.Equal(t, []string{"all:RunStarted", "started"}, got)
}

func TestBus_JoinsHandlerErrors(t *testing.T) {
	b := NewBus()
	first := stderrors.New("first")
	var called bool
	b.SubscribeAll(func(context.Context, Event) error { return first })
	b.SubscribeAll(func(context.Context, Event) error { called = true; return nil })

	err := b.Publish(context.Background(), StageCompleted{RunID: "r", Stage: StatePlanning})
	require.ErrorIs(t, err, first)
	require.True(t, called)
}

func TestStateTable(t *testing.T) {
	require.True(t, canTransition("", StateIngesting))
	require.False(t, canTransition("", StatePlanning))
	require.True(t, canTransition(StateAssembling, StateReviewing))
	require.True(t, canTransition(StateAssembling, StateTestGenerating))
	require.False(t, canTransition(StateDone, StateFailed))
	require.False(t, canTransition(StateFailed, StateIngesting))
	for from := range transitions {
		if from == "" {
			continue
		}
		require.True(t, canTransition(from, StateFailed), from)
	}

	m := &machine{now: func() time.Time { return fixedNow }}
	require.NoError(t, m.move(StateIngesting))
	require.Error(t, m.move(StateReviewing))
	require.Equal(t, StateIngesting, m.state)
	require.Len(t, m.log, 1)
}

func TestRenderReport(t *testing.T) {
	card := quality.Scorecard{
		AxisScores: map[quality.Axis]int{quality.AxisCompleteness: 90, quality.AxisAccuracy: 80, quality.AxisClarity: 70, quality.AxisUsability: 100},
		Overall:    85,
		Approval:   quality.Approved,
	}
	res := &Result{
		RunID:     "run-1",
		TargetID:  "acme_widgets",
		Locator:   "https://github.com/acme/widgets",
		StartedAt: fixedNow,
		Outcome:   OutcomeDegraded,
		Scorecard: &card,
		Degraded:  []section.Degradation{{SectionID: "usage", Kind: section.DegradedPlaceholder, Attempts: 3, Reason: "timeout"}},
		Warnings:  []string{"no test strategy: nothing to test"},
		Transitions: []Transition{
			{From: "", To: StateIngesting, At: fixedNow},
		},
	}

	out := RenderReport(res)
	require.True(t, strings.HasPrefix(out, "# Run report: acme_widgets\n"))
	require.Contains(t, out, "- Outcome: **degraded**")
	require.Contains(t, out, "Overall 85/100, approved.")
	require.Contains(t, out, "| completeness | 90 |")
	require.Contains(t, out, "- `usage`: placeholder after 3 attempt(s) (timeout)")
	require.Contains(t, out, "- no test strategy: nothing to test")
	require.Contains(t, out, "| - | ingesting |")
}
