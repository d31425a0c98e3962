package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/retry"
)

func fastPolicy(maxRetries int) retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, maxRetries)
}

func rateLimited() error { return NewError(KindRateLimited, "test", errors.New("429")) }

func TestCallerSucceedsAfterTransientFailures(t *testing.T) {
	svc := NewScripted().On("usage",
		Step{Err: rateLimited()},
		Step{Err: NewError(KindTimeout, "test", errors.New("slow"))},
		Step{Text: "done"},
	)
	var seen []Transition
	c := &Caller{Service: svc, Policy: fastPolicy(2), OnTransition: func(tr Transition) { seen = append(seen, tr) }}

	out, err := c.Do(context.Background(), Request{Prompt: "Section: usage"})
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, out.State)
	require.Equal(t, "done", out.Text)
	require.Equal(t, 3, out.Attempts)
	require.NoError(t, out.Err)
	require.Equal(t, []CallState{StateRetrying, StateRetrying, StateSucceeded}, toStates(out.Transitions))
	require.Equal(t, 1, out.Transitions[0].Retry)
	require.Equal(t, 2, out.Transitions[1].Retry)
	require.Equal(t, out.Transitions, seen)
}

func TestCallerExhaustsRetries(t *testing.T) {
	svc := NewScripted().On("setup", Step{Err: rateLimited()})
	c := &Caller{Service: svc, Policy: fastPolicy(2)}

	out, err := c.Do(context.Background(), Request{Prompt: "Section: setup"})
	require.NoError(t, err)
	require.Equal(t, StateDegraded, out.State)
	require.Equal(t, 3, out.Attempts)
	require.Equal(t, 3, svc.Calls("setup"))
	require.Equal(t, KindRateLimited, Classify(out.Err).Kind)
}

func TestCallerZeroRetriesDegradesImmediately(t *testing.T) {
	svc := NewScripted().On("setup", Step{Err: rateLimited()}, Step{Text: "late"})
	c := &Caller{Service: svc, Policy: fastPolicy(0)}

	out, err := c.Do(context.Background(), Request{Prompt: "setup"})
	require.NoError(t, err)
	require.Equal(t, StateDegraded, out.State)
	require.Equal(t, 1, out.Attempts)
	require.Equal(t, []CallState{StateDegraded}, toStates(out.Transitions))
}

func TestCallerPermanentErrorSkipsRetries(t *testing.T) {
	svc := NewScripted().On("x", Step{Err: NewError(KindInvalidRequest, "test", errors.New("400"))})
	c := &Caller{Service: svc, Policy: fastPolicy(5)}

	out, err := c.Do(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	require.Equal(t, StateDegraded, out.State)
	require.Equal(t, 1, out.Attempts)
}

func TestCallerEmptyCompletionDegrades(t *testing.T) {
	svc := NewScripted().On("x", Step{Text: ""})
	c := &Caller{Service: svc, Policy: fastPolicy(3)}

	out, err := c.Do(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	require.Equal(t, StateDegraded, out.State)
	require.Equal(t, KindUnavailable, Classify(out.Err).Kind)
}

func TestCallerTimeoutIsTransient(t *testing.T) {
	calls := 0
	svc := ServiceFunc(func(ctx context.Context, _ Request) (string, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "ok", nil
	})
	c := &Caller{Service: svc, Policy: fastPolicy(1), Timeout: 5 * time.Millisecond}

	out, err := c.Do(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, out.State)
	require.Equal(t, KindTimeout, Classify(out.Transitions[0].Err).Kind)
}

func TestCallerParentCancellationIsAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := ServiceFunc(func(context.Context, Request) (string, error) {
		cancel()
		return "", rateLimited()
	})
	c := &Caller{Service: svc, Policy: fastPolicy(3)}

	_, err := c.Do(ctx, Request{Prompt: "x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTransitionTableIsTotalForNonTerminalStates(t *testing.T) {
	for _, from := range []CallState{StatePending, StateRetrying} {
		for _, ev := range []callEvent{eventSuccess, eventTransient, eventPermanent, eventExhausted} {
			_, err := nextState(from, ev)
			require.NoError(t, err, "%s/%s", from, ev)
		}
	}
	for _, from := range []CallState{StateSucceeded, StateDegraded} {
		_, err := nextState(from, eventTransient)
		require.Error(t, err)
	}
}

func toStates(ts []Transition) []CallState {
	out := make([]CallState, len(ts))
	for i, tr := range ts {
		out[i] = tr.To
	}
	return out
}
