package generation

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/retry"
)

// CallState is the state of one generation call.
type CallState string

const (
	StatePending   CallState = "pending"
	StateRetrying  CallState = "retrying"
	StateSucceeded CallState = "succeeded"
	StateDegraded  CallState = "degraded"
)

type callEvent string

const (
	eventSuccess   callEvent = "success"
	eventTransient callEvent = "transient"
	eventPermanent callEvent = "permanent"
	eventExhausted callEvent = "exhausted"
)

// callTransitions is the complete transition table of the call state machine.
// Succeeded and Degraded are terminal.
var callTransitions = map[CallState]map[callEvent]CallState{
	StatePending: {
		eventSuccess:   StateSucceeded,
		eventTransient: StateRetrying,
		eventPermanent: StateDegraded,
		eventExhausted: StateDegraded,
	},
	StateRetrying: {
		eventSuccess:   StateSucceeded,
		eventTransient: StateRetrying,
		eventPermanent: StateDegraded,
		eventExhausted: StateDegraded,
	},
}

func nextState(from CallState, ev callEvent) (CallState, error) {
	to, ok := callTransitions[from][ev]
	if !ok {
		return from, fmt.Errorf("invalid call transition %s --%s-->", from, ev)
	}
	return to, nil
}

// Transition records one state change. Retry is the retry ordinal when To is Retrying.
type Transition struct {
	From  CallState
	To    CallState
	Retry int
	Err   error
}

// Outcome is the terminal result of a call.
type Outcome struct {
	Text        string
	State       CallState
	Attempts    int
	Err         error // last service error when State is Degraded
	Transitions []Transition
}

// Caller drives a Service through the call state machine.
type Caller struct {
	Service Service
	Policy  retry.Policy
	Timeout time.Duration
	// OnTransition, when set, observes every transition as it happens.
	OnTransition func(Transition)
}

// Do runs one call to a terminal state. The returned error is non-nil only when
// ctx itself is done; service failures end in StateDegraded instead.
func (c *Caller) Do(ctx context.Context, req Request) (Outcome, error) {
	out := Outcome{State: StatePending}
	move := func(ev callEvent, cause error) {
		to, err := nextState(out.State, ev)
		if err != nil {
			panic(err)
		}
		t := Transition{From: out.State, To: to, Err: cause}
		if to == StateRetrying {
			t.Retry = out.Attempts
		}
		out.State = to
		out.Transitions = append(out.Transitions, t)
		if c.OnTransition != nil {
			c.OnTransition(t)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Attempts++
		text, err := c.attempt(ctx, req)
		if err == nil {
			out.Text = text
			out.Err = nil
			move(eventSuccess, nil)
			return out, nil
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		classified := Classify(err)
		out.Err = classified
		switch {
		case !classified.Transient():
			move(eventPermanent, classified)
			return out, nil
		case out.Attempts > c.Policy.MaxRetries:
			move(eventExhausted, classified)
			return out, nil
		}
		move(eventTransient, classified)
		if err := c.Policy.Wait(ctx, out.Attempts); err != nil {
			return out, err
		}
	}
}

func (c *Caller) attempt(ctx context.Context, req Request) (string, error) {
	callCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	text, err := c.Service.Complete(callCtx, req)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", NewError(KindUnavailable, "", fmt.Errorf("empty completion"))
	}
	return text, nil
}
