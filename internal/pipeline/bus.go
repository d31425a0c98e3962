package pipeline

import (
	"context"
	stderrors "errors"
	"sync"
)

// Handler consumes an Event. Errors are collected by Publish and never stop
// delivery to the remaining handlers.
type Handler func(ctx context.Context, e Event) error

// Bus is a synchronous pub/sub bus for run events.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	all         []Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{subscribers: map[string][]Handler{}} }

// Subscribe registers a handler for one event name.
func (b *Bus) Subscribe(event string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[event] = append(b.subscribers[event], h)
	b.mu.Unlock()
}

// SubscribeAll registers a handler for every event.
func (b *Bus) SubscribeAll(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.all = append(b.all, h)
	b.mu.Unlock()
}

// Publish delivers e to every matching handler in registration order and
// returns their joined errors.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	hs := append(append([]Handler(nil), b.all...), b.subscribers[e.Name()]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
