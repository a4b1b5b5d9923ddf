package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Subscriber reacts to a delivered event record.
type Subscriber interface {
	HandleEvent(ctx context.Context, record EventRecord) error
}

type SubscriberFunc func(ctx context.Context, record EventRecord) error

func (f SubscriberFunc) HandleEvent(ctx context.Context, record EventRecord) error {
	return f(ctx, record)
}

// Dispatcher fans records out to the subscribers registered for their name.
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[string][]Subscriber
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[string][]Subscriber)}
}

func (d *Dispatcher) Subscribe(name string, sub Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[name] = append(d.subs[name], sub)
}

// Names lists the event names with at least one subscriber.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.subs))
	for name := range d.subs {
		out = append(out, name)
	}
	return out
}

// Dispatch runs every subscriber and joins their failures.
func (d *Dispatcher) Dispatch(ctx context.Context, record EventRecord) error {
	d.mu.RLock()
	subs := append([]Subscriber(nil), d.subs[record.Name]...)
	d.mu.RUnlock()
	var errs []error
	for _, sub := range subs {
		if err := sub.HandleEvent(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("outbox: %s %s: %w", record.Name, record.ID, err))
		}
	}
	return errors.Join(errs...)
}
