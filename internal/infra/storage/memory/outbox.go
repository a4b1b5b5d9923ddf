package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
)

// Outbox stages records on the unit in ctx and queues them on commit. Flush
// hands queued records to the dispatcher; a record whose delivery fails is
// dropped after the error is reported.
type Outbox struct {
	dispatcher *appoutbox.Dispatcher

	mu      sync.Mutex
	pending []appoutbox.EventRecord
}

func NewOutbox(dispatcher *appoutbox.Dispatcher) *Outbox {
	return &Outbox{dispatcher: dispatcher}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok && !mu.readOnly {
			return mu.stageRecord(record)
		}
	}
	o.enqueue([]appoutbox.EventRecord{record})
	return nil
}

func (o *Outbox) enqueue(records []appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, records...)
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()
	if o.dispatcher == nil || len(batch) == 0 {
		return nil
	}
	var errs []error
	for _, rec := range batch {
		if err := o.dispatcher.Dispatch(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending reports how many committed records wait for a flush.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
