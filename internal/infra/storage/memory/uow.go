package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
)

var (
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
	ErrReadOnlyUnit         = errors.New("memory: write attempted in read-only unit")
)

// Factory hands out units over one Store. Committed outbox records go to Outbox.
type Factory struct {
	Store  *Store
	Outbox *Outbox
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	u := &Unit{store: f.Store, outbox: f.Outbox, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return u, nil
	}
	if err := f.Store.acquire(ctx); err != nil {
		return nil, err
	}
	u.staged = newStaged()
	return u, nil
}

// Unit is a uow.UnitOfWork over Store. Reads see the unit's own staged
// writes first, then committed state.
type Unit struct {
	store    *Store
	outbox   *Outbox
	readOnly bool

	mu      sync.Mutex
	staged  *staged
	records []appoutbox.EventRecord
	done    bool
}

func (u *Unit) Listings() domainlistings.Repository {
	return &listingRepo{u: u}
}

func (u *Unit) Orders() domainorders.Repository {
	return &orderRepo{u: u}
}

func (u *Unit) Carts() domaincart.Repository {
	return &cartRepo{u: u}
}

func (u *Unit) Notifications() domainnotifications.Repository {
	return &notificationRepo{u: u}
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	defer u.store.release()
	u.store.apply(u.staged)
	if u.outbox != nil && len(u.records) > 0 {
		u.outbox.enqueue(u.records)
	}
	u.staged = nil
	u.records = nil
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	u.staged = nil
	u.records = nil
	if !u.readOnly {
		u.store.release()
	}
	return nil
}

// write runs fn against the staged set.
func (u *Unit) write(fn func(st *staged) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	return fn(u.staged)
}

// read runs fn with the staged set (nil for read-only units) under the store read lock.
func (u *Unit) read(fn func(st *staged)) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	fn(u.staged)
	return nil
}

func (u *Unit) stageRecord(rec appoutbox.EventRecord) error {
	return u.write(func(*staged) error {
		u.records = append(u.records, rec)
		return nil
	})
}

var _ uow.UoWFactory = Factory{}
