package memory

import (
	"context"
	"sync"

	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
)

// Store holds committed state. Write units take the writer slot for their
// whole lifetime, so at most one unit stages changes at a time.
type Store struct {
	mu            sync.RWMutex
	listings      map[domainlistings.ListingID]*domainlistings.Listing
	orders        map[domainorders.OrderID]*domainorders.Order
	carts         map[domaincart.CartID]*domaincart.Cart
	notifications map[domainnotifications.NotificationID]*domainnotifications.Notification

	writer chan struct{}
}

func NewStore() *Store {
	return &Store{
		listings:      make(map[domainlistings.ListingID]*domainlistings.Listing),
		orders:        make(map[domainorders.OrderID]*domainorders.Order),
		carts:         make(map[domaincart.CartID]*domaincart.Cart),
		notifications: make(map[domainnotifications.NotificationID]*domainnotifications.Notification),
		writer:        make(chan struct{}, 1),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.writer
}

// apply publishes a unit's staged writes.
func (s *Store) apply(st *staged) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range st.listings {
		s.listings[id] = l
	}
	for id, o := range st.orders {
		s.orders[id] = o
	}
	for id, c := range st.carts {
		s.carts[id] = c
	}
	for id, n := range st.notifications {
		s.notifications[id] = n
	}
	for id := range st.deletedNotifications {
		delete(s.notifications, id)
	}
}

// staged is the private write set of one unit.
type staged struct {
	listings             map[domainlistings.ListingID]*domainlistings.Listing
	orders               map[domainorders.OrderID]*domainorders.Order
	carts                map[domaincart.CartID]*domaincart.Cart
	notifications        map[domainnotifications.NotificationID]*domainnotifications.Notification
	deletedNotifications map[domainnotifications.NotificationID]struct{}
}

func newStaged() *staged {
	return &staged{
		listings:             make(map[domainlistings.ListingID]*domainlistings.Listing),
		orders:               make(map[domainorders.OrderID]*domainorders.Order),
		carts:                make(map[domaincart.CartID]*domaincart.Cart),
		notifications:        make(map[domainnotifications.NotificationID]*domainnotifications.Notification),
		deletedNotifications: make(map[domainnotifications.NotificationID]struct{}),
	}
}
