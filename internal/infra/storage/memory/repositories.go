package memory

import (
	"context"
	"sort"

	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/period"
)

var (
	errOrderExists = errs.Conflict("order already exists")
	errCartVersion = errs.Conflict("cart was modified concurrently")
)

// Repositories copy values on the way in and out, so callers never share
// pointers with the store.

type listingRepo struct{ u *Unit }

func (r *listingRepo) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var out *domainlistings.Listing
	if err := r.u.read(func(st *staged) {
		out = r.lookup(st, id)
	}); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domainlistings.ErrNotFound
	}
	return out.Clone(), nil
}

func (r *listingRepo) lookup(st *staged, id domainlistings.ListingID) *domainlistings.Listing {
	if st != nil {
		if l, ok := st.listings[id]; ok {
			return l
		}
	}
	return r.u.store.listings[id]
}

// Save is an optimistic write: the caller's Version must match the current one.
func (r *listingRepo) Save(ctx context.Context, listing *domainlistings.Listing) error {
	return r.u.write(func(st *staged) error {
		current := r.lookup(st, listing.ID)
		var version int64
		if current != nil {
			version = current.Version
		}
		if version != listing.Version {
			return domainlistings.ErrConcurrentWrite
		}
		listing.Version++
		st.listings[listing.ID] = listing.Clone()
		return nil
	})
}

func (r *listingRepo) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	var matches []*domainlistings.Listing
	err := r.u.read(func(st *staged) {
		seen := make(map[domainlistings.ListingID]struct{})
		if st != nil {
			for id, l := range st.listings {
				seen[id] = struct{}{}
				if opts.Matches(l) {
					matches = append(matches, l.Clone())
				}
			}
		}
		for id, l := range r.u.store.listings {
			if _, ok := seen[id]; ok {
				continue
			}
			if opts.Matches(l) {
				matches = append(matches, l.Clone())
			}
		}
	})
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	total := len(matches)
	return domainlistings.SearchResult{Items: paginate(matches, opts.Offset, opts.Limit), Total: total}, nil
}

type orderRepo struct{ u *Unit }

func (r *orderRepo) lookup(st *staged, id domainorders.OrderID) *domainorders.Order {
	if st != nil {
		if o, ok := st.orders[id]; ok {
			return o
		}
	}
	return r.u.store.orders[id]
}

func (r *orderRepo) ByID(ctx context.Context, id domainorders.OrderID) (*domainorders.Order, error) {
	var out *domainorders.Order
	if err := r.u.read(func(st *staged) {
		out = r.lookup(st, id)
	}); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domainorders.ErrNotFound
	}
	return out.Clone(), nil
}

func (r *orderRepo) Insert(ctx context.Context, order *domainorders.Order) error {
	return r.u.write(func(st *staged) error {
		if r.lookup(st, order.ID) != nil {
			return errOrderExists
		}
		order.Version = 1
		st.orders[order.ID] = order.Clone()
		return nil
	})
}

func (r *orderRepo) Save(ctx context.Context, order *domainorders.Order) error {
	return r.u.write(func(st *staged) error {
		current := r.lookup(st, order.ID)
		if current == nil {
			return domainorders.ErrNotFound
		}
		if current.Version != order.Version {
			return domainorders.ErrConcurrentUpdate
		}
		order.Version++
		st.orders[order.ID] = order.Clone()
		return nil
	})
}

// each visits the unit's view of every order.
func (r *orderRepo) each(fn func(o *domainorders.Order)) error {
	return r.u.read(func(st *staged) {
		seen := make(map[domainorders.OrderID]struct{})
		if st != nil {
			for id, o := range st.orders {
				seen[id] = struct{}{}
				fn(o)
			}
		}
		for id, o := range r.u.store.orders {
			if _, ok := seen[id]; ok {
				continue
			}
			fn(o)
		}
	})
}

func (r *orderRepo) collect(pred func(o *domainorders.Order) bool) ([]*domainorders.Order, error) {
	var out []*domainorders.Order
	err := r.each(func(o *domainorders.Order) {
		if pred(o) {
			out = append(out, o.Clone())
		}
	})
	if err != nil {
		return nil, err
	}
	sortOrders(out)
	return out, nil
}

func (r *orderRepo) ActiveOverlapping(ctx context.Context, listingID domainlistings.ListingID, p period.Period) ([]*domainorders.Order, error) {
	return r.collect(func(o *domainorders.Order) bool {
		return o.ListingID == listingID && o.Overlaps(p)
	})
}

func (r *orderRepo) ListByRenter(ctx context.Context, renter string) ([]*domainorders.Order, error) {
	return r.collect(func(o *domainorders.Order) bool {
		return o.Renter == renter
	})
}

func (r *orderRepo) ListByOwner(ctx context.Context, owner domainlistings.OwnerID, status domainorders.Status) ([]*domainorders.Order, error) {
	return r.collect(func(o *domainorders.Order) bool {
		return o.Owner == owner && (status == "" || o.Status == status)
	})
}

func (r *orderRepo) List(ctx context.Context, filter domainorders.ListFilter) (domainorders.Page, error) {
	items, err := r.collect(filter.Matches)
	if err != nil {
		return domainorders.Page{}, err
	}
	return domainorders.Page{Items: paginate(items, filter.Offset, filter.Limit), Total: len(items)}, nil
}

func sortOrders(items []*domainorders.Order) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

type cartRepo struct{ u *Unit }

func (r *cartRepo) lookup(st *staged, id domaincart.CartID) *domaincart.Cart {
	if st != nil {
		if c, ok := st.carts[id]; ok {
			return c
		}
	}
	return r.u.store.carts[id]
}

func (r *cartRepo) ByID(ctx context.Context, id domaincart.CartID) (*domaincart.Cart, error) {
	var out *domaincart.Cart
	if err := r.u.read(func(st *staged) {
		out = r.lookup(st, id)
	}); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domaincart.ErrNotFound
	}
	return out.Clone(), nil
}

func (r *cartRepo) ByUser(ctx context.Context, userID string) (*domaincart.Cart, error) {
	var out *domaincart.Cart
	err := r.u.read(func(st *staged) {
		if st != nil {
			for _, c := range st.carts {
				if c.UserID == userID {
					out = c
					return
				}
			}
		}
		for id, c := range r.u.store.carts {
			if c.UserID != userID {
				continue
			}
			if st != nil {
				if _, shadowed := st.carts[id]; shadowed {
					continue
				}
			}
			out = c
			return
		}
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domaincart.ErrNotFound
	}
	return out.Clone(), nil
}

func (r *cartRepo) Save(ctx context.Context, c *domaincart.Cart) error {
	return r.u.write(func(st *staged) error {
		var version int64
		if current := r.lookup(st, c.ID); current != nil {
			version = current.Version
		}
		if version != c.Version {
			return errCartVersion
		}
		c.Version++
		st.carts[c.ID] = c.Clone()
		return nil
	})
}

type notificationRepo struct{ u *Unit }

func (r *notificationRepo) lookup(st *staged, id domainnotifications.NotificationID) *domainnotifications.Notification {
	if st != nil {
		if _, gone := st.deletedNotifications[id]; gone {
			return nil
		}
		if n, ok := st.notifications[id]; ok {
			return n
		}
	}
	return r.u.store.notifications[id]
}

// Save inserts once; a replay of an existing id keeps the stored copy.
func (r *notificationRepo) Save(ctx context.Context, n *domainnotifications.Notification) error {
	return r.u.write(func(st *staged) error {
		if r.lookup(st, n.ID) != nil {
			return nil
		}
		cp := *n
		delete(st.deletedNotifications, n.ID)
		st.notifications[n.ID] = &cp
		return nil
	})
}

func (r *notificationRepo) forRecipient(recipient string) ([]*domainnotifications.Notification, error) {
	var out []*domainnotifications.Notification
	err := r.u.read(func(st *staged) {
		seen := make(map[domainnotifications.NotificationID]struct{})
		if st != nil {
			for id := range st.deletedNotifications {
				seen[id] = struct{}{}
			}
			for id, n := range st.notifications {
				seen[id] = struct{}{}
				if n.Recipient == recipient {
					cp := *n
					out = append(out, &cp)
				}
			}
		}
		for id, n := range r.u.store.notifications {
			if _, ok := seen[id]; ok || n.Recipient != recipient {
				continue
			}
			cp := *n
			out = append(out, &cp)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipient string) ([]*domainnotifications.Notification, error) {
	return r.forRecipient(recipient)
}

func (r *notificationRepo) CountUnread(ctx context.Context, recipient string) (int, error) {
	items, err := r.forRecipient(recipient)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, recipient string, id domainnotifications.NotificationID) (*domainnotifications.Notification, error) {
	var out *domainnotifications.Notification
	err := r.u.write(func(st *staged) error {
		current := r.lookup(st, id)
		if current == nil || current.Recipient != recipient {
			return domainnotifications.ErrNotFound
		}
		cp := *current
		cp.Read = true
		st.notifications[id] = &cp
		res := cp
		out = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	items, err := r.forRecipient(recipient)
	if err != nil {
		return 0, err
	}
	updated := 0
	err = r.u.write(func(st *staged) error {
		for _, n := range items {
			if n.Read {
				continue
			}
			n.Read = true
			st.notifications[n.ID] = n
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (r *notificationRepo) Delete(ctx context.Context, recipient string, id domainnotifications.NotificationID) error {
	return r.u.write(func(st *staged) error {
		current := r.lookup(st, id)
		if current == nil || current.Recipient != recipient {
			return domainnotifications.ErrNotFound
		}
		delete(st.notifications, id)
		st.deletedNotifications[id] = struct{}{}
		return nil
	})
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
