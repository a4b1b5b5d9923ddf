package cart

import (
	"context"
	"strings"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

var (
	ErrNotFound     = errs.NotFound("Cart not found")
	ErrItemNotFound = errs.NotFound("Item not found in cart")
	ErrUserRequired = errs.Validation("cart: user is required")
)

type CartID string
type ItemID string

type Item struct {
	ID         ItemID
	ListingID  listings.ListingID
	RentalDays int
	AddedAt    time.Time
}

// Cart is a per-user staging area. There is at most one cart per user.
type Cart struct {
	ID        CartID
	UserID    string
	Items     []Item
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByUser(ctx context.Context, userID string) (*Cart, error)
	ByID(ctx context.Context, id CartID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
}

func New(id CartID, userID string, now time.Time) (*Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	now = now.UTC()
	return &Cart{ID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
}

func ClampDays(days int) int {
	if days < 1 {
		return 1
	}
	return days
}

func (c *Cart) BelongsTo(userID string) bool {
	return c != nil && c.UserID == userID
}

func (c *Cart) Find(listingID listings.ListingID) (Item, bool) {
	for _, it := range c.Items {
		if it.ListingID == listingID {
			return it, true
		}
	}
	return Item{}, false
}

// Add appends the listing unless it is already present. The second return is
// false when the cart already held it.
func (c *Cart) Add(id ItemID, listingID listings.ListingID, days int, now time.Time) (Item, bool) {
	if existing, ok := c.Find(listingID); ok {
		return existing, false
	}
	item := Item{ID: id, ListingID: listingID, RentalDays: ClampDays(days), AddedAt: now.UTC()}
	c.Items = append(c.Items, item)
	c.UpdatedAt = now.UTC()
	return item, true
}

func (c *Cart) Update(itemID ItemID, days int, now time.Time) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].RentalDays = ClampDays(days)
			c.UpdatedAt = now.UTC()
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) Remove(itemID ItemID, now time.Time) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = now.UTC()
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) Clear(now time.Time) {
	c.Items = nil
	c.UpdatedAt = now.UTC()
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append([]Item(nil), c.Items...)
	return &out
}
