package listings

import (
	"context"
	"strings"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

var (
	ErrNotFound        = errs.NotFound("listing not found")
	ErrNameRequired    = errs.Validation("listings: name is required")
	ErrOwnerRequired   = errs.Validation("listings: owner is required")
	ErrRentalRate      = errs.Validation("listings: rental rate must be positive")
	ErrInvalidStatus   = errs.Validation("listings: unknown status")
	ErrConcurrentWrite = errs.Conflict("listing was modified concurrently")
)

type ListingID string
type OwnerID string

type Status string

const (
	StatusAvailable   Status = "available"
	StatusReserved    Status = "reserved"
	StatusRented      Status = "rented"
	StatusUnavailable Status = "unavailable"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusAvailable, StatusReserved, StatusRented, StatusUnavailable:
		return s, nil
	case "":
		return StatusAvailable, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Listing is a rentable item. Status and ReservedUntil are the availability
// state and only change through Reserve, MarkRented and Release.
type Listing struct {
	ID            ListingID
	Owner         OwnerID
	Name          string
	Description   string
	Category      string
	RentalRate    int64
	Images        []string
	Status        Status
	ReservedUntil *time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID          ListingID
	Owner       OwnerID
	Name        string
	Description string
	Category    string
	RentalRate  int64
	Images      []string
	Status      Status
	Now         time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errs.Validation("listings: id is required")
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, ErrNameRequired
	}
	if params.RentalRate <= 0 {
		return nil, ErrRentalRate
	}
	status := params.Status
	if status == "" {
		status = StatusAvailable
	}
	now := params.Now.UTC()
	return &Listing{
		ID:          params.ID,
		Owner:       params.Owner,
		Name:        strings.TrimSpace(params.Name),
		Description: strings.TrimSpace(params.Description),
		Category:    strings.TrimSpace(params.Category),
		RentalRate:  params.RentalRate,
		Images:      append([]string(nil), params.Images...),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (l *Listing) OwnedBy(userID string) bool {
	return l != nil && string(l.Owner) == userID
}

func (l *Listing) IsAvailable() bool {
	return l.Status == StatusAvailable
}

// IsTaken reports the cart-time soft check: reserved and rented listings cannot be added.
func (l *Listing) IsTaken() bool {
	return l.Status == StatusReserved || l.Status == StatusRented
}

// AvailableAfter is the reservation end shown to browsers while the listing is out.
func (l *Listing) AvailableAfter() *time.Time {
	if l.IsAvailable() || l.ReservedUntil == nil {
		return nil
	}
	t := *l.ReservedUntil
	return &t
}

func (l *Listing) Reserve(until time.Time, now time.Time) {
	u := until.UTC()
	l.Status = StatusReserved
	l.ReservedUntil = &u
	l.UpdatedAt = now.UTC()
}

func (l *Listing) MarkRented(now time.Time) {
	l.Status = StatusRented
	l.UpdatedAt = now.UTC()
}

func (l *Listing) Release(now time.Time) {
	l.Status = StatusAvailable
	l.ReservedUntil = nil
	l.UpdatedAt = now.UTC()
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.Images = append([]string(nil), l.Images...)
	if l.ReservedUntil != nil {
		t := *l.ReservedUntil
		c.ReservedUntil = &t
	}
	return &c
}
