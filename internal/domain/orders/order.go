package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/fees"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/events"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/period"
)

var (
	ErrNotFound         = errs.NotFound("Order not found")
	ErrRenterRequired   = errs.Validation("orders: renter is required")
	ErrListingRequired  = errs.Validation("orders: listing is required")
	ErrRentalDays       = errs.Validation("orders: rental days must be positive")
	ErrInvalidStatus    = errs.Validation("Invalid status")
	ErrConcurrentUpdate = errs.Conflict("Order was modified concurrently")
)

type OrderID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Order struct {
	ID            OrderID
	Renter        string
	ListingID     listings.ListingID
	Owner         listings.OwnerID
	ListingName   string
	Period        period.Period
	RentalDays    int
	Fees          fees.Breakdown
	Status        Status
	PaymentStatus PaymentStatus
	IsActive      bool
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id OrderID) (*Order, error)
	Insert(ctx context.Context, order *Order) error
	Save(ctx context.Context, order *Order) error
	ActiveOverlapping(ctx context.Context, listingID listings.ListingID, p period.Period) ([]*Order, error)
	ListByRenter(ctx context.Context, renter string) ([]*Order, error)
	ListByOwner(ctx context.Context, owner listings.OwnerID, status Status) ([]*Order, error)
	List(ctx context.Context, filter ListFilter) (Page, error)
}

type ListFilter struct {
	Status    Status
	UserID    string
	ListingID listings.ListingID
	Limit     int
	Offset    int
}

type Page struct {
	Items []*Order
	Total int
}

// Matches applies the filter predicates, ignoring paging.
func (f ListFilter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.UserID != "" && o.Renter != f.UserID && string(o.Owner) != f.UserID {
		return false
	}
	if f.ListingID != "" && o.ListingID != f.ListingID {
		return false
	}
	return true
}

type CreateParams struct {
	ID            OrderID
	Renter        string
	Listing       *listings.Listing
	Period        period.Period
	RentalDays    int
	Fees          fees.Breakdown
	PaymentStatus PaymentStatus
	Now           time.Time
}

// New creates a pending, active order. Owner and listing name are copied from
// the listing once and never re-read.
func New(params CreateParams) (*Order, error) {
	if strings.TrimSpace(params.Renter) == "" {
		return nil, ErrRenterRequired
	}
	if params.Listing == nil || params.Listing.ID == "" {
		return nil, ErrListingRequired
	}
	if err := params.Period.Validate(); err != nil {
		return nil, err
	}
	if params.RentalDays <= 0 {
		return nil, ErrRentalDays
	}
	if params.Fees.Subtotal < 0 || params.Fees.TotalPrice < fees.MinTotalPrice {
		return nil, fees.ErrInvalidSubtotal
	}
	payment := params.PaymentStatus
	if payment == "" {
		payment = PaymentPending
	}
	now := params.Now.UTC()
	o := &Order{
		ID:            params.ID,
		Renter:        params.Renter,
		ListingID:     params.Listing.ID,
		Owner:         params.Listing.Owner,
		ListingName:   params.Listing.Name,
		Period:        params.Period,
		RentalDays:    params.RentalDays,
		Fees:          params.Fees,
		Status:        StatusPending,
		PaymentStatus: payment,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.Record(OrderRequested{
		OrderID:     o.ID,
		ListingID:   o.ListingID,
		ListingName: o.ListingName,
		Renter:      o.Renter,
		Owner:       o.Owner,
		Start:       o.Period.Start,
		End:         o.Period.End,
		TotalPrice:  o.Fees.TotalPrice,
		Notice: Notice{
			Recipient: string(o.Owner),
			Sender:    o.Renter,
			Type:      NoticeOrderRequest,
			Message:   fmt.Sprintf("New rental request for %s", o.ListingName),
		},
		At: now,
	})
	return o, nil
}

// Overlaps reports whether the order still holds the listing during p.
func (o *Order) Overlaps(p period.Period) bool {
	return o.IsActive && o.Period.Overlaps(p)
}

// RolesOf returns the roles the actor holds on this order.
func (o *Order) RolesOf(actor Actor) RoleSet {
	var roles RoleSet
	if actor.UserID != "" && actor.UserID == o.Renter {
		roles |= RoleSet(RoleRenter)
	}
	if actor.UserID != "" && actor.UserID == string(o.Owner) {
		roles |= RoleSet(RoleOwner)
	}
	if actor.Admin {
		roles |= RoleSet(RoleAdmin)
	}
	return roles
}

// Transition moves the order to target on behalf of actor and returns the
// table entry that was applied so callers can mirror its effect on the listing.
func (o *Order) Transition(actor Actor, target Status, note string, now time.Time) (Transition, error) {
	roles := o.RolesOf(actor)
	if roles == 0 {
		return Transition{}, errs.Forbidden("Not authorized to update this order")
	}
	customerOnly := roles == RoleSet(RoleRenter)
	if customerOnly && target != StatusCancelled {
		return Transition{}, errs.Forbidden("Customers can only cancel their orders")
	}
	if o.Status.Terminal() {
		return Transition{}, errs.Ef(errs.KindConflict, "Order is already %s", o.Status)
	}
	t, ok := Lookup(o.Status, target)
	if !ok {
		return Transition{}, errs.Ef(errs.KindConflict, "Cannot change order status from %s to %s", o.Status, target)
	}
	if !t.AllowsAny(roles) {
		return Transition{}, errs.Forbidden("Not authorized to perform this status change")
	}

	from := o.Status
	o.Status = target
	o.Note = strings.TrimSpace(note)
	if t.Deactivates {
		o.IsActive = false
	}
	o.UpdatedAt = now.UTC()
	o.Record(OrderStatusChanged{
		OrderID:     o.ID,
		ListingID:   o.ListingID,
		ListingName: o.ListingName,
		From:        from,
		To:          target,
		ActorID:     actor.UserID,
		Note:        o.Note,
		Notice:      o.statusNotice(actor, customerOnly),
		At:          o.UpdatedAt,
	})
	return t, nil
}

func (o *Order) statusNotice(actor Actor, byCustomer bool) Notice {
	if byCustomer {
		return Notice{
			Recipient: string(o.Owner),
			Sender:    actor.UserID,
			Type:      NoticeTypeFor(o.Status),
			Message:   fmt.Sprintf("Order for %s has been cancelled by the customer", o.ListingName),
		}
	}
	msg := fmt.Sprintf("Your order for %s has been %s", o.ListingName, o.Status)
	if o.Note != "" {
		msg += ": " + o.Note
	}
	return Notice{
		Recipient: o.Renter,
		Sender:    actor.UserID,
		Type:      NoticeTypeFor(o.Status),
		Message:   msg,
	}
}

// Normalize back-fills fee fields missing from records written before fees were stored.
func (o *Order) Normalize() {
	o.Fees = fees.Backfill(o.Fees)
	if o.RentalDays <= 0 {
		o.RentalDays = o.Period.Days()
	}
}

// Clone copies the order without pending events.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.EventRecorder = events.EventRecorder{}
	return &c
}
