package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	carthandlers "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/cart"
	handlersupport "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/support"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/middleware"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/fees"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/period"
)

const checkoutKey = "orders.checkout"

var (
	ErrCartEmpty        = errs.Validation("Cart is empty")
	ErrCartForbidden    = errs.Forbidden("Not authorized to access this cart")
	ErrNoOrdersCreated  = errs.Validation("Failed to create any orders")
	ErrInvalidDateRange = errs.Validation("Start date must be before end date")
)

// CheckoutCommand turns the caller's cart into orders, one per item.
type CheckoutCommand struct {
	UserID     string `validate:"required"`
	CartID     string `validate:"required"`
	StartDate  *time.Time
	EndDate    *time.Time
	RentalDays int   `validate:"min=0"`
	TotalPrice int64 `validate:"min=0"`

	IdempotencyKeyV string
}

func (c CheckoutCommand) Key() string            { return checkoutKey }
func (c CheckoutCommand) ActorID() string        { return c.UserID }
func (c CheckoutCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c CheckoutCommand) ResultPrototype() any   { return &dto.CheckoutResult{} }
func (c CheckoutCommand) Unmanaged()             {}

type CheckoutHandler struct {
	UoWFactory uow.UoWFactory
	// Bus must be the fully wrapped command bus so each placement gets its own unit of work.
	Bus    commands.Bus
	Clock  func() time.Time
	Logger *slog.Logger
}

type checkoutLine struct {
	item    domaincart.Item
	listing *domainlistings.Listing
	days    int
	weight  int64
}

func (h *CheckoutHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*dto.CheckoutResult, error) {
	if cmd.StartDate != nil && cmd.EndDate != nil && cmd.StartDate.After(*cmd.EndDate) {
		return nil, ErrInvalidDateRange
	}
	lines, err := h.loadLines(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var weightSum int64
	for _, line := range lines {
		weightSum += line.weight
	}

	now := h.now()
	result := &dto.CheckoutResult{Orders: []dto.Order{}}
	for _, line := range lines {
		if line.listing == nil {
			result.Failures = append(result.Failures, failure(string(line.item.ListingID), ErrInvalidListing))
			continue
		}
		p, err := h.periodFor(cmd, line.days, now)
		if err != nil {
			result.Failures = append(result.Failures, failure(string(line.item.ListingID), err))
			continue
		}
		var subtotal int64
		if cmd.TotalPrice > 0 {
			subtotal = fees.Share(line.weight, weightSum, cmd.TotalPrice)
		}
		order, err := commands.Dispatch[PlaceOrderCommand, *dto.Order](ctx, h.Bus, PlaceOrderCommand{
			RenterID:   cmd.UserID,
			ListingID:  string(line.item.ListingID),
			Start:      p.Start,
			End:        p.End,
			RentalDays: line.days,
			Subtotal:   subtotal,
		})
		if err != nil {
			h.logWarn(ctx, "checkout item failed", "listing_id", line.item.ListingID, "error", err)
			result.Failures = append(result.Failures, failure(string(line.item.ListingID), err))
			continue
		}
		result.Orders = append(result.Orders, *order)
	}

	if len(result.Orders) == 0 {
		return nil, noOrdersError(result.Failures)
	}

	if _, err := commands.Dispatch[carthandlers.ClearCartCommand, *dto.Cart](ctx, h.Bus, carthandlers.ClearCartCommand{
		UserID: cmd.UserID,
		CartID: cmd.CartID,
	}); err != nil {
		h.logWarn(ctx, "cart clear after checkout failed", "cart_id", cmd.CartID, "error", err)
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "checkout completed", "user_id", cmd.UserID, "orders", len(result.Orders), "failures", len(result.Failures))
	}
	return result, nil
}

func (h *CheckoutHandler) loadLines(ctx context.Context, cmd CheckoutCommand) ([]checkoutLine, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	c, err := unit.Carts().ByID(execCtx, domaincart.CartID(cmd.CartID))
	if err != nil {
		return nil, err
	}
	if !c.BelongsTo(cmd.UserID) {
		return nil, ErrCartForbidden
	}
	if c.IsEmpty() {
		return nil, ErrCartEmpty
	}
	lines := make([]checkoutLine, 0, len(c.Items))
	for _, item := range c.Items {
		line := checkoutLine{item: item, days: itemDays(item.RentalDays, cmd.RentalDays)}
		listing, err := unit.Listings().ByID(execCtx, item.ListingID)
		switch {
		case err == nil:
			line.listing = listing
			line.weight = listing.RentalRate * int64(line.days)
		case errs.KindOf(err) != errs.KindNotFound:
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// periodFor applies the request dates, defaulting to [now, now+days] when absent.
func (h *CheckoutHandler) periodFor(cmd CheckoutCommand, days int, now time.Time) (period.Period, error) {
	start := now
	if cmd.StartDate != nil {
		start = *cmd.StartDate
	}
	if cmd.EndDate == nil {
		return period.ForDays(start, days), nil
	}
	p, err := period.New(start, *cmd.EndDate)
	if err != nil {
		return period.Period{}, ErrInvalidDateRange
	}
	return p, nil
}

func itemDays(itemDays, requested int) int {
	switch {
	case itemDays > 0:
		return itemDays
	case requested > 0:
		return requested
	default:
		return 1
	}
}

func failure(listingID string, err error) dto.ItemFailure {
	return dto.ItemFailure{
		ListingID: listingID,
		Kind:      string(errs.KindOf(err)),
		Message:   errs.Message(err),
	}
}

// noOrdersError surfaces a conflict when every item lost a race, and a
// validation error otherwise.
func noOrdersError(failures []dto.ItemFailure) error {
	if len(failures) == 0 {
		return ErrNoOrdersCreated
	}
	for _, f := range failures {
		if f.Kind != string(errs.KindConflict) {
			return ErrNoOrdersCreated
		}
	}
	return errs.Conflict(failures[0].Message)
}

func (h *CheckoutHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *CheckoutHandler) logWarn(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.WarnContext(ctx, msg, args...)
	}
}

var _ commands.Handler[CheckoutCommand, *dto.CheckoutResult] = (*CheckoutHandler)(nil)
var _ middleware.IdempotentCommand = CheckoutCommand{}
var _ middleware.UnmanagedCommand = CheckoutCommand{}
