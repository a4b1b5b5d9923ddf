package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	handlersupport "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/support"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/middleware"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/policies"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/fees"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/period"
)

const placeOrderKey = "orders.place"

var ErrInvalidListing = errs.NotFound("Invalid listing in cart")

// PlaceOrderCommand creates one order for one listing. Checkout dispatches it
// once per cart item so every item commits or fails on its own.
type PlaceOrderCommand struct {
	RenterID   string    `validate:"required"`
	ListingID  string    `validate:"required"`
	Start      time.Time `validate:"required"`
	End        time.Time `validate:"required"`
	RentalDays int       `validate:"min=1"`
	// Subtotal overrides rate × days when the caller already priced the item.
	Subtotal int64 `validate:"min=0"`
}

func (c PlaceOrderCommand) Key() string     { return placeOrderKey }
func (c PlaceOrderCommand) ActorID() string { return c.RenterID }

type PlaceOrderHandler struct {
	Payments policies.PaymentsPort
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Clock    func() time.Time
	Logger   *slog.Logger
}

func (h *PlaceOrderHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*dto.Order, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	p, err := period.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return nil, ErrInvalidListing
		}
		return nil, err
	}
	if listing.Status == domainlistings.StatusUnavailable {
		return nil, errs.Ef(errs.KindConflict, "Item %s is not available for rent", listing.Name)
	}
	if listing.OwnedBy(cmd.RenterID) {
		return nil, errs.Forbidden("You cannot rent your own listing")
	}

	overlapping, err := unit.Orders().ActiveOverlapping(ctx, listing.ID, p)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, errs.Ef(errs.KindConflict, "Item %s is already rented for the selected period", listing.Name)
	}

	subtotal := cmd.Subtotal
	if subtotal <= 0 {
		subtotal = listing.RentalRate * int64(cmd.RentalDays)
	}
	breakdown := fees.ForOrder(subtotal)

	orderID := domainorders.OrderID(uuid.NewString())
	payment := domainorders.PaymentPending
	if h.Payments != nil {
		payment, err = h.Payments.Charge(ctx, orderID, cmd.RenterID, breakdown.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("charge order %s: %w", orderID, err)
		}
	}

	now := h.now()
	order, err := domainorders.New(domainorders.CreateParams{
		ID:            orderID,
		Renter:        cmd.RenterID,
		Listing:       listing,
		Period:        p,
		RentalDays:    cmd.RentalDays,
		Fees:          breakdown,
		PaymentStatus: payment,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Orders().Insert(ctx, order); err != nil {
		return nil, err
	}

	listing.Reserve(p.End, now)
	if err := unit.Listings().Save(ctx, listing); err != nil {
		if errs.KindOf(err) == errs.KindConflict {
			return nil, errs.Ef(errs.KindConflict, "Item %s is already rented for the selected period", listing.Name)
		}
		return nil, err
	}

	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, order.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "order placed", "order_id", order.ID, "listing_id", listing.ID, "renter", cmd.RenterID, "total", breakdown.TotalPrice)
	}
	out := dto.MapOrder(order)
	out.Listing.Images = append([]string(nil), listing.Images...)
	out.Listing.Status = string(listing.Status)
	return &out, nil
}

func (h *PlaceOrderHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[PlaceOrderCommand, *dto.Order] = (*PlaceOrderHandler)(nil)
var _ middleware.Authenticated = PlaceOrderCommand{}
