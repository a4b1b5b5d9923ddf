package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	handlersupport "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/support"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/middleware"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

const (
	updateStatusKey = "orders.update_status"
	cancelOrderKey  = "orders.cancel"
)

var ErrCancelOwnOrdersOnly = errs.Forbidden("You can only cancel your own orders")

type UpdateOrderStatusCommand struct {
	UserID  string `validate:"required"`
	IsAdmin bool
	OrderID string `validate:"required"`
	Status  string `validate:"required"`
	Note    string `validate:"max=500"`
	// OwnerScoped restricts non-admin callers to orders on their own listings.
	OwnerScoped bool
}

func (c UpdateOrderStatusCommand) Key() string     { return updateStatusKey }
func (c UpdateOrderStatusCommand) ActorID() string { return c.UserID }

// CancelOrderCommand is the renter's dedicated cancel operation.
type CancelOrderCommand struct {
	UserID  string `validate:"required"`
	OrderID string `validate:"required"`
}

func (c CancelOrderCommand) Key() string     { return cancelOrderKey }
func (c CancelOrderCommand) ActorID() string { return c.UserID }

// StatusHandler applies transitions from the order state table and mirrors
// their effect on the listing inside the caller's unit of work.
type StatusHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   func() time.Time
	Logger  *slog.Logger
}

func (h *StatusHandler) HandleUpdate(ctx context.Context, cmd UpdateOrderStatusCommand) (*dto.Order, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	order, err := unit.Orders().ByID(ctx, domainorders.OrderID(cmd.OrderID))
	if err != nil {
		return nil, err
	}
	actor := domainorders.Actor{UserID: cmd.UserID, Admin: cmd.IsAdmin}
	roles := order.RolesOf(actor)
	if roles == 0 || (cmd.OwnerScoped && !roles.Has(domainorders.RoleOwner) && !roles.Has(domainorders.RoleAdmin)) {
		return nil, errs.Forbidden("Not authorized to update this order")
	}
	target, err := domainorders.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.apply(ctx, unit, order, actor, target, cmd.Note)
}

func (h *StatusHandler) HandleCancel(ctx context.Context, cmd CancelOrderCommand) (*dto.Order, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	order, err := unit.Orders().ByID(ctx, domainorders.OrderID(cmd.OrderID))
	if err != nil {
		return nil, err
	}
	if order.Renter != cmd.UserID {
		return nil, ErrCancelOwnOrdersOnly
	}
	return h.apply(ctx, unit, order, domainorders.Actor{UserID: cmd.UserID}, domainorders.StatusCancelled, "")
}

func (h *StatusHandler) apply(ctx context.Context, unit uow.UnitOfWork, order *domainorders.Order, actor domainorders.Actor, target domainorders.Status, note string) (*dto.Order, error) {
	now := h.now()
	tr, err := order.Transition(actor, target, note, now)
	if err != nil {
		return nil, err
	}
	if err := unit.Orders().Save(ctx, order); err != nil {
		return nil, err
	}

	listingStatus := ""
	if tr.Effect != domainorders.EffectNone {
		listing, err := unit.Listings().ByID(ctx, order.ListingID)
		switch {
		case err == nil:
			switch tr.Effect {
			case domainorders.EffectMarkRented:
				listing.MarkRented(now)
			case domainorders.EffectRelease:
				listing.Release(now)
			}
			if err := unit.Listings().Save(ctx, listing); err != nil {
				return nil, err
			}
			listingStatus = string(listing.Status)
		case errs.KindOf(err) == errs.KindNotFound:
			if h.Logger != nil {
				h.Logger.WarnContext(ctx, "listing missing for order transition", "order_id", order.ID, "listing_id", order.ListingID)
			}
		default:
			return nil, err
		}
	}

	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, order.Drain()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "order status changed", "order_id", order.ID, "from", tr.From, "to", tr.To, "actor", actor.UserID)
	}
	out := dto.MapOrder(order)
	out.Listing.Status = listingStatus
	return &out, nil
}

func (h *StatusHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var (
	_ commands.Handler[UpdateOrderStatusCommand, *dto.Order] = commands.HandlerFunc[UpdateOrderStatusCommand, *dto.Order]((&StatusHandler{}).HandleUpdate)
	_ commands.Handler[CancelOrderCommand, *dto.Order]       = commands.HandlerFunc[CancelOrderCommand, *dto.Order]((&StatusHandler{}).HandleCancel)
	_ middleware.Authenticated                               = UpdateOrderStatusCommand{}
)
