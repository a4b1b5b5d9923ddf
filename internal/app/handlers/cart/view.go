package cart

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	handlersupport "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/support"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/fees"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

const getCartKey = "cart.get"

type GetCartQuery struct {
	UserID string `validate:"required"`
}

func (q GetCartQuery) Key() string     { return getCartKey }
func (q GetCartQuery) ActorID() string { return q.UserID }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *QueryHandler) Handle(ctx context.Context, q GetCartQuery) (dto.Cart, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Cart{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	c, err := unit.Carts().ByUser(execCtx, q.UserID)
	if err != nil {
		if errors.Is(err, domaincart.ErrNotFound) {
			return dto.Cart{UserID: q.UserID, Items: []dto.CartItem{}}, nil
		}
		return dto.Cart{}, err
	}
	return BuildView(execCtx, unit, c, h.Logger)
}

// BuildView prices the cart from live listing rates. Items whose listing is
// gone stay visible, flagged unavailable and excluded from the totals.
func BuildView(ctx context.Context, unit uow.UnitOfWork, c *domaincart.Cart, logger *slog.Logger) (dto.Cart, error) {
	view := dto.Cart{ID: string(c.ID), UserID: c.UserID, Items: make([]dto.CartItem, 0, len(c.Items))}
	var subtotal int64
	for _, item := range c.Items {
		line := dto.CartItem{
			ID:         string(item.ID),
			ListingID:  string(item.ListingID),
			RentalDays: item.RentalDays,
			AddedAt:    item.AddedAt,
		}
		listing, err := unit.Listings().ByID(ctx, item.ListingID)
		switch {
		case err == nil:
			line.Listing = dto.MapListingBrief(listing)
			line.Subtotal = listing.RentalRate * int64(domaincart.ClampDays(item.RentalDays))
			subtotal += line.Subtotal
		case errs.KindOf(err) == errs.KindNotFound:
			line.Unavailable = true
			if logger != nil {
				logger.DebugContext(ctx, "cart item listing missing", "cart_id", c.ID, "listing_id", item.ListingID)
			}
		default:
			return dto.Cart{}, err
		}
		view.Items = append(view.Items, line)
	}
	view.Summary = dto.MapFees(fees.Compute(subtotal))
	return view, nil
}

var _ queries.Handler[GetCartQuery, dto.Cart] = (*QueryHandler)(nil)
