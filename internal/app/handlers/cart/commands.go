package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	handlersupport "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/support"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domaincart "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/cart"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

const (
	addItemKey    = "cart.add_item"
	updateItemKey = "cart.update_item"
	removeItemKey = "cart.remove_item"
	clearCartKey  = "cart.clear"
)

var (
	ErrListingNotFound = errs.NotFound("Listing not found")
	ErrOwnListing      = errs.Forbidden("You cannot add your own items to the cart")
	ErrCartForbidden   = errs.Forbidden("Not authorized to access this cart")
)

type AddToCartCommand struct {
	UserID     string `validate:"required"`
	ListingID  string `validate:"required"`
	RentalDays int
}

func (c AddToCartCommand) Key() string     { return addItemKey }
func (c AddToCartCommand) ActorID() string { return c.UserID }

type UpdateCartItemCommand struct {
	UserID     string `validate:"required"`
	ItemID     string `validate:"required"`
	RentalDays int
}

func (c UpdateCartItemCommand) Key() string     { return updateItemKey }
func (c UpdateCartItemCommand) ActorID() string { return c.UserID }

type RemoveCartItemCommand struct {
	UserID string `validate:"required"`
	ItemID string `validate:"required"`
}

func (c RemoveCartItemCommand) Key() string     { return removeItemKey }
func (c RemoveCartItemCommand) ActorID() string { return c.UserID }

// ClearCartCommand empties the caller's cart. CartID, when set, must name that cart.
type ClearCartCommand struct {
	UserID string `validate:"required"`
	CartID string
}

func (c ClearCartCommand) Key() string     { return clearCartKey }
func (c ClearCartCommand) ActorID() string { return c.UserID }

type CommandHandler struct {
	Clock  func() time.Time
	Logger *slog.Logger
}

func (h *CommandHandler) Add(ctx context.Context, cmd AddToCartCommand) (*dto.AddToCartResult, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if listing.IsTaken() {
		return nil, errs.Ef(errs.KindConflict, "This item is currently %s. It's not available for rent at the moment.", listing.Status)
	}
	if listing.OwnedBy(cmd.UserID) {
		return nil, ErrOwnListing
	}

	now := h.now()
	c, err := h.cartFor(ctx, unit, cmd.UserID, now)
	if err != nil {
		return nil, err
	}
	if _, added := c.Add(domaincart.ItemID(uuid.NewString()), listing.ID, cmd.RentalDays, now); !added {
		view, err := BuildView(ctx, unit, c, h.Logger)
		if err != nil {
			return nil, err
		}
		return &dto.AddToCartResult{Cart: view, AlreadyInCart: true}, nil
	}
	if err := unit.Carts().Save(ctx, c); err != nil {
		return nil, err
	}
	view, err := BuildView(ctx, unit, c, h.Logger)
	if err != nil {
		return nil, err
	}
	return &dto.AddToCartResult{Cart: view}, nil
}

func (h *CommandHandler) Update(ctx context.Context, cmd UpdateCartItemCommand) (*dto.Cart, error) {
	return h.mutate(ctx, cmd.UserID, func(c *domaincart.Cart, now time.Time) error {
		return c.Update(domaincart.ItemID(cmd.ItemID), cmd.RentalDays, now)
	})
}

func (h *CommandHandler) Remove(ctx context.Context, cmd RemoveCartItemCommand) (*dto.Cart, error) {
	return h.mutate(ctx, cmd.UserID, func(c *domaincart.Cart, now time.Time) error {
		return c.Remove(domaincart.ItemID(cmd.ItemID), now)
	})
}

func (h *CommandHandler) Clear(ctx context.Context, cmd ClearCartCommand) (*dto.Cart, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	c, err := unit.Carts().ByUser(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, domaincart.ErrNotFound) {
			return &dto.Cart{UserID: cmd.UserID, Items: []dto.CartItem{}}, nil
		}
		return nil, err
	}
	if cmd.CartID != "" && string(c.ID) != cmd.CartID {
		return nil, ErrCartForbidden
	}
	c.Clear(h.now())
	if err := unit.Carts().Save(ctx, c); err != nil {
		return nil, err
	}
	view, err := BuildView(ctx, unit, c, h.Logger)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (h *CommandHandler) mutate(ctx context.Context, userID string, fn func(*domaincart.Cart, time.Time) error) (*dto.Cart, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	c, err := unit.Carts().ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Carts().Save(ctx, c); err != nil {
		return nil, err
	}
	view, err := BuildView(ctx, unit, c, h.Logger)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (h *CommandHandler) cartFor(ctx context.Context, unit uow.UnitOfWork, userID string, now time.Time) (*domaincart.Cart, error) {
	c, err := unit.Carts().ByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domaincart.ErrNotFound) {
		return nil, fmt.Errorf("load cart for %s: %w", userID, err)
	}
	return domaincart.New(domaincart.CartID(uuid.NewString()), userID, now)
}

func (h *CommandHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var (
	_ commands.Handler[AddToCartCommand, *dto.AddToCartResult] = commands.HandlerFunc[AddToCartCommand, *dto.AddToCartResult]((&CommandHandler{}).Add)
	_ commands.Handler[ClearCartCommand, *dto.Cart]            = commands.HandlerFunc[ClearCartCommand, *dto.Cart]((&CommandHandler{}).Clear)
)
