package orders

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	handlersupport "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/support"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/fees"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/period"
)

const (
	checkAvailabilityKey = "orders.check_availability"
	listMyOrdersKey      = "orders.list_mine"
	listOwnerOrdersKey   = "orders.list_owner"
	listAllOrdersKey     = "orders.list_admin"
	feeBreakdownKey      = "orders.fee_breakdown"

	defaultPageSize = 20
	maxPageSize     = 100
)

type CheckAvailabilityQuery struct {
	ListingID string    `validate:"required"`
	Start     time.Time `validate:"required"`
	End       time.Time `validate:"required"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type ListMyOrdersQuery struct {
	UserID string `validate:"required"`
}

func (q ListMyOrdersQuery) Key() string     { return listMyOrdersKey }
func (q ListMyOrdersQuery) ActorID() string { return q.UserID }

type ListOwnerOrdersQuery struct {
	UserID string `validate:"required"`
	Status string `validate:"omitempty,oneof=pending approved rejected completed cancelled"`
}

func (q ListOwnerOrdersQuery) Key() string     { return listOwnerOrdersKey }
func (q ListOwnerOrdersQuery) ActorID() string { return q.UserID }

// ListAllOrdersQuery is the administrative order listing.
type ListAllOrdersQuery struct {
	UserID    string `validate:"required"`
	IsAdmin   bool
	Status    string `validate:"omitempty,oneof=pending approved rejected completed cancelled"`
	FilterBy  string
	ListingID string
	Page      int `validate:"min=0"`
	Limit     int `validate:"min=0"`
}

func (q ListAllOrdersQuery) Key() string        { return listAllOrdersKey }
func (q ListAllOrdersQuery) ActorID() string    { return q.UserID }
func (q ListAllOrdersQuery) ActorIsAdmin() bool { return q.IsAdmin }
func (q ListAllOrdersQuery) AdminOnly()         {}

type FeeBreakdownQuery struct {
	Subtotal int64
}

func (q FeeBreakdownQuery) Key() string { return feeBreakdownKey }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *QueryHandler) CheckAvailability(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	p, err := period.New(q.Start, q.End)
	if err != nil {
		return dto.Availability{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	active, err := unit.Orders().ActiveOverlapping(execCtx, domainlistings.ListingID(q.ListingID), p)
	if err != nil {
		return dto.Availability{}, err
	}
	if len(active) > 0 {
		return dto.Availability{IsAvailable: false, Message: "Item is not available for the selected dates"}, nil
	}
	return dto.Availability{IsAvailable: true, Message: "Item is available for the selected dates"}, nil
}

func (h *QueryHandler) ListMine(ctx context.Context, q ListMyOrdersQuery) (dto.OrderCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OrderCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Orders().ListByRenter(execCtx, q.UserID)
	if err != nil {
		return dto.OrderCollection{}, err
	}
	return h.collection(execCtx, unit, items), nil
}

func (h *QueryHandler) ListOwner(ctx context.Context, q ListOwnerOrdersQuery) (dto.OrderCollection, error) {
	var status domainorders.Status
	if q.Status != "" {
		s, err := domainorders.ParseStatus(q.Status)
		if err != nil {
			return dto.OrderCollection{}, err
		}
		status = s
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OrderCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Orders().ListByOwner(execCtx, domainlistings.OwnerID(q.UserID), status)
	if err != nil {
		return dto.OrderCollection{}, err
	}
	return h.collection(execCtx, unit, items), nil
}

func (h *QueryHandler) ListAll(ctx context.Context, q ListAllOrdersQuery) (dto.OrderCollection, error) {
	filter := domainorders.ListFilter{
		UserID:    q.FilterBy,
		ListingID: domainlistings.ListingID(q.ListingID),
		Limit:     q.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	filter.Offset = (page - 1) * filter.Limit
	if q.Status != "" {
		s, err := domainorders.ParseStatus(q.Status)
		if err != nil {
			return dto.OrderCollection{}, err
		}
		filter.Status = s
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OrderCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	res, err := unit.Orders().List(execCtx, filter)
	if err != nil {
		return dto.OrderCollection{}, err
	}
	out := h.collection(execCtx, unit, res.Items)
	out.Total = res.Total
	out.Limit = filter.Limit
	out.Page = page
	return out, nil
}

func (h *QueryHandler) FeeBreakdown(_ context.Context, q FeeBreakdownQuery) (dto.FeeBreakdown, error) {
	b, err := fees.Quote(q.Subtotal)
	if err != nil {
		return dto.FeeBreakdown{}, err
	}
	return dto.MapFeesWithRates(b), nil
}

// collection maps orders newest first and attaches the current listing state where it still exists.
func (h *QueryHandler) collection(ctx context.Context, unit uow.UnitOfWork, items []*domainorders.Order) dto.OrderCollection {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	cache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	out := make([]dto.Order, 0, len(items))
	for _, o := range items {
		o.Normalize()
		view := dto.MapOrder(o)
		listing, ok := cache[o.ListingID]
		if !ok {
			l, err := unit.Listings().ByID(ctx, o.ListingID)
			if err != nil && h.Logger != nil {
				h.Logger.DebugContext(ctx, "listing snapshot missing for order", "order_id", o.ID, "listing_id", o.ListingID, "error", err)
			}
			listing = l
			cache[o.ListingID] = l
		}
		if listing != nil {
			view.Listing.Images = append([]string(nil), listing.Images...)
			view.Listing.Status = string(listing.Status)
		}
		out = append(out, view)
	}
	return dto.OrderCollection{Items: out, Total: len(out)}
}

var (
	_ queries.Handler[CheckAvailabilityQuery, dto.Availability] = queries.HandlerFunc[CheckAvailabilityQuery, dto.Availability]((&QueryHandler{}).CheckAvailability)
	_ queries.Handler[FeeBreakdownQuery, dto.FeeBreakdown]      = queries.HandlerFunc[FeeBreakdownQuery, dto.FeeBreakdown]((&QueryHandler{}).FeeBreakdown)
)
