package listings

import (
	"context"
	"log/slog"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	handlersupport "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/support"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
)

const (
	getListingKey     = "listings.get"
	searchListingsKey = "listings.search"
)

type GetListingQuery struct {
	ID string `validate:"required"`
}

func (q GetListingQuery) Key() string { return getListingKey }

type SearchListingsQuery struct {
	Query         string
	Category      string
	OwnerID       string
	OnlyAvailable bool
	Limit         int `validate:"min=0"`
	Offset        int `validate:"min=0"`
}

func (q SearchListingsQuery) Key() string { return searchListingsKey }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *QueryHandler) Get(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ID))
	if err != nil {
		return dto.Listing{}, err
	}
	return dto.MapListing(listing), nil
}

func (h *QueryHandler) Search(ctx context.Context, q SearchListingsQuery) (dto.ListingCollection, error) {
	params := domainlistings.SearchParams{
		Query:         q.Query,
		Category:      q.Category,
		Owner:         domainlistings.OwnerID(q.OwnerID),
		OnlyAvailable: q.OnlyAvailable,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}.Normalized()

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	res, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	out := dto.ListingCollection{
		Items:  make([]dto.Listing, 0, len(res.Items)),
		Total:  res.Total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, l := range res.Items {
		out.Items = append(out.Items, dto.MapListing(l))
	}
	if h.Logger != nil {
		h.Logger.DebugContext(ctx, "listings searched", "query", params.Query, "category", params.Category, "total", res.Total)
	}
	return out, nil
}

var (
	_ queries.Handler[GetListingQuery, dto.Listing]               = queries.HandlerFunc[GetListingQuery, dto.Listing]((&QueryHandler{}).Get)
	_ queries.Handler[SearchListingsQuery, dto.ListingCollection] = queries.HandlerFunc[SearchListingsQuery, dto.ListingCollection]((&QueryHandler{}).Search)
)
