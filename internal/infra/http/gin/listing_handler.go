package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	listingapp "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
)

type ListingHandler struct {
	Queries queries.Bus
}

func (h ListingHandler) Search(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	res, err := queries.Ask[listingapp.SearchListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, listingapp.SearchListingsQuery{
		Query:         c.Query("q"),
		Category:      c.Query("category"),
		OwnerID:       c.Query("owner"),
		OnlyAvailable: queryBool(c, "onlyAvailable"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h ListingHandler) Get(c *gin.Context) {
	res, err := queries.Ask[listingapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, listingapp.GetListingQuery{ID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

var _ ListingHTTP = ListingHandler{}
