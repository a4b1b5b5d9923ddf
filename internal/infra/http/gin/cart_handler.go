package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	cartapp "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/cart"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
)

type CartHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h CartHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cart, err := queries.Ask[cartapp.GetCartQuery, dto.Cart](c.Request.Context(), h.Queries, cartapp.GetCartQuery{UserID: user.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type addToCartRequest struct {
	ListingID  string `json:"listingId" binding:"required"`
	RentalDays int    `json:"rentalDays"`
}

func (h CartHandler) Add(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Listing ID is required")
		return
	}
	res, err := commands.Dispatch[cartapp.AddToCartCommand, *dto.AddToCartResult](c.Request.Context(), h.Commands, cartapp.AddToCartCommand{
		UserID:     user.ID,
		ListingID:  req.ListingID,
		RentalDays: req.RentalDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.AlreadyInCart {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func (h CartHandler) Clear(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cart, err := commands.Dispatch[cartapp.ClearCartCommand, *dto.Cart](c.Request.Context(), h.Commands, cartapp.ClearCartCommand{UserID: user.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type updateCartItemRequest struct {
	RentalDays int `json:"rentalDays"`
}

func (h CartHandler) UpdateItem(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Rental days must be a number")
		return
	}
	cart, err := commands.Dispatch[cartapp.UpdateCartItemCommand, *dto.Cart](c.Request.Context(), h.Commands, cartapp.UpdateCartItemCommand{
		UserID:     user.ID,
		ItemID:     c.Param("itemId"),
		RentalDays: req.RentalDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h CartHandler) RemoveItem(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cart, err := commands.Dispatch[cartapp.RemoveCartItemCommand, *dto.Cart](c.Request.Context(), h.Commands, cartapp.RemoveCartItemCommand{
		UserID: user.ID,
		ItemID: c.Param("itemId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

var _ CartHTTP = CartHandler{}
