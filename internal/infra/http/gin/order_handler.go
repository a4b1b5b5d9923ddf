package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	orderapp "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
)

type OrderHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type checkAvailabilityRequest struct {
	ListingID string `json:"listingId" binding:"required"`
	StartDate date   `json:"startDate"`
	EndDate   date   `json:"endDate"`
}

func (h OrderHandler) CheckAvailability(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req checkAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Listing ID, start date, and end date are required")
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		badRequest(c, "Listing ID, start date, and end date are required")
		return
	}
	res, err := queries.Ask[orderapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, orderapp.CheckAvailabilityQuery{
		ListingID: req.ListingID,
		Start:     req.StartDate.Time,
		End:       req.EndDate.Time,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type checkoutRequest struct {
	CartID     string `json:"cartId" binding:"required"`
	StartDate  *date  `json:"startDate"`
	EndDate    *date  `json:"endDate"`
	RentalDays int    `json:"rentalDays"`
	TotalPrice int64  `json:"totalPrice"`
}

func (h OrderHandler) Checkout(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Cart ID is required")
		return
	}
	cmd := orderapp.CheckoutCommand{
		UserID:          user.ID,
		CartID:          req.CartID,
		StartDate:       req.StartDate.ptr(),
		EndDate:         req.EndDate.ptr(),
		RentalDays:      req.RentalDays,
		TotalPrice:      req.TotalPrice,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	res, err := commands.Dispatch[orderapp.CheckoutCommand, *dto.CheckoutResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Payment processed successfully",
		"orders":   res.Orders,
		"failures": res.Failures,
	})
}

type feeBreakdownRequest struct {
	Subtotal int64 `json:"subtotal"`
}

func (h OrderHandler) FeeBreakdown(c *gin.Context) {
	var req feeBreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Valid subtotal is required")
		return
	}
	res, err := queries.Ask[orderapp.FeeBreakdownQuery, dto.FeeBreakdown](c.Request.Context(), h.Queries, orderapp.FeeBreakdownQuery{Subtotal: req.Subtotal})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h OrderHandler) MyOrders(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	res, err := queries.Ask[orderapp.ListMyOrdersQuery, dto.OrderCollection](c.Request.Context(), h.Queries, orderapp.ListMyOrdersQuery{UserID: user.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h OrderHandler) OwnerOrders(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	res, err := queries.Ask[orderapp.ListOwnerOrdersQuery, dto.OrderCollection](c.Request.Context(), h.Queries, orderapp.ListOwnerOrdersQuery{
		UserID: user.ID,
		Status: c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h OrderHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	order, err := commands.Dispatch[orderapp.CancelOrderCommand, *dto.Order](c.Request.Context(), h.Commands, orderapp.CancelOrderCommand{
		UserID:  user.ID,
		OrderID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func (h OrderHandler) UpdateStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}
	order, err := commands.Dispatch[orderapp.UpdateOrderStatusCommand, *dto.Order](c.Request.Context(), h.Commands, orderapp.UpdateOrderStatusCommand{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin(),
		OrderID: c.Param("id"),
		Status:  req.Status,
		Note:    req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated to " + order.Status, "order": order})
}

var _ OrderHTTP = OrderHandler{}
