package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	orderapp "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/orders"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
)

// AdminHandler serves the administrative order routes. Owners may also use
// the batch endpoint for orders on their own listings.
type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h AdminHandler) ListOrders(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}
	res, err := queries.Ask[orderapp.ListAllOrdersQuery, dto.OrderCollection](c.Request.Context(), h.Queries, orderapp.ListAllOrdersQuery{
		UserID:    user.ID,
		IsAdmin:   user.IsAdmin(),
		Status:    c.Query("status"),
		FilterBy:  c.Query("userId"),
		ListingID: c.Query("listingId"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h AdminHandler) UpdateStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if !user.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required", "kind": "forbidden"})
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}
	order, err := commands.Dispatch[orderapp.UpdateOrderStatusCommand, *dto.Order](c.Request.Context(), h.Commands, orderapp.UpdateOrderStatusCommand{
		UserID:  user.ID,
		IsAdmin: true,
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

type batchRequest struct {
	OrderIDs []string `json:"orderIds"`
	Status   string   `json:"status"`
	Note     string   `json:"note"`
}

func (h AdminHandler) BatchUpdate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Order IDs array is required")
		return
	}
	res, err := commands.Dispatch[orderapp.BatchUpdateOrdersCommand, *dto.BatchResult](c.Request.Context(), h.Commands, orderapp.BatchUpdateOrdersCommand{
		UserID:   user.ID,
		IsAdmin:  user.IsAdmin(),
		OrderIDs: req.OrderIDs,
		Status:   req.Status,
		Note:     req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

var _ AdminHTTP = AdminHandler{}
