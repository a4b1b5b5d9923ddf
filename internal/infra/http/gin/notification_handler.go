package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	notificationapp "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/notifications"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
)

type NotificationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h NotificationHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	res, err := queries.Ask[notificationapp.ListQuery, dto.NotificationCollection](c.Request.Context(), h.Queries, notificationapp.ListQuery{UserID: user.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h NotificationHandler) UnreadCount(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	res, err := queries.Ask[notificationapp.UnreadCountQuery, notificationapp.UnreadCount](c.Request.Context(), h.Queries, notificationapp.UnreadCountQuery{UserID: user.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	n, err := commands.Dispatch[notificationapp.MarkReadCommand, *dto.Notification](c.Request.Context(), h.Commands, notificationapp.MarkReadCommand{
		UserID:         user.ID,
		NotificationID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	res, err := commands.Dispatch[notificationapp.MarkAllReadCommand, *notificationapp.MarkAllResult](c.Request.Context(), h.Commands, notificationapp.MarkAllReadCommand{UserID: user.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h NotificationHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	_, err := commands.Dispatch[notificationapp.DeleteCommand, struct{}](c.Request.Context(), h.Commands, notificationapp.DeleteCommand{
		UserID:         user.ID,
		NotificationID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

var _ NotificationHTTP = NotificationHandler{}
