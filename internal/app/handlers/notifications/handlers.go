package notifications

import (
	"context"
	"sort"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	handlersupport "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/handlers/support"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/queries"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
)

const (
	listKey        = "notifications.list"
	unreadCountKey = "notifications.unread_count"
	markReadKey    = "notifications.mark_read"
	markAllReadKey = "notifications.mark_all_read"
	deleteKey      = "notifications.delete"
)

type ListQuery struct {
	UserID string `validate:"required"`
}

func (q ListQuery) Key() string     { return listKey }
func (q ListQuery) ActorID() string { return q.UserID }

type UnreadCountQuery struct {
	UserID string `validate:"required"`
}

func (q UnreadCountQuery) Key() string     { return unreadCountKey }
func (q UnreadCountQuery) ActorID() string { return q.UserID }

type MarkReadCommand struct {
	UserID         string `validate:"required"`
	NotificationID string `validate:"required"`
}

func (c MarkReadCommand) Key() string     { return markReadKey }
func (c MarkReadCommand) ActorID() string { return c.UserID }

type MarkAllReadCommand struct {
	UserID string `validate:"required"`
}

func (c MarkAllReadCommand) Key() string     { return markAllReadKey }
func (c MarkAllReadCommand) ActorID() string { return c.UserID }

type DeleteCommand struct {
	UserID         string `validate:"required"`
	NotificationID string `validate:"required"`
}

func (c DeleteCommand) Key() string     { return deleteKey }
func (c DeleteCommand) ActorID() string { return c.UserID }

type UnreadCount struct {
	Count int `json:"count"`
}

type MarkAllResult struct {
	Updated int `json:"updated"`
}

type Handler struct {
	UoWFactory uow.UoWFactory
}

func (h *Handler) List(ctx context.Context, q ListQuery) (dto.NotificationCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Notifications().ListByRecipient(execCtx, q.UserID)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	out := dto.NotificationCollection{Items: make([]dto.Notification, 0, len(items))}
	for _, n := range items {
		if !n.Read {
			out.UnreadCount++
		}
		out.Items = append(out.Items, dto.MapNotification(n))
	}
	return out, nil
}

func (h *Handler) UnreadCount(ctx context.Context, q UnreadCountQuery) (UnreadCount, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return UnreadCount{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	n, err := unit.Notifications().CountUnread(execCtx, q.UserID)
	if err != nil {
		return UnreadCount{}, err
	}
	return UnreadCount{Count: n}, nil
}

func (h *Handler) MarkRead(ctx context.Context, cmd MarkReadCommand) (*dto.Notification, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	n, err := unit.Notifications().MarkRead(ctx, cmd.UserID, domainnotifications.NotificationID(cmd.NotificationID))
	if err != nil {
		return nil, err
	}
	out := dto.MapNotification(n)
	return &out, nil
}

func (h *Handler) MarkAllRead(ctx context.Context, cmd MarkAllReadCommand) (*MarkAllResult, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	n, err := unit.Notifications().MarkAllRead(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	return &MarkAllResult{Updated: n}, nil
}

func (h *Handler) Delete(ctx context.Context, cmd DeleteCommand) (struct{}, error) {
	unit, err := handlersupport.RequireUnit(ctx)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, unit.Notifications().Delete(ctx, cmd.UserID, domainnotifications.NotificationID(cmd.NotificationID))
}

var (
	_ queries.Handler[ListQuery, dto.NotificationCollection] = queries.HandlerFunc[ListQuery, dto.NotificationCollection]((&Handler{}).List)
	_ commands.Handler[DeleteCommand, struct{}]              = commands.HandlerFunc[DeleteCommand, struct{}]((&Handler{}).Delete)
)
