package dto

import (
	"time"

	domainnotifications "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/notifications"
)

type Notification struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Sender    string    `json:"sender,omitempty"`
	Type      string    `json:"type"`
	OrderID   string    `json:"order,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationCollection struct {
	Items       []Notification `json:"notifications"`
	UnreadCount int            `json:"unreadCount"`
}

func MapNotification(n *domainnotifications.Notification) Notification {
	return Notification{
		ID:        string(n.ID),
		Recipient: n.Recipient,
		Sender:    n.Sender,
		Type:      string(n.Type),
		OrderID:   n.OrderID,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
