package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

var (
	ErrNotFound          = errs.NotFound("Notification not found")
	ErrRecipientRequired = errs.Validation("notifications: recipient is required")
	ErrUnknownType       = errs.Validation("notifications: unknown type")
)

type NotificationID string

type Type string

const (
	TypeOrderRequest   Type = "order_request"
	TypeOrderApproved  Type = "order_approved"
	TypeOrderRejected  Type = "order_rejected"
	TypeOrderCompleted Type = "order_completed"
	TypeOrderCancelled Type = "order_cancelled"
)

func ParseType(raw string) (Type, error) {
	switch t := Type(raw); t {
	case TypeOrderRequest, TypeOrderApproved, TypeOrderRejected, TypeOrderCompleted, TypeOrderCancelled:
		return t, nil
	default:
		return "", ErrUnknownType
	}
}

type Notification struct {
	ID        NotificationID
	Recipient string
	Sender    string
	Type      Type
	OrderID   string
	Message   string
	Read      bool
	CreatedAt time.Time
}

type Repository interface {
	Save(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipient string) ([]*Notification, error)
	CountUnread(ctx context.Context, recipient string) (int, error)
	MarkRead(ctx context.Context, recipient string, id NotificationID) (*Notification, error)
	MarkAllRead(ctx context.Context, recipient string) (int, error)
	Delete(ctx context.Context, recipient string, id NotificationID) error
}

type CreateParams struct {
	ID        NotificationID
	Recipient string
	Sender    string
	Type      string
	OrderID   string
	Message   string
	Now       time.Time
}

func New(params CreateParams) (*Notification, error) {
	if strings.TrimSpace(params.Recipient) == "" {
		return nil, ErrRecipientRequired
	}
	typ, err := ParseType(params.Type)
	if err != nil {
		return nil, err
	}
	return &Notification{
		ID:        params.ID,
		Recipient: params.Recipient,
		Sender:    params.Sender,
		Type:      typ,
		OrderID:   params.OrderID,
		Message:   params.Message,
		CreatedAt: params.Now.UTC(),
	}, nil
}
