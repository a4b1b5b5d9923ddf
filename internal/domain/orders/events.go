package orders

import (
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
)

const (
	EventOrderRequested     = "order.requested"
	EventOrderStatusChanged = "order.status_changed"
)

const NoticeOrderRequest = "order_request"

// NoticeTypeFor names the notification sent when an order reaches status.
func NoticeTypeFor(status Status) string {
	return "order_" + string(status)
}

// Notice is the notification a lifecycle event asks to deliver.
type Notice struct {
	Recipient string `json:"recipient"`
	Sender    string `json:"sender"`
	Type      string `json:"type"`
	Message   string `json:"message"`
}

type OrderRequested struct {
	OrderID     OrderID            `json:"orderId"`
	ListingID   listings.ListingID `json:"listingId"`
	ListingName string             `json:"listingName"`
	Renter      string             `json:"renter"`
	Owner       listings.OwnerID   `json:"owner"`
	Start       time.Time          `json:"startDate"`
	End         time.Time          `json:"endDate"`
	TotalPrice  int64              `json:"totalPrice"`
	Notice      Notice             `json:"notice"`
	At          time.Time          `json:"at"`
}

func (e OrderRequested) EventName() string     { return EventOrderRequested }
func (e OrderRequested) AggregateID() string   { return string(e.OrderID) }
func (e OrderRequested) OccurredAt() time.Time { return e.At }

type OrderStatusChanged struct {
	OrderID     OrderID            `json:"orderId"`
	ListingID   listings.ListingID `json:"listingId"`
	ListingName string             `json:"listingName"`
	From        Status             `json:"from"`
	To          Status             `json:"to"`
	ActorID     string             `json:"actorId"`
	Note        string             `json:"note,omitempty"`
	Notice      Notice             `json:"notice"`
	At          time.Time          `json:"at"`
}

func (e OrderStatusChanged) EventName() string     { return EventOrderStatusChanged }
func (e OrderStatusChanged) AggregateID() string   { return string(e.OrderID) }
func (e OrderStatusChanged) OccurredAt() time.Time { return e.At }
