package dto

import (
	"time"

	domainorders "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/orders"
)

type OrderListing struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images,omitempty"`
	Status string   `json:"status,omitempty"`
}

type Order struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user"`
	OwnerID       string       `json:"owner"`
	Listing       OrderListing `json:"listing"`
	StartDate     time.Time    `json:"startDate"`
	EndDate       time.Time    `json:"endDate"`
	RentalDays    int          `json:"rentalDays"`
	Fees          FeeBreakdown `json:"fees"`
	Status        string       `json:"status"`
	PaymentStatus string       `json:"paymentStatus"`
	IsActive      bool         `json:"isActive"`
	Note          string       `json:"note,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type OrderCollection struct {
	Items []Order `json:"orders"`
	Total int     `json:"total"`
	Limit int     `json:"limit,omitempty"`
	Page  int     `json:"page,omitempty"`
}

func MapOrder(o *domainorders.Order) Order {
	return Order{
		ID:      string(o.ID),
		UserID:  o.Renter,
		OwnerID: string(o.Owner),
		Listing: OrderListing{
			ID:   string(o.ListingID),
			Name: o.ListingName,
		},
		StartDate:     o.Period.Start,
		EndDate:       o.Period.End,
		RentalDays:    o.RentalDays,
		Fees:          MapFees(o.Fees),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		IsActive:      o.IsActive,
		Note:          o.Note,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func MapOrders(items []*domainorders.Order) []Order {
	out := make([]Order, 0, len(items))
	for _, o := range items {
		out = append(out, MapOrder(o))
	}
	return out
}

// ItemFailure reports why one cart item was not turned into an order.
type ItemFailure struct {
	ListingID string `json:"listingId"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

type CheckoutResult struct {
	Orders   []Order       `json:"orders"`
	Failures []ItemFailure `json:"failures,omitempty"`
}

type BatchItemResult struct {
	OrderID string `json:"orderId"`
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

type BatchResult struct {
	Results   []BatchItemResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type Availability struct {
	IsAvailable bool   `json:"isAvailable"`
	Message     string `json:"message"`
}
