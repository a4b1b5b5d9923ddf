package dto

import "time"

type CartItem struct {
	ID          string        `json:"id"`
	ListingID   string        `json:"listingId"`
	Listing     *ListingBrief `json:"listing,omitempty"`
	RentalDays  int           `json:"rentalDays"`
	Subtotal    int64         `json:"subtotal"`
	Unavailable bool          `json:"unavailable,omitempty"`
	AddedAt     time.Time     `json:"addedAt"`
}

type Cart struct {
	ID      string       `json:"id,omitempty"`
	UserID  string       `json:"user"`
	Items   []CartItem   `json:"items"`
	Summary FeeBreakdown `json:"summary"`
}

type AddToCartResult struct {
	Cart          Cart `json:"cart"`
	AlreadyInCart bool `json:"alreadyInCart"`
}
