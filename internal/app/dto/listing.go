package dto

import (
	"time"

	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
)

type ListingBrief struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	RentalRate int64    `json:"rentalRate"`
	Images     []string `json:"images,omitempty"`
	Status     string   `json:"status"`
}

type Listing struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty"`
	RentalRate     int64      `json:"rentalRate"`
	Images         []string   `json:"images,omitempty"`
	Status         string     `json:"status"`
	IsAvailable    bool       `json:"isAvailable"`
	AvailableAfter *time.Time `json:"availableAfter,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type ListingCollection struct {
	Items  []Listing `json:"listings"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

func MapListingBrief(l *domainlistings.Listing) *ListingBrief {
	if l == nil {
		return nil
	}
	return &ListingBrief{
		ID:         string(l.ID),
		Name:       l.Name,
		RentalRate: l.RentalRate,
		Images:     append([]string(nil), l.Images...),
		Status:     string(l.Status),
	}
}

func MapListing(l *domainlistings.Listing) Listing {
	return Listing{
		ID:             string(l.ID),
		OwnerID:        string(l.Owner),
		Name:           l.Name,
		Description:    l.Description,
		Category:       l.Category,
		RentalRate:     l.RentalRate,
		Images:         append([]string(nil), l.Images...),
		Status:         string(l.Status),
		IsAvailable:    l.IsAvailable(),
		AvailableAfter: l.AvailableAfter(),
		UpdatedAt:      l.UpdatedAt,
	}
}
