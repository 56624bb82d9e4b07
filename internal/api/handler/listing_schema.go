package handler

import (
	"time"

	"github.com/souqly/marketplace-system/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type listingRequest struct {
	Title        string         `json:"title"         validate:"required"`
	Description  string         `json:"description"`
	Price        float64        `json:"price"         validate:"gte=0"`
	Category     string         `json:"category"      validate:"required"`
	City         string         `json:"city"`
	Location     string         `json:"location"`
	Neighborhood string         `json:"neighborhood"`
	PropertyType string         `json:"property_type"`
	ListingType  string         `json:"listing_type"`
	Brand        string         `json:"brand"`
	Model        string         `json:"model"`
	Bedrooms     int            `json:"bedrooms"      validate:"gte=0"`
	Bathrooms    int            `json:"bathrooms"     validate:"gte=0"`
	AreaSqm      float64        `json:"area_sqm"      validate:"gte=0"`
	Images       []string       `json:"images"`
	VideoURL     string         `json:"video_url"`
	Status       string         `json:"status"`
	CustomData   map[string]any `json:"custom_data"`
}

// listingResponse is the transport representation of a listing. It is
// intentionally separate from the domain type so the JSON contract is not
// coupled to internal changes.
type listingResponse struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Price        float64        `json:"price"`
	Category     string         `json:"category"`
	City         string         `json:"city"`
	Location     string         `json:"location"`
	Neighborhood string         `json:"neighborhood,omitempty"`
	PropertyType string         `json:"property_type,omitempty"`
	ListingType  string         `json:"listing_type,omitempty"`
	Brand        string         `json:"brand,omitempty"`
	Model        string         `json:"model,omitempty"`
	Bedrooms     int            `json:"bedrooms,omitempty"`
	Bathrooms    int            `json:"bathrooms,omitempty"`
	AreaSqm      float64        `json:"area_sqm,omitempty"`
	Images       []string       `json:"images,omitempty"`
	VideoURL     string         `json:"video_url,omitempty"`
	Status       string         `json:"status"`
	CustomData   map[string]any `json:"custom_data,omitempty"`
	Favorited    bool           `json:"favorited"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type listListingsResponse struct {
	Data   []listingResponse `json:"data"`
	Total  int               `json:"total"`
	Filter domain.Filter     `json:"filter"`
}

func toListingResponse(l *domain.Listing, favorited bool) listingResponse {
	return listingResponse{
		ID:           l.ID,
		OwnerID:      l.OwnerID,
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		Category:     l.Category,
		City:         l.City,
		Location:     l.Location,
		Neighborhood: l.Neighborhood,
		PropertyType: l.PropertyType,
		ListingType:  l.ListingType,
		Brand:        l.Brand,
		Model:        l.Model,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		AreaSqm:      l.AreaSqm,
		Images:       l.Images,
		VideoURL:     l.VideoURL,
		Status:       string(l.Status),
		CustomData:   l.CustomData,
		Favorited:    favorited,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func (r listingRequest) toDomain() *domain.Listing {
	return &domain.Listing{
		Title:        r.Title,
		Description:  r.Description,
		Price:        r.Price,
		Category:     r.Category,
		City:         r.City,
		Location:     r.Location,
		Neighborhood: r.Neighborhood,
		PropertyType: r.PropertyType,
		ListingType:  r.ListingType,
		Brand:        r.Brand,
		Model:        r.Model,
		Bedrooms:     r.Bedrooms,
		Bathrooms:    r.Bathrooms,
		AreaSqm:      r.AreaSqm,
		Images:       r.Images,
		VideoURL:     r.VideoURL,
		Status:       domain.ListingStatus(r.Status),
		CustomData:   r.CustomData,
	}
}
