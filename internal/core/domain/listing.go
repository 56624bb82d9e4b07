package domain

import "time"

// ListingStatus is the publication state of a listing. Transitions are
// deliberately unconstrained: any status may move to any other.
type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
	ListingSold     ListingStatus = "sold"
	ListingRented   ListingStatus = "rented"
)

// Listing is the marketplace item being advertised: a property, a car, a
// piece of furniture. Category-specific attributes live either in the typed
// fields (bedrooms, brand, and so on) or in CustomData keyed by the owning
// category's field definitions.
type Listing struct {
	ID           string         `json:"id" bson:"_id,omitempty"`
	OwnerID      string         `json:"owner_id" bson:"owner_id"`
	Title        string         `json:"title" bson:"title"`
	Description  string         `json:"description" bson:"description"`
	Price        float64        `json:"price" bson:"price"`
	Category     string         `json:"category" bson:"category"`
	City         string         `json:"city" bson:"city"`
	Location     string         `json:"location" bson:"location"`
	Neighborhood string         `json:"neighborhood,omitempty" bson:"neighborhood,omitempty"`
	PropertyType string         `json:"property_type,omitempty" bson:"property_type,omitempty"`
	ListingType  string         `json:"listing_type,omitempty" bson:"listing_type,omitempty"`
	Brand        string         `json:"brand,omitempty" bson:"brand,omitempty"`
	Model        string         `json:"model,omitempty" bson:"model,omitempty"`
	Bedrooms     int            `json:"bedrooms,omitempty" bson:"bedrooms,omitempty"`
	Bathrooms    int            `json:"bathrooms,omitempty" bson:"bathrooms,omitempty"`
	AreaSqm      float64        `json:"area_sqm,omitempty" bson:"area_sqm,omitempty"`
	Images       []string       `json:"images,omitempty" bson:"images,omitempty"`
	VideoURL     string         `json:"video_url,omitempty" bson:"video_url,omitempty"`
	Status       ListingStatus  `json:"status" bson:"status"`
	CustomData   map[string]any `json:"custom_data,omitempty" bson:"custom_data,omitempty"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
}

// Favorite is a (principal, listing) bookmark pair, unique per pair.
type Favorite struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	PrincipalID string    `json:"user_id" bson:"user_id"`
	ListingID   string    `json:"listing_id" bson:"listing_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
