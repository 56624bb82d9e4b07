package domain

import "strings"

// Filter is a composable listing predicate. Zero-value or "all" fields
// impose no constraint; all active constraints are ANDed together.
//
// Filter doubles as the persisted search state: it is saved to the
// key-value store on every change (when the auto-save preference is on) and
// restored at the next session start.
type Filter struct {
	Search       string   `json:"search,omitempty"`
	Category     string   `json:"category,omitempty"`
	City         string   `json:"city,omitempty"`
	Location     string   `json:"location,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	ListingType  string   `json:"listing_type,omitempty"`
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
}

// matchAll is the wildcard value the UI sends for dropdown filters.
const matchAll = "all"

func constrained(v string) bool {
	return v != "" && v != matchAll
}

// Matches reports whether a single listing satisfies every active
// constraint of the filter.
func (f Filter) Matches(l *Listing) bool {
	if f.Search != "" && !matchesTerm(l, f.Search) {
		return false
	}
	if f.Location != "" && !matchesLocation(l, f.Location) {
		return false
	}
	if constrained(f.Category) && l.Category != f.Category {
		return false
	}
	if constrained(f.City) && l.City != f.City {
		return false
	}
	if constrained(f.PropertyType) && l.PropertyType != f.PropertyType {
		return false
	}
	if constrained(f.ListingType) && l.ListingType != f.ListingType {
		return false
	}
	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	return true
}

// Apply returns the ordered subset of listings matching the filter. The
// input order is preserved.
func (f Filter) Apply(listings []*Listing) []*Listing {
	out := make([]*Listing, 0, len(listings))
	for _, l := range listings {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

// matchesTerm is a case-insensitive substring search: the listing matches
// if ANY of the searchable fields contains the term.
func matchesTerm(l *Listing, term string) bool {
	t := strings.ToLower(term)
	for _, field := range []string{l.Title, l.Description, l.Location, l.Neighborhood, l.Brand, l.Model} {
		if field != "" && strings.Contains(strings.ToLower(field), t) {
			return true
		}
	}
	return false
}

// matchesLocation matches the location URL parameter against the listing's
// geographic fields.
func matchesLocation(l *Listing, loc string) bool {
	t := strings.ToLower(loc)
	for _, field := range []string{l.Location, l.City, l.Neighborhood} {
		if field != "" && strings.Contains(strings.ToLower(field), t) {
			return true
		}
	}
	return false
}
