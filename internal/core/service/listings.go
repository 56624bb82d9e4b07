package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// ListingService owns listing reads and writes plus the persisted search
// filter state.
type ListingService struct {
	listings   ports.ListingRepository
	categories ports.CategoryRepository
	kv         ports.KVStore
	prefs      *PreferencesService
	log        zerolog.Logger
}

func NewListingService(
	listings ports.ListingRepository,
	categories ports.CategoryRepository,
	kv ports.KVStore,
	prefs *PreferencesService,
	log zerolog.Logger,
) *ListingService {
	return &ListingService{listings: listings, categories: categories, kv: kv, prefs: prefs, log: log}
}

func filterKey(principalID string) string {
	return "searchfilters:" + principalID
}

// Search fetches the active listing set and applies the filter client-side.
// When the principal has auto-save enabled, the filter state is persisted
// for the next session.
func (s *ListingService) Search(ctx context.Context, principalID string, f domain.Filter) ([]*domain.Listing, error) {
	all, err := s.listings.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}

	if principalID != "" && s.prefs.Get(ctx, principalID).AutoSaveSearch {
		if err := s.kv.Set(ctx, filterKey(principalID), f); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist search filters")
		}
	}

	return f.Apply(all), nil
}

// RestoreFilter loads the principal's saved filter state and applies URL
// query overrides on top. Overrides replace only the fields they name;
// everything else keeps its persisted value.
func (s *ListingService) RestoreFilter(ctx context.Context, principalID string, overrides map[string]string) domain.Filter {
	var f domain.Filter
	if principalID != "" {
		if _, err := s.kv.Get(ctx, filterKey(principalID), &f); err != nil {
			s.log.Warn().Err(err).Msg("failed to restore search filters")
			f = domain.Filter{}
		}
	}

	if v, ok := overrides["search"]; ok && v != "" {
		f.Search = v
	}
	if v, ok := overrides["category"]; ok && v != "" {
		f.Category = v
	}
	if v, ok := overrides["location"]; ok && v != "" {
		f.Location = v
	}
	return f
}

// Get retrieves one listing by ID.
func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.listings.FindByID(ctx, id)
}

// ListByOwner returns every listing the principal has posted, any status.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return s.listings.ListByOwner(ctx, ownerID)
}

// Create validates the listing's custom payload against its category's
// field definitions and inserts it as active.
func (s *ListingService) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	if err := s.validateCustomData(ctx, l); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	l.ID = uuid.NewString()
	l.Status = domain.ListingActive
	l.CreatedAt = now
	l.UpdatedAt = now

	if err := s.listings.Insert(ctx, l); err != nil {
		s.log.Error().Err(err).Str("owner_id", l.OwnerID).Msg("failed to create listing")
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info().Str("listing_id", l.ID).Str("category", l.Category).Msg("listing created")
	return l, nil
}

// Update rewrites a listing. Status transitions are unconstrained; any
// status may be set from any other.
func (s *ListingService) Update(ctx context.Context, l *domain.Listing) error {
	if err := s.validateCustomData(ctx, l); err != nil {
		return err
	}

	l.UpdatedAt = time.Now().UTC()
	if err := s.listings.Update(ctx, l); err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// Delete removes a listing.
func (s *ListingService) Delete(ctx context.Context, id string) error {
	if err := s.listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	s.log.Info().Str("listing_id", id).Msg("listing deleted")
	return nil
}

// validateCustomData enforces the category's custom-field schema at the
// write path. A listing in a category without definitions passes untouched;
// a missing category is a hard error so orphaned listings cannot be created.
func (s *ListingService) validateCustomData(ctx context.Context, l *domain.Listing) error {
	if l.Category == "" {
		return nil
	}
	cat, err := s.categories.FindBySlug(ctx, l.Category)
	if err != nil {
		return fmt.Errorf("validate listing category: %w", err)
	}
	return cat.ValidateCustomData(l.CustomData)
}
