package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// CategoryService manages the admin-owned category taxonomy.
type CategoryService struct {
	repo ports.CategoryRepository
	log  zerolog.Logger
}

func NewCategoryService(repo ports.CategoryRepository, log zerolog.Logger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

// List returns every category.
func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.ListAll(ctx)
}

// Get retrieves one category by slug.
func (s *CategoryService) Get(ctx context.Context, slug string) (*domain.Category, error) {
	return s.repo.FindBySlug(ctx, normalizeSlug(slug))
}

// Create inserts a category after a duplicate-slug pre-check. The check is
// defensive, not transactional; the repository's unique index closes the
// remaining race window and the resulting constraint violation maps to the
// same ErrDuplicateSlug.
func (s *CategoryService) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	if c.Title == "" || c.Slug == "" {
		return nil, domain.ErrInvalidCategory
	}
	c.Slug = normalizeSlug(c.Slug)

	existing, err := s.repo.FindBySlug(ctx, c.Slug)
	if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, fmt.Errorf("check category slug: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateSlug
	}

	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	normalizeFields(c)

	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.log.Info().Str("category_id", c.ID).Str("slug", c.Slug).Msg("category created")
	return c, nil
}

// Update rewrites a category. The slug is immutable here: renames would
// orphan listings keyed by the old slug.
func (s *CategoryService) Update(ctx context.Context, c *domain.Category) error {
	current, err := s.repo.FindByID(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	c.Slug = current.Slug
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	normalizeFields(c)

	if err := s.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.log.Info().Str("category_id", id).Msg("category deleted")
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// normalizeFields parses stored field-type strings through the closed
// enumeration so unknown types degrade to the explicit fallback.
func normalizeFields(c *domain.Category) {
	for i := range c.CustomFields {
		c.CustomFields[i].Type = domain.ParseFieldType(string(c.CustomFields[i].Type))
	}
}
