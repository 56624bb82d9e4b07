package ports

import (
	"context"

	"github.com/souqly/marketplace-system/internal/core/domain"
)

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Insert(ctx context.Context, l *domain.Listing) error
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	// ListActive returns all active listings, newest first. Filtering is a
	// client-side concern (domain.Filter); the repository only scopes by status.
	ListActive(ctx context.Context) ([]*domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error)
	Update(ctx context.Context, l *domain.Listing) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines persistence operations for the category tree.
type CategoryRepository interface {
	Insert(ctx context.Context, c *domain.Category) error
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	// FindBySlug returns domain.ErrCategoryNotFound when no category carries
	// the slug. Used both for lookups and for the pre-insert duplicate check.
	FindBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListAll(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
}

// FavoriteRepository persists (principal, listing) bookmark pairs.
// Mutations publish a change event on the favorites table after commit.
type FavoriteRepository interface {
	Insert(ctx context.Context, principalID, listingID string) error
	Delete(ctx context.Context, principalID, listingID string) error
	Exists(ctx context.Context, principalID, listingID string) (bool, error)
	ListListingIDs(ctx context.Context, principalID string) ([]string, error)
}

// RoleRepository persists role assignments. Assign and Revoke publish a
// change event on the user_roles table after commit so watchers re-resolve.
type RoleRepository interface {
	ListByPrincipal(ctx context.Context, principalID string) ([]domain.RoleAssignment, error)
	Assign(ctx context.Context, principalID string, role domain.Role) error
	Revoke(ctx context.Context, principalID string, role domain.Role) error
}

// NotificationRepository persists per-principal notifications. Insert
// publishes an insert event carrying the full row so subscribers can render
// immediate feedback without a read round-trip.
type NotificationRepository interface {
	// List returns the principal's notifications newest first, capped at limit.
	List(ctx context.Context, principalID string, limit int) ([]domain.Notification, error)
	Insert(ctx context.Context, n *domain.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, principalID string) error
	Delete(ctx context.Context, id string) error
}

// UserRepository persists accounts and their device push tokens.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePushToken(ctx context.Context, userID, token string) error
	List(ctx context.Context) ([]*domain.User, error)
}
