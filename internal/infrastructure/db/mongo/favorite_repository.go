package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

const collectionFavorites = "favorites"

type FavoriteRepository struct {
	col *mongo.Collection
	pub ports.ChangePublisher
	log zerolog.Logger
}

func NewFavoriteRepository(db *mongo.Database, pub ports.ChangePublisher, log zerolog.Logger) *FavoriteRepository {
	return &FavoriteRepository{col: db.Collection(collectionFavorites), pub: pub, log: log}
}

// Insert stores the (principal, listing) pair. Re-inserting an existing
// pair is treated as success so duplicate toggles stay idempotent.
func (r *FavoriteRepository) Insert(ctx context.Context, principalID, listingID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fav := domain.Favorite{
		ID:          uuid.NewString(),
		PrincipalID: principalID,
		ListingID:   listingID,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, fav); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	publishChange(ctx, r.pub, r.log, ports.TableFavorites, ports.EventInsert, principalID, fav)
	return nil
}

// Delete removes the pair. Deleting an absent pair is success.
func (r *FavoriteRepository) Delete(ctx context.Context, principalID, listingID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": principalID, "listing_id": listingID})
	if err != nil {
		return err
	}
	if res.DeletedCount > 0 {
		publishChange(ctx, r.pub, r.log, ports.TableFavorites, ports.EventDelete, principalID,
			bson.M{"user_id": principalID, "listing_id": listingID})
	}
	return nil
}

// Exists reports remote membership for one pair.
func (r *FavoriteRepository) Exists(ctx context.Context, principalID, listingID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": principalID, "listing_id": listingID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListListingIDs returns the principal's favorited listing IDs.
func (r *FavoriteRepository) ListListingIDs(ctx context.Context, principalID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": principalID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var favs []domain.Favorite
	if err := cur.All(ctx, &favs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ListingID)
	}
	return ids, nil
}

// EnsureIndexes creates the unique pair index enforcing one favorite per
// (principal, listing).
func (r *FavoriteRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
