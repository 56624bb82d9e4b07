package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

const collectionListings = "listings"

type ListingRepository struct {
	col *mongo.Collection
	pub ports.ChangePublisher
	log zerolog.Logger
}

func NewListingRepository(db *mongo.Database, pub ports.ChangePublisher, log zerolog.Logger) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings), pub: pub, log: log}
}

// Insert stores a new listing document.
func (r *ListingRepository) Insert(ctx context.Context, l *domain.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, l); err != nil {
		return err
	}
	publishChange(ctx, r.pub, r.log, ports.TableListings, ports.EventInsert, l.OwnerID, l)
	return nil
}

// FindByID retrieves a listing by its ID.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.Listing
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListActive returns all active listings, newest first.
func (r *ListingRepository) ListActive(ctx context.Context) ([]*domain.Listing, error) {
	return r.list(ctx, bson.M{"status": domain.ListingActive})
}

// ListByOwner returns the owner's listings regardless of status.
func (r *ListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID})
}

func (r *ListingRepository) list(ctx context.Context, filter bson.M) ([]*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var listings []*domain.Listing
	if err := cur.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Update replaces the listing document.
func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": l.ID}, l)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	publishChange(ctx, r.pub, r.log, ports.TableListings, ports.EventUpdate, l.OwnerID, l)
	return nil
}

// Delete removes a listing document.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	publishChange(ctx, r.pub, r.log, ports.TableListings, ports.EventDelete, "", bson.M{"_id": id})
	return nil
}

// EnsureIndexes creates the query indexes for the listings collection.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
