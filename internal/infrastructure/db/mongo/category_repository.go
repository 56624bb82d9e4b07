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

const collectionCategories = "categories"

type CategoryRepository struct {
	col *mongo.Collection
	pub ports.ChangePublisher
	log zerolog.Logger
}

func NewCategoryRepository(db *mongo.Database, pub ports.ChangePublisher, log zerolog.Logger) *CategoryRepository {
	return &CategoryRepository{col: db.Collection(collectionCategories), pub: pub, log: log}
}

// Insert stores a new category. A duplicate slug racing past the service's
// pre-check is caught by the unique index and reported as ErrDuplicateSlug.
func (r *CategoryRepository) Insert(ctx context.Context, c *domain.Category) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateSlug
		}
		return err
	}
	publishChange(ctx, r.pub, r.log, ports.TableCategories, ports.EventInsert, "", c)
	return nil
}

// FindByID retrieves a category by ID.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindBySlug retrieves a category by its unique slug.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *CategoryRepository) findOne(ctx context.Context, filter bson.M) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Category
	err := r.col.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListAll returns every category ordered by title.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var cats []*domain.Category
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Update replaces the category document.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCategoryNotFound
	}
	publishChange(ctx, r.pub, r.log, ports.TableCategories, ports.EventUpdate, "", c)
	return nil
}

// Delete removes a category document.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrCategoryNotFound
	}
	publishChange(ctx, r.pub, r.log, ports.TableCategories, ports.EventDelete, "", bson.M{"_id": id})
	return nil
}

// EnsureIndexes creates the unique slug index. This is the transactional
// guarantee behind the service layer's best-effort pre-check.
func (r *CategoryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
