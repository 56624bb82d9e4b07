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

const collectionUserRoles = "user_roles"

type RoleRepository struct {
	col *mongo.Collection
	pub ports.ChangePublisher
	log zerolog.Logger
}

func NewRoleRepository(db *mongo.Database, pub ports.ChangePublisher, log zerolog.Logger) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionUserRoles), pub: pub, log: log}
}

// ListByPrincipal returns the principal's assignments in grant order.
// Stored role strings are parsed through the closed enumeration.
func (r *RoleRepository) ListByPrincipal(ctx context.Context, principalID string) ([]domain.RoleAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": principalID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var assignments []domain.RoleAssignment
	if err := cur.All(ctx, &assignments); err != nil {
		return nil, err
	}
	for i := range assignments {
		assignments[i].Role = domain.ParseRole(string(assignments[i].Role))
	}
	return assignments, nil
}

// Assign grants a role. Duplicate grants of the same pair are success.
func (r *RoleRepository) Assign(ctx context.Context, principalID string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	a := domain.RoleAssignment{
		ID:          uuid.NewString(),
		PrincipalID: principalID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	publishChange(ctx, r.pub, r.log, ports.TableUserRoles, ports.EventInsert, principalID, a)
	return nil
}

// Revoke removes a grant. Revoking an absent grant is success.
func (r *RoleRepository) Revoke(ctx context.Context, principalID string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": principalID, "role": role})
	if err != nil {
		return err
	}
	if res.DeletedCount > 0 {
		publishChange(ctx, r.pub, r.log, ports.TableUserRoles, ports.EventDelete, principalID,
			bson.M{"user_id": principalID, "role": role})
	}
	return nil
}

// EnsureIndexes creates the unique (principal, role) pair index.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
