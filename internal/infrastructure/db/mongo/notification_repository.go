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

const collectionNotifications = "notifications"

type NotificationRepository struct {
	col *mongo.Collection
	pub ports.ChangePublisher
	log zerolog.Logger
}

func NewNotificationRepository(db *mongo.Database, pub ports.ChangePublisher, log zerolog.Logger) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications), pub: pub, log: log}
}

// List returns the principal's notifications newest first, capped at limit.
func (r *NotificationRepository) List(ctx context.Context, principalID string, limit int) ([]domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, bson.M{"user_id": principalID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []domain.Notification
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Insert stores a notification and publishes an insert event carrying the
// full row, so subscribers can render immediate feedback before refetching.
func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Type = domain.ParseNotificationType(string(n.Type))

	if _, err := r.col.InsertOne(ctx, n); err != nil {
		return err
	}
	publishChange(ctx, r.pub, r.log, ports.TableNotifications, ports.EventInsert, n.PrincipalID, n)
	return nil
}

// MarkRead flags one notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"read": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	publishChange(ctx, r.pub, r.log, ports.TableNotifications, ports.EventUpdate, "", bson.M{"_id": id, "read": true})
	return nil
}

// MarkAllRead flags every unread notification of the principal as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, principalID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateMany(ctx, bson.M{"user_id": principalID, "read": false},
		bson.M{"$set": bson.M{"read": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	publishChange(ctx, r.pub, r.log, ports.TableNotifications, ports.EventUpdate, principalID,
		bson.M{"user_id": principalID, "read": true})
	return nil
}

// Delete removes one notification.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	publishChange(ctx, r.pub, r.log, ports.TableNotifications, ports.EventDelete, "", bson.M{"_id": id})
	return nil
}

// EnsureIndexes creates the per-principal listing index.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
