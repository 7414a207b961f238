package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/juliangsibecas/girafa-backend/internal/models"
)

// NotificationRepository defines the interface for notification operations.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByKey(ctx context.Context, t models.NotificationType, userID, fromID primitive.ObjectID, partyID *primitive.ObjectID) (*models.Notification, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteByParty(ctx context.Context, partyID primitive.ObjectID) (int64, error)
	ListByRecipient(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Notification, int64, error)
}

// MongoNotificationRepository implements NotificationRepository over the
// notifications collection.
type MongoNotificationRepository struct {
	col *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository.
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{col: db.Collection("notifications")}
}

func (r *MongoNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	res, err := r.col.InsertOne(ctx, notification)
	if err != nil {
		return err
	}
	notification.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByKey looks up a notification by its natural key. The party id takes
// part in the key only when given (INVITE notifications).
func (r *MongoNotificationRepository) FindByKey(ctx context.Context, t models.NotificationType, userID, fromID primitive.ObjectID, partyID *primitive.ObjectID) (*models.Notification, error) {
	filter := bson.M{"type": t, "user": userID, "from": fromID}
	if partyID != nil {
		filter["party"] = *partyID
	}

	var notification models.Notification
	opts := options.FindOne().SetSort(bson.M{"createdAt": -1})
	if err := r.col.FindOne(ctx, filter, opts).Decode(&notification); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *MongoNotificationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByUser removes every notification referencing the user as recipient
// or actor.
func (r *MongoNotificationRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{
		"$or": []bson.M{{"user": userID}, {"from": userID}},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoNotificationRepository) DeleteByParty(ctx context.Context, partyID primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"party": partyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoNotificationRepository) ListByRecipient(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"user": userID}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	notifications := []models.Notification{}
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}
