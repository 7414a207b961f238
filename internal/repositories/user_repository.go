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

// UserRepository defines the interface for user document operations.
//
// Every paired set/counter mutation is a single conditional UpdateOne whose
// filter carries the membership precondition, so the $inc only fires when the
// set actually changed. The bool result reports whether the document was
// modified; false means the operation was already applied (or the document is
// missing) and is what makes retries converge instead of double-counting.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
	GetManyByID(ctx context.Context, ids []primitive.ObjectID) ([]models.UserPreview, error)
	Search(ctx context.Context, selfID primitive.ObjectID, q string) ([]models.UserPreview, error)
	Edit(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error)
	RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error)
	AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) (bool, error)
	RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) (bool, error)
	AddAttendedParty(ctx context.Context, userID, partyID primitive.ObjectID) (bool, error)
	RemoveAttendedParty(ctx context.Context, userID, partyID primitive.ObjectID) (bool, error)
	AddOrganizedParty(ctx context.Context, userID, partyID primitive.ObjectID) error
	RemoveOrganizedParty(ctx context.Context, userID, partyID primitive.ObjectID) error

	SetRecoveryCode(ctx context.Context, id primitive.ObjectID, code string) error
	SetPassword(ctx context.Context, id primitive.ObjectID, password string) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error

	Count(ctx context.Context) (int64, error)
	CreatedByDay(ctx context.Context) ([]models.GroupedCount, error)
}

// MongoUserRepository implements UserRepository over the users collection.
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection("users")}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.AttendedParties == nil {
		user.AttendedParties = []primitive.ObjectID{}
	}
	if user.OrganizedParties == nil {
		user.OrganizedParties = []primitive.ObjectID{}
	}
	user.CreatedAt = time.Now()

	res, err := r.col.InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.getOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return r.getOne(ctx, bson.M{"nickname": nickname})
}

func (r *MongoUserRepository) getOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) GetManyByID(ctx context.Context, ids []primitive.ObjectID) ([]models.UserPreview, error) {
	return r.findPreviews(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoUserRepository) Search(ctx context.Context, selfID primitive.ObjectID, q string) ([]models.UserPreview, error) {
	like := bson.M{"$regex": q, "$options": "i"}
	return r.findPreviews(ctx, bson.M{
		"_id": bson.M{"$ne": selfID},
		"$or": []bson.M{{"nickname": like}, {"fullName": like}},
	})
}

func (r *MongoUserRepository) findPreviews(ctx context.Context, filter bson.M) ([]models.UserPreview, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "nickname": 1, "fullName": 1, "pictureId": 1})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	previews := []models.UserPreview{}
	if err := cur.All(ctx, &previews); err != nil {
		return nil, err
	}
	return previews, nil
}

func (r *MongoUserRepository) Edit(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	return err
}

func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoUserRepository) AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	return r.addWithCount(ctx, userID, "following", "followingCount", targetID)
}

func (r *MongoUserRepository) RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	return r.pullWithCount(ctx, userID, "following", "followingCount", targetID)
}

func (r *MongoUserRepository) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) (bool, error) {
	return r.addWithCount(ctx, userID, "followers", "followersCount", followerID)
}

func (r *MongoUserRepository) RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) (bool, error) {
	return r.pullWithCount(ctx, userID, "followers", "followersCount", followerID)
}

func (r *MongoUserRepository) AddAttendedParty(ctx context.Context, userID, partyID primitive.ObjectID) (bool, error) {
	return r.addWithCount(ctx, userID, "attendedParties", "attendedPartiesCount", partyID)
}

func (r *MongoUserRepository) RemoveAttendedParty(ctx context.Context, userID, partyID primitive.ObjectID) (bool, error) {
	return r.pullWithCount(ctx, userID, "attendedParties", "attendedPartiesCount", partyID)
}

func (r *MongoUserRepository) AddOrganizedParty(ctx context.Context, userID, partyID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"organizedParties": partyID}},
	)
	return err
}

func (r *MongoUserRepository) RemoveOrganizedParty(ctx context.Context, userID, partyID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"organizedParties": partyID}},
	)
	return err
}

// addWithCount adds id to the set and bumps the cached count in one atomic
// update. The $ne precondition keeps the pair a no-op when id is already a
// member, so the count can never drift ahead of the set.
func (r *MongoUserRepository) addWithCount(ctx context.Context, userID primitive.ObjectID, set, count string, id primitive.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID, set: bson.M{"$ne": id}},
		bson.M{"$addToSet": bson.M{set: id}, "$inc": bson.M{count: 1}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// pullWithCount is the inverse of addWithCount; the membership precondition
// guards the decrement the same way.
func (r *MongoUserRepository) pullWithCount(ctx context.Context, userID primitive.ObjectID, set, count string, id primitive.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID, set: id},
		bson.M{"$pull": bson.M{set: id}, "$inc": bson.M{count: -1}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoUserRepository) SetRecoveryCode(ctx context.Context, id primitive.ObjectID, code string) error {
	return r.Edit(ctx, id, bson.M{"recoveryCode": code})
}

func (r *MongoUserRepository) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password": password},
		"$unset": bson.M{"recoveryCode": ""},
	})
	return err
}

func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return r.Edit(ctx, id, bson.M{"refreshToken": token})
}

func (r *MongoUserRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *MongoUserRepository) CreatedByDay(ctx context.Context) ([]models.GroupedCount, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%d-%m-%Y", "date": "$createdAt"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var grouped []models.GroupedCount
	if err := cur.All(ctx, &grouped); err != nil {
		return nil, err
	}
	return grouped, nil
}
