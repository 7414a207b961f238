package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/juliangsibecas/girafa-backend/internal/models"
)

// PartyRepository defines the interface for party document operations.
// Attender mutations follow the same guarded set/counter contract as
// UserRepository.
type PartyRepository interface {
	Create(ctx context.Context, party *models.Party) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Party, error)
	GetByName(ctx context.Context, name string) (*models.Party, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	AddAttender(ctx context.Context, partyID, userID primitive.ObjectID) (bool, error)
	RemoveAttender(ctx context.Context, partyID, userID primitive.ObjectID) (bool, error)
	AddInvited(ctx context.Context, partyID primitive.ObjectID, userIDs []primitive.ObjectID) error
	RemoveOrganizer(ctx context.Context, partyID primitive.ObjectID) error
	SetStatus(ctx context.Context, partyID primitive.ObjectID, status models.PartyStatus) (bool, error)
	ExpireBefore(ctx context.Context, t time.Time) (int64, error)

	Search(ctx context.Context, userID primitive.ObjectID, q string) ([]models.PartyPreview, error)
}

// MongoPartyRepository implements PartyRepository over the parties collection.
type MongoPartyRepository struct {
	col *mongo.Collection
}

// NewMongoPartyRepository creates a new MongoPartyRepository.
func NewMongoPartyRepository(db *mongo.Database) *MongoPartyRepository {
	return &MongoPartyRepository{col: db.Collection("parties")}
}

func (r *MongoPartyRepository) Create(ctx context.Context, party *models.Party) (primitive.ObjectID, error) {
	if party.Attenders == nil {
		party.Attenders = []primitive.ObjectID{}
	}
	if party.Invited == nil {
		party.Invited = []primitive.ObjectID{}
	}
	party.Status = models.PartyStatusCreated
	party.CreatedAt = time.Now()

	res, err := r.col.InsertOne(ctx, party)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (r *MongoPartyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Party, error) {
	return r.getOne(ctx, bson.M{"_id": id})
}

func (r *MongoPartyRepository) GetByName(ctx context.Context, name string) (*models.Party, error) {
	return r.getOne(ctx, bson.M{"name": name})
}

func (r *MongoPartyRepository) getOne(ctx context.Context, filter bson.M) (*models.Party, error) {
	var party models.Party
	if err := r.col.FindOne(ctx, filter).Decode(&party); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &party, nil
}

func (r *MongoPartyRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoPartyRepository) AddAttender(ctx context.Context, partyID, userID primitive.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": partyID, "attenders": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"attenders": userID}, "$inc": bson.M{"attendersCount": 1}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoPartyRepository) RemoveAttender(ctx context.Context, partyID, userID primitive.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": partyID, "attenders": userID},
		bson.M{"$pull": bson.M{"attenders": userID}, "$inc": bson.M{"attendersCount": -1}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// AddInvited bulk-adds user ids to the invite set. Invitations are never
// revoked and the set carries no cached count.
func (r *MongoPartyRepository) AddInvited(ctx context.Context, partyID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": partyID},
		bson.M{"$addToSet": bson.M{"invited": bson.M{"$each": userIDs}}},
	)
	return err
}

// RemoveOrganizer breaks the weak organizer reference. The party survives;
// readers treat the absent organizer as a valid state.
func (r *MongoPartyRepository) RemoveOrganizer(ctx context.Context, partyID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": partyID},
		bson.M{"$unset": bson.M{"organizer": ""}},
	)
	return err
}

func (r *MongoPartyRepository) SetStatus(ctx context.Context, partyID primitive.ObjectID, status models.PartyStatus) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": partyID, "status": bson.M{"$ne": status}},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ExpireBefore marks every enabled party dated before t as expired and
// returns how many were flipped.
func (r *MongoPartyRepository) ExpireBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"status": models.PartyStatusEnabled, "date": bson.M{"$lt": t}},
		bson.M{"$set": bson.M{"status": models.PartyStatusExpired}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Search returns the enabled parties visible to userID, applying the
// availability rule per bucket: public ones unconditionally, private ones
// when invited, follower/following-scoped ones by looking up the organizer
// and matching the corresponding edge set.
func (r *MongoPartyRepository) Search(ctx context.Context, userID primitive.ObjectID, q string) ([]models.PartyPreview, error) {
	like := bson.M{"$regex": q, "$options": "i"}

	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.PartyStatusEnabled, "name": like}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "organizer",
			"foreignField": "_id",
			"as":           "organizerDoc",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$organizerDoc", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$match", Value: bson.M{"$or": []bson.M{
			{"availability": models.PartyAvailabilityPublic},
			{"availability": models.PartyAvailabilityPrivate, "invited": userID},
			{"availability": models.PartyAvailabilityFollowers, "organizerDoc.followers": userID},
			{"availability": models.PartyAvailabilityFollowing, "organizerDoc.following": userID},
		}}}},
		{{Key: "$project", Value: bson.M{
			"_id":               1,
			"name":              1,
			"availability":      1,
			"organizerNickname": "$organizerDoc.nickname",
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	previews := []models.PartyPreview{}
	if err := cur.All(ctx, &previews); err != nil {
		return nil, err
	}
	return previews, nil
}
