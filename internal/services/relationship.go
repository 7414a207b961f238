package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// RelationshipService is the ledger for the symmetric follow graph.
//
// A follow is two independent single-document updates (user.following +
// target.followers); they are not atomic as a pair. Both halves are guarded
// set operations, so a reader may observe a transient asymmetry bounded by
// one store round-trip, and a retry after a mid-pair failure re-applies only
// the missing half.
type RelationshipService struct {
	users repositories.UserRepository
	log   *logger.Logger
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(users repositories.UserRepository, log *logger.Logger) *RelationshipService {
	return &RelationshipService{users: users, log: log}
}

// Follow adds the user → target edge on both sides. Idempotent: following an
// already-followed user changes nothing.
func (s *RelationshipService) Follow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	if userID == targetID {
		return ErrSameUser
	}

	user, target, err := s.loadPair(ctx, userID, targetID)
	if err != nil {
		return err
	}

	if _, err := s.users.AddFollowing(ctx, user.ID, target.ID); err != nil {
		s.log.Error("RelationshipFollow", map[string]any{"userId": userID.Hex(), "targetId": targetID.Hex()})
		return ErrUnknown
	}
	if _, err := s.users.AddFollower(ctx, target.ID, user.ID); err != nil {
		s.log.Error("RelationshipFollow", map[string]any{"userId": userID.Hex(), "targetId": targetID.Hex()})
		return ErrUnknown
	}
	return nil
}

// Unfollow removes the user → target edge on both sides. Idempotent.
func (s *RelationshipService) Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	if userID == targetID {
		return ErrSameUser
	}

	user, target, err := s.loadPair(ctx, userID, targetID)
	if err != nil {
		return err
	}

	if _, err := s.users.RemoveFollowing(ctx, user.ID, target.ID); err != nil {
		s.log.Error("RelationshipUnfollow", map[string]any{"userId": userID.Hex(), "targetId": targetID.Hex()})
		return ErrUnknown
	}
	if _, err := s.users.RemoveFollower(ctx, target.ID, user.ID); err != nil {
		s.log.Error("RelationshipUnfollow", map[string]any{"userId": userID.Hex(), "targetId": targetID.Hex()})
		return ErrUnknown
	}
	return nil
}

func (s *RelationshipService) loadPair(ctx context.Context, userID, targetID primitive.ObjectID) (user, target *models.User, err error) {
	user, err = s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Error("RelationshipLoad", map[string]any{"userId": userID.Hex()})
		return nil, nil, ErrUnknown
	}
	target, err = s.users.GetByID(ctx, targetID)
	if err != nil {
		s.log.Error("RelationshipLoad", map[string]any{"userId": targetID.Hex()})
		return nil, nil, ErrUnknown
	}
	if user == nil || target == nil {
		return nil, nil, ErrNotFound
	}
	return user, target, nil
}
