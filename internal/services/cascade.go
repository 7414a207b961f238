package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// CascadeService unwinds every relationship referencing a user or party
// being removed. Sub-steps fan out concurrently without sequencing: each one
// is individually idempotent, so a partial failure leaves a valid
// intermediate state and re-running the whole workflow converges. On any
// sub-step failure the entity document is kept so the retry has something to
// resume from.
type CascadeService struct {
	users         repositories.UserRepository
	parties       repositories.PartyRepository
	relationships *RelationshipService
	membership    *MembershipService
	notifications *NotificationService
	log           *logger.Logger
}

// NewCascadeService creates a new CascadeService.
func NewCascadeService(
	users repositories.UserRepository,
	parties repositories.PartyRepository,
	relationships *RelationshipService,
	membership *MembershipService,
	notifications *NotificationService,
	log *logger.Logger,
) *CascadeService {
	return &CascadeService{
		users:         users,
		parties:       parties,
		relationships: relationships,
		membership:    membership,
		notifications: notifications,
		log:           log,
	}
}

// DeleteUser removes the user and every edge pointing at them: both follow
// directions, organizer references (parties survive with the organizer
// unset), attendance pairs, and all notifications they sent or received.
func (s *CascadeService) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	payload := map[string]any{"userId": userID.Hex()}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Error("CascadeDeleteUser", payload)
		return ErrUnknown
	}
	if user == nil {
		return ErrNotFound
	}

	var g errgroup.Group

	for _, followerID := range user.Followers {
		followerID := followerID
		g.Go(func() error {
			return ignoreNotFound(s.relationships.Unfollow(ctx, followerID, user.ID))
		})
	}
	for _, followingID := range user.Following {
		followingID := followingID
		g.Go(func() error {
			return ignoreNotFound(s.relationships.Unfollow(ctx, user.ID, followingID))
		})
	}
	for _, partyID := range user.OrganizedParties {
		partyID := partyID
		g.Go(func() error {
			if err := s.parties.RemoveOrganizer(ctx, partyID); err != nil {
				s.log.Error("CascadeRemoveOrganizer", map[string]any{"userId": user.ID.Hex(), "partyId": partyID.Hex()})
				return ErrUnknown
			}
			return nil
		})
	}
	for _, partyID := range user.AttendedParties {
		partyID := partyID
		g.Go(func() error {
			return ignoreNotFound(s.membership.RemoveAttender(ctx, user.ID, partyID))
		})
	}
	g.Go(func() error {
		return s.notifications.DeleteByUser(ctx, user.ID)
	})

	if err := g.Wait(); err != nil {
		s.log.Error("CascadeDeleteUser", payload)
		return ErrUnknown
	}

	// Delete last: a failed sub-step above keeps the document around so the
	// workflow can be re-run from its remaining edges.
	if err := s.users.Delete(ctx, user.ID); err != nil {
		s.log.Error("CascadeDeleteUser", payload)
		return ErrUnknown
	}
	return nil
}

// BanUser is the admin removal path. It additionally purges notifications by
// actor id up front, then runs the same workflow as self-deletion.
func (s *CascadeService) BanUser(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.notifications.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.log.Analytic("user banned: " + userID.Hex())
	return s.DeleteUser(ctx, userID)
}

// DeleteParty removes the party, each attender's back-reference and every
// notification mentioning it.
func (s *CascadeService) DeleteParty(ctx context.Context, partyID primitive.ObjectID) error {
	payload := map[string]any{"partyId": partyID.Hex()}

	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		s.log.Error("CascadeDeleteParty", payload)
		return ErrUnknown
	}
	if party == nil {
		return ErrNotFound
	}

	var g errgroup.Group

	for _, attenderID := range party.Attenders {
		attenderID := attenderID
		g.Go(func() error {
			if _, err := s.users.RemoveAttendedParty(ctx, attenderID, party.ID); err != nil {
				s.log.Error("CascadeUnattend", map[string]any{"userId": attenderID.Hex(), "partyId": party.ID.Hex()})
				return ErrUnknown
			}
			return nil
		})
	}
	g.Go(func() error {
		return s.notifications.DeleteByParty(ctx, party.ID)
	})

	if err := g.Wait(); err != nil {
		s.log.Error("CascadeDeleteParty", payload)
		return ErrUnknown
	}

	if err := s.parties.Delete(ctx, party.ID); err != nil {
		s.log.Error("CascadeDeleteParty", payload)
		return ErrUnknown
	}
	return nil
}

// RejectParty is the admin path for a party that never gets enabled: the
// organizer's back-reference is cleared, the organizer is told, then the
// party is removed like any other.
func (s *CascadeService) RejectParty(ctx context.Context, partyID primitive.ObjectID, dispatcher Dispatcher) error {
	payload := map[string]any{"partyId": partyID.Hex()}

	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		s.log.Error("CascadeRejectParty", payload)
		return ErrUnknown
	}
	if party == nil {
		return ErrNotFound
	}

	if party.Organizer != nil {
		if err := s.users.RemoveOrganizedParty(ctx, *party.Organizer, party.ID); err != nil {
			s.log.Error("CascadeRejectParty", payload)
			return ErrUnknown
		}
		// Dispatched directly, not stored: the party id is about to vanish
		// and a stored notification would dangle.
		if err := dispatcher.Send(ctx, []string{party.Organizer.Hex()}, party.Name, "Tu fiesta fue rechazada", nil); err != nil {
			s.log.Error("CascadeRejectNotify", payload)
		}
	}

	return s.DeleteParty(ctx, party.ID)
}

// ignoreNotFound drops ErrNotFound from cascade sub-steps: a missing
// counterpart means that half of the unwind already happened.
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
