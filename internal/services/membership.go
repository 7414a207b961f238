package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// MembershipService manages party attendance and the availability rule.
//
// Attendance is the one cross-entity pair in the system: party.attenders and
// user.attendedParties live in different documents and are updated by two
// independent guarded operations. Either half may land first; re-running the
// operation applies only whichever half is missing.
type MembershipService struct {
	users   repositories.UserRepository
	parties repositories.PartyRepository
	log     *logger.Logger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(users repositories.UserRepository, parties repositories.PartyRepository, log *logger.Logger) *MembershipService {
	return &MembershipService{users: users, parties: parties, log: log}
}

// CanAttend applies the availability rule, first match wins:
//
//  1. PUBLIC parties admit anyone.
//  2. FOLLOWERS parties admit followers of the organizer.
//  3. FOLLOWING parties admit users the organizer follows.
//  4. PRIVATE parties admit invited users.
//  5. The organizer may always attend their own party.
//
// organizer may be nil (weak reference broken by organizer removal); the
// organizer-scoped rules then simply never match.
func (s *MembershipService) CanAttend(user *models.User, party *models.Party, organizer *models.User) bool {
	switch party.Availability {
	case models.PartyAvailabilityPublic:
		return true
	case models.PartyAvailabilityFollowers:
		if organizer != nil && models.ContainsID(organizer.Followers, user.ID) {
			return true
		}
	case models.PartyAvailabilityFollowing:
		if organizer != nil && models.ContainsID(organizer.Following, user.ID) {
			return true
		}
	case models.PartyAvailabilityPrivate:
		if party.IsInvited(user.ID) {
			return true
		}
	}
	return organizer != nil && user.ID == organizer.ID
}

// AddAttender records attendance on both sides of the pair. Idempotent.
func (s *MembershipService) AddAttender(ctx context.Context, userID, partyID primitive.ObjectID) error {
	return s.changeAttendance(ctx, userID, partyID, true)
}

// RemoveAttender removes attendance from both sides of the pair. Idempotent.
func (s *MembershipService) RemoveAttender(ctx context.Context, userID, partyID primitive.ObjectID) error {
	return s.changeAttendance(ctx, userID, partyID, false)
}

func (s *MembershipService) changeAttendance(ctx context.Context, userID, partyID primitive.ObjectID, attending bool) error {
	payload := map[string]any{"userId": userID.Hex(), "partyId": partyID.Hex(), "state": attending}

	user, party, err := s.load(ctx, userID, partyID)
	if err != nil {
		return err
	}

	if attending {
		if _, err := s.users.AddAttendedParty(ctx, user.ID, party.ID); err != nil {
			s.log.Error("MembershipAddAttender", payload)
			return ErrUnknown
		}
		if _, err := s.parties.AddAttender(ctx, party.ID, user.ID); err != nil {
			s.log.Error("MembershipAddAttender", payload)
			return ErrUnknown
		}
		return nil
	}

	if _, err := s.users.RemoveAttendedParty(ctx, user.ID, party.ID); err != nil {
		s.log.Error("MembershipRemoveAttender", payload)
		return ErrUnknown
	}
	if _, err := s.parties.RemoveAttender(ctx, party.ID, user.ID); err != nil {
		s.log.Error("MembershipRemoveAttender", payload)
		return ErrUnknown
	}
	return nil
}

// ChangeAttendingState is the guarded entrypoint used by the transport
// layer: it rejects expired parties and callers the availability rule keeps
// out before touching either document.
func (s *MembershipService) ChangeAttendingState(ctx context.Context, userID, partyID primitive.ObjectID, attending bool) error {
	user, party, err := s.load(ctx, userID, partyID)
	if err != nil {
		return err
	}

	if attending {
		organizer, err := s.loadOrganizer(ctx, party)
		if err != nil {
			return err
		}
		if party.Status == models.PartyStatusExpired || !s.CanAttend(user, party, organizer) {
			return ErrForbidden
		}
		return s.AddAttender(ctx, userID, partyID)
	}
	return s.RemoveAttender(ctx, userID, partyID)
}

// LoadOrganizer resolves a party's weak organizer reference, nil when absent.
func (s *MembershipService) LoadOrganizer(ctx context.Context, party *models.Party) (*models.User, error) {
	return s.loadOrganizer(ctx, party)
}

func (s *MembershipService) loadOrganizer(ctx context.Context, party *models.Party) (*models.User, error) {
	if party.Organizer == nil {
		return nil, nil
	}
	organizer, err := s.users.GetByID(ctx, *party.Organizer)
	if err != nil {
		s.log.Error("MembershipLoadOrganizer", map[string]any{"partyId": party.ID.Hex()})
		return nil, ErrUnknown
	}
	return organizer, nil
}

func (s *MembershipService) load(ctx context.Context, userID, partyID primitive.ObjectID) (*models.User, *models.Party, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Error("MembershipLoad", map[string]any{"userId": userID.Hex()})
		return nil, nil, ErrUnknown
	}
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		s.log.Error("MembershipLoad", map[string]any{"partyId": partyID.Hex()})
		return nil, nil, ErrUnknown
	}
	if user == nil || party == nil {
		return nil, nil, ErrNotFound
	}
	return user, party, nil
}
