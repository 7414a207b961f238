package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// InviteService manages per-party invite lists. Invitations are additive
// only; there is no revocation.
type InviteService struct {
	users         repositories.UserRepository
	parties       repositories.PartyRepository
	notifications *NotificationService
	log           *logger.Logger
}

// NewInviteService creates a new InviteService.
func NewInviteService(users repositories.UserRepository, parties repositories.PartyRepository, notifications *NotificationService, log *logger.Logger) *InviteService {
	return &InviteService{users: users, parties: parties, notifications: notifications, log: log}
}

// AddInvited bulk-adds the given users to the party's invite set and fans
// out one INVITE notification per invitee. Self-invites are silently
// dropped. Expired parties, and parties that disallow guest invites when the
// caller isn't the organizer, are rejected.
func (s *InviteService) AddInvited(ctx context.Context, fromID, partyID primitive.ObjectID, invitedIDs []primitive.ObjectID) error {
	payload := map[string]any{"userId": fromID.Hex(), "partyId": partyID.Hex(), "count": len(invitedIDs)}

	from, err := s.users.GetByID(ctx, fromID)
	if err != nil {
		s.log.Error("InviteAddInvited", payload)
		return ErrUnknown
	}
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		s.log.Error("InviteAddInvited", payload)
		return ErrUnknown
	}
	if from == nil || party == nil {
		return ErrNotFound
	}

	if party.Status == models.PartyStatusExpired {
		return ErrForbidden
	}
	if !party.AllowInvites && !party.IsOrganizer(fromID) {
		return ErrForbidden
	}

	filtered := make([]primitive.ObjectID, 0, len(invitedIDs))
	for _, id := range invitedIDs {
		if id != fromID {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	if err := s.parties.AddInvited(ctx, party.ID, filtered); err != nil {
		s.log.Error("InviteAddInvited", payload)
		return ErrUnknown
	}

	var g errgroup.Group
	for _, id := range filtered {
		id := id
		g.Go(func() error {
			invited, err := s.users.GetByID(ctx, id)
			if err != nil || invited == nil {
				s.log.Error("InviteNotify", map[string]any{"partyId": party.ID.Hex(), "invitedId": id.Hex()})
				return nil
			}
			_, err = s.notifications.CreateOrSuppress(ctx, NotificationInput{
				Type:  models.NotificationTypeInvite,
				User:  invited,
				From:  from,
				Party: party,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return ErrUnknown
	}
	return nil
}
