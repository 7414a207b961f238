package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// PartyService covers the party lifecycle around the membership engine:
// creation, admin enabling, visibility-scoped reads.
type PartyService struct {
	users      repositories.UserRepository
	parties    repositories.PartyRepository
	membership *MembershipService
	dispatcher Dispatcher
	log        *logger.Logger
}

// NewPartyService creates a new PartyService.
func NewPartyService(users repositories.UserRepository, parties repositories.PartyRepository, membership *MembershipService, dispatcher Dispatcher, log *logger.Logger) *PartyService {
	return &PartyService{users: users, parties: parties, membership: membership, dispatcher: dispatcher, log: log}
}

// Create validates name availability, inserts the party in CREATED state and
// records the organizer back-reference.
func (s *PartyService) Create(ctx context.Context, organizerID primitive.ObjectID, req models.CreatePartyRequest) (primitive.ObjectID, error) {
	payload := map[string]any{"userId": organizerID.Hex(), "name": req.Name}

	organizer, err := s.users.GetByID(ctx, organizerID)
	if err != nil {
		s.log.Error("PartyCreate", payload)
		return primitive.NilObjectID, ErrUnknown
	}
	if organizer == nil {
		return primitive.NilObjectID, ErrNotFound
	}

	existing, err := s.parties.GetByName(ctx, req.Name)
	if err != nil {
		s.log.Error("PartyCreate", payload)
		return primitive.NilObjectID, ErrUnknown
	}
	if existing != nil {
		return primitive.NilObjectID, ErrNameTaken
	}

	party := &models.Party{
		Name:         req.Name,
		Organizer:    &organizer.ID,
		Address:      req.Address,
		Date:         req.Date,
		Description:  req.Description,
		MinAge:       req.MinAge,
		OpenBar:      req.OpenBar,
		AllowInvites: req.AllowInvites,
		Availability: req.Availability,
	}
	id, err := s.parties.Create(ctx, party)
	if err != nil {
		s.log.Error("PartyCreate", payload)
		return primitive.NilObjectID, ErrUnknown
	}

	if err := s.users.AddOrganizedParty(ctx, organizer.ID, id); err != nil {
		s.log.Error("PartyCreate", payload)
		return primitive.NilObjectID, ErrUnknown
	}
	return id, nil
}

// Enable flips a created party to ENABLED, auto-attends the organizer on
// both sides of the pair and tells them about it.
func (s *PartyService) Enable(ctx context.Context, partyID primitive.ObjectID) error {
	payload := map[string]any{"partyId": partyID.Hex()}

	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		s.log.Error("PartyEnable", payload)
		return ErrUnknown
	}
	if party == nil {
		return ErrNotFound
	}

	changed, err := s.parties.SetStatus(ctx, party.ID, models.PartyStatusEnabled)
	if err != nil {
		s.log.Error("PartyEnable", payload)
		return ErrUnknown
	}
	if !changed || party.Organizer == nil {
		return nil
	}

	if err := s.membership.AddAttender(ctx, *party.Organizer, party.ID); err != nil {
		return err
	}

	if err := s.dispatcher.Send(ctx, []string{party.Organizer.Hex()}, party.Name, "Tu fiesta fue habilitada", map[string]string{"partyId": party.ID.Hex()}); err != nil {
		s.log.Error("PartyEnableNotify", payload)
	}
	return nil
}

// GetResponse is a party detail plus the caller's relation flags.
type GetResponse struct {
	models.Party
	IsAttender  bool `json:"isAttender"`
	IsOrganizer bool `json:"isOrganizer"`
}

// Get returns the party when the caller passes the availability rule.
func (s *PartyService) Get(ctx context.Context, userID, partyID primitive.ObjectID) (*GetResponse, error) {
	payload := map[string]any{"userId": userID.Hex(), "partyId": partyID.Hex()}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Error("PartyGet", payload)
		return nil, ErrUnknown
	}
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		s.log.Error("PartyGet", payload)
		return nil, ErrUnknown
	}
	if user == nil || party == nil {
		return nil, ErrNotFound
	}

	organizer, err := s.membership.LoadOrganizer(ctx, party)
	if err != nil {
		return nil, err
	}
	if !s.membership.CanAttend(user, party, organizer) {
		return nil, ErrForbidden
	}

	return &GetResponse{
		Party:       *party,
		IsAttender:  models.ContainsID(user.AttendedParties, party.ID),
		IsOrganizer: party.IsOrganizer(user.ID),
	}, nil
}

// Search returns the enabled parties visible to the caller.
func (s *PartyService) Search(ctx context.Context, userID primitive.ObjectID, q string) ([]models.PartyPreview, error) {
	previews, err := s.parties.Search(ctx, userID, q)
	if err != nil {
		s.log.Error("PartySearch", map[string]any{"userId": userID.Hex(), "q": q})
		return nil, ErrUnknown
	}
	return previews, nil
}

// SearchAttenders lists a party's attenders, guarded by the availability
// rule.
func (s *PartyService) SearchAttenders(ctx context.Context, userID, partyID primitive.ObjectID) ([]models.UserPreview, error) {
	payload := map[string]any{"userId": userID.Hex(), "partyId": partyID.Hex()}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Error("PartySearchAttenders", payload)
		return nil, ErrUnknown
	}
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		s.log.Error("PartySearchAttenders", payload)
		return nil, ErrUnknown
	}
	if user == nil || party == nil {
		return nil, ErrNotFound
	}

	organizer, err := s.membership.LoadOrganizer(ctx, party)
	if err != nil {
		return nil, err
	}
	if !s.membership.CanAttend(user, party, organizer) {
		return nil, ErrForbidden
	}

	attenders, err := s.users.GetManyByID(ctx, party.Attenders)
	if err != nil {
		s.log.Error("PartySearchAttenders", payload)
		return nil, ErrUnknown
	}
	return attenders, nil
}
