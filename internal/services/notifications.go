package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// DebounceWindow is how long a repeated social action from the same actor to
// the same recipient stays suppressed. Fixed, not user-configurable.
const DebounceWindow = 6 * time.Hour

// Dispatcher delivers a notification out-of-band (push, mail, chat).
// Delivery is best-effort: failures are logged and never surface.
type Dispatcher interface {
	Send(ctx context.Context, recipientIDs []string, title, body string, data map[string]string) error
}

// NotificationInput carries the loaded actors of a social action. Party is
// only meaningful for INVITE.
type NotificationInput struct {
	Type  models.NotificationType
	User  *models.User
	From  *models.User
	Party *models.Party
}

// NotificationService decides whether a social-action notification is
// created or suppressed, and keeps at most one row per natural key.
type NotificationService struct {
	repo       repositories.NotificationRepository
	dispatcher Dispatcher
	log        *logger.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repositories.NotificationRepository, dispatcher Dispatcher, log *logger.Logger) *NotificationService {
	return &NotificationService{repo: repo, dispatcher: dispatcher, log: log}
}

// CreateOrSuppress inserts and dispatches a notification unless the same
// action was already notified within the debounce window. A duplicate older
// than the window is deleted and replaced, so the recipient only ever holds
// the latest row per natural key.
func (s *NotificationService) CreateOrSuppress(ctx context.Context, in NotificationInput) (bool, error) {
	payload := map[string]any{"type": in.Type, "userId": in.User.ID.Hex(), "fromId": in.From.ID.Hex()}

	var partyID *primitive.ObjectID
	if in.Type == models.NotificationTypeInvite && in.Party != nil {
		partyID = &in.Party.ID
		payload["partyId"] = in.Party.ID.Hex()
	}

	existing, err := s.repo.FindByKey(ctx, in.Type, in.User.ID, in.From.ID, partyID)
	if err != nil {
		s.log.Error("NotificationCreate", payload)
		return false, ErrUnknown
	}
	if existing != nil {
		if time.Since(existing.CreatedAt) < DebounceWindow {
			return false, nil
		}
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			s.log.Error("NotificationCreate", payload)
			return false, ErrUnknown
		}
	}

	notification := &models.Notification{
		Type:      in.Type,
		User:      in.User.ID,
		From:      in.From.ID,
		Party:     partyID,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.log.Error("NotificationCreate", payload)
		return false, ErrUnknown
	}

	s.dispatch(ctx, in)
	return true, nil
}

// dispatch pushes the human-readable message. Best-effort: a delivery
// failure is logged and the stored notification stands.
func (s *NotificationService) dispatch(ctx context.Context, in NotificationInput) {
	var body string
	switch in.Type {
	case models.NotificationTypeInvite:
		name := ""
		if in.Party != nil {
			name = in.Party.Name
		}
		body = fmt.Sprintf("%s invitó a %s a %s", in.From.Nickname, in.User.Nickname, name)
	default:
		body = fmt.Sprintf("%s sigue a %s", in.From.Nickname, in.User.Nickname)
	}

	data := map[string]string{"type": string(in.Type), "fromId": in.From.ID.Hex()}
	if in.Party != nil {
		data["partyId"] = in.Party.ID.Hex()
	}

	if err := s.dispatcher.Send(ctx, []string{in.User.ID.Hex()}, "", body, data); err != nil {
		s.log.Error("NotificationDispatch", map[string]any{"userId": in.User.ID.Hex(), "type": in.Type})
	}
}

// DeleteByUser removes every notification referencing the user as actor or
// recipient. Used by the cascade workflow.
func (s *NotificationService) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		s.log.Error("NotificationDeleteByUser", map[string]any{"userId": userID.Hex()})
		return ErrUnknown
	}
	return nil
}

// DeleteByParty removes every notification referencing the party. Used by
// the cascade workflow.
func (s *NotificationService) DeleteByParty(ctx context.Context, partyID primitive.ObjectID) error {
	if _, err := s.repo.DeleteByParty(ctx, partyID); err != nil {
		s.log.Error("NotificationDeleteByParty", map[string]any{"partyId": partyID.Hex()})
		return ErrUnknown
	}
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (s *NotificationService) ListByRecipient(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	notifications, total, err := s.repo.ListByRecipient(ctx, userID, page, limit)
	if err != nil {
		s.log.Error("NotificationList", map[string]any{"userId": userID.Hex()})
		return nil, 0, ErrUnknown
	}
	return notifications, total, nil
}
