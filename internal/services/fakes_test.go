package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// The fakes below emulate the store contract the services rely on: each
// operation touches one document atomically, and guarded set/counter updates
// report whether they changed anything. Reads return copies so held
// references behave like store snapshots.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
}

func copyIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Following = copyIDs(u.Following)
	c.Followers = copyIDs(u.Followers)
	c.AttendedParties = copyIDs(u.AttendedParties)
	c.OrganizedParties = copyIDs(u.OrganizedParties)
	return &c
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == primitive.NilObjectID {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = copyUser(user)
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Nickname == nickname {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetManyByID(ctx context.Context, ids []primitive.ObjectID) ([]models.UserPreview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	previews := []models.UserPreview{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			previews = append(previews, u.ToPreview())
		}
	}
	return previews, nil
}

func (r *fakeUserRepo) Search(ctx context.Context, selfID primitive.ObjectID, q string) ([]models.UserPreview, error) {
	return nil, nil
}

func (r *fakeUserRepo) Edit(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) addGuarded(userID primitive.ObjectID, set func(*models.User) *[]primitive.ObjectID, count func(*models.User) *int, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	s := set(u)
	if models.ContainsID(*s, id) {
		return false, nil
	}
	*s = append(*s, id)
	if count != nil {
		*count(u)++
	}
	return true, nil
}

func (r *fakeUserRepo) pullGuarded(userID primitive.ObjectID, set func(*models.User) *[]primitive.ObjectID, count func(*models.User) *int, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	s := set(u)
	if !models.ContainsID(*s, id) {
		return false, nil
	}
	next := make([]primitive.ObjectID, 0, len(*s)-1)
	for _, it := range *s {
		if it != id {
			next = append(next, it)
		}
	}
	*s = next
	if count != nil {
		*count(u)--
	}
	return true, nil
}

func following(u *models.User) *[]primitive.ObjectID { return &u.Following }
func followers(u *models.User) *[]primitive.ObjectID { return &u.Followers }
func attended(u *models.User) *[]primitive.ObjectID  { return &u.AttendedParties }
func organized(u *models.User) *[]primitive.ObjectID { return &u.OrganizedParties }

func followingCount(u *models.User) *int { return &u.FollowingCount }
func followersCount(u *models.User) *int { return &u.FollowersCount }
func attendedCount(u *models.User) *int  { return &u.AttendedPartiesCount }

func (r *fakeUserRepo) AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	return r.addGuarded(userID, following, followingCount, targetID)
}

func (r *fakeUserRepo) RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	return r.pullGuarded(userID, following, followingCount, targetID)
}

func (r *fakeUserRepo) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) (bool, error) {
	return r.addGuarded(userID, followers, followersCount, followerID)
}

func (r *fakeUserRepo) RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) (bool, error) {
	return r.pullGuarded(userID, followers, followersCount, followerID)
}

func (r *fakeUserRepo) AddAttendedParty(ctx context.Context, userID, partyID primitive.ObjectID) (bool, error) {
	return r.addGuarded(userID, attended, attendedCount, partyID)
}

func (r *fakeUserRepo) RemoveAttendedParty(ctx context.Context, userID, partyID primitive.ObjectID) (bool, error) {
	return r.pullGuarded(userID, attended, attendedCount, partyID)
}

func (r *fakeUserRepo) AddOrganizedParty(ctx context.Context, userID, partyID primitive.ObjectID) error {
	_, err := r.addGuarded(userID, organized, nil, partyID)
	return err
}

func (r *fakeUserRepo) RemoveOrganizedParty(ctx context.Context, userID, partyID primitive.ObjectID) error {
	_, err := r.pullGuarded(userID, organized, nil, partyID)
	return err
}

func (r *fakeUserRepo) SetRecoveryCode(ctx context.Context, id primitive.ObjectID, code string) error {
	return nil
}

func (r *fakeUserRepo) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	return nil
}

func (r *fakeUserRepo) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CreatedByDay(ctx context.Context) ([]models.GroupedCount, error) {
	return nil, nil
}

type fakePartyRepo struct {
	mu      sync.Mutex
	parties map[primitive.ObjectID]*models.Party
}

func newFakePartyRepo() *fakePartyRepo {
	return &fakePartyRepo{parties: map[primitive.ObjectID]*models.Party{}}
}

func copyParty(p *models.Party) *models.Party {
	c := *p
	c.Attenders = copyIDs(p.Attenders)
	c.Invited = copyIDs(p.Invited)
	if p.Organizer != nil {
		org := *p.Organizer
		c.Organizer = &org
	}
	return &c
}

func (r *fakePartyRepo) Create(ctx context.Context, party *models.Party) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if party.ID == primitive.NilObjectID {
		party.ID = primitive.NewObjectID()
	}
	if party.Status == "" {
		party.Status = models.PartyStatusCreated
	}
	r.parties[party.ID] = copyParty(party)
	return party.ID, nil
}

func (r *fakePartyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[id]
	if !ok {
		return nil, nil
	}
	return copyParty(p), nil
}

func (r *fakePartyRepo) GetByName(ctx context.Context, name string) (*models.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.parties {
		if p.Name == name {
			return copyParty(p), nil
		}
	}
	return nil, nil
}

func (r *fakePartyRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.parties, id)
	return nil
}

func (r *fakePartyRepo) AddAttender(ctx context.Context, partyID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[partyID]
	if !ok || models.ContainsID(p.Attenders, userID) {
		return false, nil
	}
	p.Attenders = append(p.Attenders, userID)
	p.AttendersCount++
	return true, nil
}

func (r *fakePartyRepo) RemoveAttender(ctx context.Context, partyID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[partyID]
	if !ok || !models.ContainsID(p.Attenders, userID) {
		return false, nil
	}
	next := make([]primitive.ObjectID, 0, len(p.Attenders)-1)
	for _, it := range p.Attenders {
		if it != userID {
			next = append(next, it)
		}
	}
	p.Attenders = next
	p.AttendersCount--
	return true, nil
}

func (r *fakePartyRepo) AddInvited(ctx context.Context, partyID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[partyID]
	if !ok {
		return nil
	}
	for _, id := range userIDs {
		if !models.ContainsID(p.Invited, id) {
			p.Invited = append(p.Invited, id)
		}
	}
	return nil
}

func (r *fakePartyRepo) RemoveOrganizer(ctx context.Context, partyID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.parties[partyID]; ok {
		p.Organizer = nil
	}
	return nil
}

func (r *fakePartyRepo) SetStatus(ctx context.Context, partyID primitive.ObjectID, status models.PartyStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[partyID]
	if !ok || p.Status == status {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (r *fakePartyRepo) ExpireBefore(ctx context.Context, t time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.parties {
		if p.Status == models.PartyStatusEnabled && p.Date.Before(t) {
			p.Status = models.PartyStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakePartyRepo) Search(ctx context.Context, userID primitive.ObjectID, q string) ([]models.PartyPreview, error) {
	return nil, nil
}

func (r *fakePartyRepo) setDate(id primitive.ObjectID, date time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.parties[id]; ok {
		p.Date = date
	}
}

func (r *fakePartyRepo) setAllowInvites(id primitive.ObjectID, allow bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.parties[id]; ok {
		p.AllowInvites = allow
	}
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: map[primitive.ObjectID]*models.Notification{}}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if notification.ID == primitive.NilObjectID {
		notification.ID = primitive.NewObjectID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	c := *notification
	r.rows[notification.ID] = &c
	return nil
}

func (r *fakeNotificationRepo) FindByKey(ctx context.Context, t models.NotificationType, userID, fromID primitive.ObjectID, partyID *primitive.ObjectID) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Notification
	for _, n := range r.rows {
		if n.Type != t || n.User != userID || n.From != fromID {
			continue
		}
		if partyID != nil && (n.Party == nil || *n.Party != *partyID) {
			continue
		}
		if latest == nil || n.CreatedAt.After(latest.CreatedAt) {
			latest = n
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeNotificationRepo) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, row := range r.rows {
		if row.User == userID || row.From == userID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) DeleteByParty(ctx context.Context, partyID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, row := range r.rows {
		if row.Party != nil && *row.Party == partyID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Notification{}
	for _, row := range r.rows {
		if row.User == userID {
			out = append(out, *row)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// backdate rewrites a row's createdAt, standing in for elapsed time.
func (r *fakeNotificationRepo) backdate(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		row.CreatedAt = row.CreatedAt.Add(-d)
	}
}

type testEnv struct {
	users         *fakeUserRepo
	parties       *fakePartyRepo
	notifRepo     *fakeNotificationRepo
	dispatcher    *fakeDispatcher
	relationships *RelationshipService
	membership    *MembershipService
	notifications *NotificationService
	invites       *InviteService
	cascade       *CascadeService
}

func newTestEnv() *testEnv {
	log := logger.NewNop()
	env := &testEnv{
		users:      newFakeUserRepo(),
		parties:    newFakePartyRepo(),
		notifRepo:  newFakeNotificationRepo(),
		dispatcher: &fakeDispatcher{},
	}
	env.relationships = NewRelationshipService(env.users, log)
	env.membership = NewMembershipService(env.users, env.parties, log)
	env.notifications = NewNotificationService(env.notifRepo, env.dispatcher, log)
	env.invites = NewInviteService(env.users, env.parties, env.notifications, log)
	env.cascade = NewCascadeService(env.users, env.parties, env.relationships, env.membership, env.notifications, log)
	return env
}

func (e *testEnv) seedUser(t *testing.T, nickname string) *models.User {
	t.Helper()
	u := &models.User{
		Email:    nickname + "@girafa.app",
		Nickname: nickname,
		FullName: nickname,
	}
	if _, err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", nickname, err)
	}
	return u
}

func (e *testEnv) seedParty(t *testing.T, name string, organizer *primitive.ObjectID, availability models.PartyAvailability) *models.Party {
	t.Helper()
	p := &models.Party{
		Name:         name,
		Organizer:    organizer,
		Availability: availability,
		Status:       models.PartyStatusEnabled,
		Date:         time.Now().Add(24 * time.Hour),
		AllowInvites: true,
	}
	if _, err := e.parties.Create(context.Background(), p); err != nil {
		t.Fatalf("seed party %s: %v", name, err)
	}
	if organizer != nil {
		if err := e.users.AddOrganizedParty(context.Background(), *organizer, p.ID); err != nil {
			t.Fatalf("seed party backref: %v", err)
		}
	}
	return p
}

func (e *testEnv) mustGetUser(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u == nil {
		t.Fatalf("user %s not found", id.Hex())
	}
	return u
}

func (e *testEnv) mustGetParty(t *testing.T, id primitive.ObjectID) *models.Party {
	t.Helper()
	p, err := e.parties.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get party: %v", err)
	}
	if p == nil {
		t.Fatalf("party %s not found", id.Hex())
	}
	return p
}

type sentMessage struct {
	RecipientIDs []string
	Title        string
	Body         string
	Data         map[string]string
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (d *fakeDispatcher) Send(ctx context.Context, recipientIDs []string, title, body string, data map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentMessage{RecipientIDs: recipientIDs, Title: title, Body: body, Data: data})
	return nil
}

func (d *fakeDispatcher) messages() []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]sentMessage, len(d.sent))
	copy(out, d.sent)
	return out
}
