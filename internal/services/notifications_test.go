package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juliangsibecas/girafa-backend/internal/models"
)

func TestNotificationCreatedAndDispatched(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ana := env.seedUser(t, "ana")
	beto := env.seedUser(t, "beto")

	created, err := env.notifications.CreateOrSuppress(ctx, NotificationInput{
		Type: models.NotificationTypeFollow,
		User: beto,
		From: ana,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, env.notifRepo.count())

	msgs := env.dispatcher.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{beto.ID.Hex()}, msgs[0].RecipientIDs)
	assert.Equal(t, "ana sigue a beto", msgs[0].Body)
}

func TestNotificationSuppressedWithinWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ana := env.seedUser(t, "ana")
	beto := env.seedUser(t, "beto")

	in := NotificationInput{Type: models.NotificationTypeFollow, User: beto, From: ana}

	created, err := env.notifications.CreateOrSuppress(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.notifications.CreateOrSuppress(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, env.notifRepo.count())
	assert.Len(t, env.dispatcher.messages(), 1)
}

func TestNotificationReplacedAfterWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ana := env.seedUser(t, "ana")
	beto := env.seedUser(t, "beto")

	in := NotificationInput{Type: models.NotificationTypeFollow, User: beto, From: ana}

	created, err := env.notifications.CreateOrSuppress(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	env.notifRepo.backdate(DebounceWindow + time.Minute)

	created, err = env.notifications.CreateOrSuppress(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, env.notifRepo.count(), "stale row is replaced, not accumulated")
	assert.Len(t, env.dispatcher.messages(), 2)
}

func TestNotificationKeyIncludesDirection(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ana := env.seedUser(t, "ana")
	beto := env.seedUser(t, "beto")

	created, err := env.notifications.CreateOrSuppress(ctx, NotificationInput{
		Type: models.NotificationTypeFollow, User: beto, From: ana,
	})
	require.NoError(t, err)
	assert.True(t, created)

	// The reverse direction is a different action and must not be debounced.
	created, err = env.notifications.CreateOrSuppress(ctx, NotificationInput{
		Type: models.NotificationTypeFollow, User: ana, From: beto,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, env.notifRepo.count())
}

func TestInviteNotificationKeyedByParty(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	organizer := env.seedUser(t, "organizer")
	guest := env.seedUser(t, "guest")
	first := env.seedParty(t, "primera", &organizer.ID, models.PartyAvailabilityPrivate)
	second := env.seedParty(t, "segunda", &organizer.ID, models.PartyAvailabilityPrivate)

	created, err := env.notifications.CreateOrSuppress(ctx, NotificationInput{
		Type: models.NotificationTypeInvite, User: guest, From: organizer, Party: first,
	})
	require.NoError(t, err)
	assert.True(t, created)

	// Same pair, different party: separate key, both stored.
	created, err = env.notifications.CreateOrSuppress(ctx, NotificationInput{
		Type: models.NotificationTypeInvite, User: guest, From: organizer, Party: second,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, env.notifRepo.count())

	// Repeating the first invite is suppressed.
	created, err = env.notifications.CreateOrSuppress(ctx, NotificationInput{
		Type: models.NotificationTypeInvite, User: guest, From: organizer, Party: first,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, env.notifRepo.count())
}

func TestFollowUnfollowFollowWithinWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ana := env.seedUser(t, "ana")
	beto := env.seedUser(t, "beto")

	notify := func() (bool, error) {
		from := env.mustGetUser(t, ana.ID)
		to := env.mustGetUser(t, beto.ID)
		return env.notifications.CreateOrSuppress(ctx, NotificationInput{
			Type: models.NotificationTypeFollow, User: to, From: from,
		})
	}

	require.NoError(t, env.relationships.Follow(ctx, ana.ID, beto.ID))
	created, err := notify()
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, env.relationships.Unfollow(ctx, ana.ID, beto.ID))

	require.NoError(t, env.relationships.Follow(ctx, ana.ID, beto.ID))
	created, err = notify()
	require.NoError(t, err)
	assert.False(t, created, "re-follow within the window must not re-notify")

	beto = env.mustGetUser(t, beto.ID)
	assert.Equal(t, 1, beto.FollowersCount)
	assert.Equal(t, 1, env.notifRepo.count())
}

func TestDeleteByUserRemovesBothDirections(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ana := env.seedUser(t, "ana")
	beto := env.seedUser(t, "beto")
	carla := env.seedUser(t, "carla")

	// ana as actor, ana as recipient, and one unrelated row.
	for _, in := range []NotificationInput{
		{Type: models.NotificationTypeFollow, User: beto, From: ana},
		{Type: models.NotificationTypeFollow, User: ana, From: carla},
		{Type: models.NotificationTypeFollow, User: carla, From: beto},
	} {
		_, err := env.notifications.CreateOrSuppress(ctx, in)
		require.NoError(t, err)
	}

	require.NoError(t, env.notifications.DeleteByUser(ctx, ana.ID))
	assert.Equal(t, 1, env.notifRepo.count())
}
