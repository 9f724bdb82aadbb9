package job

import (
	"context"
	"testing"
	"time"

	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository/memstore"
	"github.com/maheshrc27/glowpost/internal/service"
	"github.com/robfig/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiresOnlyOverduePosts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := memstore.New()

	account, err := store.Accounts().Upsert(ctx, &models.SocialAccount{UserID: 1, Platform: models.PlatformTwitter, ProviderAccountID: "tw-1"})
	require.NoError(t, err)

	create := func(at time.Time) *models.Post {
		post, err := store.Posts().Create(ctx, &models.Post{UserID: 1, AccountID: account.ID, Platform: account.Platform, Content: "x", ScheduledFor: at})
		require.NoError(t, err)
		return post
	}
	overdue := create(now.Add(-48 * time.Hour))
	recent := create(now.Add(-time.Hour))
	upcoming := create(now.Add(time.Hour))

	ps := service.NewPostService(config.Config{AllowPastSchedule: true}, store.Posts(), store.Accounts(), store.History())
	j := NewStalePostJob(store.Posts(), ps, 24*time.Hour)
	j.now = func() time.Time { return now }

	expired, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := store.Posts().GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, got.Status)
	assert.Equal(t, StaleReason, got.FailureReason)

	for _, id := range []int64{recent.ID, upcoming.ID} {
		got, err := store.Posts().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusScheduled, got.Status)
	}

	expired, err = j.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestScheduleDisabledWithoutGrace(t *testing.T) {
	c := cron.New()
	j := NewStalePostJob(nil, nil, 0)

	require.NoError(t, j.Schedule(c, "@every 10m"))
	assert.Empty(t, c.Entries())

	j = NewStalePostJob(nil, nil, time.Hour)
	require.NoError(t, j.Schedule(c, "@every 10m"))
	assert.Len(t, c.Entries(), 1)

	assert.Error(t, j.Schedule(c, "not a spec"))
}
