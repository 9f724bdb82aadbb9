package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformList(t *testing.T) {
	f := newPostFixture(t)
	svc := NewPlatformService(f.store.Accounts())

	accounts, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "glowgram", accounts[0].Username)

	accounts, err = svc.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = svc.List(context.Background(), 0)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestDisconnectDropsOnlyPendingPosts(t *testing.T) {
	f := newPostFixture(t)
	svc := NewPlatformService(f.store.Accounts())
	ctx := context.Background()

	pending := f.schedule(t, 1, fixedNow.Add(time.Hour))
	done := f.schedule(t, 1, fixedNow.Add(2*time.Hour))
	_, err := f.svc.MarkPublished(ctx, done.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx, 1, f.account.ID, false))

	account, err := f.store.Accounts().GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, models.AccountStatusDisconnected, account.Status)
	assert.Empty(t, account.AccessToken)

	gone, err := f.store.Posts().GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := f.store.Posts().GetByID(ctx, done.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, models.PostStatusPublished, kept.Status)
}

func TestDisconnectPurgeRemovesEverything(t *testing.T) {
	f := newPostFixture(t)
	svc := NewPlatformService(f.store.Accounts())
	ctx := context.Background()

	done := f.schedule(t, 1, fixedNow.Add(time.Hour))
	_, err := f.svc.MarkFailed(ctx, done.ID, "boom")
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx, 1, f.account.ID, true))

	account, err := f.store.Accounts().GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Nil(t, account)

	posts, err := f.store.Posts().ListByUserID(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestDisconnectRejectsForeignAccount(t *testing.T) {
	f := newPostFixture(t)
	svc := NewPlatformService(f.store.Accounts())

	err := svc.Disconnect(context.Background(), 2, f.account.ID, true)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	account, err := f.store.Accounts().GetByID(context.Background(), f.account.ID)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.True(t, account.IsConnected())
}
