// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/internal/platform/constants"
)

var bob = Actor{ID: "user-bob"}

func newLockEnv(t *testing.T) (*testEnv, *Topic) {
	t.Helper()

	env := newTestEnv(t)
	// Lock expiries are checked against the wall clock.
	env.service.now = time.Now

	topic, err := env.service.CreateTopic(context.Background(), alice, "Contested", "content")
	require.NoError(t, err)
	return env, topic
}

func TestAcquireWriteLockWhenUnlocked(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	acquired, lock, err := env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NotNil(t, lock)
	assert.Equal(t, alice.ID, lock.OwnerID)
	assert.Equal(t, topic.ID, lock.TopicID)
	assert.WithinDuration(t, time.Now().Add(constants.WriteLockTTL), lock.ExpiresAt, 5*time.Second)
}

func TestAcquireWriteLockContention(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	_, _, err := env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)

	acquired, rival, err := env.service.AcquireWriteLock(ctx, bob, "Contested", false)
	require.NoError(t, err, "contention is an outcome, not an error")
	assert.False(t, acquired)
	require.NotNil(t, rival, "the caller learns who holds the lock")
	assert.Equal(t, alice.ID, rival.OwnerID)

	// The failed attempt left the lock untouched.
	stored, err := env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, alice.ID, stored.OwnerID)
}

func TestAcquireWriteLockForceTransfers(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	_, _, err := env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)

	acquired, lock, err := env.service.AcquireWriteLock(ctx, mod, "Contested", true)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.Equal(t, mod.ID, lock.OwnerID)

	stored, err := env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, mod.ID, stored.OwnerID)
	assert.WithinDuration(t, time.Now().Add(constants.WriteLockTTL), stored.ExpiresAt, 5*time.Second,
		"the transfer starts a fresh TTL")
}

func TestAcquireWriteLockByHolderFarFromExpiry(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	_, _, err := env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)

	before, err := env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	require.NotNil(t, before)

	acquired, _, err := env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)
	assert.True(t, acquired, "re-acquiring one's own lock always succeeds")

	after, err := env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, before.ExpiresAt, after.ExpiresAt, "no refresh outside the renewal window")
}

func TestAcquireWriteLockByHolderNearExpiry(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	// A lock about to lapse: well inside the renewal window.
	require.NoError(t, env.locks.Overwrite(ctx, topic.ID, alice.ID, 30*time.Second))

	acquired, _, err := env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)
	assert.True(t, acquired)

	stored, err := env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.WithinDuration(t, time.Now().Add(constants.WriteLockTTL), stored.ExpiresAt, 5*time.Second,
		"the expiry was pushed out by a full TTL")
}

func TestAcquireWriteLockAfterExpiry(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	// An already-lapsed lock is logically absent.
	require.NoError(t, env.locks.Overwrite(ctx, topic.ID, alice.ID, 0))

	acquired, lock, err := env.service.AcquireWriteLock(ctx, bob, "Contested", false)
	require.NoError(t, err)
	assert.True(t, acquired, "an expired holder loses the lock to the next acquirer")
	assert.Equal(t, bob.ID, lock.OwnerID)
}

func TestAcquireWriteLockUnknownTopic(t *testing.T) {
	env, _ := newLockEnv(t)

	_, _, err := env.service.AcquireWriteLock(context.Background(), alice, "No Such Topic", false)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

func TestReleaseWriteLock(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	// Releasing an unheld lock is a successful no-op.
	released, err := env.service.ReleaseWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)
	assert.True(t, released)

	_, _, err = env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)

	// A non-holder cannot release without force.
	released, err = env.service.ReleaseWriteLock(ctx, bob, "Contested", false)
	require.NoError(t, err)
	assert.False(t, released)

	stored, err := env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	require.NotNil(t, stored, "the failed release left the lock in place")

	// The holder releases successfully.
	released, err = env.service.ReleaseWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)
	assert.True(t, released)

	stored, err = env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestReleaseWriteLockForced(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	_, _, err := env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)

	released, err := env.service.ReleaseWriteLock(ctx, mod, "Contested", true)
	require.NoError(t, err)
	assert.True(t, released)

	stored, err := env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteTopicClearsWriteLock(t *testing.T) {
	env, topic := newLockEnv(t)
	ctx := context.Background()

	_, _, err := env.service.AcquireWriteLock(ctx, alice, "Contested", false)
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteTopic(ctx, alice, "Contested", ""))

	stored, err := env.locks.Get(ctx, topic.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestGetTopicAttachesCurrentLock(t *testing.T) {
	env, _ := newLockEnv(t)
	ctx := context.Background()

	found, err := env.service.GetTopic(ctx, alice, "Contested")
	require.NoError(t, err)
	assert.Nil(t, found.WriteLock)

	_, _, err = env.service.AcquireWriteLock(ctx, bob, "Contested", false)
	require.NoError(t, err)

	found, err = env.service.GetTopic(ctx, alice, "Contested")
	require.NoError(t, err)
	require.NotNil(t, found.WriteLock)
	assert.Equal(t, bob.ID, found.WriteLock.OwnerID)
}
