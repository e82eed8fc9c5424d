// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wikara/wikara/internal/platform/constants"
)

// # Redis Lock Repository

// redisLockRepository implements [LockRepository] on Redis key expiry.
//
// A lock is a single key (value: owner ID) with a PX TTL. Redis removing the
// key at expiry gives the "expired lock is logically absent" rule for free,
// and SET NX makes acquisition atomic across instances.
type redisLockRepository struct {
	client *redis.Client
}

// NewRedisLockRepository constructs a Redis backed write-lock store.
func NewRedisLockRepository(client *redis.Client) LockRepository {
	return &redisLockRepository{client: client}
}

func lockKey(topicID string) string {
	return constants.RedisPrefixWriteLock + topicID
}

// AcquireIfAbsent stores the lock iff no live lock exists.
func (repository *redisLockRepository) AcquireIfAbsent(context context.Context, topicID, ownerID string, ttl time.Duration) (bool, error) {
	stored, err := repository.client.SetNX(context, lockKey(topicID), ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to acquire write lock: %w", err)
	}
	return stored, nil
}

// Get returns the live lock, or (nil, nil) when the key is gone or expired.
func (repository *redisLockRepository) Get(context context.Context, topicID string) (*WriteLock, error) {
	key := lockKey(topicID)

	ownerID, err := repository.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: failed to read write lock: %w", err)
	}

	remaining, err := repository.client.PTTL(context, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to read write lock ttl: %w", err)
	}
	if remaining < 0 {
		// Key expired between the two reads.
		return nil, nil
	}

	return &WriteLock{
		TopicID:   topicID,
		OwnerID:   ownerID,
		ExpiresAt: time.Now().Add(remaining),
	}, nil
}

// Extend resets the expiry of a lock currently held by ownerID. The
// check-then-set is not atomic; the lock is advisory and the window is
// harmless for well-behaved single-writer use.
func (repository *redisLockRepository) Extend(context context.Context, topicID, ownerID string, ttl time.Duration) (bool, error) {
	current, err := repository.Get(context, topicID)
	if err != nil {
		return false, err
	}
	if current == nil || current.OwnerID != ownerID {
		return false, nil
	}

	if err := repository.client.Set(context, lockKey(topicID), ownerID, ttl).Err(); err != nil {
		return false, fmt.Errorf("redis: failed to extend write lock: %w", err)
	}
	return true, nil
}

// Overwrite stores the lock regardless of any current holder.
func (repository *redisLockRepository) Overwrite(context context.Context, topicID, ownerID string, ttl time.Duration) error {
	if err := repository.client.Set(context, lockKey(topicID), ownerID, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to overwrite write lock: %w", err)
	}
	return nil
}

// Delete removes the lock.
func (repository *redisLockRepository) Delete(context context.Context, topicID string) error {
	if err := repository.client.Del(context, lockKey(topicID)).Err(); err != nil {
		return fmt.Errorf("redis: failed to release write lock: %w", err)
	}
	return nil
}
