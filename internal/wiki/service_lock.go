// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"log/slog"
	"time"

	"github.com/wikara/wikara/internal/platform/constants"
	"github.com/wikara/wikara/pkg/wikiname"
)

// # Write-Lock Manager
//
// State machine per topic: Unlocked, or LockedByOwner(owner, expiry).
// An expired lock is logically absent, so an expired holder loses the lock
// to the next acquirer without a distinct transition.
//
// Lock contention is an expected, recoverable condition: both operations
// report the outcome as a boolean alongside the current holder, never as an
// error.

/*
AcquireWriteLock claims or refreshes the advisory write lock on a topic.

Transitions:
  - Unlocked: the actor becomes the holder with a fresh TTL.
  - Held by the actor: success; the expiry is extended only when less than
    the renewal window remains, so repeated editor pings don't churn the
    store.
  - Held by someone else, unexpired, no force: failure, lock unchanged.
  - Held by someone else with force: ownership transfers unconditionally.

Parameters:
  - context: context.Context
  - actor: Actor (force requires moderator, enforced at the API boundary)
  - name: string (topic name)
  - force: bool

Returns:
  - bool: Whether the actor holds the lock afterwards
  - *WriteLock: The lock as held after the call (the rival's lock on failure)
  - error: Lookup or storage failures only, never contention
*/
func (service *Service) AcquireWriteLock(context context.Context, actor Actor, name string, force bool) (bool, *WriteLock, error) {
	topic, err := service.repository.FindTopicByName(context, wikiname.Normalize(name))
	if err != nil {
		return false, nil, err
	}

	ttl := constants.WriteLockTTL

	acquired, err := service.locks.AcquireIfAbsent(context, topic.ID, actor.ID, ttl)
	if err != nil {
		return false, nil, err
	}
	if acquired {
		service.logger.Info("write_lock_acquired",
			slog.String("topic_id", topic.ID),
			slog.String("owner_id", actor.ID),
		)
		return true, service.lockView(topic.ID, actor.ID, ttl), nil
	}

	current, err := service.locks.Get(context, topic.ID)
	if err != nil {
		return false, nil, err
	}
	if current == nil {
		// Expired between the two calls; take it.
		if err := service.locks.Overwrite(context, topic.ID, actor.ID, ttl); err != nil {
			return false, nil, err
		}
		return true, service.lockView(topic.ID, actor.ID, ttl), nil
	}

	if current.OwnerID == actor.ID {
		// Refresh only inside the renewal window; success either way.
		if time.Until(current.ExpiresAt) < constants.WriteLockRenewalWindow {
			extended, err := service.locks.Extend(context, topic.ID, actor.ID, ttl)
			if err != nil {
				return false, nil, err
			}
			if extended {
				return true, service.lockView(topic.ID, actor.ID, ttl), nil
			}
		}
		return true, current, nil
	}

	if force {
		if err := service.locks.Overwrite(context, topic.ID, actor.ID, ttl); err != nil {
			return false, nil, err
		}
		service.logger.Info("write_lock_transferred",
			slog.String("topic_id", topic.ID),
			slog.String("old_owner_id", current.OwnerID),
			slog.String("owner_id", actor.ID),
		)
		return true, service.lockView(topic.ID, actor.ID, ttl), nil
	}

	return false, current, nil
}

/*
ReleaseWriteLock gives up the advisory write lock on a topic.

Transitions: releasing an absent (or expired) lock is a successful no-op;
the holder always releases successfully; a non-holder fails unless force is
set.

Returns:
  - bool: Whether the topic is unlocked afterwards
  - error: Lookup or storage failures only
*/
func (service *Service) ReleaseWriteLock(context context.Context, actor Actor, name string, force bool) (bool, error) {
	topic, err := service.repository.FindTopicByName(context, wikiname.Normalize(name))
	if err != nil {
		return false, err
	}

	current, err := service.locks.Get(context, topic.ID)
	if err != nil {
		return false, err
	}
	if current == nil {
		return true, nil
	}

	if current.OwnerID != actor.ID && !force {
		return false, nil
	}

	if err := service.locks.Delete(context, topic.ID); err != nil {
		return false, err
	}

	service.logger.Info("write_lock_released",
		slog.String("topic_id", topic.ID),
		slog.String("owner_id", current.OwnerID),
		slog.Bool("forced", current.OwnerID != actor.ID),
	)

	return true, nil
}

// lockView builds the caller-facing lock record for a just-stored lock.
func (service *Service) lockView(topicID, ownerID string, ttl time.Duration) *WriteLock {
	return &WriteLock{
		TopicID:   topicID,
		OwnerID:   ownerID,
		ExpiresAt: service.now().Add(ttl),
	}
}
