// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"time"
)

// # Storage Contracts

// Repository is the durable store for topics, versions, nascent placeholders,
// and the reference graph.
//
// Lookup conventions: Find* methods return apperr.NotFound on a miss; the
// *IfExists variants return (nil, nil) instead, for callers where absence is
// an ordinary branch rather than a failure.
type Repository interface {
	// # Topics

	// CreateTopic inserts a new topic row. Returns apperr.Conflict when a
	// live topic already occupies the normalized name.
	CreateTopic(ctx context.Context, topic *Topic) error

	// FindTopicByName returns the live (non-deleted) topic under the given
	// normalized name.
	FindTopicByName(ctx context.Context, normalizedName string) (*Topic, error)

	// FindTopicByNameIfExists is FindTopicByName with (nil, nil) on a miss.
	FindTopicByNameIfExists(ctx context.Context, normalizedName string) (*Topic, error)

	// FindTopicByID returns a topic by ID, including soft-deleted ones.
	FindTopicByID(ctx context.Context, id string) (*Topic, error)

	// UpdateTopic overwrites the topic's mutable fields (name, content,
	// rendered output, modified-at, author, reason, flags).
	UpdateTopic(ctx context.Context, topic *Topic) error

	// SoftDeleteTopic marks the topic deleted with the given reason and
	// removes its outgoing reference edges.
	SoftDeleteTopic(ctx context.Context, id, reason string, modifiedAt time.Time) error

	// ListTopics returns live topics whose normalized name starts with
	// prefix (empty prefix lists all), ordered by normalized name, with the
	// total match count.
	ListTopics(ctx context.Context, prefix string, limit, offset int) ([]*Topic, int, error)

	// TopicExists reports whether a live topic occupies the normalized name.
	TopicExists(ctx context.Context, normalizedName string) (bool, error)

	// # Versions

	// CreateVersion appends an immutable snapshot.
	CreateVersion(ctx context.Context, version *TopicVersion) error

	// ListVersions returns a topic's versions ordered by created-at
	// descending, with the total count.
	ListVersions(ctx context.Context, topicID string, limit, offset int) ([]*TopicVersion, int, error)

	// FindVersionByKey returns the version addressed by its canonical
	// timestamp key.
	FindVersionByKey(ctx context.Context, topicID, normalizedCreated string) (*TopicVersion, error)

	// VersionAtOrBefore returns the most recent version with
	// created-at <= at, or apperr.NotFound when the history starts later.
	VersionAtOrBefore(ctx context.Context, topicID string, at time.Time) (*TopicVersion, error)

	// # Nascent Topics

	// UpsertNascent returns the existing placeholder under the normalized
	// name, creating it from the given record when absent.
	UpsertNascent(ctx context.Context, nascent *NascentTopic) (*NascentTopic, error)

	// FindNascentByNameIfExists returns the placeholder under the normalized
	// name, or (nil, nil) when absent.
	FindNascentByNameIfExists(ctx context.Context, normalizedName string) (*NascentTopic, error)

	// DeleteNascent removes a placeholder and its incoming edges.
	DeleteNascent(ctx context.Context, id string) error

	// ListNascents returns all placeholders ordered by normalized name.
	ListNascents(ctx context.Context) ([]*NascentTopic, error)

	// DeleteOrphanNascents removes placeholders with no referencing topics
	// and reports how many were removed.
	DeleteOrphanNascents(ctx context.Context) (int, error)

	// # Reference Graph

	// ReplaceReferences atomically replaces the outgoing edges of a source
	// topic with the given target topic IDs and nascent placeholder IDs.
	ReplaceReferences(ctx context.Context, sourceID string, topicIDs, nascentIDs []string) error

	// ReferencingTopics returns the live topics whose rendered content
	// references the given topic, ordered by normalized name.
	ReferencingTopics(ctx context.Context, targetID string) ([]*Topic, error)

	// TopicsReferencingNascent returns the live topics linking to the given
	// placeholder, ordered by normalized name.
	TopicsReferencingNascent(ctx context.Context, nascentID string) ([]*Topic, error)

	// # Attachments

	// AttachmentNames returns the filenames attached to a topic, ordered by
	// filename. A missing topic yields an empty list.
	AttachmentNames(ctx context.Context, topicID string) ([]string, error)
}

// LockRepository stores advisory write locks. Implementations must treat an
// expired lock as absent.
type LockRepository interface {
	// AcquireIfAbsent stores a lock for ownerID iff no live lock exists.
	// Reports whether the lock was stored.
	AcquireIfAbsent(ctx context.Context, topicID, ownerID string, ttl time.Duration) (bool, error)

	// Get returns the live lock on a topic, or (nil, nil) when unlocked.
	Get(ctx context.Context, topicID string) (*WriteLock, error)

	// Extend resets the expiry of a lock currently held by ownerID.
	// Reports whether such a lock existed.
	Extend(ctx context.Context, topicID, ownerID string, ttl time.Duration) (bool, error)

	// Overwrite stores a lock for ownerID regardless of any current holder.
	Overwrite(ctx context.Context, topicID, ownerID string, ttl time.Duration) error

	// Delete removes the lock on a topic. Removing an absent lock is not an
	// error.
	Delete(ctx context.Context, topicID string) error
}
