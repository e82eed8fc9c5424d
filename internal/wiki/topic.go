// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

/*
Package wiki implements the topic graph and versioning core of Wikara.

A Topic is a named, versioned document whose rendered content links to other
topics by name. The package keeps three invariants across every mutation:

  - Bidirectional consistency of the reference graph, including placeholder
    [NascentTopic] records for names that are linked but not yet created.
  - An immutable, time-ordered version history: every mutating operation
    snapshots the pre-mutation state exactly once.
  - Rendered output that reflects the live topic set, re-rendered across
    dependents when a topic is created, renamed, or deleted.
*/
package wiki

import (
	"fmt"
	"time"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/internal/platform/constants"
)

// # Domain Entities

// Topic is a named wiki document. Uniqueness is enforced on NormalizedName,
// never on the case-preserving display Name.
type Topic struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	NormalizedName  string     `json:"normalized_name"`
	ContentRaw      string     `json:"content_raw"`
	ContentRendered string     `json:"content_rendered"`
	CreatedAt       time.Time  `json:"created_at"`
	ModifiedAt      time.Time  `json:"modified_at"`
	AuthorID        string     `json:"author_id"`
	Locked          bool       `json:"locked"`
	Restricted      bool       `json:"restricted"`
	Deleted         bool       `json:"deleted"`
	Reason          string     `json:"reason"`
	WriteLock       *WriteLock `json:"write_lock,omitempty"`
}

// NascentTopic records that some name is referenced by at least one live
// topic but has no topic of its own yet. The casing of the first reference
// wins as the display name.
type NascentTopic struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	CreatedAt      time.Time `json:"created_at"`
	AuthorID       string    `json:"author_id"`
}

// TopicVersion is an immutable snapshot of a topic's pre-mutation state.
//
// CreatedAt is copied from the topic's ModifiedAt at snapshot time, not the
// snapshot's own wall-clock time: it records when the captured content became
// current, not when it was superseded.
type TopicVersion struct {
	ID         string    `json:"id"`
	TopicID    string    `json:"topic_id"`
	NameAtTime string    `json:"name_at_time"`
	AuthorID   string    `json:"author_id"`
	ContentRaw string    `json:"content_raw"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`

	// NormalizedCreated is the canonical second-resolution UTC key used for
	// version URLs, e.g. "2026-02-14_09:30:15". Unique per topic.
	NormalizedCreated string `json:"normalized_created"`
}

// NormalizeVersionTime derives the canonical URL key for a version timestamp.
func NormalizeVersionTime(at time.Time) string {
	return at.UTC().Format(constants.VersionTimestampLayout)
}

// WriteLock is an advisory, time-boxed exclusive-edit claim on a topic.
// A lock whose expiry has passed is logically absent.
type WriteLock struct {
	TopicID   string    `json:"topic_id"`
	OwnerID   string    `json:"owner_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// # Caller Identity

// Actor identifies the user performing an operation, reduced to the two
// capabilities the core checks.
type Actor struct {
	// ID is the user's account ID.
	ID string

	// Moderator grants editing of locked topics and force operations on
	// write locks.
	Moderator bool

	// Restricted grants access to restricted topics.
	Restricted bool
}

// Permitted reports whether the actor may view the topic's content.
func Permitted(topic *Topic, actor Actor) bool {
	if !topic.Restricted {
		return true
	}
	return actor.Restricted || actor.Moderator
}

// canMutate reports whether the actor may change the topic. Locked topics
// are moderator-only; restricted topics additionally require restricted
// access.
func canMutate(topic *Topic, actor Actor) bool {
	if topic.Locked && !actor.Moderator {
		return false
	}
	return Permitted(topic, actor)
}

// # Default Change Reasons

const (
	reasonInitial  = "Initial version."
	reasonReverted = "Reverted to the version from %s."
	reasonRenamed  = "Renamed from %q."
	reasonDeleted  = "Topic deleted."
	reasonRewrite  = "Links updated for the rename of %q to %q."
)

// # Error Constructors

// ErrBadName builds the failure for a name containing forbidden characters.
func ErrBadName(name string) *apperr.AppError {
	return apperr.ValidationError(
		fmt.Sprintf("%q is not a valid topic name: '/' and ':' are not allowed, use '.' for hierarchy", name),
	)
}

// ErrTopicExists builds the failure for a name collision on create or rename.
func ErrTopicExists(name string) *apperr.AppError {
	return apperr.Conflict(fmt.Sprintf("A topic named %q already exists", name))
}

// ErrPermissionDenied builds the failure for a mutation the actor may not
// perform.
func ErrPermissionDenied() *apperr.AppError {
	return apperr.Forbidden("You do not have permission to modify this topic")
}

// ErrTopicInvariant builds the failure for a semantic invariant violation,
// e.g. reverting to a version that belongs to a different topic.
func ErrTopicInvariant(msg string) *apperr.AppError {
	return apperr.Unprocessable(msg)
}
