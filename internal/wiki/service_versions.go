// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/wikara/wikara/pkg/uuidv7"
)

// # Version Store

// snapshot appends an immutable version of the topic's current state. It
// must run before any mutable field is overwritten: the version captures the
// pre-mutation name, content, author, and reason, and its created-at is the
// topic's current modified-at.
func (service *Service) snapshot(context context.Context, topic *Topic) error {
	return service.repository.CreateVersion(context, &TopicVersion{
		ID:                uuidv7.New(),
		TopicID:           topic.ID,
		NameAtTime:        topic.Name,
		AuthorID:          topic.AuthorID,
		ContentRaw:        topic.ContentRaw,
		Reason:            topic.Reason,
		CreatedAt:         topic.ModifiedAt,
		NormalizedCreated: NormalizeVersionTime(topic.ModifiedAt),
	})
}

// ListVersions returns a topic's history, newest first. A restricted topic's
// history is as restricted as the topic itself.
func (service *Service) ListVersions(context context.Context, actor Actor, name string, limit, offset int) ([]*TopicVersion, int, error) {
	topic, err := service.findPermitted(context, actor, name)
	if err != nil {
		return nil, 0, err
	}
	return service.repository.ListVersions(context, topic.ID, limit, offset)
}

// GetVersion returns the version addressed by its canonical timestamp key.
func (service *Service) GetVersion(context context.Context, actor Actor, name, versionKey string) (*TopicVersion, error) {
	topic, err := service.findPermitted(context, actor, name)
	if err != nil {
		return nil, err
	}
	return service.repository.FindVersionByKey(context, topic.ID, versionKey)
}

// VersionNearest resolves an imprecise timestamp to the most recent version
// at or before it. Callers redirect the imprecise URL to the returned
// version's canonical key.
func (service *Service) VersionNearest(context context.Context, actor Actor, name string, at time.Time) (*TopicVersion, error) {
	topic, err := service.findPermitted(context, actor, name)
	if err != nil {
		return nil, err
	}
	return service.repository.VersionAtOrBefore(context, topic.ID, at)
}

// # Version Diffs

// VersionDiff describes the change between two versions of a topic.
type VersionDiff struct {
	TopicID string `json:"topic_id"`
	FromKey string `json:"from"`
	ToKey   string `json:"to"`

	// Patch is the delta in unidiff-style patch text.
	Patch string `json:"patch"`
}

// DiffVersions computes the raw-content delta between two versions of the
// same topic, oldest as the base.
func (service *Service) DiffVersions(context context.Context, actor Actor, name, fromKey, toKey string) (*VersionDiff, error) {
	topic, err := service.findPermitted(context, actor, name)
	if err != nil {
		return nil, err
	}

	from, err := service.repository.FindVersionByKey(context, topic.ID, fromKey)
	if err != nil {
		return nil, err
	}
	to, err := service.repository.FindVersionByKey(context, topic.ID, toKey)
	if err != nil {
		return nil, err
	}

	differ := diffmatchpatch.New()
	patches := differ.PatchMake(from.ContentRaw, to.ContentRaw)

	return &VersionDiff{
		TopicID: topic.ID,
		FromKey: from.NormalizedCreated,
		ToKey:   to.NormalizedCreated,
		Patch:   differ.PatchToText(patches),
	}, nil
}
