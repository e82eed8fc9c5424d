// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wikara/wikara/internal/markup"
	"github.com/wikara/wikara/internal/notify"
	"github.com/wikara/wikara/pkg/uuidv7"
	"github.com/wikara/wikara/pkg/wikiname"
)

// # Service Layer

// Service orchestrates topic lifecycle operations: create, update, rename,
// delete, revert. Every mutation follows the same order: check write
// permission, snapshot the pre-mutation state, apply the change, re-render
// with graph reconciliation, persist, then run the post-commit event
// handlers.
type Service struct {
	repository Repository
	locks      LockRepository
	renderer   *markup.Renderer
	notifier   notify.Notifier
	logger     *slog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time

	// handlers run synchronously, in order, after each committed mutation.
	handlers []EventHandler
}

// NewService constructs a [Service] with the built-in propagation and
// notification handlers installed.
func NewService(repository Repository, locks LockRepository, renderer *markup.Renderer, notifier notify.Notifier, logger *slog.Logger) *Service {
	service := &Service{
		repository: repository,
		locks:      locks,
		renderer:   renderer,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
	service.handlers = []EventHandler{
		service.propagateGraph,
		service.notifyWatchers,
	}
	return service
}

// RegisterHandler appends an additional post-commit event handler. Handlers
// run in registration order; registration is not safe after the service
// starts serving.
func (service *Service) RegisterHandler(handler EventHandler) {
	service.handlers = append(service.handlers, handler)
}

// # Read Operations

// findPermitted loads the live topic under a name and enforces the view
// permission. Every read path that exposes topic content goes through here;
// a topic's history is as restricted as the topic itself.
func (service *Service) findPermitted(context context.Context, actor Actor, name string) (*Topic, error) {
	topic, err := service.repository.FindTopicByName(context, wikiname.Normalize(name))
	if err != nil {
		return nil, err
	}
	if !Permitted(topic, actor) {
		return nil, ErrPermissionDenied()
	}
	return topic, nil
}

// redactRestricted blanks the body of any listed topic the actor may not
// view. Restricted topics still appear in listings under their name, but
// their content and change reasons never leave the service.
func redactRestricted(topics []*Topic, actor Actor) []*Topic {
	for _, topic := range topics {
		if !Permitted(topic, actor) {
			topic.ContentRaw = ""
			topic.ContentRendered = ""
			topic.Reason = ""
		}
	}
	return topics
}

// GetTopic returns the live topic under a name, with its current write lock
// attached. Restricted topics require a privileged actor.
func (service *Service) GetTopic(context context.Context, actor Actor, name string) (*Topic, error) {
	topic, err := service.findPermitted(context, actor, name)
	if err != nil {
		return nil, err
	}

	lock, err := service.locks.Get(context, topic.ID)
	if err != nil {
		return nil, err
	}
	topic.WriteLock = lock

	return topic, nil
}

// ListTopics returns live topics under a hierarchy prefix, ordered by
// normalized name. Bodies of restricted topics are redacted for actors
// without the capability.
func (service *Service) ListTopics(context context.Context, actor Actor, prefix string, limit, offset int) ([]*Topic, int, error) {
	normalizedPrefix := ""
	if prefix != "" {
		if !wikiname.Valid(prefix) {
			return nil, 0, ErrBadName(prefix)
		}
		normalizedPrefix = wikiname.Normalize(prefix)
	}

	topics, total, err := service.repository.ListTopics(context, normalizedPrefix, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return redactRestricted(topics, actor), total, nil
}

// ReferencedBy returns the live topics whose content links to the named
// topic.
func (service *Service) ReferencedBy(context context.Context, actor Actor, name string) ([]*Topic, error) {
	topic, err := service.findPermitted(context, actor, name)
	if err != nil {
		return nil, err
	}

	sources, err := service.repository.ReferencingTopics(context, topic.ID)
	if err != nil {
		return nil, err
	}
	return redactRestricted(sources, actor), nil
}

// ListNascents returns all placeholder topics, ordered by normalized name.
func (service *Service) ListNascents(context context.Context) ([]*NascentTopic, error) {
	return service.repository.ListNascents(context)
}

// # Lifecycle Operations

/*
CreateTopic creates a new topic and renders its content.

Description: The content is rendered twice. The first render persists the
topic without touching the reference graph, so a topic whose content links to
itself has a durable identity for its own reference edge. The second render
runs full graph reconciliation against the now-live topic set.

Parameters:
  - context: context.Context
  - actor: Actor (the creating user)
  - name: string (display form; case is preserved)
  - content: string (raw markup)

Returns:
  - *Topic: The created topic with rendered content
  - error: BadName, TopicExists, or rendering/persistence failures
*/
func (service *Service) CreateTopic(context context.Context, actor Actor, name, content string) (*Topic, error) {
	name = strings.TrimSpace(name)
	if !wikiname.Valid(name) {
		return nil, ErrBadName(name)
	}

	normalized := wikiname.Normalize(name)
	exists, err := service.repository.TopicExists(context, normalized)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTopicExists(name)
	}

	now := service.now()
	topic := &Topic{
		ID:             uuidv7.New(),
		Name:           name,
		NormalizedName: normalized,
		ContentRaw:     content,
		CreatedAt:      now,
		ModifiedAt:     now,
		AuthorID:       actor.ID,
		Reason:         reasonInitial,
	}

	// First render: no graph update, just rendered output for the insert.
	first, err := service.renderer.Render(context, topic.ContentRaw, topic.Name)
	if err != nil {
		return nil, err
	}
	topic.ContentRendered = first.HTML

	if err := service.repository.CreateTopic(context, topic); err != nil {
		return nil, err
	}

	// Second render: the topic is live now, so self-links resolve and the
	// reference graph picks up its edges.
	if err := service.renderAndReconcile(context, topic, actor); err != nil {
		return nil, err
	}
	if err := service.repository.UpdateTopic(context, topic); err != nil {
		return nil, err
	}

	service.logger.Info("topic_created",
		slog.String("topic_id", topic.ID),
		slog.String("name", topic.Name),
		slog.String("author_id", actor.ID),
	)

	if err := service.emit(context, Event{Type: EventTopicCreated, Topic: topic, Actor: actor}); err != nil {
		return nil, err
	}

	return topic, nil
}

/*
UpdateContent replaces a topic's content.

Description: Appends exactly one version snapshotting the pre-update state,
then re-renders with reconciliation. A trivial update suppresses the watcher
notification but still versions.

Parameters:
  - context: context.Context
  - actor: Actor
  - name: string (topic display or normalized name)
  - content: string (new raw markup)
  - reason: string (changelog note; may be empty)
  - trivial: bool (suppress topic_notify)

Returns:
  - *Topic: The updated topic
  - error: NotFound, PermissionDenied, or rendering/persistence failures
*/
func (service *Service) UpdateContent(context context.Context, actor Actor, name, content, reason string, trivial bool) (*Topic, error) {
	topic, err := service.repository.FindTopicByName(context, wikiname.Normalize(name))
	if err != nil {
		return nil, err
	}
	if !canMutate(topic, actor) {
		return nil, ErrPermissionDenied()
	}

	if err := service.snapshot(context, topic); err != nil {
		return nil, err
	}

	topic.ContentRaw = content
	topic.Reason = reason
	topic.ModifiedAt = service.now()
	topic.AuthorID = actor.ID

	if err := service.renderAndReconcile(context, topic, actor); err != nil {
		return nil, err
	}
	if err := service.repository.UpdateTopic(context, topic); err != nil {
		return nil, err
	}

	service.logger.Info("topic_updated",
		slog.String("topic_id", topic.ID),
		slog.String("name", topic.Name),
		slog.String("author_id", actor.ID),
		slog.Bool("trivial", trivial),
	)

	if err := service.emit(context, Event{Type: EventTopicModified, Topic: topic, Actor: actor, Trivial: trivial}); err != nil {
		return nil, err
	}

	return topic, nil
}

/*
RevertTopic restores a topic's content to an earlier version.

Description: Looks up the version by its canonical timestamp key, verifies it
belongs to this topic, and delegates to [Service.UpdateContent] with the
version's raw content. The revert itself is versioned like any other update.

Returns:
  - error: NotFound on a missing version, Unprocessable when the version
    belongs to a different topic
*/
func (service *Service) RevertTopic(context context.Context, actor Actor, name, versionKey, reason string) (*Topic, error) {
	topic, err := service.repository.FindTopicByName(context, wikiname.Normalize(name))
	if err != nil {
		return nil, err
	}

	version, err := service.repository.FindVersionByKey(context, topic.ID, versionKey)
	if err != nil {
		return nil, err
	}
	if version.TopicID != topic.ID {
		return nil, ErrTopicInvariant("Version belongs to a different topic")
	}

	if reason == "" {
		reason = fmt.Sprintf(reasonReverted, version.NormalizedCreated)
	}

	return service.UpdateContent(context, actor, name, version.ContentRaw, reason, false)
}

/*
RenameTopic changes a topic's display name.

Description: Snapshots the pre-rename state (old name, old content), applies
the new name, re-renders under it, persists, then lets the post-commit
handlers rewrite links in referencing topics and promote any nascent
placeholder waiting on the new name.

Returns:
  - error: BadName, TopicExists when the new name is occupied,
    PermissionDenied per the lock rule
*/
func (service *Service) RenameTopic(context context.Context, actor Actor, name, newName, reason string) (*Topic, error) {
	topic, err := service.repository.FindTopicByName(context, wikiname.Normalize(name))
	if err != nil {
		return nil, err
	}
	if !canMutate(topic, actor) {
		return nil, ErrPermissionDenied()
	}

	newName = strings.TrimSpace(newName)
	if !wikiname.Valid(newName) {
		return nil, ErrBadName(newName)
	}

	newNormalized := wikiname.Normalize(newName)
	if newNormalized != topic.NormalizedName {
		exists, err := service.repository.TopicExists(context, newNormalized)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrTopicExists(newName)
		}
	}

	if err := service.snapshot(context, topic); err != nil {
		return nil, err
	}

	oldName := topic.Name
	topic.Name = newName
	topic.NormalizedName = newNormalized
	if reason == "" {
		reason = fmt.Sprintf(reasonRenamed, oldName)
	}
	topic.Reason = reason
	topic.ModifiedAt = service.now()
	topic.AuthorID = actor.ID

	if err := service.renderAndReconcile(context, topic, actor); err != nil {
		return nil, err
	}
	if err := service.repository.UpdateTopic(context, topic); err != nil {
		return nil, err
	}

	service.logger.Info("topic_renamed",
		slog.String("topic_id", topic.ID),
		slog.String("old_name", oldName),
		slog.String("new_name", topic.Name),
		slog.String("author_id", actor.ID),
	)

	if err := service.emit(context, Event{Type: EventTopicRenamed, Topic: topic, Actor: actor, OldName: oldName}); err != nil {
		return nil, err
	}

	return topic, nil
}

/*
DeleteTopic soft-deletes a topic.

Description: Snapshots the pre-delete state, marks the topic deleted, drops
its write lock, then re-renders every referencing topic so their links show
the target as absent.
*/
func (service *Service) DeleteTopic(context context.Context, actor Actor, name, reason string) error {
	topic, err := service.repository.FindTopicByName(context, wikiname.Normalize(name))
	if err != nil {
		return err
	}
	if !canMutate(topic, actor) {
		return ErrPermissionDenied()
	}

	if err := service.snapshot(context, topic); err != nil {
		return err
	}

	if reason == "" {
		reason = reasonDeleted
	}

	modifiedAt := service.now()
	if err := service.repository.SoftDeleteTopic(context, topic.ID, reason, modifiedAt); err != nil {
		return err
	}

	// A deleted topic cannot be edited; its lock has no meaning anymore.
	if err := service.locks.Delete(context, topic.ID); err != nil {
		return err
	}

	topic.Deleted = true
	topic.Reason = reason
	topic.ModifiedAt = modifiedAt

	service.logger.Info("topic_deleted",
		slog.String("topic_id", topic.ID),
		slog.String("name", topic.Name),
		slog.String("author_id", actor.ID),
	)

	return service.emit(context, Event{Type: EventTopicDeleted, Topic: topic, Actor: actor})
}

// # Moderation

/*
SetTopicProperties toggles the moderation flags on a topic.

Description: Locked makes the topic moderator-only for mutations; Restricted
hides its content and history from actors without restricted access. A nil
flag leaves the current value unchanged. Flipping a flag is not a content
mutation: no version is recorded and modified-at stays put.

Parameters:
  - context: context.Context
  - actor: Actor (must be a moderator)
  - name: string
  - locked: *bool (nil to keep)
  - restricted: *bool (nil to keep)

Returns:
  - *Topic: The topic with the flags applied
  - error: NotFound, or PermissionDenied for non-moderators
*/
func (service *Service) SetTopicProperties(context context.Context, actor Actor, name string, locked, restricted *bool) (*Topic, error) {
	if !actor.Moderator {
		return nil, ErrPermissionDenied()
	}

	topic, err := service.findPermitted(context, actor, name)
	if err != nil {
		return nil, err
	}

	if locked != nil {
		topic.Locked = *locked
	}
	if restricted != nil {
		topic.Restricted = *restricted
	}

	if err := service.repository.UpdateTopic(context, topic); err != nil {
		return nil, err
	}

	service.logger.Info("topic_properties_set",
		slog.String("topic_id", topic.ID),
		slog.String("name", topic.Name),
		slog.Bool("locked", topic.Locked),
		slog.Bool("restricted", topic.Restricted),
		slog.String("actor_id", actor.ID),
	)

	return topic, nil
}
