// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/wikara/wikara/pkg/wikiname"
)

// # Lifecycle Events

// EventType names a committed lifecycle mutation.
type EventType string

const (
	EventTopicCreated  EventType = "topic_created"
	EventTopicModified EventType = "topic_modified"
	EventTopicRenamed  EventType = "topic_renamed"
	EventTopicDeleted  EventType = "topic_deleted"
)

// Event describes a committed mutation, handed to post-commit handlers.
type Event struct {
	Type    EventType
	Topic   *Topic
	Actor   Actor
	OldName string // set for EventTopicRenamed
	Trivial bool   // set for EventTopicModified
}

// EventHandler reacts to a committed mutation. Handlers run synchronously in
// registration order; a handler error fails the triggering operation's
// response but never rolls back the committed mutation.
type EventHandler func(ctx context.Context, event Event) error

// emit runs all registered handlers in order.
func (service *Service) emit(context context.Context, event Event) error {
	for _, handler := range service.handlers {
		if err := handler(context, event); err != nil {
			return err
		}
	}
	return nil
}

// # Propagation Handler

// propagateGraph keeps dependents consistent after a committed mutation:
// link rewriting on rename, nascent promotion on create/rename, dependent
// re-renders on delete.
func (service *Service) propagateGraph(context context.Context, event Event) error {
	switch event.Type {
	case EventTopicRenamed:
		if err := service.rewriteReferrerLinks(context, event); err != nil {
			return err
		}
		return service.promoteNascent(context, event)

	case EventTopicCreated:
		return service.promoteNascent(context, event)

	case EventTopicDeleted:
		return service.rerenderReferrers(context, event)

	default:
		return nil
	}
}

/*
promoteNascent retires the placeholder a new (or renamed) topic fulfils.

Description: When a nascent placeholder exists under the topic's normalized
name, every topic that referenced the placeholder is re-rendered so its link
turns live and its edge repoints at the real topic, then the placeholder is
deleted. A missing placeholder is the common case, not an error.
*/
func (service *Service) promoteNascent(context context.Context, event Event) error {
	nascent, err := service.repository.FindNascentByNameIfExists(context, event.Topic.NormalizedName)
	if err != nil {
		return err
	}
	if nascent == nil {
		return nil
	}

	referrers, err := service.repository.TopicsReferencingNascent(context, nascent.ID)
	if err != nil {
		return err
	}

	for _, referrer := range referrers {
		if err := service.rerenderTopic(context, referrer, event.Actor); err != nil {
			return err
		}
	}

	if err := service.repository.DeleteNascent(context, nascent.ID); err != nil {
		return err
	}

	service.logger.Info("nascent_topic_promoted",
		slog.String("nascent_id", nascent.ID),
		slog.String("topic_id", event.Topic.ID),
		slog.String("name", event.Topic.Name),
		slog.Int("referrers", len(referrers)),
	)

	return nil
}

/*
rewriteReferrerLinks updates link syntax in every topic referencing a renamed
topic.

Description: Occurrences of the old name inside wiki-link syntax are replaced
with the new name in the referrer's raw content. That is a content mutation:
each affected referrer is versioned and re-rendered like a normal update.
Referrers whose raw content does not textually mention the old name (macro
contributed edges) are re-rendered without a version.
*/
func (service *Service) rewriteReferrerLinks(context context.Context, event Event) error {
	referrers, err := service.repository.ReferencingTopics(context, event.Topic.ID)
	if err != nil {
		return err
	}

	for _, referrer := range referrers {
		if referrer.ID == event.Topic.ID {
			// Self-references already carry the new name.
			continue
		}

		rewritten := rewriteWikiLinks(referrer.ContentRaw, event.OldName, event.Topic.Name)
		if rewritten == referrer.ContentRaw {
			if err := service.rerenderTopic(context, referrer, event.Actor); err != nil {
				return err
			}
			continue
		}

		if err := service.snapshot(context, referrer); err != nil {
			return err
		}

		referrer.ContentRaw = rewritten
		referrer.Reason = fmt.Sprintf(reasonRewrite, event.OldName, event.Topic.Name)
		referrer.ModifiedAt = service.now()
		referrer.AuthorID = event.Actor.ID

		if err := service.rerenderTopic(context, referrer, event.Actor); err != nil {
			return err
		}
	}

	return nil
}

// rerenderReferrers refreshes every topic referencing a deleted topic so
// rendered links show the target as absent and the edges move to a nascent
// placeholder.
func (service *Service) rerenderReferrers(context context.Context, event Event) error {
	referrers, err := service.repository.ReferencingTopics(context, event.Topic.ID)
	if err != nil {
		return err
	}

	for _, referrer := range referrers {
		if err := service.rerenderTopic(context, referrer, event.Actor); err != nil {
			return err
		}
	}

	return nil
}

// # Notification Handler

// notifyWatchers forwards non-trivial content changes to the notification
// sink.
func (service *Service) notifyWatchers(context context.Context, event Event) error {
	if event.Type != EventTopicModified || event.Trivial {
		return nil
	}
	return service.notifier.TopicChanged(context, event.Topic.ID, event.Topic.Name)
}

// # Link Rewriting

// wikiLinkPattern matches the opening of a wiki link up to its target: the
// target runs until a ']' or a '|' label separator.
var wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|]+)(\]\]|\|)`)

// rewriteWikiLinks replaces link targets equal to oldName (case-insensitive,
// per name normalization) with newName, leaving labels and all other text
// untouched.
func rewriteWikiLinks(raw, oldName, newName string) string {
	oldNormalized := wikiname.Normalize(oldName)

	return wikiLinkPattern.ReplaceAllStringFunc(raw, func(match string) string {
		groups := wikiLinkPattern.FindStringSubmatch(match)
		target, suffix := groups[1], groups[2]

		if wikiname.Normalize(strings.TrimSpace(target)) != oldNormalized {
			return match
		}
		return "[[" + newName + suffix
	})
}
