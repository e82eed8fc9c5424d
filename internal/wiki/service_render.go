// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"

	"github.com/wikara/wikara/internal/markup"
	"github.com/wikara/wikara/pkg/uuidv7"
)

// subtopicListLimit caps the topics a single listing macro pulls in.
const subtopicListLimit = 500

// # Markup Resolver

// repositoryResolver adapts [Repository] to the renderer's lookup interface.
type repositoryResolver struct {
	repository Repository
}

// NewResolver exposes the repository to the markup renderer.
func NewResolver(repository Repository) markup.Resolver {
	return &repositoryResolver{repository: repository}
}

func (resolver *repositoryResolver) TopicExists(context context.Context, normalizedName string) (bool, error) {
	return resolver.repository.TopicExists(context, normalizedName)
}

func (resolver *repositoryResolver) SubtopicRefs(context context.Context, normalizedPrefix string) ([]markup.TopicRef, error) {
	topics, _, err := resolver.repository.ListTopics(context, normalizedPrefix, subtopicListLimit, 0)
	if err != nil {
		return nil, err
	}

	refs := make([]markup.TopicRef, 0, len(topics))
	for _, topic := range topics {
		refs = append(refs, markup.TopicRef{Name: topic.Name, NormalizedName: topic.NormalizedName})
	}
	return refs, nil
}

func (resolver *repositoryResolver) AttachmentNames(context context.Context, normalizedName string) ([]string, error) {
	topic, err := resolver.repository.FindTopicByNameIfExists(context, normalizedName)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, nil
	}
	return resolver.repository.AttachmentNames(context, topic.ID)
}

// # Render & Reconcile

/*
renderAndReconcile re-renders a topic's content and reconciles the reference
graph with what the render discovered.

Description: Discovered names are partitioned into those matching a live
topic and those that do not. Resolved names become topic edges, together with
any macro-contributed topics. Each unresolved name is backed by a nascent
placeholder, created on first reference with the discoverer's casing and the
acting user as creator. The topic's outgoing edges are then replaced
atomically.

The topic's rendered content is updated in place; the caller persists the
topic row.
*/
func (service *Service) renderAndReconcile(context context.Context, topic *Topic, actor Actor) error {
	result, err := service.renderer.Render(context, topic.ContentRaw, topic.Name)
	if err != nil {
		return err
	}
	topic.ContentRendered = result.HTML

	topicIDs := make([]string, 0, len(result.Names)+len(result.ExtraNames))
	var nascentIDs []string
	seenTopics := make(map[string]bool)

	for _, normalized := range result.Names {
		target, err := service.repository.FindTopicByNameIfExists(context, normalized)
		if err != nil {
			return err
		}

		if target != nil {
			if !seenTopics[target.ID] {
				seenTopics[target.ID] = true
				topicIDs = append(topicIDs, target.ID)
			}
			continue
		}

		nascent, err := service.repository.UpsertNascent(context, &NascentTopic{
			ID:             uuidv7.New(),
			Name:           result.Casing[normalized],
			NormalizedName: normalized,
			CreatedAt:      service.now(),
			AuthorID:       actor.ID,
		})
		if err != nil {
			return err
		}
		nascentIDs = append(nascentIDs, nascent.ID)
	}

	// Macro-contributed topics are live by construction; union them in.
	for _, normalized := range result.ExtraNames {
		target, err := service.repository.FindTopicByNameIfExists(context, normalized)
		if err != nil {
			return err
		}
		if target != nil && !seenTopics[target.ID] {
			seenTopics[target.ID] = true
			topicIDs = append(topicIDs, target.ID)
		}
	}

	return service.repository.ReplaceReferences(context, topic.ID, topicIDs, nascentIDs)
}

// rerenderTopic refreshes a topic's rendered output and reference edges
// without a content change. No version is recorded and the modification
// metadata is untouched; re-rendering unchanged content is idempotent.
func (service *Service) rerenderTopic(context context.Context, topic *Topic, actor Actor) error {
	if err := service.renderAndReconcile(context, topic, actor); err != nil {
		return err
	}
	return service.repository.UpdateTopic(context, topic)
}
