// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

/*
Package notify fans topic-change notifications out to interested watchers.

The core only decides WHEN a notification is due (a non-trivial content
change); delivery mechanics live behind the [Notifier] interface so the
system assembles either a real transport or the no-op implementation at
startup.
*/
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wikara/wikara/internal/platform/constants"
)

// Notifier receives topic-change events worth telling watchers about.
type Notifier interface {
	// TopicChanged reports a non-trivial content change.
	TopicChanged(ctx context.Context, topicID, topicName string) error
}

// # No-op Implementation

// NoopNotifier drops all notifications. Used when no delivery transport is
// configured.
type NoopNotifier struct{}

func (NoopNotifier) TopicChanged(context.Context, string, string) error { return nil }

// # Redis Implementation

// changeMessage is the wire payload published per change.
type changeMessage struct {
	TopicID   string    `json:"topic_id"`
	TopicName string    `json:"topic_name"`
	ChangedAt time.Time `json:"changed_at"`
}

// RedisNotifier publishes change events on a Redis pub/sub channel consumed
// by the delivery workers (mail digests, feeds).
type RedisNotifier struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisNotifier constructs a [RedisNotifier].
func NewRedisNotifier(client *redis.Client, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

// TopicChanged publishes the change on the notification channel.
func (notifier *RedisNotifier) TopicChanged(ctx context.Context, topicID, topicName string) error {
	payload, err := json.Marshal(changeMessage{
		TopicID:   topicID,
		TopicName: topicName,
		ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify: failed to encode change message: %w", err)
	}

	if err := notifier.client.Publish(ctx, constants.RedisChannelNotify, payload).Err(); err != nil {
		return fmt.Errorf("notify: failed to publish change message: %w", err)
	}

	notifier.logger.Debug("topic_notify_published",
		slog.String("topic_id", topicID),
		slog.String("topic_name", topicName),
	)

	return nil
}
