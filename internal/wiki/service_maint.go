// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"log/slog"
	"time"
)

// # Maintenance Operations

// SweepOrphanNascents removes nascent placeholders no live topic references
// anymore and reports how many were removed. Orphans appear when the last
// referencing topic drops its link or is deleted; collection is periodic,
// not synchronous with the edit that orphaned them.
func (service *Service) SweepOrphanNascents(context context.Context) (int, error) {
	removed, err := service.repository.DeleteOrphanNascents(context)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		service.logger.Info("nascent_topics_swept", slog.Int("removed", removed))
	}

	return removed, nil
}

// RunNascentSweeper sweeps orphan placeholders on a fixed interval until the
// context is cancelled. Intended to run as a background goroutine from main.
func (service *Service) RunNascentSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.SweepOrphanNascents(ctx); err != nil {
				service.logger.Error("nascent_sweep_failed", slog.String("error", err.Error()))
			}
		}
	}
}

// rerenderBatchSize is the page size for the full re-render walk.
const rerenderBatchSize = 100

/*
RerenderAllTopics re-renders every live topic.

Description: Admin operation for markup dialect changes or graph repair.
Walks the live topic set in normalized-name order and runs the normal
render-and-reconcile path on each, without versions or modification metadata
changes. Returns the number of topics re-rendered.
*/
func (service *Service) RerenderAllTopics(context context.Context, actor Actor) (int, error) {
	rendered := 0
	offset := 0

	for {
		topics, _, err := service.repository.ListTopics(context, "", rerenderBatchSize, offset)
		if err != nil {
			return rendered, err
		}
		if len(topics) == 0 {
			break
		}

		for _, topic := range topics {
			if err := service.rerenderTopic(context, topic, actor); err != nil {
				return rendered, err
			}
			rendered++
		}

		offset += len(topics)
	}

	service.logger.Info("topics_rerendered", slog.Int("count", rendered))
	return rendered, nil
}
