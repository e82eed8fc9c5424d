// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wikara/wikara/internal/platform/database/schema"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// failure (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// # Nascent Topic Operations

/*
UpsertNascent returns the placeholder under a normalized name, creating it
when absent.

Description: Uses 'ON CONFLICT DO NOTHING' plus a follow-up read so two
concurrent renders discovering the same new name converge on one row. The
first writer's casing wins.

Returns:
  - *NascentTopic: The surviving row (existing or just created)
*/
func (repository *postgresRepository) UpsertNascent(context context.Context, nascent *NascentTopic) (*NascentTopic, error) {

	insert := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (%s) DO NOTHING
	`,
		schema.WikiNascentTopic.Table,
		schema.WikiNascentTopic.ID,
		schema.WikiNascentTopic.Name,
		schema.WikiNascentTopic.NormalizedName,
		schema.WikiNascentTopic.CreatedAt,
		schema.WikiNascentTopic.AuthorID,
		schema.WikiNascentTopic.NormalizedName,
	)

	_, err := repository.pool.Exec(context, insert,
		nascent.ID,
		nascent.Name,
		nascent.NormalizedName,
		nascent.CreatedAt,
		nascent.AuthorID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to upsert nascent topic: %w", err)
	}

	existing, err := repository.FindNascentByNameIfExists(context, nascent.NormalizedName)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("postgres: nascent topic vanished after upsert: %s", nascent.NormalizedName)
	}

	return existing, nil
}

// FindNascentByNameIfExists returns the placeholder under a normalized name,
// or (nil, nil) when absent.
func (repository *postgresRepository) FindNascentByNameIfExists(context context.Context, normalizedName string) (*NascentTopic, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1
	`,
		schema.WikiNascentTopic.ID,
		schema.WikiNascentTopic.Name,
		schema.WikiNascentTopic.NormalizedName,
		schema.WikiNascentTopic.CreatedAt,
		schema.WikiNascentTopic.AuthorID,
		schema.WikiNascentTopic.Table,
		schema.WikiNascentTopic.NormalizedName,
	)

	var nascent NascentTopic
	err := repository.pool.QueryRow(context, query, normalizedName).Scan(
		&nascent.ID,
		&nascent.Name,
		&nascent.NormalizedName,
		&nascent.CreatedAt,
		&nascent.AuthorID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: failed to find nascent topic: %w", err)
	}

	return &nascent, nil
}

// DeleteNascent removes a placeholder. Incoming edges go with it via the
// cascading foreign key.
func (repository *postgresRepository) DeleteNascent(context context.Context, id string) error {

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.WikiNascentTopic.Table, schema.WikiNascentTopic.ID)

	if _, err := repository.pool.Exec(context, query, id); err != nil {
		return fmt.Errorf("postgres: failed to delete nascent topic: %w", err)
	}

	return nil
}

// ListNascents returns all placeholders ordered by normalized name.
func (repository *postgresRepository) ListNascents(context context.Context) ([]*NascentTopic, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s FROM %s ORDER BY %s ASC
	`,
		schema.WikiNascentTopic.ID,
		schema.WikiNascentTopic.Name,
		schema.WikiNascentTopic.NormalizedName,
		schema.WikiNascentTopic.CreatedAt,
		schema.WikiNascentTopic.AuthorID,
		schema.WikiNascentTopic.Table,
		schema.WikiNascentTopic.NormalizedName,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list nascent topics: %w", err)
	}
	defer rows.Close()

	var nascents []*NascentTopic
	for rows.Next() {
		var nascent NascentTopic
		err := rows.Scan(
			&nascent.ID,
			&nascent.Name,
			&nascent.NormalizedName,
			&nascent.CreatedAt,
			&nascent.AuthorID,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan nascent topic: %w", err)
		}
		nascents = append(nascents, &nascent)
	}

	return nascents, nil
}

// DeleteOrphanNascents removes placeholders no live topic references.
func (repository *postgresRepository) DeleteOrphanNascents(context context.Context) (int, error) {

	query := fmt.Sprintf(`
		DELETE FROM %s n
		WHERE NOT EXISTS (
			SELECT 1 FROM %s r WHERE r.%s = n.%s
		)
	`,
		schema.WikiNascentTopic.Table,
		schema.WikiNascentReference.Table,
		schema.WikiNascentReference.NascentID,
		schema.WikiNascentTopic.ID,
	)

	result, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to sweep orphan nascent topics: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// # Reference Graph Operations

/*
ReplaceReferences atomically replaces a topic's outgoing edges.

Description: Runs a delete-then-batch-insert inside one transaction per edge
table, so readers never observe a partially updated reference set.

Parameters:
  - context: context.Context
  - sourceID: string (the re-rendered topic)
  - topicIDs: []string (live topic targets)
  - nascentIDs: []string (placeholder targets)
*/
func (repository *postgresRepository) ReplaceReferences(context context.Context, sourceID string, topicIDs, nascentIDs []string) error {

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin reference replace: %w", err)
	}
	defer transaction.Rollback(context)

	for _, clear := range []string{
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
			schema.WikiTopicReference.Table, schema.WikiTopicReference.SourceID),
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
			schema.WikiNascentReference.Table, schema.WikiNascentReference.SourceID),
	} {
		if _, err := transaction.Exec(context, clear, sourceID); err != nil {
			return fmt.Errorf("postgres: failed to clear references: %w", err)
		}
	}

	batch := &pgx.Batch{}
	for _, targetID := range topicIDs {
		batch.Queue(fmt.Sprintf(`
			INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, schema.WikiTopicReference.Table, schema.WikiTopicReference.SourceID, schema.WikiTopicReference.TargetID),
			sourceID, targetID)
	}
	for _, nascentID := range nascentIDs {
		batch.Queue(fmt.Sprintf(`
			INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, schema.WikiNascentReference.Table, schema.WikiNascentReference.SourceID, schema.WikiNascentReference.NascentID),
			sourceID, nascentID)
	}

	if batch.Len() > 0 {
		results := transaction.SendBatch(context, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("postgres: failed to insert reference edge %d: %w", i, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("postgres: failed to close reference batch: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit reference replace: %w", err)
	}

	return nil
}

// ReferencingTopics returns the live topics whose content links to targetID.
func (repository *postgresRepository) ReferencingTopics(context context.Context, targetID string) ([]*Topic, error) {

	query := fmt.Sprintf(`
		SELECT %s FROM %s t
		JOIN %s r ON r.%s = t.%s
		WHERE r.%s = $1 AND NOT t.%s
		ORDER BY t.%s ASC
	`,
		topicColumns("t"),
		schema.WikiTopic.Table,
		schema.WikiTopicReference.Table,
		schema.WikiTopicReference.SourceID,
		schema.WikiTopic.ID,
		schema.WikiTopicReference.TargetID,
		schema.WikiTopic.Deleted,
		schema.WikiTopic.NormalizedName,
	)

	return repository.queryTopics(context, query, targetID)
}

// TopicsReferencingNascent returns the live topics linking to a placeholder.
func (repository *postgresRepository) TopicsReferencingNascent(context context.Context, nascentID string) ([]*Topic, error) {

	query := fmt.Sprintf(`
		SELECT %s FROM %s t
		JOIN %s r ON r.%s = t.%s
		WHERE r.%s = $1 AND NOT t.%s
		ORDER BY t.%s ASC
	`,
		topicColumns("t"),
		schema.WikiTopic.Table,
		schema.WikiNascentReference.Table,
		schema.WikiNascentReference.SourceID,
		schema.WikiTopic.ID,
		schema.WikiNascentReference.NascentID,
		schema.WikiTopic.Deleted,
		schema.WikiTopic.NormalizedName,
	)

	return repository.queryTopics(context, query, nascentID)
}

// queryTopics runs a SELECT over [topicColumns] and hydrates the rows.
func (repository *postgresRepository) queryTopics(context context.Context, query string, args ...any) ([]*Topic, error) {

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []*Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan topic: %w", err)
		}
		topics = append(topics, topic)
	}

	return topics, nil
}

// # Attachment Operations

// AttachmentNames returns the filenames attached to a topic.
func (repository *postgresRepository) AttachmentNames(context context.Context, topicID string) ([]string, error) {

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC
	`,
		schema.WikiAttachment.Filename,
		schema.WikiAttachment.Table,
		schema.WikiAttachment.TopicID,
		schema.WikiAttachment.Filename,
	)

	rows, err := repository.pool.Query(context, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list attachments: %w", err)
	}
	defer rows.Close()

	var filenames []string
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan attachment: %w", err)
		}
		filenames = append(filenames, filename)
	}

	return filenames, nil
}
