// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/internal/platform/database/schema"
)

// # PostgreSQL Repository

// postgresRepository implements [Repository] using pgx.
//
// Reference edges live in two junction tables: topic-to-topic and
// topic-to-nascent. Both are replaced atomically inside a transaction when a
// topic is re-rendered.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed topic store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// topicColumns is the canonical SELECT list for hydrating a [Topic].
func topicColumns(alias string) string {
	columns := schema.WikiTopic.Columns()
	for index, column := range columns {
		columns[index] = alias + "." + column
	}
	return strings.Join(columns, ", ")
}

// scanTopic hydrates a [Topic] from a row matching [topicColumns] order.
func scanTopic(row pgx.Row) (*Topic, error) {
	var topic Topic
	err := row.Scan(
		&topic.ID,
		&topic.Name,
		&topic.NormalizedName,
		&topic.ContentRaw,
		&topic.ContentRendered,
		&topic.CreatedAt,
		&topic.ModifiedAt,
		&topic.AuthorID,
		&topic.Locked,
		&topic.Restricted,
		&topic.Deleted,
		&topic.Reason,
	)
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// # Topic Operations

/*
CreateTopic inserts a new topic row.

Description: The partial unique index on normalizedname (live rows only)
turns a concurrent create race into a unique violation, surfaced to the
caller as a conflict.

Parameters:
  - context: context.Context
  - topic: *Topic (fully populated, including ID)

Returns:
  - error: apperr.Conflict on a name collision, persistence errors otherwise
*/
func (repository *postgresRepository) CreateTopic(context context.Context, topic *Topic) error {

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		schema.WikiTopic.Table,
		strings.Join(schema.WikiTopic.Columns(), ", "),
	)

	_, err := repository.pool.Exec(context, query,
		topic.ID,
		topic.Name,
		topic.NormalizedName,
		topic.ContentRaw,
		topic.ContentRendered,
		topic.CreatedAt,
		topic.ModifiedAt,
		topic.AuthorID,
		topic.Locked,
		topic.Restricted,
		topic.Deleted,
		topic.Reason,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTopicExists(topic.Name)
		}
		return fmt.Errorf("postgres: failed to create topic: %w", err)
	}

	return nil
}

// FindTopicByName returns the live topic under a normalized name.
func (repository *postgresRepository) FindTopicByName(context context.Context, normalizedName string) (*Topic, error) {
	topic, err := repository.FindTopicByNameIfExists(context, normalizedName)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperr.NotFound("Topic")
	}
	return topic, nil
}

// FindTopicByNameIfExists returns the live topic under a normalized name, or
// (nil, nil) when the name is unused.
func (repository *postgresRepository) FindTopicByNameIfExists(context context.Context, normalizedName string) (*Topic, error) {

	query := fmt.Sprintf(`
		SELECT %s FROM %s t
		WHERE t.%s = $1 AND NOT t.%s
	`,
		topicColumns("t"),
		schema.WikiTopic.Table,
		schema.WikiTopic.NormalizedName,
		schema.WikiTopic.Deleted,
	)

	topic, err := scanTopic(repository.pool.QueryRow(context, query, normalizedName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: failed to find topic by name: %w", err)
	}

	return topic, nil
}

// FindTopicByID returns a topic by ID, soft-deleted ones included: version
// history and admin views address topics that are no longer live.
func (repository *postgresRepository) FindTopicByID(context context.Context, id string) (*Topic, error) {

	query := fmt.Sprintf(`
		SELECT %s FROM %s t WHERE t.%s = $1
	`,
		topicColumns("t"),
		schema.WikiTopic.Table,
		schema.WikiTopic.ID,
	)

	topic, err := scanTopic(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Topic")
		}
		return nil, fmt.Errorf("postgres: failed to find topic by id: %w", err)
	}

	return topic, nil
}

/*
UpdateTopic overwrites a topic's mutable fields.

Description: Name changes flow through here as well; the partial unique index
rejects a rename onto an occupied live name.

Returns:
  - error: apperr.NotFound when the row is gone, apperr.Conflict on a rename
    collision
*/
func (repository *postgresRepository) UpdateTopic(context context.Context, topic *Topic) error {

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, %s = $2, %s = $3, %s = $4,
			%s = $5, %s = $6, %s = $7, %s = $8, %s = $9
		WHERE %s = $10
	`,
		schema.WikiTopic.Table,
		schema.WikiTopic.Name,
		schema.WikiTopic.NormalizedName,
		schema.WikiTopic.ContentRaw,
		schema.WikiTopic.ContentRendered,
		schema.WikiTopic.ModifiedAt,
		schema.WikiTopic.AuthorID,
		schema.WikiTopic.Locked,
		schema.WikiTopic.Restricted,
		schema.WikiTopic.Reason,
		schema.WikiTopic.ID,
	)

	result, err := repository.pool.Exec(context, query,
		topic.Name,
		topic.NormalizedName,
		topic.ContentRaw,
		topic.ContentRendered,
		topic.ModifiedAt,
		topic.AuthorID,
		topic.Locked,
		topic.Restricted,
		topic.Reason,
		topic.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTopicExists(topic.Name)
		}
		return fmt.Errorf("postgres: failed to update topic: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Topic")
	}

	return nil
}

// SoftDeleteTopic marks a topic deleted and drops its outgoing edges so
// nascent placeholders it kept alive become collectable.
func (repository *postgresRepository) SoftDeleteTopic(context context.Context, id, reason string, modifiedAt time.Time) error {

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin delete: %w", err)
	}
	defer transaction.Rollback(context)

	query := fmt.Sprintf(`
		UPDATE %s SET %s = TRUE, %s = $1, %s = $2 WHERE %s = $3 AND NOT %s
	`,
		schema.WikiTopic.Table,
		schema.WikiTopic.Deleted,
		schema.WikiTopic.Reason,
		schema.WikiTopic.ModifiedAt,
		schema.WikiTopic.ID,
		schema.WikiTopic.Deleted,
	)

	result, err := transaction.Exec(context, query, reason, modifiedAt, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to soft delete topic: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Topic")
	}

	for _, clear := range []string{
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
			schema.WikiTopicReference.Table, schema.WikiTopicReference.SourceID),
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
			schema.WikiNascentReference.Table, schema.WikiNascentReference.SourceID),
	} {
		if _, err := transaction.Exec(context, clear, id); err != nil {
			return fmt.Errorf("postgres: failed to clear references on delete: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit delete: %w", err)
	}

	return nil
}

/*
ListTopics retrieves live topics under a hierarchy prefix.

Parameters:
  - context: context.Context
  - prefix: string (normalized; empty lists everything)
  - limit, offset: pagination window

Returns:
  - []*Topic: Matching topics ordered by normalized name
  - int: Total match count
*/
func (repository *postgresRepository) ListTopics(context context.Context, prefix string, limit, offset int) ([]*Topic, int, error) {

	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s t
		WHERE NOT t.%s
	`,
		topicColumns("t"),
		schema.WikiTopic.Table,
		schema.WikiTopic.Deleted,
	))

	if prefix != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND t.%s LIKE $1 || '%%'", schema.WikiTopic.NormalizedName))
		args = append(args, prefix)
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY t.%s ASC", schema.WikiTopic.NormalizedName))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []*Topic
	var totalCount int

	for rows.Next() {
		var topic Topic
		err := rows.Scan(
			&topic.ID,
			&topic.Name,
			&topic.NormalizedName,
			&topic.ContentRaw,
			&topic.ContentRendered,
			&topic.CreatedAt,
			&topic.ModifiedAt,
			&topic.AuthorID,
			&topic.Locked,
			&topic.Restricted,
			&topic.Deleted,
			&topic.Reason,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan topic: %w", err)
		}
		topics = append(topics, &topic)
	}

	return topics, totalCount, nil
}

// TopicExists reports whether a live topic occupies the normalized name.
func (repository *postgresRepository) TopicExists(context context.Context, normalizedName string) (bool, error) {

	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND NOT %s)
	`,
		schema.WikiTopic.Table,
		schema.WikiTopic.NormalizedName,
		schema.WikiTopic.Deleted,
	)

	var exists bool
	if err := repository.pool.QueryRow(context, query, normalizedName).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: failed to check topic existence: %w", err)
	}

	return exists, nil
}

// # Version Operations

// CreateVersion appends an immutable snapshot row.
func (repository *postgresRepository) CreateVersion(context context.Context, version *TopicVersion) error {

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		schema.WikiTopicVersion.Table,
		strings.Join(schema.WikiTopicVersion.Columns(), ", "),
	)

	_, err := repository.pool.Exec(context, query,
		version.ID,
		version.TopicID,
		version.NameAtTime,
		version.AuthorID,
		version.ContentRaw,
		version.Reason,
		version.CreatedAt,
		version.NormalizedCreated,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Two snapshots of the same topic inside one second. Accepted
			// limitation of the second-resolution URL key.
			return apperr.Conflict("A version with the same timestamp already exists")
		}
		return fmt.Errorf("postgres: failed to create topic version: %w", err)
	}

	return nil
}

// versionColumns is the canonical SELECT list for hydrating a [TopicVersion].
func versionColumns() string {
	return strings.Join(schema.WikiTopicVersion.Columns(), ", ")
}

func scanVersion(row pgx.Row) (*TopicVersion, error) {
	var version TopicVersion
	err := row.Scan(
		&version.ID,
		&version.TopicID,
		&version.NameAtTime,
		&version.AuthorID,
		&version.ContentRaw,
		&version.Reason,
		&version.CreatedAt,
		&version.NormalizedCreated,
	)
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// ListVersions returns a topic's history, newest first.
func (repository *postgresRepository) ListVersions(context context.Context, topicID string, limit, offset int) ([]*TopicVersion, int, error) {

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2 OFFSET $3
	`,
		versionColumns(),
		schema.WikiTopicVersion.Table,
		schema.WikiTopicVersion.TopicID,
		schema.WikiTopicVersion.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, topicID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list topic versions: %w", err)
	}
	defer rows.Close()

	var versions []*TopicVersion
	var totalCount int

	for rows.Next() {
		var version TopicVersion
		err := rows.Scan(
			&version.ID,
			&version.TopicID,
			&version.NameAtTime,
			&version.AuthorID,
			&version.ContentRaw,
			&version.Reason,
			&version.CreatedAt,
			&version.NormalizedCreated,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan topic version: %w", err)
		}
		versions = append(versions, &version)
	}

	return versions, totalCount, nil
}

// FindVersionByKey returns the version addressed by its canonical timestamp
// key.
func (repository *postgresRepository) FindVersionByKey(context context.Context, topicID, normalizedCreated string) (*TopicVersion, error) {

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = $1 AND %s = $2
	`,
		versionColumns(),
		schema.WikiTopicVersion.Table,
		schema.WikiTopicVersion.TopicID,
		schema.WikiTopicVersion.NormalizedCreated,
	)

	version, err := scanVersion(repository.pool.QueryRow(context, query, topicID, normalizedCreated))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Topic version")
		}
		return nil, fmt.Errorf("postgres: failed to find topic version: %w", err)
	}

	return version, nil
}

// VersionAtOrBefore returns the nearest version at or before a point in time,
// used to redirect imprecise version URLs.
func (repository *postgresRepository) VersionAtOrBefore(context context.Context, topicID string, at time.Time) (*TopicVersion, error) {

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s <= $2
		ORDER BY %s DESC
		LIMIT 1
	`,
		versionColumns(),
		schema.WikiTopicVersion.Table,
		schema.WikiTopicVersion.TopicID,
		schema.WikiTopicVersion.CreatedAt,
		schema.WikiTopicVersion.CreatedAt,
	)

	version, err := scanVersion(repository.pool.QueryRow(context, query, topicID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Topic version")
		}
		return nil, fmt.Errorf("postgres: failed to find nearest topic version: %w", err)
	}

	return version, nil
}
