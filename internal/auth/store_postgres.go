// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/internal/platform/database/schema"
)

// # PostgreSQL Repository

// postgresUserRepository implements [UserRepository] using pgx.
type postgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository constructs a PostgreSQL backed account store.
func NewPostgresUserRepository(pool *pgxpool.Pool) UserRepository {
	return &postgresUserRepository{pool: pool}
}

// accountColumns is the canonical SELECT list for hydrating a [User].
func accountColumns() string {
	account := schema.UsersAccount
	return strings.Join([]string{
		account.ID, account.Username, account.Email, account.PasswordHash,
		account.Role, account.RestrictedAccess, account.CreatedAt, account.UpdatedAt,
	}, ", ")
}

// findBy runs a single-row account lookup on the given column.
func (repository *postgresUserRepository) findBy(context context.Context, column, value string) (*User, error) {

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		accountColumns(), schema.UsersAccount.Table, column)

	var user User
	err := repository.pool.QueryRow(context, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.RestrictedAccess,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres: failed to find account: %w", err)
	}

	return &user, nil
}

func (repository *postgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findBy(context, schema.UsersAccount.ID, id)
}

func (repository *postgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findBy(context, schema.UsersAccount.Email, email)
}

func (repository *postgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	return repository.findBy(context, schema.UsersAccount.Username, username)
}

// Create inserts a new account row.
func (repository *postgresUserRepository) Create(context context.Context, user *User) error {

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`,
		schema.UsersAccount.Table,
		accountColumns(),
	)

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.RestrictedAccess,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("Username or email is already registered")
		}
		return fmt.Errorf("postgres: failed to create account: %w", err)
	}

	return nil
}

// SetRestrictedAccess toggles the restricted-content capability.
func (repository *postgresUserRepository) SetRestrictedAccess(context context.Context, userID string, restricted bool) error {

	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = NOW() WHERE %s = $2`,
		schema.UsersAccount.Table,
		schema.UsersAccount.RestrictedAccess,
		schema.UsersAccount.UpdatedAt,
		schema.UsersAccount.ID,
	)

	result, err := repository.pool.Exec(context, query, restricted, userID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update restricted access: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}
