// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package auth

import (
	"context"
)

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	// FindByID returns the account with the given ID.
	//
	// Returns [apperr.NotFound] if the account does not exist.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email.
	//
	// Returns [apperr.NotFound] if no user is registered with this email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername returns the account with the given username.
	//
	// Returns [apperr.NotFound] if the username is available.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Create persists a brand-new user account.
	//
	// Returns a wrapped conflict error if a unique constraint
	// (email/username) fails.
	Create(ctx context.Context, user *User) error

	// SetRestrictedAccess toggles the restricted-content capability.
	SetRestrictedAccess(ctx context.Context, userID string, restricted bool) error
}
