// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

// Package auth implements account registration and login for Wikara.
//
// # Architecture
//
// The wiki core never sees accounts: it receives a reduced capability view
// (moderator, restricted access) carried in the JWT claims. This package
// owns the account entity and the token issuance around it.
package auth

import (
	"time"

	"github.com/wikara/wikara/internal/platform/sec"
)

// User represents a registered Wikara account.
//
// # Rules
//   - Username is unique and URL-safe.
//   - Email is unique and validated.
//   - PasswordHash is generated via Bcrypt exclusively by the auth [Service].
//   - RestrictedAccess gates viewing and editing of restricted topics.
type User struct {
	ID               string       `json:"id"`
	Username         string       `json:"username"`
	Email            string       `json:"email"`
	PasswordHash     string       `json:"-"` // Explicitly omitted from JSON for security.
	Role             sec.UserRole `json:"role"`
	RestrictedAccess bool         `json:"restricted_access"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
