// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/internal/platform/constants"
	"github.com/wikara/wikara/internal/platform/dberr"
	"github.com/wikara/wikara/internal/platform/sec"
	"github.com/wikara/wikara/pkg/uuidv7"
)

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT for the given user, carrying
	// the capability claims the wiki core checks.
	GenerateAccessToken(userID, username, role string, restricted bool, timeToLive time.Duration) (string, error)
}

// Service implements account registration and login.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
	logger         *slog.Logger
}

// NewService constructs a new auth [Service].
func NewService(userRepository UserRepository, tokenProvider TokenProvider, logger *slog.Logger) *Service {
	return &Service{
		userRepository: userRepository,
		tokenProvider:  tokenProvider,
		logger:         logger,
	}
}

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account.

# Business Rules
  - Emails and usernames must be unique.
  - Default role is always 'member'.
  - Restricted-topic access is granted separately by a moderator.

Returns:
  - *User: The created account
  - error: apperr.Conflict when email or username is taken
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	if _, err := service.userRepository.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}
	if _, err := service.userRepository.FindByUsername(context, input.Username); err == nil {
		return nil, apperr.Conflict("Username is already taken")
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuidv7.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         sec.RoleMember,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("account_registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

/*
Login verifies credentials and issues an access token.

Returns:
  - *User: The authenticated account
  - string: The signed JWT
  - error: apperr.Unauthorized on bad credentials
*/
func (service *Service) Login(context context.Context, email, password string) (*User, string, error) {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		// Same message as a wrong password so account existence never leaks.
		return nil, "", apperr.Unauthorized("Invalid email or password")
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", apperr.Unauthorized("Invalid email or password")
	}

	token, err := service.tokenProvider.GenerateAccessToken(
		user.ID, user.Username, string(user.Role), user.RestrictedAccess, constants.AccessTokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("auth: failed to sign access token: %w", err)
	}

	service.logger.Info("account_logged_in", slog.String("user_id", user.ID))

	return user, token, nil
}

// Me returns the account behind an authenticated request.
func (service *Service) Me(context context.Context, userID string) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

// GrantRestrictedAccess toggles an account's restricted-topic capability.
// Takes effect on the account's next issued token.
func (service *Service) GrantRestrictedAccess(context context.Context, userID string, restricted bool) error {
	if err := service.userRepository.SetRestrictedAccess(context, userID, restricted); err != nil {
		return err
	}

	service.logger.Info("restricted_access_changed",
		slog.String("user_id", userID),
		slog.Bool("restricted", restricted),
	)

	return nil
}
