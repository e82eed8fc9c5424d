// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wikara/wikara/internal/platform/middleware"
	requestutil "github.com/wikara/wikara/internal/platform/request"
	"github.com/wikara/wikara/internal/platform/respond"
	"github.com/wikara/wikara/internal/platform/sec"
	"github.com/wikara/wikara/internal/platform/validate"
	"github.com/wikara/wikara/pkg/pointer"
)

const (
	fieldUsername = "username"
	fieldEmail    = "email"
	fieldPassword = "password"

	minPasswordLen = 10
)

// # Handler Implementation

// Handler implements the HTTP layer for accounts.
type Handler struct {
	service *Service
}

// NewHandler constructs a new auth [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches account endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Post("/auth/register", handler.Register)
	api.Post("/auth/login", handler.Login)

	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Get("/auth/me", handler.Me)
	})

	api.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleModerator))
		admin.Post("/users/{id}/restricted-access", handler.SetRestrictedAccess)
	})
}

// registerRequest defines the inbound JSON schema for registration.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

/*
POST /api/v1/auth/register.

Response:
  - 201: User: The created account
  - 409: Username or email taken
*/
func (handler *Handler) Register(writer http.ResponseWriter, request *http.Request) {
	var body registerRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(fieldUsername, body.Username)
	validator.Slug(fieldUsername, body.Username)
	validator.Email(fieldEmail, body.Email)
	validator.MinLen(fieldPassword, body.Password, minPasswordLen)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Register(request.Context(), RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

// loginRequest defines the inbound JSON schema for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse carries the account and its access token.
type loginResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

/*
POST /api/v1/auth/login.

Response:
  - 200: loginResponse
  - 401: Invalid credentials
*/
func (handler *Handler) Login(writer http.ResponseWriter, request *http.Request) {
	var body loginRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Email(fieldEmail, body.Email)
	validator.Required(fieldPassword, body.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.service.Login(request.Context(), body.Email, body.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, loginResponse{User: user, AccessToken: token})
}

// GET /api/v1/auth/me.
func (handler *Handler) Me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Me(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// restrictedAccessRequest defines the inbound JSON schema for capability
// grants. Restricted defaults to true when omitted, so a bare POST grants.
type restrictedAccessRequest struct {
	Restricted *bool `json:"restricted"`
}

/*
POST /api/v1/users/{id}/restricted-access.

Description: Moderator-only grant or revocation of the restricted-topic
capability.

Response:
  - 204: Updated
*/
func (handler *Handler) SetRestrictedAccess(writer http.ResponseWriter, request *http.Request) {
	var body restrictedAccessRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.service.GrantRestrictedAccess(request.Context(), requestutil.ID(request, "id"), pointer.Fallback(body.Restricted, true))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
