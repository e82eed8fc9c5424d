// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

/*
Package requestutil extracts inputs from HTTP requests: URL parameters, JSON
bodies, and the auth claims the middleware stored in the context.

Handlers go through these helpers instead of touching chi or the context
keys directly, so the router and the claim plumbing stay swappable.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/internal/platform/ctxutil"
	"github.com/wikara/wikara/internal/platform/sec"
	"github.com/wikara/wikara/internal/platform/validate"
)

// DecodeJSON decodes the request body into target. Failures come back as
// the shared invalid-payload validation error, never as a raw decode error.
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Param returns a named URL parameter. Topic names arrive percent-encoded
// and are already decoded by the router.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// ID returns a named URL parameter holding a resource identifier.
func ID(request *http.Request, name string) string {
	return Param(request, name)
}

// Claims returns the authenticated claims, or nil on an anonymous request.
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAuthUser(request.Context())
}

// RequiredClaims returns the authenticated claims or an Unauthorized error.
// Handlers behind RequireAuth use it as a belt-and-braces check.
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}

// RequiredUserID returns the authenticated account ID or an Unauthorized
// error.
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
