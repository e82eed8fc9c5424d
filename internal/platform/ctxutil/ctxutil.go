// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

// Package ctxutil reads and writes the per-request values Wikara keeps in
// [context.Context]: the correlation ID, the request-scoped logger, and the
// authenticated claims. Getters degrade gracefully so code off the HTTP
// path (sweepers, scripts) can share the same helpers.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/wikara/wikara/internal/platform/ctxkey"
	"github.com/wikara/wikara/internal/platform/sec"
)

// # Request Tracing

// WithRequestID attaches the correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID returns the correlation ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger attaches the request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger returns the request-scoped logger, or the process default when
// the context carries none.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAuthUser attaches the verified auth claims.
func WithAuthUser(ctx context.Context, user *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, user)
}

// GetAuthUser returns the verified claims, or nil on an anonymous request.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}
