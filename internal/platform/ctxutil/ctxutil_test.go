// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikara/wikara/internal/platform/ctxutil"
	"github.com/wikara/wikara/internal/platform/sec"
)

/*
TestContext_RequestID verifies injection and retrieval of the correlation ID.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()

	// Empty outside a request.
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "req-0001")
	assert.Equal(t, "req-0001", ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies the request-scoped logger round trip and the
default-logger fallback.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthUser verifies the auth claims round trip, including the
restricted-topic capability flag.
*/
func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	claims := &sec.AuthClaims{
		UserID:     "user-123",
		Username:   "mika",
		Role:       "moderator",
		Restricted: true,
	}
	ctx = ctxutil.WithAuthUser(ctx, claims)

	retrieved := ctxutil.GetAuthUser(ctx)
	require.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.UserID)
	assert.Equal(t, "moderator", retrieved.Role)
	assert.True(t, retrieved.Restricted)
}
