// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

// Package ctxkey defines the typed context keys shared by middleware and
// handlers. The unexported key type means a third-party package storing
// "request_id" under a plain string can never collide with ours: context
// lookups match on type as well as value.
package ctxkey

type key string

const (
	// KeyRequestID holds the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyUser holds the verified [sec.AuthClaims].
	KeyUser key = "user"

	// KeyLogger holds the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
