// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

/*
Package constants centralizes the fixed values shared across layers: server
timeouts, rate-limit tuning, the write-lock and sweep cadences of the topic
engine, and the Redis key taxonomy.

A value belongs here when two packages would otherwise each hardcode it; a
value used in exactly one place stays in that package.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "wikara-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout bounds reading one whole request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds writing one whole response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is how long a keep-alive connection may sit idle.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout bounds reading the request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for one request end to end. A
	// rename fan-out across many referrers must finish inside it.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long in-flight requests get to finish during
	// graceful shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the sustained requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the bucket depth above the sustained rate.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often idle IP buckets are swept.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long an IP must be quiet before its bucket
	// is dropped.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # Authentication

const (
	// AuthIssuer is the 'iss' claim stamped into every token.
	AuthIssuer = "wikara.app"

	// AccessTokenTTL is the lifetime of an issued access token.
	AccessTokenTTL = 24 * time.Hour
)

// # Topic Editing

const (
	// WriteLockTTL is how long an advisory write lock survives without a
	// refresh before it expires on its own.
	WriteLockTTL = 20 * time.Minute

	// WriteLockRenewalWindow: a holder re-acquiring with less than this much
	// time remaining gets the lock extended to a fresh TTL.
	WriteLockRenewalWindow = 1 * time.Minute

	// NascentSweepInterval is the default cadence of the orphaned
	// nascent-topic garbage collection sweep.
	NascentSweepInterval = 10 * time.Minute

	// VersionTimestampLayout is the canonical second-resolution UTC form of a
	// topic version's creation time, used as its URL address.
	VersionTimestampLayout = "2006-01-02_15:04:05"
)

// # JSON Field Identifiers

const (
	FieldError = "error"
	FieldCode  = "code"
)

// # Redis Key Taxonomy

const (
	// RedisPrefixWriteLock + topic ID keys a held write lock; the Redis TTL
	// on the key is the lock's expiry.
	RedisPrefixWriteLock = "wiki:write_lock:"

	// RedisChannelNotify carries topic-change notifications to the delivery
	// workers.
	RedisChannelNotify = "wiki:topic_notify"
)
