// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

// Package uuidv7 generates the time-ordered UUIDv7 strings used as primary
// keys across Wikara's tables. Time-sortable keys keep inserts appending at
// the right edge of the btree, which random v4 keys do not.
package uuidv7

import "github.com/google/uuid"

// New returns a fresh UUIDv7 string. It panics only when the OS entropy
// source is unavailable, which is not a condition worth threading an error
// through every call site for.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// Must is an alias for [New], matching Go's Must naming at call sites that
// want the panic made explicit.
func Must() string {
	return New()
}
