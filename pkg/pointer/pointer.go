// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

// Package pointer holds the small generic helpers for optional values:
// request fields where absent and zero mean different things are modelled
// as pointers, and these helpers keep the nil checks out of handler code.
package pointer

// To returns a pointer to the given value, for literals passed to
// pointer-typed fields.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value when p is nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Fallback dereferences p, returning fallback when p is nil.
func Fallback[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
