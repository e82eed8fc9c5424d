// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

// Package wikiname normalizes and validates wiki topic names.
//
// # Usage
//
// Topic names are case-preserving for display ("Project.Agenda") but all
// lookups and uniqueness checks run against the normalized form returned by
// [Normalize]. Names are hierarchical: the '.' character separates levels,
// so "2026.Agenda" is a subtopic of "2026".
package wikiname

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Separator is the hierarchy separator inside topic names.
const Separator = "."

// Normalize converts a display name into its canonical lookup key.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFC so visually identical Unicode spellings compare equal.
// 2. Trims surrounding whitespace.
// 3. Lowercases.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
}

// Valid reports whether name is acceptable as a topic name.
//
// Forward slashes and colons break URL addressing and are rejected. The dot
// is allowed and carries hierarchical meaning. Empty (after trimming) names
// are rejected.
func Valid(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	return !strings.ContainsAny(trimmed, "/:")
}

// Prefix returns the normalized subtopic-listing prefix for name: the
// normalized name with exactly one trailing separator.
//
// "2026.Agenda" and "2026.Agenda." produce the same prefix.
func Prefix(name string) string {
	return strings.TrimSuffix(Normalize(name), Separator) + Separator
}
