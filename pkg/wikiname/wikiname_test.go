// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wikiname_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wikara/wikara/pkg/wikiname"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "HomePage", "homepage"},
		{"trims_whitespace", "  Agenda ", "agenda"},
		{"preserves_dots", "2026.Agenda", "2026.agenda"},
		{"unicode_nfc", "Café", "café"},
		{"already_normalized", "notes", "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, wikiname.Normalize(tt.input))
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		isValid bool
	}{
		{"plain_name", "HomePage", true},
		{"dotted_hierarchy", "2026.Agenda.Q3", true},
		{"spaces_allowed", "Meeting Notes", true},
		{"forward_slash", "a/b", false},
		{"colon", "ns:page", false},
		{"empty", "", false},
		{"whitespace_only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, wikiname.Valid(tt.input))
		})
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "2026.agenda.", wikiname.Prefix("2026.Agenda"))
	assert.Equal(t, "2026.agenda.", wikiname.Prefix("2026.Agenda."))
}
