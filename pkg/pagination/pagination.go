// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

// Package pagination parses the page/limit query parameters shared by every
// list endpoint and builds the metadata block returned alongside the items.
// Out-of-range values are clamped rather than rejected, so a hand-typed URL
// never earns a 400 for its paging knobs.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the page size when the client names none.
	DefaultLimit = 20
	// MaxLimit caps the page size; topic listings can be large.
	MaxLimit = 100
	// DefaultPage is the first page (1-indexed).
	DefaultPage = 1
)

// Params is the parsed paging window of one request.
type Params struct {
	Page  int
	Limit int
}

// Offset converts the 1-indexed page into a SQL OFFSET.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the paging metadata block in list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta derives the metadata block, including the page count, from a
// result total.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// FromRequest reads "page" and "limit" from the query string, clamping
// anything invalid to the defaults.
func FromRequest(r *http.Request) Params {
	page := intParam(r, "page", DefaultPage)
	limit := intParam(r, "limit", DefaultLimit)

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	return Params{Page: page, Limit: limit}
}

func intParam(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
