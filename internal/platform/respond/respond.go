// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

// Package respond writes the JSON envelopes every Wikara handler answers
// with.
//
// All success payloads sit under a "data" key and all failures under
// "error"/"code", so API clients parse one shape regardless of which
// endpoint they called. Handlers hand any error to [Error] and let it sort
// out status code, body, and server-side logging.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/internal/platform/ctxkey"
	"github.com/wikara/wikara/pkg/pagination"
)

// SuccessEnvelope wraps a single-resource success payload.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// PaginatedEnvelope wraps a list payload with its pagination metadata.
type PaginatedEnvelope struct {
	Data interface{}     `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// ErrorEnvelope is the failure shape for every status code.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes an arbitrary payload with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 with the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes a 201 with the standard success envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// Paginated writes a 200 with data plus a pagination meta block.
func Paginated(writer http.ResponseWriter, data interface{}, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Data: data, Meta: metadata})
}

// NoContent writes a 204.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error turns any error into the standard failure response. An error that is
// not an [apperr.AppError] is logged in full and answered as a generic 500
// so internals never leak to the client.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		requestLogger(request).ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID(request)),
		)
		appError = apperr.Internal(err)
	}

	// 5xx means something on our side broke. Always log it.
	if appError.HTTPStatus >= 500 {
		requestLogger(request).ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", requestID(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

// requestLogger pulls the middleware-injected logger, falling back to the
// process default.
func requestLogger(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// requestID pulls the correlation ID for log lines written outside the
// middleware chain.
func requestID(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
