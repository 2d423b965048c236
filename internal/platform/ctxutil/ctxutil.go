// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/mediavault/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Client Identity

// WithClientID returns a new context carrying the gate's client identifier.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyClientID, id)
}

// GetClientID retrieves the client identifier resolved by the gate.
func GetClientID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyClientID).(string)
	return id
}

// WithGrant returns a new context carrying the media grant folder name.
func WithGrant(ctx context.Context, grant string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyGrant, grant)
}

// GetGrant retrieves the grant folder of the validated token, or "".
func GetGrant(ctx context.Context) string {
	grant, _ := ctx.Value(ctxkey.KeyGrant).(string)
	return grant
}
