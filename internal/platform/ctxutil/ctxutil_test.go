// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/mediavault/internal/platform/ctxutil"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_ClientAndGrant verifies the gate values round-trip through the context.
*/
func TestContext_ClientAndGrant(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, ctxutil.GetClientID(ctx))
	assert.Empty(t, ctxutil.GetGrant(ctx))

	ctx = ctxutil.WithClientID(ctx, "10.0.0.7")
	ctx = ctxutil.WithGrant(ctx, "abcdef0123456789")

	assert.Equal(t, "10.0.0.7", ctxutil.GetClientID(ctx))
	assert.Equal(t, "abcdef0123456789", ctxutil.GetGrant(ctx))
}
