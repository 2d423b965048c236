// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/taibuivan/mediavault/internal/platform/apperr"
)

// Wrap inspects a MongoDB error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(resource)
	}

	// 2. An unreachable server is temporary; the client may retry.
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return apperr.ServiceUnavailable("Metadata store is unavailable")
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}
