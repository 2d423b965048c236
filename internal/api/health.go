// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/mediavault/internal/platform/respond"
)

// readinessTimeout bounds each dependency ping of /ready.
const readinessTimeout = 2 * time.Second

// IndexProbe reports the state of one media index.
type IndexProbe interface {
	Kind() string
	IsGood() bool
}

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckDatabase pings the MongoDB client.
	CheckDatabase func(ctx context.Context) error

	// CheckCache pings the Redis client. Nil when caching is disabled.
	CheckCache func(ctx context.Context) error

	// Indexes are reported not ready while their media root is unreadable.
	Indexes []IndexProbe
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{"status": "ok"})
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// readiness handles GET /ready (Readiness probe).
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]checkResult, 0, 2+len(handler.dependencies.Indexes))
	isSystemReady := true

	ping := func(name string, check func(context.Context) error) {
		if check == nil {
			return
		}

		ctx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
		defer cancel()

		result := checkResult{Name: name, IsOK: true}
		if err := check(ctx); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			handler.logger.Error("readiness_check_failed", slog.String("dependency", name), slog.Any("error", err))
		}
		results = append(results, result)
	}

	ping("mongo", handler.dependencies.CheckDatabase)
	ping("redis", handler.dependencies.CheckCache)

	for _, probe := range handler.dependencies.Indexes {
		result := checkResult{Name: "index:" + probe.Kind(), IsOK: probe.IsGood()}
		if !result.IsOK {
			result.Error = "media root unreadable"
			isSystemReady = false
		}
		results = append(results, result)
	}

	responseStatus := "ready"
	httpStatus := http.StatusOK
	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		"status": responseStatus,
		"checks": results,
	}})
}
