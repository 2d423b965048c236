// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"golang.org/x/time/rate"

	"github.com/taibuivan/mediavault/internal/platform/apperr"
	"github.com/taibuivan/mediavault/internal/platform/constants"
	"github.com/taibuivan/mediavault/internal/platform/ctxutil"
	"github.com/taibuivan/mediavault/internal/platform/metrics"
	"github.com/taibuivan/mediavault/internal/platform/respond"
)

// # Collaborators

// Blocklist answers the first pipeline stage.
type Blocklist interface {
	Contains(id string) bool
}

// Reputation is the per-client outcome tracker consulted by the pipeline.
type Reputation interface {
	RecordFailure(id, agent string)
	RecordSuccess(id string)
	HasSentValidToken(id string) bool
	Ban(id, agent, reason string) bool
}

// TokenValidator checks capability tokens.
type TokenValidator interface {
	Validate(token string) error
}

// GrantProvisioner exposes a token's media folder.
type GrantProvisioner interface {
	Ensure(token string) (string, error)
	Exists(grant string) bool
}

// Options tunes the pipeline.
type Options struct {
	// TrustProxy identifies clients by forwarded headers.
	TrustProxy bool

	// RateLimitRequests is the number of requests allowed per RateLimitWindow.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// # Pipeline

// Pipeline is the ordered set of gate middlewares.
//
// It is constructed once at startup; every stage reads shared state through
// the injected collaborators.
type Pipeline struct {
	blocklist   Blocklist
	reputation  Reputation
	tokens      TokenValidator
	provisioner GrantProvisioner
	options     Options
	logger      *slog.Logger

	// rejectionLog samples blacklist rejections so a banned client cannot flood the log.
	rejectionLog rate.Sometimes
}

// NewPipeline wires the gate stages.
func NewPipeline(blocklist Blocklist, reputation Reputation, tokens TokenValidator, provisioner GrantProvisioner, options Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		blocklist:    blocklist,
		reputation:   reputation,
		tokens:       tokens,
		provisioner:  provisioner,
		options:      options,
		logger:       logger,
		rejectionLog: rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
}

// Identify resolves the client identifier and stores it in the request context.
func (pipeline *Pipeline) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		clientID := ClientID(request, pipeline.options.TrustProxy)
		ctx := ctxutil.WithClientID(request.Context(), clientID)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// RejectBlacklisted ends the request with 403 for banned clients.
//
// It consults nothing but the blocklist, so a banned client never reaches
// the reputation store or the token service.
func (pipeline *Pipeline) RejectBlacklisted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		clientID := ctxutil.GetClientID(request.Context())

		if pipeline.blocklist.Contains(clientID) {
			metrics.GateRejections.WithLabelValues("blacklist").Inc()
			pipeline.rejectionLog.Do(func() {
				pipeline.logger.Warn("blacklisted_request_rejected",
					slog.String("client_id", clientID),
					slog.String("path", request.URL.Path),
				)
			})
			respond.Error(writer, request, apperr.Forbidden("Access denied"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}

// RecordOutcome feeds the final status into the reputation store once the
// response has been written: 4xx counts as a failure, 2xx and 3xx as a success.
// 5xx responses are not recorded.
func (pipeline *Pipeline) RecordOutcome(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		wrapped := chimw.NewWrapResponseWriter(writer, request.ProtoMajor)

		next.ServeHTTP(wrapped, request)

		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}

		clientID := ctxutil.GetClientID(request.Context())
		switch {
		case status >= 500:
			// A server fault says nothing about the client: no trust, no strike.
		case status >= 400:
			pipeline.reputation.RecordFailure(clientID, request.UserAgent())
		default:
			pipeline.reputation.RecordSuccess(clientID)
		}
	})
}

// RateLimit applies a sliding-window limit per client.
//
// Clients that have sent a valid token bypass the limiter without being
// counted. Any other client exceeding the window is banned by the limit handler.
func (pipeline *Pipeline) RateLimit() func(http.Handler) http.Handler {
	limiter := httprate.Limit(
		pipeline.options.RateLimitRequests,
		pipeline.options.RateLimitWindow,
		httprate.WithKeyFuncs(func(request *http.Request) (string, error) {
			return ctxutil.GetClientID(request.Context()), nil
		}),
		httprate.WithLimitHandler(pipeline.onRateLimited),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if pipeline.reputation.HasSentValidToken(ctxutil.GetClientID(request.Context())) {
				next.ServeHTTP(writer, request)
				return
			}
			limited.ServeHTTP(writer, request)
		})
	}
}

func (pipeline *Pipeline) onRateLimited(writer http.ResponseWriter, request *http.Request) {
	clientID := ctxutil.GetClientID(request.Context())
	metrics.GateRejections.WithLabelValues("rate_limit").Inc()

	if pipeline.reputation.Ban(clientID, request.UserAgent(), "rate_limit") {
		ctxutil.GetLogger(request.Context()).Warn("rate_limit_ban",
			slog.String("client_id", clientID),
			slog.Int("limit", pipeline.options.RateLimitRequests),
			slog.Duration("window", pipeline.options.RateLimitWindow),
		)
	}

	respond.Error(writer, request, apperr.RateLimited(int(pipeline.options.RateLimitWindow.Seconds())))
}

// Authenticate validates the capability token and provisions its media grant.
func (pipeline *Pipeline) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token := BearerToken(request.Header.Get(constants.HeaderAuthorization))
		if token == "" || pipeline.tokens.Validate(token) != nil {
			metrics.GateRejections.WithLabelValues("token").Inc()
			respond.Error(writer, request, apperr.Unauthorized("Invalid or missing token"))
			return
		}

		grant, err := pipeline.provisioner.Ensure(token)
		if err != nil {
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		ctx := ctxutil.WithGrant(request.Context(), grant)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// ServeGrants serves static media from provisioned grant folders without a token.
//
// The handler must be mounted on a wildcard route. Requests naming a grant that
// does not exist are answered 404 and counted as failures, so guessing grant
// names leads to a ban like any other probing.
func (pipeline *Pipeline) ServeGrants(files http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		rest := strings.TrimPrefix(path.Clean("/"+chi.URLParam(request, "*")), "/")
		grant, _, _ := strings.Cut(rest, "/")

		if grant == constants.ReservedAssetsFolder || (grant != "" && pipeline.provisioner.Exists(grant)) {
			files.ServeHTTP(writer, request)
			return
		}

		pipeline.reputation.RecordFailure(ctxutil.GetClientID(request.Context()), request.UserAgent())
		respond.Error(writer, request, apperr.NotFound("Media path"))
	})
}
