// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/mediavault/internal/gate"
	"github.com/taibuivan/mediavault/internal/platform/ctxutil"
)

// # Fakes

type fakeBlocklist map[string]bool

func (blocklist fakeBlocklist) Contains(id string) bool { return blocklist[id] }

// countingReputation counts every call made by the pipeline.
type countingReputation struct {
	mu        sync.Mutex
	calls     int
	failures  int
	successes int
	trusted   map[string]bool
	banned    map[string]string
}

func newCountingReputation() *countingReputation {
	return &countingReputation{trusted: map[string]bool{}, banned: map[string]string{}}
}

func (reputation *countingReputation) RecordFailure(id, agent string) {
	reputation.mu.Lock()
	defer reputation.mu.Unlock()
	reputation.calls++
	reputation.failures++
}

func (reputation *countingReputation) RecordSuccess(id string) {
	reputation.mu.Lock()
	defer reputation.mu.Unlock()
	reputation.calls++
	reputation.successes++
}

func (reputation *countingReputation) HasSentValidToken(id string) bool {
	reputation.mu.Lock()
	defer reputation.mu.Unlock()
	reputation.calls++
	return reputation.trusted[id]
}

func (reputation *countingReputation) Ban(id, agent, reason string) bool {
	reputation.mu.Lock()
	defer reputation.mu.Unlock()
	reputation.calls++
	if reputation.trusted[id] {
		return false
	}
	reputation.banned[id] = reason
	return true
}

type countingTokens struct {
	calls int
	valid string
}

func (tokens *countingTokens) Validate(token string) error {
	tokens.calls++
	if token != tokens.valid {
		return errors.New("invalid")
	}
	return nil
}

type fakeProvisioner struct {
	grants map[string]bool
}

func (provisioner *fakeProvisioner) Ensure(token string) (string, error) {
	grant := token[len(token)-4:]
	provisioner.grants[grant] = true
	return grant, nil
}

func (provisioner *fakeProvisioner) Exists(grant string) bool { return provisioner.grants[grant] }

// # Harness

type harness struct {
	blocklist   fakeBlocklist
	reputation  *countingReputation
	tokens      *countingTokens
	provisioner *fakeProvisioner
	router      http.Handler
}

func newHarness(t *testing.T, limit int) *harness {
	t.Helper()

	h := &harness{
		blocklist:   fakeBlocklist{},
		reputation:  newCountingReputation(),
		tokens:      &countingTokens{valid: "good-token-abcd"},
		provisioner: &fakeProvisioner{grants: map[string]bool{}},
	}

	pipeline := gate.NewPipeline(h.blocklist, h.reputation, h.tokens, h.provisioner, gate.Options{
		RateLimitRequests: limit,
		RateLimitWindow:   time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := chi.NewRouter()
	router.Use(pipeline.Identify)
	router.Use(pipeline.RejectBlacklisted)

	router.Handle("/media/*", pipeline.ServeGrants(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "file")
	})))

	router.Group(func(r chi.Router) {
		r.Use(pipeline.RecordOutcome)
		r.Use(pipeline.RateLimit())

		r.Post("/login", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		r.Post("/broken", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		r.Group(func(r chi.Router) {
			r.Use(pipeline.Authenticate)
			r.Get("/api", func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, ctxutil.GetGrant(r.Context()))
			})
		})
	})

	h.router = router
	return h
}

func (h *harness) do(method, target, remote, authorization string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, nil)
	request.RemoteAddr = remote + ":5555"
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, request)
	return recorder
}

// # Tests

/*
TestBlacklisted_RejectedBeforeAnyStage asserts a banned client touches neither reputation nor tokens.
*/
func TestBlacklisted_RejectedBeforeAnyStage(t *testing.T) {
	h := newHarness(t, 100)
	h.blocklist["10.1.1.1"] = true

	for _, target := range []string{"/api", "/login", "/media/abcd/x"} {
		method := http.MethodGet
		if target == "/login" {
			method = http.MethodPost
		}
		response := h.do(method, target, "10.1.1.1", "Bearer good-token-abcd")
		assert.Equal(t, http.StatusForbidden, response.Code, target)
	}

	assert.Equal(t, 0, h.reputation.calls)
	assert.Equal(t, 0, h.tokens.calls)
}

/*
TestAuthenticate covers missing, malformed, invalid and valid tokens.
*/
func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		wantStatus    int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"one part", "good-token-abcd", http.StatusUnauthorized},
		{"three parts", "Bearer good-token-abcd extra", http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good-token-abcd", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 100)
			response := h.do(http.MethodGet, "/api", "10.2.2.2", tt.authorization)

			assert.Equal(t, tt.wantStatus, response.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "abcd", response.Body.String())
				assert.True(t, h.provisioner.grants["abcd"])
				assert.Equal(t, 0, h.reputation.failures)
			} else {
				assert.Equal(t, 1, h.reputation.failures)
			}
		})
	}
}

/*
TestRecordOutcome_ServerErrorNotRecorded neither trusts nor penalises a client
on a 5xx, so it stays subject to the rate limiter.
*/
func TestRecordOutcome_ServerErrorNotRecorded(t *testing.T) {
	h := newHarness(t, 2)

	for i := 0; i < 2; i++ {
		response := h.do(http.MethodPost, "/broken", "10.6.6.6", "")
		require.Equal(t, http.StatusInternalServerError, response.Code)
	}
	assert.Equal(t, 0, h.reputation.successes)
	assert.Equal(t, 0, h.reputation.failures)
	assert.False(t, h.reputation.trusted["10.6.6.6"])

	response := h.do(http.MethodPost, "/broken", "10.6.6.6", "")
	assert.Equal(t, http.StatusTooManyRequests, response.Code)
}

/*
TestRateLimit_BansUntrustedClient bans on the first request over the window.
*/
func TestRateLimit_BansUntrustedClient(t *testing.T) {
	h := newHarness(t, 3)

	for i := 0; i < 3; i++ {
		response := h.do(http.MethodGet, "/api", "10.3.3.3", "Bearer nope")
		require.Equal(t, http.StatusUnauthorized, response.Code)
	}

	response := h.do(http.MethodGet, "/api", "10.3.3.3", "Bearer nope")
	assert.Equal(t, http.StatusTooManyRequests, response.Code)
	assert.Equal(t, "rate_limit", h.reputation.banned["10.3.3.3"])
}

/*
TestRateLimit_TrustedClientBypasses lets a client with a valid token through uncounted.
*/
func TestRateLimit_TrustedClientBypasses(t *testing.T) {
	h := newHarness(t, 2)
	h.reputation.trusted["10.4.4.4"] = true

	for i := 0; i < 10; i++ {
		response := h.do(http.MethodGet, "/api", "10.4.4.4", "Bearer good-token-abcd")
		require.Equal(t, http.StatusOK, response.Code)
	}
	assert.Empty(t, h.reputation.banned)
}

/*
TestServeGrants serves known grants and the assets folder, and counts unknown grants as failures.
*/
func TestServeGrants(t *testing.T) {
	h := newHarness(t, 100)
	h.provisioner.grants["wxyz"] = true

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/media/wxyz/manga/a.png", "10.5.5.5", "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/media/assets/logo.svg", "10.5.5.5", "").Code)
	assert.Equal(t, 0, h.reputation.failures)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/media/nope/manga/a.png", "10.5.5.5", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/media/../etc/passwd", "10.5.5.5", "").Code)
	assert.Equal(t, 0, h.tokens.calls)
	assert.GreaterOrEqual(t, h.reputation.failures, 1)
}

/*
TestClientID resolves the forwarded client only behind a trusted proxy.
*/
func TestClientID(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "172.16.0.1:40000"
	request.Header.Set("X-Forwarded-For", "203.0.113.7, 172.16.0.1")

	assert.Equal(t, "172.16.0.1", gate.ClientID(request, false))
	assert.Equal(t, "203.0.113.7", gate.ClientID(request, true))

	request.Header.Del("X-Forwarded-For")
	request.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", gate.ClientID(request, true))
}

/*
TestBearerToken accepts exactly two space-separated parts.
*/
func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", gate.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", gate.BearerToken("Token abc"))
	assert.Empty(t, gate.BearerToken("abc"))
	assert.Empty(t, gate.BearerToken("Bearer "))
	assert.Empty(t, gate.BearerToken("Bearer a b"))
	assert.Empty(t, gate.BearerToken(""))
}
