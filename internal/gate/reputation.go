// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gate implements the request-gating subsystem: client reputation, the
persistent blacklist, and the ordered middleware pipeline that consults them
before any route handler runs.

Pipeline order:

  - Identify the client and reject blacklisted identifiers (403).
  - Log traffic.
  - Let allowlisted paths (login, probes, provisioned static media) skip token validation.
  - Rate limit per client; overflow bans the client unless it has sent a valid token.
  - Validate the capability token (401) and provision the client's media grant.
  - After the response, record the outcome in the reputation store.
*/
package gate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/mediavault/internal/platform/metrics"
)

// Ledger is the persistence side of a ban.
type Ledger interface {
	Ban(id, agent string)
	Contains(id string) bool
}

// Record is the request history of one client identifier.
type Record struct {
	LastRequest       time.Time
	Failures          int
	HasSentValidToken bool
}

// ReputationStore tracks failures per client and promotes abusers to the ledger.
//
// # Concurrency
//
// Every method is a single critical section, so two concurrent failures for the
// same client can never lose an increment.
type ReputationStore struct {
	threshold int
	ledger    Ledger
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	records map[string]*Record
}

// NewReputationStore creates a store that bans after threshold failures.
func NewReputationStore(threshold int, ledger Ledger, logger *slog.Logger) *ReputationStore {
	return &ReputationStore{
		threshold: threshold,
		ledger:    ledger,
		logger:    logger,
		now:       time.Now,
		records:   make(map[string]*Record),
	}
}

// RecordFailure counts one failed request. At the threshold the client is banned
// and its record dropped, unless it has sent a valid token before.
func (store *ReputationStore) RecordFailure(id, agent string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	// Outcomes that land after a ban must not start a fresh count.
	if store.ledger.Contains(id) {
		delete(store.records, id)
		return
	}

	record, found := store.records[id]
	if !found {
		record = &Record{}
		store.records[id] = record
	}
	record.LastRequest = store.now()
	record.Failures++

	if !record.HasSentValidToken && record.Failures >= store.threshold {
		delete(store.records, id)
		store.ledger.Ban(id, agent)
		metrics.GateBans.WithLabelValues("failures").Inc()
		store.logger.Warn("reputation_threshold_reached",
			slog.String("client_id", id),
			slog.Int("failures", record.Failures),
		)
	}

	metrics.ReputationRecords.Set(float64(len(store.records)))
}

// RecordSuccess replaces the client's record: failures are forgiven and the
// client is marked as having sent a valid token.
func (store *ReputationStore) RecordSuccess(id string) {
	store.mu.Lock()
	store.records[id] = &Record{
		LastRequest:       store.now(),
		HasSentValidToken: true,
	}
	size := len(store.records)
	store.mu.Unlock()

	metrics.ReputationRecords.Set(float64(size))
}

// IsBlacklisted delegates to the ledger.
func (store *ReputationStore) IsBlacklisted(id string) bool {
	return store.ledger.Contains(id)
}

// HasSentValidToken reports whether the client's current record is trusted.
func (store *ReputationStore) HasSentValidToken(id string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	record, found := store.records[id]
	return found && record.HasSentValidToken
}

// Ban promotes id straight to the ledger, bypassing the failure count.
// Trusted clients are never banned; the return value reports whether a ban happened.
func (store *ReputationStore) Ban(id, agent, reason string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if record, found := store.records[id]; found && record.HasSentValidToken {
		return false
	}

	delete(store.records, id)
	store.ledger.Ban(id, agent)
	metrics.GateBans.WithLabelValues(reason).Inc()
	metrics.ReputationRecords.Set(float64(len(store.records)))
	return true
}

// Lookup returns a copy of the client's record.
func (store *ReputationStore) Lookup(id string) (Record, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	record, found := store.records[id]
	if !found {
		return Record{}, false
	}
	return *record, true
}

// Sweep drops records idle for longer than maxIdle and returns how many were removed.
//
// A trusted client that returns after its record was swept simply earns trust
// again with its next successful request.
func (store *ReputationStore) Sweep(maxIdle time.Duration) int {
	cutoff := store.now().Add(-maxIdle)

	store.mu.Lock()
	removed := 0
	for id, record := range store.records {
		if record.LastRequest.Before(cutoff) {
			delete(store.records, id)
			removed++
		}
	}
	size := len(store.records)
	store.mu.Unlock()

	metrics.ReputationRecords.Set(float64(size))
	if removed > 0 {
		store.logger.Debug("reputation_swept", slog.Int("removed", removed), slog.Int("remaining", size))
	}
	return removed
}

// Len returns the number of live records.
func (store *ReputationStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.records)
}
