// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLedger records bans in memory.
type memoryLedger struct {
	mu   sync.Mutex
	bans map[string]string
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{bans: make(map[string]string)}
}

func (ledger *memoryLedger) Ban(id, agent string) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	ledger.bans[id] = agent
}

func (ledger *memoryLedger) Contains(id string) bool {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	_, found := ledger.bans[id]
	return found
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestRecordFailure_Threshold verifies that N-1 failures never ban and the Nth always does.
*/
func TestRecordFailure_Threshold(t *testing.T) {
	for _, threshold := range []int{1, 3, 10} {
		ledger := newMemoryLedger()
		store := NewReputationStore(threshold, ledger, discardLogger())

		for i := 0; i < threshold-1; i++ {
			store.RecordFailure("10.0.0.1", "curl")
		}
		assert.False(t, ledger.Contains("10.0.0.1"), "threshold %d banned early", threshold)

		store.RecordFailure("10.0.0.1", "curl")
		assert.True(t, ledger.Contains("10.0.0.1"), "threshold %d did not ban", threshold)
		assert.Equal(t, "curl", ledger.bans["10.0.0.1"])

		_, found := store.Lookup("10.0.0.1")
		assert.False(t, found, "record must be dropped on ban")
	}
}

/*
TestRecordFailure_AfterBanDoesNotRecount ensures late outcomes of a banned client start no new record.
*/
func TestRecordFailure_AfterBanDoesNotRecount(t *testing.T) {
	ledger := newMemoryLedger()
	store := NewReputationStore(2, ledger, discardLogger())

	store.RecordFailure("a", "")
	store.RecordFailure("a", "")
	require.True(t, ledger.Contains("a"))

	store.RecordFailure("a", "")
	assert.Equal(t, 0, store.Len())
}

/*
TestRecordSuccess_ResetsFailures confirms that one success forgives every prior failure.
*/
func TestRecordSuccess_ResetsFailures(t *testing.T) {
	ledger := newMemoryLedger()
	store := NewReputationStore(3, ledger, discardLogger())

	store.RecordFailure("b", "")
	store.RecordFailure("b", "")
	store.RecordSuccess("b")

	record, found := store.Lookup("b")
	require.True(t, found)
	assert.Equal(t, 0, record.Failures)
	assert.True(t, record.HasSentValidToken)
	assert.True(t, store.HasSentValidToken("b"))
}

/*
TestTrustedClient_NeverBanned checks that neither failures nor a direct ban affect a trusted client.
*/
func TestTrustedClient_NeverBanned(t *testing.T) {
	ledger := newMemoryLedger()
	store := NewReputationStore(2, ledger, discardLogger())

	store.RecordSuccess("c")
	for i := 0; i < 50; i++ {
		store.RecordFailure("c", "")
	}
	assert.False(t, ledger.Contains("c"))
	assert.False(t, store.Ban("c", "", "rate_limit"))
	assert.False(t, store.IsBlacklisted("c"))

	record, _ := store.Lookup("c")
	assert.Equal(t, 50, record.Failures)
}

/*
TestBan_UntrustedClient promotes an unknown client directly.
*/
func TestBan_UntrustedClient(t *testing.T) {
	ledger := newMemoryLedger()
	store := NewReputationStore(10, ledger, discardLogger())

	store.RecordFailure("d", "")
	assert.True(t, store.Ban("d", "bot", "rate_limit"))
	assert.True(t, store.IsBlacklisted("d"))
	assert.Equal(t, 0, store.Len())
}

/*
TestRecordFailure_Concurrent never loses increments under contention.
*/
func TestRecordFailure_Concurrent(t *testing.T) {
	ledger := newMemoryLedger()
	store := NewReputationStore(1000, ledger, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.RecordFailure("e", "")
		}()
	}
	wg.Wait()

	record, found := store.Lookup("e")
	require.True(t, found)
	assert.Equal(t, 500, record.Failures)
}

/*
TestSweep drops only records idle beyond the retention.
*/
func TestSweep(t *testing.T) {
	store := NewReputationStore(10, newMemoryLedger(), discardLogger())

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.RecordFailure("old", "")
	current = current.Add(2 * time.Hour)
	store.RecordSuccess("fresh")

	removed := store.Sweep(time.Hour)

	assert.Equal(t, 1, removed)
	_, found := store.Lookup("old")
	assert.False(t, found)
	_, found = store.Lookup("fresh")
	assert.True(t, found)
}
