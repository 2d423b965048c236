// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/mediavault/internal/platform/metrics"
)

// ledgerFields is the number of tab-separated fields of a ledger line:
// timestamp, user agent, client identifier.
const ledgerFields = 3

// Blacklist is the append-only ledger of permanently banned client identifiers.
//
// # Persistence
//
// The on-disk file is the source of truth across restarts; the in-memory set
// answers membership in O(1). A ban is visible in memory before its line is
// written. Entries are never removed by the process.
type Blacklist struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu  sync.RWMutex
	ids map[string]struct{}

	// fileMu serialises appends so concurrent bans never interleave lines.
	fileMu  sync.Mutex
	pending sync.WaitGroup
}

// OpenBlacklist loads the ledger at path, creating an empty one if none exists.
//
// Any other read failure is returned; the server must not start without
// knowing who is banned.
func OpenBlacklist(path string, logger *slog.Logger) (*Blacklist, error) {
	blacklist := &Blacklist{
		path:   path,
		logger: logger,
		now:    time.Now,
		ids:    make(map[string]struct{}),
	}

	ids, err := readLedger(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := createLedger(path); err != nil {
			return nil, err
		}
		ids, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		blacklist.ids[id] = struct{}{}
	}
	metrics.BlacklistSize.Set(float64(len(blacklist.ids)))

	logger.Info("blacklist_loaded",
		slog.String("path", path),
		slog.Int("entries", len(blacklist.ids)),
	)

	return blacklist, nil
}

// Contains reports whether id is banned.
func (blacklist *Blacklist) Contains(id string) bool {
	blacklist.mu.RLock()
	_, banned := blacklist.ids[id]
	blacklist.mu.RUnlock()
	return banned
}

// Len returns the number of banned identifiers.
func (blacklist *Blacklist) Len() int {
	blacklist.mu.RLock()
	defer blacklist.mu.RUnlock()
	return len(blacklist.ids)
}

// Ban adds id to the in-memory set immediately and appends a ledger line in the
// background. An append failure is logged and not retried.
func (blacklist *Blacklist) Ban(id, agent string) {
	blacklist.mu.Lock()
	if _, banned := blacklist.ids[id]; banned {
		blacklist.mu.Unlock()
		return
	}
	blacklist.ids[id] = struct{}{}
	size := len(blacklist.ids)
	blacklist.mu.Unlock()

	metrics.BlacklistSize.Set(float64(size))

	line := formatLedgerLine(blacklist.now(), agent, id)
	blacklist.pending.Add(1)
	go func() {
		defer blacklist.pending.Done()
		if err := blacklist.append(line); err != nil {
			blacklist.logger.Error("blacklist_append_failed",
				slog.String("client_id", id),
				slog.Any("error", err),
			)
		}
	}()

	blacklist.logger.Warn("client_blacklisted",
		slog.String("client_id", id),
		slog.String("user_agent", agent),
	)
}

// Refresh reloads the ledger and unions it into the in-memory set.
// Identifiers missing from the file are kept: a manual un-ban needs a restart.
func (blacklist *Blacklist) Refresh() error {
	ids, err := readLedger(blacklist.path)
	if err != nil {
		return err
	}

	blacklist.mu.Lock()
	added := 0
	for _, id := range ids {
		if _, banned := blacklist.ids[id]; !banned {
			blacklist.ids[id] = struct{}{}
			added++
		}
	}
	size := len(blacklist.ids)
	blacklist.mu.Unlock()

	metrics.BlacklistSize.Set(float64(size))
	if added > 0 {
		blacklist.logger.Info("blacklist_refreshed", slog.Int("added", added), slog.Int("entries", size))
	}

	return nil
}

// Wait blocks until every background append has finished.
func (blacklist *Blacklist) Wait() {
	blacklist.pending.Wait()
}

func (blacklist *Blacklist) append(line string) error {
	blacklist.fileMu.Lock()
	defer blacklist.fileMu.Unlock()

	file, err := os.OpenFile(blacklist.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("blacklist: open %s: %w", blacklist.path, err)
	}

	if _, err := file.WriteString(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("blacklist: append: %w", err)
	}

	return file.Close()
}

// # Ledger Format

// readLedger returns the client identifiers of every well-formed line.
// Lines with fewer than three tab-separated fields are skipped silently.
func readLedger(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("blacklist: open %s: %w", path, err)
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < ledgerFields {
			continue
		}
		id := strings.TrimSpace(fields[ledgerFields-1])
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("blacklist: read %s: %w", path, err)
	}

	return ids, nil
}

func createLedger(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("blacklist: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("blacklist: create %s: %w", path, err)
	}
	return file.Close()
}

var ledgerSanitizer = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

func formatLedgerLine(at time.Time, agent, id string) string {
	return fmt.Sprintf("%s\t%s\t%s\n",
		at.UTC().Format(time.RFC3339),
		ledgerSanitizer.Replace(agent),
		ledgerSanitizer.Replace(id),
	)
}
