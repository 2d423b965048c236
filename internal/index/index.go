// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package index builds in-memory catalogs of the media present on disk.

One [Indexer] runs per media kind. Each rebuild scans the kind's root and
produces a new immutable [Snapshot] that replaces the previous one in a single
atomic swap, so readers never observe a half-built catalog.

Goodness:

  - A title whose directory cannot be read is kept with IsGood=false.
  - A root that cannot be listed marks the whole kind IsGood=false and keeps the
    previously indexed titles.

Callers must answer a bad subtree with a server error, never with "not found".
*/
package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/mediavault/internal/platform/apperr"
	"github.com/taibuivan/mediavault/internal/platform/metrics"
)

// Title is the indexed content of one title directory.
type Title[T any] struct {
	IsGood bool `json:"isGood"`
	Data   T    `json:"data"`

	// Dir is the on-disk directory name; it may differ from the normalised key.
	Dir string `json:"-"`
}

// Snapshot is one complete, immutable rebuild result.
type Snapshot[T any] struct {
	Kind    string
	IsGood  bool
	Titles  map[string]Title[T]
	BuiltAt time.Time
}

// ScanFunc reads the content of one title directory from fsys.
type ScanFunc[T any] func(fsys fs.FS, dir string) (T, error)

// Summary is the listing entry of one title.
type Summary struct {
	Title  string `json:"title"`
	IsGood bool   `json:"isGood"`
}

// Indexer owns the published snapshot of one media kind.
type Indexer[T any] struct {
	kind    string
	fsys    fs.FS
	scan    ScanFunc[T]
	workers int
	logger  *slog.Logger

	current atomic.Pointer[Snapshot[T]]
}

// New creates an indexer for kind over fsys. Nothing is scanned until [Indexer.Build].
func New[T any](kind string, fsys fs.FS, scan ScanFunc[T], workers int, logger *slog.Logger) *Indexer[T] {
	if workers < 1 {
		workers = 1
	}
	return &Indexer[T]{
		kind:    kind,
		fsys:    fsys,
		scan:    scan,
		workers: workers,
		logger:  logger.With(slog.String("kind", kind)),
	}
}

// Kind returns the media kind this indexer serves.
func (indexer *Indexer[T]) Kind() string {
	return indexer.kind
}

// Key normalises a title so that lookups match regardless of Unicode composition.
func Key(title string) string {
	return norm.NFC.String(title)
}

// Build scans the root and publishes a new snapshot.
//
// A root listing failure is returned after publishing a copy of the previous
// snapshot flagged IsGood=false. Title failures are never returned.
func (indexer *Indexer[T]) Build(ctx context.Context) error {
	started := time.Now()
	defer func() {
		metrics.IndexRebuildDuration.WithLabelValues(indexer.kind).Observe(time.Since(started).Seconds())
	}()

	entries, err := fs.ReadDir(indexer.fsys, ".")
	if err != nil {
		indexer.markRootBad()
		metrics.IndexRebuilds.WithLabelValues(indexer.kind, "root_failed").Inc()
		indexer.logger.Error("index_root_unreadable", slog.Any("error", err))
		return fmt.Errorf("index %s: list root: %w", indexer.kind, err)
	}

	var (
		mu     sync.Mutex
		titles = make(map[string]Title[T], len(entries))
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(indexer.workers)

	for _, entry := range entries {
		if !isTitleDir(indexer.fsys, entry) {
			continue
		}
		dir := entry.Name()

		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}

			title := Title[T]{Dir: dir, IsGood: true}
			data, err := indexer.scan(indexer.fsys, dir)
			if err != nil {
				title.IsGood = false
				indexer.logger.Warn("index_title_unreadable",
					slog.String("title", dir),
					slog.Any("error", err),
				)
			} else {
				title.Data = data
			}

			mu.Lock()
			titles[Key(dir)] = title
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("index %s: rebuild cancelled: %w", indexer.kind, err)
	}

	snapshot := &Snapshot[T]{
		Kind:    indexer.kind,
		IsGood:  true,
		Titles:  titles,
		BuiltAt: time.Now(),
	}
	indexer.current.Store(snapshot)

	good, bad := snapshot.counts()
	metrics.IndexRebuilds.WithLabelValues(indexer.kind, "ok").Inc()
	metrics.IndexTitles.WithLabelValues(indexer.kind, "good").Set(float64(good))
	metrics.IndexTitles.WithLabelValues(indexer.kind, "bad").Set(float64(bad))

	indexer.logger.Info("index_rebuilt",
		slog.Int("titles", len(titles)),
		slog.Int("bad_titles", bad),
		slog.Duration("took", time.Since(started)),
	)

	return nil
}

// isTitleDir reports whether a root entry is a visible directory, following
// symlinked title folders.
func isTitleDir(fsys fs.FS, entry fs.DirEntry) bool {
	if hidden(entry.Name()) {
		return false
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}

	info, err := fs.Stat(fsys, entry.Name())
	return err == nil && info.IsDir()
}

// markRootBad republishes the previous titles under a bad root.
func (indexer *Indexer[T]) markRootBad() {
	previous := indexer.current.Load()

	snapshot := &Snapshot[T]{
		Kind:    indexer.kind,
		Titles:  map[string]Title[T]{},
		BuiltAt: time.Now(),
	}
	if previous != nil {
		snapshot.Titles = previous.Titles
	}
	indexer.current.Store(snapshot)
}

// Snapshot returns the published snapshot, or nil before the first build.
func (indexer *Indexer[T]) Snapshot() *Snapshot[T] {
	return indexer.current.Load()
}

// IsGood reports whether the last rebuild could list the root.
func (indexer *Indexer[T]) IsGood() bool {
	snapshot := indexer.current.Load()
	return snapshot != nil && snapshot.IsGood
}

// Lookup resolves one title.
//
// It returns a StaleIndex error when the kind or the title is flagged bad and
// a NotFound error when the title is unknown.
func (indexer *Indexer[T]) Lookup(title string) (Title[T], error) {
	snapshot := indexer.current.Load()
	if snapshot == nil || !snapshot.IsGood {
		return Title[T]{}, apperr.StaleIndex(indexer.kind)
	}

	entry, found := snapshot.Titles[Key(title)]
	if !found {
		return Title[T]{}, apperr.NotFound("Title")
	}
	if !entry.IsGood {
		return Title[T]{}, apperr.StaleIndex("Title")
	}

	return entry, nil
}

// Titles lists every indexed title in name order.
func (indexer *Indexer[T]) Titles() ([]Summary, error) {
	snapshot := indexer.current.Load()
	if snapshot == nil || !snapshot.IsGood {
		return nil, apperr.StaleIndex(indexer.kind)
	}

	summaries := make([]Summary, 0, len(snapshot.Titles))
	for key, entry := range snapshot.Titles {
		summaries = append(summaries, Summary{Title: key, IsGood: entry.IsGood})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Title < summaries[j].Title })

	return summaries, nil
}

func (snapshot *Snapshot[T]) counts() (good, bad int) {
	for _, entry := range snapshot.Titles {
		if entry.IsGood {
			good++
		} else {
			bad++
		}
	}
	return good, bad
}
