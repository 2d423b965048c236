// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog serves the browse and search metadata of media titles.

Documents live in MongoDB, one collection per media kind, keyed by the title's
directory name. The on-disk index decides what exists; the catalog only adds
descriptive fields, so a title may be indexed without metadata and vice versa.
*/
package catalog

import (
	"context"
	"time"
)

// Entry is the metadata document of one title.
type Entry struct {
	Title     string    `bson:"_id"       json:"title"`
	Tags      []string  `bson:"tags"      json:"tags"`
	DateAdded time.Time `bson:"dateAdded" json:"dateAdded"`

	// Fields holds every other scraped attribute (author, description, ...).
	Fields map[string]any `bson:",inline" json:"fields,omitempty"`
}

// Filter narrows a catalog search.
type Filter struct {
	// Query matches titles case-insensitively.
	Query string
	// Tag restricts results to titles carrying it.
	Tag string
}

// Store is the data access contract of the catalog.
type Store interface {
	// Get returns the entry of title, or a NotFound error.
	Get(ctx context.Context, kind, title string) (*Entry, error)

	// Search returns a page of entries and the total count, newest first.
	Search(ctx context.Context, kind string, filter Filter, limit, offset int) ([]*Entry, int, error)
}
