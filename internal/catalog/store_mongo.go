// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/mediavault/internal/platform/apperr"
	"github.com/taibuivan/mediavault/internal/platform/dberr"
)

// MongoStore implements [Store] over one collection per media kind.
type MongoStore struct {
	collections map[string]*mongo.Collection
}

// NewMongoStore maps each media kind to its collection in database.
func NewMongoStore(database *mongo.Database, collections map[string]string) *MongoStore {
	store := &MongoStore{collections: make(map[string]*mongo.Collection, len(collections))}
	for kind, name := range collections {
		store.collections[kind] = database.Collection(name)
	}
	return store
}

func (store *MongoStore) collection(kind string) (*mongo.Collection, error) {
	collection, found := store.collections[kind]
	if !found {
		return nil, apperr.NotFound("Media kind")
	}
	return collection, nil
}

// Get fetches one document by its title key.
func (store *MongoStore) Get(ctx context.Context, kind, title string) (*Entry, error) {
	collection, err := store.collection(kind)
	if err != nil {
		return nil, err
	}

	var entry Entry
	err = collection.FindOne(ctx, bson.M{"_id": norm.NFC.String(title)}).Decode(&entry)
	if err != nil {
		return nil, dberr.Wrap(err, "Title", fmt.Sprintf("catalog: find %s/%s", kind, title))
	}

	return &entry, nil
}

// Search runs a filtered, paginated query sorted by date added.
func (store *MongoStore) Search(ctx context.Context, kind string, filter Filter, limit, offset int) ([]*Entry, int, error) {
	collection, err := store.collection(kind)
	if err != nil {
		return nil, 0, err
	}

	query := searchQuery(filter)

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Title", "catalog: count "+kind)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "dateAdded", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Title", "catalog: search "+kind)
	}

	entries := []*Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, dberr.Wrap(err, "Title", "catalog: decode "+kind)
	}

	return entries, int(total), nil
}

// searchQuery translates a [Filter] into a MongoDB query document.
func searchQuery(filter Filter) bson.M {
	query := bson.M{}
	if filter.Query != "" {
		query["_id"] = bson.Regex{Pattern: regexp.QuoteMeta(norm.NFC.String(filter.Query)), Options: "i"}
	}
	if filter.Tag != "" {
		query["tags"] = filter.Tag
	}
	return query
}
