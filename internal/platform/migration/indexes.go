// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration prepares the metadata database before traffic is served.
//
// # Architecture
//
// This package belongs to the Infrastructure layer. MongoDB has no schema to
// migrate, so startup only ensures the secondary indexes the catalog queries
// rely on. Creating an index that already exists with the same keys is a no-op.
package migration

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// catalogIndexes lists the indexes every catalog collection carries.
func catalogIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("tags"),
		},
		{
			Keys:    bson.D{{Key: "dateAdded", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("date_added_desc"),
		},
	}
}

// EnsureIndexes creates the catalog indexes on each named collection.
//
// # Parameters
//   - ctx: Bounds the whole operation.
//   - database: The metadata database.
//   - collections: Collection names, one per media kind.
//   - logger: Structured logger for migration events.
func EnsureIndexes(ctx context.Context, database *mongo.Database, collections []string, logger *slog.Logger) error {
	for _, name := range collections {
		created, err := database.Collection(name).Indexes().CreateMany(ctx, catalogIndexes())
		if err != nil {
			return fmt.Errorf("migration: ensure indexes on %s: %w", name, err)
		}

		logger.Info("migration_indexes_ensured",
			slog.String("collection", name),
			slog.Any("indexes", created),
		)
	}

	return nil
}
