// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mongo provides a managed MongoDB client for the metadata store.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It owns the physical
// connection pool; collections are handed to the catalog store, which is the
// only component that issues queries.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/taibuivan/mediavault/internal/platform/constants"
)

// Opinionated pool settings for a single-node media server.
const (
	// maxPoolSize is the maximum number of connections in the pool.
	maxPoolSize = 25
	// minPoolSize keeps a warm set of connections to avoid cold-start latency.
	minPoolSize = 2
	// maxConnIdleTime closes connections that have been idle too long.
	maxConnIdleTime = 10 * time.Minute
	// connectTimeout is the maximum time allowed to establish a new connection.
	connectTimeout = 5 * time.Second
	// serverSelectionTimeout bounds how long an operation waits for a usable server.
	serverSelectionTimeout = 5 * time.Second
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
)

// NewClient creates and validates a MongoDB client.
//
// # Parameters
//   - ctx: Context for the initial ping.
//   - uri: A mongodb:// or mongodb+srv:// connection string.
//   - logger: Structured logger for connection events.
func NewClient(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName(constants.AppName).
		SetMaxPoolSize(maxPoolSize).
		SetMinPoolSize(minPoolSize).
		SetMaxConnIdleTime(maxConnIdleTime).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo: invalid configuration: %w", err)
	}

	// Validate that we can actually reach the database.
	if err := Ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongo client connected",
		slog.Int("max_pool_size", maxPoolSize),
	)

	return client, nil
}

// Ping verifies that the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo: ping failed: %w", err)
	}

	return nil
}
