// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides a managed client for the optional metadata cache.

Catalog documents change rarely and are read on every browse request, so the
catalog store keeps serialized copies here with a TTL. The cache is never
authoritative; an unreachable Redis degrades to direct reads.
*/
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/mediavault/internal/platform/constants"
)

// Cache reads sit on the request path, so every operation fails fast and
// falls through to MongoDB.
const (
	dialTimeout  = time.Second
	readTimeout  = 500 * time.Millisecond
	writeTimeout = 500 * time.Millisecond
	pingTimeout  = 2 * time.Second

	poolSize     = 10
	minIdleConns = 2
)

// clientOptions parses redisURL and applies the cache tuning.
// Settings carried in the URL query (pool_size, dial_timeout...) are overridden.
func clientOptions(redisURL string) (*redis.Options, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.ClientName = constants.AppName
	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	// A failed cache read is retried by the next request, not by the client.
	options.MaxRetries = -1

	return options, nil
}

// NewClient connects the metadata cache and verifies it answers.
//
// # Parameters
//   - ctx: Context for the initial ping.
//   - redisURL: redis:// or rediss:// URL; the path selects the DB index.
//   - cacheTTL: Entry lifetime, logged for operators.
//   - logger: Structured logger for connection events.
func NewClient(ctx context.Context, redisURL string, cacheTTL time.Duration, logger *slog.Logger) (*redis.Client, error) {
	options, err := clientOptions(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_cache_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Duration("cache_ttl", cacheTTL),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
