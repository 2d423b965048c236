// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/mediavault/internal/platform/constants"
)

// ErrCacheMiss is returned by a [Cache] when the key is absent.
var ErrCacheMiss = errors.New("catalog: cache miss")

// Cache is the byte-level key/value contract the cached store needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache adapts a go-redis client to [Cache].
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the stored bytes or [ErrCacheMiss].
func (cache *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := cache.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return value, err
}

// Set stores value with an expiry.
func (cache *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return cache.client.Set(ctx, key, value, ttl).Err()
}

// CachedStore is a read-through cache in front of another [Store].
//
// Cache failures are logged and never surface to callers: the inner store
// stays authoritative.
type CachedStore struct {
	inner  Store
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps inner with a TTL cache.
func NewCachedStore(inner Store, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// searchPage is the cached form of one search result.
type searchPage struct {
	Entries []*Entry `json:"entries"`
	Total   int      `json:"total"`
}

// Get returns the cached entry or loads and caches it.
func (store *CachedStore) Get(ctx context.Context, kind, title string) (*Entry, error) {
	key := fmt.Sprintf("%s%s:entry:%s", constants.RedisPrefixCatalog, kind, title)

	var entry Entry
	if store.load(ctx, key, &entry) {
		return &entry, nil
	}

	loaded, err := store.inner.Get(ctx, kind, title)
	if err != nil {
		return nil, err
	}

	store.save(ctx, key, loaded)
	return loaded, nil
}

// Search returns the cached page or runs and caches the query.
func (store *CachedStore) Search(ctx context.Context, kind string, filter Filter, limit, offset int) ([]*Entry, int, error) {
	key := fmt.Sprintf("%s%s:search:%q:%q:%d:%d", constants.RedisPrefixCatalog, kind, filter.Query, filter.Tag, limit, offset)

	var page searchPage
	if store.load(ctx, key, &page) {
		return page.Entries, page.Total, nil
	}

	entries, total, err := store.inner.Search(ctx, kind, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	store.save(ctx, key, searchPage{Entries: entries, Total: total})
	return entries, total, nil
}

func (store *CachedStore) load(ctx context.Context, key string, target any) bool {
	data, err := store.cache.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return false
	}
	if err != nil {
		store.logger.WarnContext(ctx, "catalog_cache_read_failed", slog.String("key", key), slog.Any("error", err))
		return false
	}

	if err := json.Unmarshal(data, target); err != nil {
		store.logger.WarnContext(ctx, "catalog_cache_corrupt", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (store *CachedStore) save(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := store.cache.Set(ctx, key, data, store.ttl); err != nil {
		store.logger.WarnContext(ctx, "catalog_cache_write_failed", slog.String("key", key), slog.Any("error", err))
	}
}
