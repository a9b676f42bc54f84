// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"lessonpress/internal/slug"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached public responses.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a public response stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache stores encoded public responses in Valkey. Cache failures are
// logged and treated as misses; they never fail a request.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get returns the cached body for key.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores body under key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, body []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, body, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached response. Any section or lesson
// mutation can change navigation on other pages, so mutations flush the
// whole prefix.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache cleared", "deleted", deleted)
	}
}

// HomepageKey returns the cache key for the public table of contents.
func HomepageKey() string {
	return "_homepage"
}

// SectionKey returns the cache key for a public section page.
func SectionKey(number int, sectionSlug string) string {
	return "section-" + slug.Descriptor(number, sectionSlug)
}

// LessonKey returns the cache key for a public lesson page.
func LessonKey(sectionNumber int, sectionSlug string, lessonNumber int, lessonSlug string) string {
	return SectionKey(sectionNumber, sectionSlug) + "/lesson-" + slug.Descriptor(lessonNumber, lessonSlug)
}
