package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"dlscan/pkg/ocr"
)

// reportCache remembers extraction reports by image content. Extraction is
// deterministic for the same bytes, so a hit can be returned as is.
type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// newReportCache returns nil when no Redis address is configured; a nil cache
// always misses.
func newReportCache(addr, password string, ttl time.Duration) *reportCache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unavailable, extraction cache disabled")
		_ = client.Close()
		return nil
	}
	log.Info().Str("addr", addr).Dur("ttl", ttl).Msg("extraction cache enabled")
	return &reportCache{client: client, ttl: ttl}
}

func cacheKey(data []byte) string {
	h := sha256.Sum256(data)
	return "dlscan:report:" + hex.EncodeToString(h[:])
}

func (c *reportCache) get(ctx context.Context, key string) (*ocr.Report, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("cache get")
		}
		return nil, false
	}
	var rep ocr.Report
	if err := json.Unmarshal(b, &rep); err != nil {
		log.Warn().Err(err).Msg("cache entry unreadable")
		return nil, false
	}
	return &rep, true
}

func (c *reportCache) set(ctx context.Context, key string, rep *ocr.Report) {
	if c == nil || rep == nil {
		return
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("cache set")
	}
}

func (c *reportCache) close() {
	if c != nil {
		_ = c.client.Close()
	}
}
