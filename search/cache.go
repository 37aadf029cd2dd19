package search

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/poiesic/careersearch/core"
)

// DefaultCacheEntries is the default number of suggest results kept in memory.
const DefaultCacheEntries = 10_000

// resultCache caches suggest results in process and, optionally, in redis
// so that several processes share them. Keys include the index generation,
// so a reload never serves results computed against older data.
type resultCache struct {
	local  *ristretto.Cache[uint64, *SuggestResult]
	redis  *redis.Client
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
	logger *slog.Logger
}

func newResultCache(entries int64, client *redis.Client, ttl time.Duration, logger *slog.Logger) (*resultCache, error) {
	c := &resultCache{redis: client, ttl: ttl, logger: logger}
	if entries > 0 {
		local, err := ristretto.NewCache(&ristretto.Config[uint64, *SuggestResult]{
			NumCounters: entries * 10,
			MaxCost:     entries,
			BufferItems: 64,
			// Cost counts entries, not bytes
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		c.local = local
	}
	return c, nil
}

func cacheKey(generation, query string, limit int) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(limit))

	d := xxhash.New()
	d.WriteString(generation)
	d.Write([]byte{0})
	d.WriteString(core.NormalizeText(query))
	d.Write([]byte{0})
	d.Write(buf[:])
	return d.Sum64()
}

func redisKey(generation string, key uint64) string {
	return fmt.Sprintf("careersearch:suggest:%s:%016x", generation, key)
}

func (c *resultCache) get(ctx context.Context, generation, query string, limit int) (*SuggestResult, bool) {
	key := cacheKey(generation, query, limit)
	if c.local != nil {
		if res, ok := c.local.Get(key); ok {
			c.hits.Add(1)
			return res, true
		}
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, redisKey(generation, key)).Bytes()
		switch {
		case err == nil:
			var res SuggestResult
			if err := msgpack.Unmarshal(data, &res); err != nil {
				c.logger.Warn("discarding undecodable cached result", "err", err)
				break
			}
			if c.local != nil {
				c.local.Set(key, &res, 1)
			}
			c.hits.Add(1)
			return &res, true
		case errors.Is(err, redis.Nil):
		default:
			c.logger.Warn("redis cache lookup failed", "err", err)
		}
	}

	c.misses.Add(1)
	return nil, false
}

func (c *resultCache) set(ctx context.Context, generation, query string, limit int, res *SuggestResult) {
	key := cacheKey(generation, query, limit)
	if c.local != nil {
		c.local.Set(key, res, 1)
	}
	if c.redis != nil {
		data, err := msgpack.Marshal(res)
		if err != nil {
			c.logger.Warn("failed to encode result for cache", "err", err)
			return
		}
		if err := c.redis.Set(ctx, redisKey(generation, key), data, c.ttl).Err(); err != nil {
			c.logger.Warn("redis cache store failed", "err", err)
		}
	}
}

// clear drops local entries. Redis entries expire on their own; their keys
// carry the old generation so they are never read again.
func (c *resultCache) clear() {
	if c.local != nil {
		c.local.Clear()
	}
}

func (c *resultCache) close() {
	if c.local != nil {
		c.local.Close()
	}
}
