// Package cache holds short-lived venue snapshots shared across requests.
package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"margin-gateway/pkg/exchanges/common"
)

const numShards = 16

// TradeCache keeps the latest recent-trades snapshot per symbol. Entries
// older than the TTL are treated as missing.
type TradeCache struct {
	ttl    time.Duration
	now    func() time.Time
	shards [numShards]*tradeShard
}

type tradeShard struct {
	mu    sync.RWMutex
	items map[string]tradeEntry
}

type tradeEntry struct {
	trades    []common.Trade
	updatedAt time.Time
}

// NewTradeCache creates a cache. A ttl of zero or less disables caching:
// Get always misses and Set is a no-op.
func NewTradeCache(ttl time.Duration) *TradeCache {
	c := &TradeCache{ttl: ttl, now: time.Now}
	for i := 0; i < numShards; i++ {
		c.shards[i] = &tradeShard{items: make(map[string]tradeEntry)}
	}
	return c
}

func (c *TradeCache) getShard(symbol string) *tradeShard {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return c.shards[h.Sum32()%numShards]
}

// Set stores a snapshot for symbol.
func (c *TradeCache) Set(symbol string, trades []common.Trade) {
	if c.ttl <= 0 {
		return
	}
	shard := c.getShard(symbol)
	shard.mu.Lock()
	shard.items[symbol] = tradeEntry{
		trades:    append([]common.Trade(nil), trades...),
		updatedAt: c.now(),
	}
	shard.mu.Unlock()
}

// Get returns a copy of a fresh snapshot for symbol.
func (c *TradeCache) Get(symbol string) ([]common.Trade, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	shard := c.getShard(symbol)
	shard.mu.RLock()
	entry, ok := shard.items[symbol]
	shard.mu.RUnlock()
	if !ok || c.now().Sub(entry.updatedAt) >= c.ttl {
		return nil, false
	}
	return append([]common.Trade(nil), entry.trades...), true
}

// Len returns total items across all shards, stale ones included.
func (c *TradeCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.items)
		shard.mu.RUnlock()
	}
	return total
}

// Cleanup removes expired entries and reports how many went.
func (c *TradeCache) Cleanup() int {
	removed := 0
	cutoff := c.now().Add(-c.ttl)
	for _, shard := range c.shards {
		shard.mu.Lock()
		for sym, entry := range shard.items {
			if !entry.updatedAt.After(cutoff) {
				delete(shard.items, sym)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (c *TradeCache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
