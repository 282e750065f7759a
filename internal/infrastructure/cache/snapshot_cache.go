// Package cache stores the latest per-symbol snapshot in Redis so external
// consumers (dashboards, alert routers) can read zone state without holding
// a connection to the engine process.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

const keyPrefix = "zonerun:snapshot:"

// SnapshotCache writes the most recent snapshot per symbol with a TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a snapshot cache over an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (*SnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, ttl), nil
}

// Store caches the snapshot as the latest for the symbol.
func (c *SnapshotCache) Store(ctx context.Context, symbol string, snap *zone.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+symbol, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot for %s: %w", symbol, err)
	}
	return nil
}

// Latest returns the cached snapshot for the symbol, or nil when absent or
// expired.
func (c *SnapshotCache) Latest(ctx context.Context, symbol string) (*zone.Snapshot, error) {
	payload, err := c.client.Get(ctx, keyPrefix+symbol).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot for %s: %w", symbol, err)
	}
	var snap zone.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", symbol, err)
	}
	return &snap, nil
}

// Close releases the underlying Redis client.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
