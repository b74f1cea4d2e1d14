package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// IDCache maps claim fingerprints to external claim ids. A hit means the
// claim is already known to exist externally and no network call is
// needed.
type IDCache interface {
	Get(ctx context.Context, fingerprint string) (string, bool, error)
	Put(ctx context.Context, fingerprint, externalID string) error
}

// SQLiteCache is the durable cache layer, backed by the claim_cache
// table in the ledger database. Entries never expire: a created external
// claim stays created.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache wraps the shared ledger database handle.
func NewSQLiteCache(db *sql.DB) *SQLiteCache {
	return &SQLiteCache{db: db}
}

func (c *SQLiteCache) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	var id string
	err := c.db.QueryRowContext(ctx, `
		SELECT external_id FROM claim_cache WHERE fingerprint = ?
	`, fingerprint).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("claim cache get: %w", err)
	}
	return id, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, fingerprint, externalID string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO claim_cache (fingerprint, external_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, fingerprint, externalID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("claim cache put: %w", err)
	}
	return nil
}

// MemoryCache is a TTL'd in-process layer in front of the durable cache.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates the in-memory layer with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, fingerprint string) (string, bool, error) {
	if v, found := c.cache.Get(fingerprint); found {
		return v.(string), true, nil
	}
	return "", false, nil
}

func (c *MemoryCache) Put(_ context.Context, fingerprint, externalID string) error {
	c.cache.Set(fingerprint, externalID, gocache.DefaultExpiration)
	return nil
}

// LayeredCache reads through memory into the durable layer and
// populates both on write. Durable misses are authoritative.
type LayeredCache struct {
	mem     IDCache
	durable IDCache
}

// NewLayeredCache stacks mem over durable.
func NewLayeredCache(mem, durable IDCache) *LayeredCache {
	return &LayeredCache{mem: mem, durable: durable}
}

func (c *LayeredCache) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	if id, ok, err := c.mem.Get(ctx, fingerprint); err != nil || ok {
		return id, ok, err
	}
	id, ok, err := c.durable.Get(ctx, fingerprint)
	if err != nil || !ok {
		return "", false, err
	}
	// Promote to the memory layer; failure there is not fatal.
	_ = c.mem.Put(ctx, fingerprint, id)
	return id, true, nil
}

func (c *LayeredCache) Put(ctx context.Context, fingerprint, externalID string) error {
	if err := c.durable.Put(ctx, fingerprint, externalID); err != nil {
		return err
	}
	return c.mem.Put(ctx, fingerprint, externalID)
}
