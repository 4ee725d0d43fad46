package storage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/vjranagit/engagesim/pkg/metrics"
	"github.com/vjranagit/engagesim/pkg/types"
)

// CachedStore wraps a SeriesStore with an expiring LRU of loaded datasets
type CachedStore struct {
	store  SeriesStore
	cache  *expirable.LRU[string, []types.CombinedRecord]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedStore creates a cached store wrapper
func NewCachedStore(store SeriesStore, capacity int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		store: store,
		cache: expirable.NewLRU[string, []types.CombinedRecord](capacity, nil, ttl),
	}
}

// Store writes through and refreshes the cached copy. Empty series are
// never cached so loads report what the backend reports.
func (cs *CachedStore) Store(ctx context.Context, name string, records []types.CombinedRecord) error {
	if err := cs.store.Store(ctx, name, records); err != nil {
		cs.cache.Remove(name)
		return err
	}
	if len(records) == 0 {
		cs.cache.Remove(name)
		return nil
	}
	sorted := append([]types.CombinedRecord(nil), records...)
	sortRecords(sorted)
	cs.cache.Add(name, sorted)
	return nil
}

// Load checks the cache before the underlying store. Callers get their own
// copy of the records.
func (cs *CachedStore) Load(ctx context.Context, name string) ([]types.CombinedRecord, error) {
	if records, ok := cs.cache.Get(name); ok {
		cs.hits.Add(1)
		metrics.RecordCacheHit()
		return append([]types.CombinedRecord(nil), records...), nil
	}

	cs.misses.Add(1)
	metrics.RecordCacheMiss()

	records, err := cs.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		cs.cache.Add(name, records)
	}
	return append([]types.CombinedRecord(nil), records...), nil
}

// List delegates to the underlying store when it supports listing
func (cs *CachedStore) List(ctx context.Context) ([]string, error) {
	if l, ok := cs.store.(Lister); ok {
		return l.List(ctx)
	}
	return cs.cache.Keys(), nil
}

// Close closes the underlying store
func (cs *CachedStore) Close() error {
	cs.cache.Purge()
	return cs.store.Close()
}

// CacheStats contains cache statistics
type CacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

// Stats returns cache statistics
func (cs *CachedStore) Stats() CacheStats {
	return CacheStats{
		Size:   cs.cache.Len(),
		Hits:   cs.hits.Load(),
		Misses: cs.misses.Load(),
	}
}

// HitRate returns the cache hit rate as a percentage
func (cs *CachedStore) HitRate() float64 {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}
