package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/vjranagit/engagesim/pkg/types"
)

// countingStore is an in-memory SeriesStore that counts loads
type countingStore struct {
	data  map[string][]types.CombinedRecord
	loads int
}

func newCountingStore() *countingStore {
	return &countingStore{data: make(map[string][]types.CombinedRecord)}
}

func (s *countingStore) Store(_ context.Context, name string, records []types.CombinedRecord) error {
	s.data[name] = append([]types.CombinedRecord(nil), records...)
	return nil
}

func (s *countingStore) Load(_ context.Context, name string) ([]types.CombinedRecord, error) {
	s.loads++
	records, ok := s.data[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]types.CombinedRecord(nil), records...), nil
}

func (s *countingStore) Close() error { return nil }

func TestCachedStoreHitPath(t *testing.T) {
	backend := newCountingStore()
	backend.data["noisy"] = sampleRecords(24)
	cached := NewCachedStore(backend, 4, time.Minute)
	ctx := context.Background()

	first, err := cached.Load(ctx, "noisy")
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	second, err := cached.Load(ctx, "noisy")
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	assertSameRecords(t, first, second)

	if backend.loads != 1 {
		t.Errorf("Expected 1 backend load, got %d", backend.loads)
	}
	stats := cached.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if rate := cached.HitRate(); rate != 50.0 {
		t.Errorf("Expected 50%% hit rate, got %f", rate)
	}

	// callers must not be able to modify the cached copy
	second[0].Likes = -1
	third, _ := cached.Load(ctx, "noisy")
	if third[0].Likes == -1 {
		t.Error("Cached records were modified through a returned slice")
	}
}

func TestCachedStoreWriteThrough(t *testing.T) {
	backend := newCountingStore()
	cached := NewCachedStore(backend, 4, time.Minute)
	ctx := context.Background()

	if err := cached.Store(ctx, "daily-cycle", sampleRecords(10)); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	if _, ok := backend.data["daily-cycle"]; !ok {
		t.Fatal("Store did not reach the backend")
	}

	got, err := cached.Load(ctx, "daily-cycle")
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	assertSameRecords(t, sampleRecords(10), got)
	if backend.loads != 0 {
		t.Errorf("Expected load to be served from cache, got %d backend loads", backend.loads)
	}
}

func TestCachedStoreExpiry(t *testing.T) {
	backend := newCountingStore()
	backend.data["noisy"] = sampleRecords(3)
	cached := NewCachedStore(backend, 4, 20*time.Millisecond)
	ctx := context.Background()

	if _, err := cached.Load(ctx, "noisy"); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := cached.Load(ctx, "noisy"); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if backend.loads != 2 {
		t.Errorf("Expected expired entry to reload, got %d backend loads", backend.loads)
	}
}

func TestCachedStoreMissPropagatesNotFound(t *testing.T) {
	cached := NewCachedStore(newCountingStore(), 4, time.Minute)

	_, err := cached.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCachedStoreEmptySeriesMatchesBackend(t *testing.T) {
	s := miniredis.RunT(t)
	backend, err := NewRedisStore(s.Addr(), 0, "")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	cached := NewCachedStore(backend, 4, time.Minute)
	defer cached.Close()
	ctx := context.Background()

	if err := cached.Store(ctx, "noisy", sampleRecords(5)); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	if err := cached.Store(ctx, "noisy", nil); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}

	_, direct := backend.Load(ctx, "noisy")
	_, wrapped := cached.Load(ctx, "noisy")
	if !errors.Is(direct, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound from redis, got %v", direct)
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Errorf("Expected ErrNotFound through the cache, got %v", wrapped)
	}
	if size := cached.Stats().Size; size != 0 {
		t.Errorf("Expected empty series to stay uncached, got size %d", size)
	}
}
