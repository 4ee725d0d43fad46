package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenBackends(t *testing.T) {
	s := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     *Config
		cached  bool
		wantErr bool
	}{
		{name: "file", cfg: &Config{Backend: BackendFile, Path: t.TempDir()}},
		{name: "badger cached", cfg: &Config{Backend: BackendBadger, Path: t.TempDir(), CompressionLevel: 2, CacheSize: 2}, cached: true},
		{name: "redis", cfg: &Config{Backend: BackendRedis, RedisAddr: s.Addr()}},
		{name: "unknown", cfg: &Config{Backend: "cassandra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to open: %v", err)
			}
			defer store.Close()

			if _, ok := store.(*CachedStore); ok != tt.cached {
				t.Errorf("Expected cached=%v, got %T", tt.cached, store)
			}

			ctx := context.Background()
			if err := store.Store(ctx, "noisy", sampleRecords(30)); err != nil {
				t.Fatalf("Failed to store: %v", err)
			}
			got, err := store.Load(ctx, "noisy")
			if err != nil {
				t.Fatalf("Failed to load: %v", err)
			}
			assertSameRecords(t, sampleRecords(30), got)
		})
	}
}
