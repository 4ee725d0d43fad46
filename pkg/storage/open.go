package storage

import (
	"context"
	"fmt"
)

// Open creates the configured backend, wrapped in a CachedStore when
// cfg.CacheSize is positive.
func Open(ctx context.Context, cfg *Config) (SeriesStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var (
		store SeriesStore
		err   error
	)
	switch cfg.Backend {
	case BackendFile, "":
		store, err = NewFileStore(cfg.Path)
	case BackendBadger:
		store, err = NewBadgerStore(cfg)
	case BackendRedis:
		store, err = NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPassword)
	case BackendMongo:
		store, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		return NewCachedStore(store, cfg.CacheSize, cfg.CacheTTL), nil
	}
	return store, nil
}
