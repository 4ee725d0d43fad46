package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vjranagit/engagesim/pkg/metrics"
	"github.com/vjranagit/engagesim/pkg/types"
)

const redisKeyPrefix = "engagesim:series:"

// RedisStore keeps each dataset in a sorted set scored by unix time
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection
func NewRedisStore(addr string, db int, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(name string) string {
	return redisKeyPrefix + name
}

// Store implements SeriesStore. The previous set is dropped in the same
// transaction.
func (s *RedisStore) Store(ctx context.Context, name string, records []types.CombinedRecord) (err error) {
	defer func() { metrics.RecordStore(BackendRedis, "store", err) }()

	if err := validateName(name); err != nil {
		return err
	}

	members := make([]redis.Z, len(records))
	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		members[i] = redis.Z{Score: float64(r.Timestamp.Unix()), Member: data}
	}

	key := redisKey(name)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

// Load implements SeriesStore
func (s *RedisStore) Load(ctx context.Context, name string) (records []types.CombinedRecord, err error) {
	defer func() { metrics.RecordStore(BackendRedis, "load", err) }()

	if err := validateName(name); err != nil {
		return nil, err
	}

	vals, err := s.client.ZRange(ctx, redisKey(name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	records = make([]types.CombinedRecord, len(vals))
	for i, v := range vals {
		if err := json.Unmarshal([]byte(v), &records[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
	}
	sortRecords(records)
	return records, nil
}

// List implements Lister
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan series: %w", err)
	}
	return names, nil
}

// Close implements SeriesStore
func (s *RedisStore) Close() error {
	return s.client.Close()
}
