package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vjranagit/engagesim/pkg/types"
)

// ErrNotFound is returned by Load for names that were never stored
var ErrNotFound = errors.New("series not found")

// SeriesStore persists generated datasets by variant name
type SeriesStore interface {
	// Store replaces the records kept under name
	Store(ctx context.Context, name string, records []types.CombinedRecord) error

	// Load returns the records kept under name ordered by timestamp
	Load(ctx context.Context, name string) ([]types.CombinedRecord, error)

	// Close releases the backend
	Close() error
}

// Lister is implemented by stores that can enumerate stored names
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config holds storage configuration
type Config struct {
	Backend          string
	Path             string
	CompressionLevel int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	CacheSize int
	CacheTTL  time.Duration
}

// DefaultConfig returns default storage configuration
func DefaultConfig() *Config {
	return &Config{
		Backend:          BackendFile,
		Path:             "./data",
		CompressionLevel: 3,
		RedisAddr:        "localhost:6379",
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "engagementSim",
		MongoCollection:  "postMetrics",
		CacheSize:        16,
		CacheTTL:         10 * time.Minute,
	}
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("series name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid series name %q", name)
	}
	return nil
}

func sortRecords(records []types.CombinedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
