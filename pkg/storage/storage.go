package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vjranagit/engagesim/pkg/metrics"
	"github.com/vjranagit/engagesim/pkg/types"
)

const (
	seriesPrefix = "series/"
	metaPrefix   = "meta/"

	// blockSpan groups records into one compressed value per day
	blockSpan = 24 * time.Hour
)

// BadgerStore keeps datasets in BadgerDB as compressed daily blocks
type BadgerStore struct {
	db         *badger.DB
	compressor *Compressor
}

// seriesMeta is written next to the blocks of every stored series
type seriesMeta struct {
	Points    int       `json:"points"`
	Blocks    int       `json:"blocks"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBadgerStore opens (or creates) a store under cfg.Path
func NewBadgerStore(cfg *Config) (*BadgerStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	compressor, err := NewCompressor(cfg.CompressionLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}

	return &BadgerStore{db: db, compressor: compressor}, nil
}

// Store implements SeriesStore. Existing blocks of name are replaced in
// the same transaction.
func (s *BadgerStore) Store(ctx context.Context, name string, records []types.CombinedRecord) (err error) {
	defer func() { metrics.RecordStore(BackendBadger, "store", err) }()

	if err := validateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sorted := append([]types.CombinedRecord(nil), records...)
	sortRecords(sorted)
	blocks := groupByBlock(sorted)

	meta := seriesMeta{
		Points:    len(sorted),
		Blocks:    len(blocks),
		UpdatedAt: time.Now().UTC(),
	}
	if len(sorted) > 0 {
		meta.Start = sorted[0].Timestamp
		meta.End = sorted[len(sorted)-1].Timestamp
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, blockPrefix(name)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
		for _, b := range blocks {
			if err := txn.Set(blockKey(name, b.start), s.compressor.EncodeBlock(b.records)); err != nil {
				return fmt.Errorf("failed to write block: %w", err)
			}
		}
		return txn.Set([]byte(metaPrefix+name), metaBytes)
	})
}

// Load implements SeriesStore
func (s *BadgerStore) Load(ctx context.Context, name string) (records []types.CombinedRecord, err error) {
	defer func() { metrics.RecordStore(BackendBadger, "load", err) }()

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := false
	err = s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(metaPrefix + name)); err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		found = true

		prefix := blockPrefix(name)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				block, err := s.compressor.DecodeBlock(val)
				if err != nil {
					return err
				}
				records = append(records, block...)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to read block: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	sortRecords(records)
	return records, nil
}

// List implements Lister
func (s *BadgerStore) List(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return names, err
}

// Close implements SeriesStore
func (s *BadgerStore) Close() error {
	s.compressor.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type block struct {
	start   int64
	records []types.CombinedRecord
}

// groupByBlock splits sorted records into daily blocks, in order
func groupByBlock(records []types.CombinedRecord) []block {
	var blocks []block
	for _, r := range records {
		start := r.Timestamp.Truncate(blockSpan).Unix()
		if n := len(blocks); n > 0 && blocks[n-1].start == start {
			blocks[n-1].records = append(blocks[n-1].records, r)
			continue
		}
		blocks = append(blocks, block{start: start, records: []types.CombinedRecord{r}})
	}
	return blocks
}

func blockPrefix(name string) []byte {
	return []byte(seriesPrefix + name + "/")
}

// blockKey appends the block start big-endian so keys sort by time
func blockKey(name string, blockTime int64) []byte {
	return binary.BigEndian.AppendUint64(blockPrefix(name), uint64(blockTime))
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
