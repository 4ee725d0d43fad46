package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vjranagit/engagesim/pkg/metrics"
	"github.com/vjranagit/engagesim/pkg/types"
)

// mongoRecord is one hourly document, keyed by variant
type mongoRecord struct {
	Variant   string    `bson:"variant"`
	Timestamp time.Time `bson:"timestamp"`
	Likes     float64   `bson:"likes"`
	Comments  float64   `bson:"comments"`
	Shares    float64   `bson:"shares"`
}

func toDocument(variant string, r types.CombinedRecord) mongoRecord {
	return mongoRecord{
		Variant:   variant,
		Timestamp: r.Timestamp.UTC(),
		Likes:     r.Likes,
		Comments:  r.Comments,
		Shares:    r.Shares,
	}
}

func (d mongoRecord) record() types.CombinedRecord {
	return types.CombinedRecord{
		Timestamp: d.Timestamp.UTC(),
		Likes:     d.Likes,
		Comments:  d.Comments,
		Shares:    d.Shares,
	}
}

// MongoStore keeps one document per hour in a shared collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects and pings the server
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Store implements SeriesStore
func (s *MongoStore) Store(ctx context.Context, name string, records []types.CombinedRecord) (err error) {
	defer func() { metrics.RecordStore(BackendMongo, "store", err) }()

	if err := validateName(name); err != nil {
		return err
	}

	if _, err := s.collection.DeleteMany(ctx, bson.M{"variant": name}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = toDocument(name, r)
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert %s: %w", name, err)
	}
	return nil
}

// Load implements SeriesStore
func (s *MongoStore) Load(ctx context.Context, name string) (records []types.CombinedRecord, err error) {
	defer func() { metrics.RecordStore(BackendMongo, "load", err) }()

	if err := validateName(name); err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := s.collection.Find(ctx, bson.M{"variant": name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}

	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	records = make([]types.CombinedRecord, len(docs))
	for i, d := range docs {
		records[i] = d.record()
	}
	return records, nil
}

// List implements Lister
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	vals, err := s.collection.Distinct(ctx, "variant", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	names := make([]string, 0, len(vals))
	for _, v := range vals {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close implements SeriesStore
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
