package storage

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vjranagit/engagesim/pkg/types"
)

func TestMongoDocumentMapping(t *testing.T) {
	record := sampleRecords(1)[0]

	data, err := bson.Marshal(toDocument("realistic-scaling", record))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	for _, field := range []string{"variant", "timestamp", "likes", "comments", "shares"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("Missing field %q in %v", field, raw)
		}
	}
	if raw["variant"] != "realistic-scaling" {
		t.Errorf("Expected variant realistic-scaling, got %v", raw["variant"])
	}

	var doc mongoRecord
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to unmarshal document: %v", err)
	}
	assertSameRecords(t, []types.CombinedRecord{record}, []types.CombinedRecord{doc.record()})
}
