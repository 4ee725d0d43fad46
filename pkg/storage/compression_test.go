package storage

import (
	"testing"
	"time"
)

func TestEncodeBlockRoundTrip(t *testing.T) {
	comp, err := NewCompressor(2)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer comp.Close()

	records := sampleRecords(24)
	records[5].Likes = 1234.5
	records[6].Shares = 0

	data := comp.EncodeBlock(records)

	// three float columns and a timestamp per record, uncompressed
	originalSize := len(records) * 32
	if len(data) >= originalSize {
		t.Errorf("Compression ineffective: original=%d, compressed=%d", originalSize, len(data))
	}

	decoded, err := comp.DecodeBlock(data)
	if err != nil {
		t.Fatalf("Decompression failed: %v", err)
	}
	assertSameRecords(t, records, decoded)
}

func TestEncodeBlockIrregularTimestamps(t *testing.T) {
	for _, level := range []int{1, 3, 4} {
		comp, err := NewCompressor(level)
		if err != nil {
			t.Fatalf("Failed to create compressor: %v", err)
		}

		records := sampleRecords(6)
		records[2].Timestamp = records[2].Timestamp.Add(17 * time.Minute)
		records[4].Timestamp = records[4].Timestamp.Add(-3 * time.Minute)

		decoded, err := comp.DecodeBlock(comp.EncodeBlock(records))
		if err != nil {
			t.Fatalf("Level %d: decompression failed: %v", level, err)
		}
		assertSameRecords(t, records, decoded)
		comp.Close()
	}
}

func TestEncodeEmptyBlock(t *testing.T) {
	comp, err := NewCompressor(2)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer comp.Close()

	decoded, err := comp.DecodeBlock(comp.EncodeBlock(nil))
	if err != nil {
		t.Fatalf("Decompression failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("Expected no records, got %d", len(decoded))
	}
}

func TestDecodeCorruptBlock(t *testing.T) {
	comp, err := NewCompressor(2)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer comp.Close()

	if _, err := comp.DecodeBlock([]byte("not zstd")); err == nil {
		t.Error("Expected error for garbage input")
	}

	truncated := comp.encoder.EncodeAll([]byte{10, 2}, nil)
	if _, err := comp.DecodeBlock(truncated); err == nil {
		t.Error("Expected error for truncated block")
	}
}
