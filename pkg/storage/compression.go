package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/vjranagit/engagesim/pkg/types"
)

var errCorruptBlock = errors.New("corrupt block")

// Compressor encodes blocks of combined records. Timestamps are stored as
// delta-of-delta varints and every metric column as XOR-ed float bits,
// then the whole block goes through zstd.
type Compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCompressor creates a new compressor
func NewCompressor(level int) (*Compressor, error) {
	encLevel := zstd.SpeedDefault
	switch level {
	case 1:
		encLevel = zstd.SpeedFastest
	case 2:
		encLevel = zstd.SpeedDefault
	case 3:
		encLevel = zstd.SpeedBetterCompression
	case 4:
		encLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Compressor{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// EncodeBlock compresses records that are already sorted by timestamp
func (c *Compressor) EncodeBlock(records []types.CombinedRecord) []byte {
	buf := binary.AppendUvarint(nil, uint64(len(records)))

	timestamps := make([]int64, len(records))
	for i, r := range records {
		timestamps[i] = r.Timestamp.Unix()
	}
	buf = appendTimestamps(buf, timestamps)

	column := make([]float64, len(records))
	for _, m := range types.Metrics {
		for i, r := range records {
			column[i], _ = r.Value(m)
		}
		buf = appendValues(buf, column)
	}

	return c.encoder.EncodeAll(buf, make([]byte, 0, len(buf)))
}

// DecodeBlock reverses EncodeBlock. Timestamps come back in UTC.
func (c *Compressor) DecodeBlock(data []byte) ([]types.CombinedRecord, error) {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	r := &blockReader{buf: raw}
	count, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if count > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: count %d exceeds payload", errCorruptBlock, count)
	}

	timestamps, err := r.timestamps(int(count))
	if err != nil {
		return nil, err
	}
	records := make([]types.CombinedRecord, count)
	for i, ts := range timestamps {
		records[i].Timestamp = time.Unix(ts, 0).UTC()
	}

	for _, m := range types.Metrics {
		values, err := r.values(int(count))
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", m, err)
		}
		for i, v := range values {
			records[i].Set(m, v)
		}
	}
	return records, nil
}

// Close closes the compressor resources
func (c *Compressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// appendTimestamps writes the first timestamp, then delta-of-deltas. An
// hourly series encodes to one byte per point after the first two.
func appendTimestamps(buf []byte, timestamps []int64) []byte {
	var prev, prevDelta int64
	for i, ts := range timestamps {
		if i == 0 {
			buf = binary.AppendVarint(buf, ts)
		} else {
			delta := ts - prev
			buf = binary.AppendVarint(buf, delta-prevDelta)
			prevDelta = delta
		}
		prev = ts
	}
	return buf
}

// appendValues XORs each value's bits with the previous one. Whole numbers
// leave the low mantissa bits zero, so the XOR is bit-reversed to make the
// varint short.
func appendValues(buf []byte, values []float64) []byte {
	var prev uint64
	for _, v := range values {
		cur := math.Float64bits(v)
		buf = binary.AppendUvarint(buf, bits.Reverse64(cur^prev))
		prev = cur
	}
	return buf
}

type blockReader struct {
	buf []byte
}

func (r *blockReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf)
	if n <= 0 {
		return 0, errCorruptBlock
	}
	r.buf = r.buf[n:]
	return v, nil
}

func (r *blockReader) varint() (int64, error) {
	v, n := binary.Varint(r.buf)
	if n <= 0 {
		return 0, errCorruptBlock
	}
	r.buf = r.buf[n:]
	return v, nil
}

func (r *blockReader) timestamps(count int) ([]int64, error) {
	out := make([]int64, count)
	var prevDelta int64
	for i := range out {
		v, err := r.varint()
		if err != nil {
			return nil, err
		}
		if i == 0 {
			out[0] = v
			continue
		}
		delta := v + prevDelta
		out[i] = out[i-1] + delta
		prevDelta = delta
	}
	return out, nil
}

func (r *blockReader) values(count int) ([]float64, error) {
	out := make([]float64, count)
	var prev uint64
	for i := range out {
		v, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		prev ^= bits.Reverse64(v)
		out[i] = math.Float64frombits(prev)
	}
	return out, nil
}
