package codec

import (
	"github.com/klauspost/compress/zstd"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

// Compressed wraps a value whose encoded bytes are stored as a
// length-prefixed zstd frame on the wire, the Go shape of the reference
// implementation's Compressed<T> container (spec.md C3 "boxed" codec
// family) — structurally identical to Boxed[T] except the bytes between
// the inner value's own read/write and the outer stream pass through
// ReadCompressed/WriteCompressed first.
type Compressed[T any] struct {
	Value T
}

// ReadCompressed reads a u32-big-endian length prefix followed by that
// many zstd-compressed bytes, and returns the decompressed payload. The
// caller wraps the result in its own bitio.Reader to decode the nested
// declaration, the same layering the reference implementation's
// Compressed<T> container gets for free from serde's transparent nesting.
func ReadCompressed(r *bitio.Reader) ([]byte, error) {
	lenBytes, err := r.ReadBytesAligned(4)
	if err != nil {
		return nil, err
	}
	n := int(lenBytes[0])<<24 | int(lenBytes[1])<<16 | int(lenBytes[2])<<8 | int(lenBytes[3])
	compressed, err := r.ReadBytesAligned(n)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, dekuerr.NewParse("compressed: %v", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, dekuerr.NewParse("compressed: decode failed: %v", err)
	}
	return out, nil
}

// WriteCompressed zstd-compresses raw and writes it behind a u32 big
// endian length prefix.
func WriteCompressed(w *bitio.Writer, raw []byte) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return dekuerr.NewParse("compressed: %v", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)

	n := len(compressed)
	prefix := []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	if err := w.WriteBytesAligned(prefix); err != nil {
		return err
	}
	return w.WriteBytesAligned(compressed)
}
