// Package bitio implements the streaming bit-level I/O layer: a Reader
// and Writer pair wrapping an ordinary byte-oriented io.Reader/io.Writer,
// augmented with sub-byte alignment state, position tracking, a small
// lookahead buffer, and a byte-aligned fast path. Bits within a byte are
// consumed and produced most-significant-bit first (MSB0), matching how
// wire protocols are conventionally drawn; byte order for multi-byte
// values is the caller's concern (see ctxmodel.ByteOrder) and is applied
// above this layer.
package bitio

import (
	"io"

	"github.com/sharksforarms/deku/internal/dekuerr"
)

// Reader wraps a byte source with bit-level read operations. A Reader is
// owned by exactly one read operation at a time; it is not safe for
// concurrent use.
type Reader struct {
	buf    *buffer
	seeker io.Seeker

	bytePos int64
	// leftover holds the unconsumed bits of the most recently fetched
	// byte, right-justified: the next bit to be read is the highest of
	// the low leftoverCount bits.
	leftover      uint8
	leftoverCount int
	bitsRead      int
}

// NewReader returns a Reader reading from r. If r also implements
// io.Seeker, SeekTo becomes available.
func NewReader(r io.Reader) *Reader {
	seeker, _ := r.(io.Seeker)
	return &Reader{buf: newBuffer(r), seeker: seeker}
}

func (r *Reader) fillLeftover() error {
	if r.leftoverCount > 0 {
		return nil
	}
	b, err := r.buf.readByte()
	if err != nil {
		return err
	}
	r.bytePos++
	r.leftover = b
	r.leftoverCount = 8
	return nil
}

// ReadBits consumes n bits (1 ≤ n ≤ 64) and returns them right-justified
// in a uint64, MSB0 within each underlying byte.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n <= 0 || n > 64 {
		return 0, dekuerr.NewInvalidParam("read_bits: width %d out of range [1,64]", n)
	}
	var result uint64
	remaining := n
	for remaining > 0 {
		if r.leftoverCount == 0 {
			if err := r.fillLeftover(); err != nil {
				return 0, dekuerr.NewNotEnoughData(remaining)
			}
		}
		take := remaining
		if take > r.leftoverCount {
			take = r.leftoverCount
		}
		shift := r.leftoverCount - take
		mask := uint16(1)<<uint(take) - 1
		extracted := (r.leftover >> uint(shift)) & uint8(mask)
		result = (result << uint(take)) | uint64(extracted)
		r.leftoverCount -= take
		if r.leftoverCount > 0 {
			r.leftover &= uint8(1<<uint(r.leftoverCount) - 1)
		} else {
			r.leftover = 0
		}
		remaining -= take
		r.bitsRead += take
	}
	return result, nil
}

// ReadBytesAligned reads k whole bytes. When no leftover bits are
// buffered this copies directly out of the underlying buffer; otherwise
// it falls back to bitwise extraction, one byte at a time.
func (r *Reader) ReadBytesAligned(k int) ([]byte, error) {
	if k < 0 {
		return nil, dekuerr.NewInvalidParam("read_bytes_aligned: negative count %d", k)
	}
	if k == 0 {
		return []byte{}, nil
	}
	if r.leftoverCount == 0 {
		raw, err := r.buf.readBuf(k)
		if err != nil {
			return nil, dekuerr.NewNotEnoughData(k * 8)
		}
		r.bytePos += int64(k)
		r.bitsRead += k * 8
		out := make([]byte, k)
		copy(out, raw)
		return out, nil
	}
	out := make([]byte, k)
	for i := range out {
		v, err := r.ReadBits(8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// SkipBits discards n bits without returning them.
func (r *Reader) SkipBits(n int) error {
	for n > 0 {
		take := n
		if take > 64 {
			take = 64
		}
		if _, err := r.ReadBits(take); err != nil {
			return err
		}
		n -= take
	}
	return nil
}

// SkipBytes discards k whole bytes, using the aligned fast path when possible.
func (r *Reader) SkipBytes(k int) error {
	if k < 0 {
		return dekuerr.NewInvalidParam("skip_bytes: negative count %d", k)
	}
	if r.leftoverCount == 0 {
		if err := r.buf.skip(k); err != nil {
			return dekuerr.NewNotEnoughData(k * 8)
		}
		r.bytePos += int64(k)
		r.bitsRead += k * 8
		return nil
	}
	return r.SkipBits(k * 8)
}

// Position returns the number of whole bytes consumed from the
// underlying source and the count of buffered-but-unconsumed leftover
// bits (always in [0,8)).
func (r *Reader) Position() (bytePos int64, leftoverBits int) {
	return r.bytePos, r.leftoverCount
}

// BitsRead returns the total number of bits consumed via ReadBits /
// ReadBytesAligned / their Skip counterparts since the Reader was created.
// SeekTo resets it to the new byte offset times eight.
func (r *Reader) BitsRead() int { return r.bitsRead }

// End reports whether the stream is exhausted and no leftover bits
// remain buffered. Used by the read_all sequence termination policy.
func (r *Reader) End() bool {
	if r.leftoverCount > 0 {
		return false
	}
	return r.buf.atEOF()
}

// Peek returns the next n bytes following the current position without
// consuming them. Peek always looks past any buffered leftover bits.
func (r *Reader) Peek(n int) ([]byte, error) {
	b, err := r.buf.peekAtLeast(n)
	if err != nil {
		return nil, dekuerr.NewNotEnoughData(n * 8)
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Rest returns the currently buffered leftover bits, MSB first, without
// consuming them. Mirrors the reference implementation's Reader::rest(),
// used to inspect what remains of a non-byte-aligned read.
func (r *Reader) Rest() []bool {
	out := make([]bool, r.leftoverCount)
	for i := 0; i < r.leftoverCount; i++ {
		shift := r.leftoverCount - 1 - i
		out[i] = (r.leftover>>uint(shift))&1 == 1
	}
	return out
}

// SeekTo repositions the Reader to the given absolute byte offset,
// clearing any buffered leftover bits and internal read-ahead. It
// requires the wrapped source to implement io.Seeker.
func (r *Reader) SeekTo(byteOffset int64) error {
	if r.seeker == nil {
		return dekuerr.NewInvalidParam("reader does not support seeking")
	}
	if _, err := r.seeker.Seek(byteOffset, io.SeekStart); err != nil {
		return dekuerr.NewParse("seek failed: %v", err)
	}
	r.buf.nr = 0
	r.buf.nw = 0
	r.leftover = 0
	r.leftoverCount = 0
	r.bytePos = byteOffset
	r.bitsRead = int(byteOffset) * 8
	return nil
}
