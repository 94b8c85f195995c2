package bitio

import (
	"io"

	"github.com/sharksforarms/deku/internal/dekuerr"
)

// Writer wraps a byte sink with bit-level write operations. Like Reader,
// it is owned by exactly one write operation at a time. The caller is
// responsible for calling Finalize to flush any buffered leftover bits;
// a Writer discarded without finalizing leaves the sink exactly as long
// as the bytes that were already emitted (partial output, documented as
// indeterminate per the resource-discipline contract).
type Writer struct {
	w io.Writer

	// pending holds bits already written for the byte in progress,
	// right-justified in its low pendingCount bits.
	pending      uint8
	pendingCount int
	padValue     uint8 // 0 or 1, used by Finalize and WritePad

	bytePos     int64
	bitsWritten int
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// SetPadValue configures the bit value (0 or 1) used to pad a trailing
// partial byte on Finalize, and used by WritePad. Default is 0.
func (w *Writer) SetPadValue(bit uint8) { w.padValue = bit & 1 }

func (w *Writer) writeFull(p []byte) error {
	for len(p) > 0 {
		n, err := w.w.Write(p)
		if err != nil {
			return dekuerr.NewWrite(err)
		}
		p = p[n:]
	}
	return nil
}

func (w *Writer) emit(b byte) error {
	if err := w.writeFull([]byte{b}); err != nil {
		return err
	}
	w.bytePos++
	return nil
}

// WriteBits writes the low n bits of value (1 ≤ n ≤ 64), MSB first. It
// fails with InvalidParam, rather than truncating, if value has any bit
// set above position n.
func (w *Writer) WriteBits(value uint64, n int) error {
	if n <= 0 || n > 64 {
		return dekuerr.NewInvalidParam("write_bits: width %d out of range [1,64]", n)
	}
	if n < 64 && value>>uint(n) != 0 {
		return dekuerr.NewInvalidParam("write_bits: value %d does not fit in %d bits", value, n)
	}
	for i := n - 1; i >= 0; i-- {
		bit := uint8((value >> uint(i)) & 1)
		w.pending = (w.pending << 1) | bit
		w.pendingCount++
		if w.pendingCount == 8 {
			if err := w.emit(w.pending); err != nil {
				return err
			}
			w.pending = 0
			w.pendingCount = 0
		}
	}
	w.bitsWritten += n
	return nil
}

// WriteBytesAligned writes p. When no bits are buffered this writes
// directly to the sink; otherwise it falls back to bitwise packing, one
// byte at a time.
func (w *Writer) WriteBytesAligned(p []byte) error {
	if w.pendingCount == 0 {
		if err := w.writeFull(p); err != nil {
			return err
		}
		w.bytePos += int64(len(p))
		w.bitsWritten += len(p) * 8
		return nil
	}
	for _, b := range p {
		if err := w.WriteBits(uint64(b), 8); err != nil {
			return err
		}
	}
	return nil
}

// WritePad writes n bits of the configured pad value. Used for
// pad_bits_before/pad_bits_after attributes.
func (w *Writer) WritePad(n int) error {
	for n > 0 {
		take := n
		if take > 64 {
			take = 64
		}
		var value uint64
		if w.padValue != 0 {
			value = uint64(1)<<uint(take) - 1
		}
		if err := w.WriteBits(value, take); err != nil {
			return err
		}
		n -= take
	}
	return nil
}

// Position returns the number of whole bytes emitted and the count of
// bits buffered for the byte in progress.
func (w *Writer) Position() (bytePos int64, pendingBits int) {
	return w.bytePos, w.pendingCount
}

// BitsWritten returns the total number of bits passed to WriteBits /
// WriteBytesAligned (including bits still buffered, not yet emitted).
func (w *Writer) BitsWritten() int { return w.bitsWritten }

// Finalize flushes any buffered leftover bits, padding the trailing
// partial byte to a full byte using the configured pad value (default
// zero). It is idempotent: calling it with no pending bits does nothing.
func (w *Writer) Finalize() error {
	if w.pendingCount == 0 {
		return nil
	}
	shift := uint(8 - w.pendingCount)
	final := w.pending << shift
	if w.padValue != 0 {
		final |= uint8(1<<shift - 1)
	}
	w.pending = 0
	w.pendingCount = 0
	return w.emit(final)
}
