package codec

import (
	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

// ReadCount reads exactly n elements, each produced by readElem. This is
// the `count` sequence-termination policy.
func ReadCount[T any](r *bitio.Reader, n int, readElem func(*bitio.Reader) (T, error)) ([]T, error) {
	if n < 0 {
		return nil, dekuerr.NewInvalidParam("sequence: negative count %d", n)
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := readElem(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadUntil reads elements until done(lastRead, elementsSoFar) reports
// true, which it is asked immediately after each element is appended.
// This is the `until` sequence-termination policy; the last element that
// satisfies the predicate is included in the result, matching the
// reference implementation's inclusive stop semantics.
func ReadUntil[T any](r *bitio.Reader, readElem func(*bitio.Reader) (T, error), done func(last T, all []T) (bool, error)) ([]T, error) {
	var out []T
	for {
		v, err := readElem(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		stop, err := done(v, out)
		if err != nil {
			return nil, err
		}
		if stop {
			return out, nil
		}
	}
}

// ReadBytesBudget reads elements until the reader has consumed exactly
// maxBytes worth of bits since startBits was captured by the caller. This
// is the `bytes_read` sequence-termination policy.
func ReadBytesBudget[T any](r *bitio.Reader, startBits int, maxBytes int, readElem func(*bitio.Reader) (T, error)) ([]T, error) {
	limitBits := startBits + maxBytes*8
	var out []T
	for r.BitsRead() < limitBits {
		v, err := readElem(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if r.BitsRead() != limitBits {
		return nil, dekuerr.NewParse("sequence: bytes_read budget overrun: consumed %d bits, budget was %d", r.BitsRead()-startBits, maxBytes*8)
	}
	return out, nil
}

// ReadBitsBudget is ReadBytesBudget's bit-granular counterpart, for the
// `bits_read` sequence-termination policy.
func ReadBitsBudget[T any](r *bitio.Reader, startBits int, maxBits int, readElem func(*bitio.Reader) (T, error)) ([]T, error) {
	limitBits := startBits + maxBits
	var out []T
	for r.BitsRead() < limitBits {
		v, err := readElem(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if r.BitsRead() != limitBits {
		return nil, dekuerr.NewParse("sequence: bits_read budget overrun: consumed %d bits, budget was %d", r.BitsRead()-startBits, maxBits)
	}
	return out, nil
}

// ReadAll reads elements until the stream reports End(), for the
// `read_all` sequence-termination policy.
func ReadAll[T any](r *bitio.Reader, readElem func(*bitio.Reader) (T, error)) ([]T, error) {
	var out []T
	for !r.End() {
		v, err := readElem(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteSequence writes every element of vs with writeElem, used for all
// four termination policies alike: on write, the policy only constrains
// what a correct read would have accepted, not what must be emitted.
func WriteSequence[T any](w *bitio.Writer, vs []T, writeElem func(*bitio.Writer, T) error) error {
	for _, v := range vs {
		if err := writeElem(w, v); err != nil {
			return err
		}
	}
	return nil
}
