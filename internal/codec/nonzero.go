package codec

import (
	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

// NonZero validates that the wrapped integer is never zero, on both read
// and write, mirroring the reference implementation's NonZeroU8/U16/...
// family collapsed into one generic wrapper since Go has a single
// integer-constraint story (comparable, not per-width types).
type NonZero[T comparable] struct {
	Value T
}

func ReadNonZero[T comparable](r *bitio.Reader, readElem func(*bitio.Reader) (T, error)) (NonZero[T], error) {
	v, err := readElem(r)
	if err != nil {
		return NonZero[T]{}, err
	}
	var zero T
	if v == zero {
		return NonZero[T]{}, dekuerr.NewInvalidParam("non_zero: value was zero")
	}
	return NonZero[T]{Value: v}, nil
}

func WriteNonZero[T comparable](w *bitio.Writer, n NonZero[T], writeElem func(*bitio.Writer, T) error) error {
	var zero T
	if n.Value == zero {
		return dekuerr.NewInvalidParam("non_zero: value was zero")
	}
	return writeElem(w, n.Value)
}
