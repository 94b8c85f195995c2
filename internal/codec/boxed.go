package codec

import "github.com/sharksforarms/deku/internal/bitio"

// Boxed wraps a value, held directly in its Value field, with no effect
// on the encoded bytes: Rust's Box<T>/Arc<T>/Cow<'_, T> all exist
// to manage ownership, ownership Go's garbage collector already makes a
// non-concern, so one wrapper stands in for all three rather than three
// codecs that would encode identically.
type Boxed[T any] struct {
	Value T
}

func ReadBoxed[T any](r *bitio.Reader, readElem func(*bitio.Reader) (T, error)) (Boxed[T], error) {
	v, err := readElem(r)
	if err != nil {
		return Boxed[T]{}, err
	}
	return Boxed[T]{Value: v}, nil
}

func WriteBoxed[T any](w *bitio.Writer, b Boxed[T], writeElem func(*bitio.Writer, T) error) error {
	return writeElem(w, b.Value)
}
