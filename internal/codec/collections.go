package codec

import "github.com/sharksforarms/deku/internal/bitio"

// entry is a single key/value pair read from or written to the wire for
// Map[K,V]; deku's Rust original reads a Vec<(K,V)> and collects it into
// a map, and that is exactly what ReadMap/WriteMap do here.
type entry[K comparable, V any] struct {
	Key K
	Val V
}

// ReadMap reads exactly count key/value pairs and collects them into a
// map. It reads no length prefix of its own; the caller supplies count.
func ReadMap[K comparable, V any](r *bitio.Reader, count int, readKey func(*bitio.Reader) (K, error), readVal func(*bitio.Reader) (V, error)) (map[K]V, error) {
	out := make(map[K]V, count)
	for i := 0; i < count; i++ {
		k, err := readKey(r)
		if err != nil {
			return nil, err
		}
		v, err := readVal(r)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// WriteMap writes m's entries. Go map iteration order is randomized, so
// callers that need a stable wire encoding must supply keysInOrder; when
// nil, entries are written in whatever order Go's range gives.
func WriteMap[K comparable, V any](w *bitio.Writer, m map[K]V, keysInOrder []K, writeKey func(*bitio.Writer, K) error, writeVal func(*bitio.Writer, V) error) error {
	if keysInOrder != nil {
		for _, k := range keysInOrder {
			if err := writeKey(w, k); err != nil {
				return err
			}
			if err := writeVal(w, m[k]); err != nil {
				return err
			}
		}
		return nil
	}
	for k, v := range m {
		if err := writeKey(w, k); err != nil {
			return err
		}
		if err := writeVal(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadSet reads count elements and collects them into a set, matching
// Map's treatment of Vec<T> as the wire shape behind a Go map[T]struct{}.
func ReadSet[K comparable](r *bitio.Reader, count int, readKey func(*bitio.Reader) (K, error)) (map[K]struct{}, error) {
	out := make(map[K]struct{}, count)
	for i := 0; i < count; i++ {
		k, err := readKey(r)
		if err != nil {
			return nil, err
		}
		out[k] = struct{}{}
	}
	return out, nil
}

// WriteSet writes s's elements in keysInOrder if given, else range order.
func WriteSet[K comparable](w *bitio.Writer, s map[K]struct{}, keysInOrder []K, writeKey func(*bitio.Writer, K) error) error {
	if keysInOrder != nil {
		for _, k := range keysInOrder {
			if err := writeKey(w, k); err != nil {
				return err
			}
		}
		return nil
	}
	for k := range s {
		if err := writeKey(w, k); err != nil {
			return err
		}
	}
	return nil
}
