// Package ctxmodel implements the context-passing model (spec.md §4.4):
// the uniform Ctx tuple every codec accepts, and the rules by which a
// parent synthesizes a child's Ctx from its own state plus the child's
// attributes.
package ctxmodel

import "encoding/binary"

// ByteOrder selects how multi-byte primitives are packed within a field.
// Host resolves to the running process's native order, matching the
// reference implementation's Endian::default().
type ByteOrder int

const (
	Host ByteOrder = iota
	Little
	Big
)

func (o ByteOrder) String() string {
	switch o {
	case Little:
		return "little"
	case Big:
		return "big"
	default:
		return "host"
	}
}

// Resolve returns Little or Big, translating Host to the process's
// native order.
func (o ByteOrder) Resolve() ByteOrder {
	if o != Host {
		return o
	}
	if isNativeLittleEndian {
		return Little
	}
	return Big
}

// Binary returns the encoding/binary.ByteOrder implementation matching o,
// resolving Host first.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o.Resolve() == Little {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

var isNativeLittleEndian = func() bool {
	var probe uint16 = 1
	buf := [2]byte{}
	binary.NativeEndian.PutUint16(buf[:], probe)
	return buf[0] == 1
}()
