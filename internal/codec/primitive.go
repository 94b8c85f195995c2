// Package codec implements the primitive and container codecs (spec.md
// C2/C3): the read/write pairs the lowering engine dispatches to for
// each field's resolved Go type, each taking a ctxmodel.Ctx carrying
// byte order and an optional explicit bit/byte width.
package codec

import (
	"math"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/ctxmodel"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

func bytesToUint(b []byte, order ctxmodel.ByteOrder) uint64 {
	var v uint64
	if order.Resolve() == ctxmodel.Big {
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func uintToBytes(v uint64, n int, order ctxmodel.ByteOrder) []byte {
	b := make([]byte, n)
	if order.Resolve() == ctxmodel.Big {
		for i := n - 1; i >= 0; i-- {
			b[i] = byte(v)
			v >>= 8
		}
		return b
	}
	for i := 0; i < n; i++ {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// ReadUint reads an unsigned integer whose width is ctx's explicit
// bit/byte width, or nativeBits if unset.
func ReadUint(r *bitio.Reader, ctx ctxmodel.Ctx, nativeBits int) (uint64, error) {
	width := ctx.BitsOrNative(nativeBits)
	if width <= 0 || width > 64 {
		return 0, dekuerr.NewInvalidParam("int: bit width %d out of range", width)
	}
	if width%8 == 0 {
		raw, err := r.ReadBytesAligned(width / 8)
		if err != nil {
			return 0, err
		}
		return bytesToUint(raw, ctx.Order), nil
	}
	return r.ReadBits(width)
}

// WriteUint writes v using width bits, per ctx's explicit width or
// nativeBits, failing with InvalidParam if v does not fit.
func WriteUint(w *bitio.Writer, ctx ctxmodel.Ctx, nativeBits int, v uint64) error {
	width := ctx.BitsOrNative(nativeBits)
	if width <= 0 || width > 64 {
		return dekuerr.NewInvalidParam("int: bit width %d out of range", width)
	}
	if width < 64 && v>>uint(width) != 0 {
		return dekuerr.NewInvalidParam("int: value %d does not fit in %d bits", v, width)
	}
	if width%8 == 0 {
		return w.WriteBytesAligned(uintToBytes(v, width/8, ctx.Order))
	}
	return w.WriteBits(v, width)
}

// signExtend sign-extends the low width bits of v (a raw unsigned read)
// into a full int64, per invariant 8.
func signExtend(v uint64, width int) int64 {
	if width >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << uint(width-1)
	if v&signBit != 0 {
		v |= ^uint64(0) << uint(width)
	}
	return int64(v)
}

// ReadInt reads a signed integer of the resolved width, sign-extending
// into int64.
func ReadInt(r *bitio.Reader, ctx ctxmodel.Ctx, nativeBits int) (int64, error) {
	raw, err := ReadUint(r, ctx, nativeBits)
	if err != nil {
		return 0, err
	}
	width := ctx.BitsOrNative(nativeBits)
	return signExtend(raw, width), nil
}

// WriteInt writes a signed integer in two's complement at the resolved
// width, failing with InvalidParam if v does not fit in that many bits,
// then masks it to the width before delegating to WriteUint.
func WriteInt(w *bitio.Writer, ctx ctxmodel.Ctx, nativeBits int, v int64) error {
	width := ctx.BitsOrNative(nativeBits)
	if width <= 0 || width > 64 {
		return dekuerr.NewInvalidParam("int: bit width %d out of range", width)
	}
	var mask uint64 = ^uint64(0)
	if width < 64 {
		lo, hi := -(int64(1) << uint(width-1)), int64(1)<<uint(width-1)-1
		if v < lo || v > hi {
			return dekuerr.NewInvalidParam("int: value %d does not fit in %d bits", v, width)
		}
		mask = uint64(1)<<uint(width) - 1
	}
	return WriteUint(w, ctx, nativeBits, uint64(v)&mask)
}

// ReadBool reads a boolean as a single byte (or ctx's explicit width),
// true for any non-zero value, matching the reference implementation's
// "bool is a u8" convention when no bits= override narrows it to 1.
func ReadBool(r *bitio.Reader, ctx ctxmodel.Ctx) (bool, error) {
	v, err := ReadUint(r, ctx, 8)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// WriteBool writes v as 0 or 1 in the resolved width.
func WriteBool(w *bitio.Writer, ctx ctxmodel.Ctx, v bool) error {
	var n uint64
	if v {
		n = 1
	}
	return WriteUint(w, ctx, 8, n)
}

// ReadFloat32 reads an IEEE-754 binary32 value, byte order applied to
// the raw bit pattern the same as any other 4-byte primitive.
func ReadFloat32(r *bitio.Reader, ctx ctxmodel.Ctx) (float32, error) {
	bits, err := ReadUint(r, ctx, 32)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(bits)), nil
}

func WriteFloat32(w *bitio.Writer, ctx ctxmodel.Ctx, v float32) error {
	return WriteUint(w, ctx, 32, uint64(math.Float32bits(v)))
}

func ReadFloat64(r *bitio.Reader, ctx ctxmodel.Ctx) (float64, error) {
	bits, err := ReadUint(r, ctx, 64)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func WriteFloat64(w *bitio.Writer, ctx ctxmodel.Ctx, v float64) error {
	return WriteUint(w, ctx, 64, math.Float64bits(v))
}

// Uint128 represents a 128-bit unsigned integer as two 64-bit halves,
// Go having no native 128-bit integer type. Hi holds the most
// significant 64 bits regardless of wire byte order; byte order only
// affects how each half (and which half comes first) is serialized.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Int128 is the signed counterpart of Uint128, two's complement across
// both halves.
type Int128 struct {
	Hi int64
	Lo uint64
}

func ReadUint128(r *bitio.Reader, ctx ctxmodel.Ctx) (Uint128, error) {
	order := ctx.Order.Resolve()
	first, err := ReadUint(r, ctx.WithOrder(order), 64)
	if err != nil {
		return Uint128{}, err
	}
	second, err := ReadUint(r, ctx.WithOrder(order), 64)
	if err != nil {
		return Uint128{}, err
	}
	if order == ctxmodel.Big {
		return Uint128{Hi: first, Lo: second}, nil
	}
	return Uint128{Hi: second, Lo: first}, nil
}

func WriteUint128(w *bitio.Writer, ctx ctxmodel.Ctx, v Uint128) error {
	order := ctx.Order.Resolve()
	c := ctx.WithOrder(order)
	if order == ctxmodel.Big {
		if err := WriteUint(w, c, 64, v.Hi); err != nil {
			return err
		}
		return WriteUint(w, c, 64, v.Lo)
	}
	if err := WriteUint(w, c, 64, v.Lo); err != nil {
		return err
	}
	return WriteUint(w, c, 64, v.Hi)
}

func ReadInt128(r *bitio.Reader, ctx ctxmodel.Ctx) (Int128, error) {
	u, err := ReadUint128(r, ctx)
	if err != nil {
		return Int128{}, err
	}
	return Int128{Hi: int64(u.Hi), Lo: u.Lo}, nil
}

func WriteInt128(w *bitio.Writer, ctx ctxmodel.Ctx, v Int128) error {
	return WriteUint128(w, ctx, Uint128{Hi: uint64(v.Hi), Lo: v.Lo})
}
