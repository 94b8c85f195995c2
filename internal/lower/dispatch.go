// Package lower implements the declaration-driven read/write interpreter
// (spec.md C7): given a resolved decl.Declaration, it walks its Fields or
// Variants and drives bitio/codec calls in the order and with the ctx
// synthesis rules of spec.md §4.4–§4.5. Unlike a macro-based front end,
// this interpreter is itself the "generated code" — a single,
// declaration-independent function driven by the Declaration value,
// mirroring how the teacher's vdl package bridges reflect.Value traversal
// to codec calls in reflect_decoder.go/reflect_writer.go.
package lower

import (
	"bytes"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/codec"
	"github.com/sharksforarms/deku/internal/ctxmodel"
	"github.com/sharksforarms/deku/internal/decl"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

var (
	typeUint128  = reflect.TypeOf(codec.Uint128{})
	typeInt128   = reflect.TypeOf(codec.Int128{})
	typeNetIP    = reflect.TypeOf(net.IP{})
	typeNetMAC   = reflect.TypeOf(net.HardwareAddr{})
	codecPkgPath = typeUint128.PkgPath()
)

// wrapperKind identifies one of the codec package's single-field
// transparent wrapper types (Boxed[T], NonZero[T], Compressed[T]) by its
// instantiated generic name, since reflect has no way to ask "is this
// type an instantiation of codec.Boxed" without comparing against every
// possible T. All three share the same shape (one field named "Value")
// and differ only in what readScalar/writeScalar does around the inner
// read/write.
func wrapperKind(t reflect.Type) string {
	if t.Kind() != reflect.Struct || t.PkgPath() != codecPkgPath || t.NumField() != 1 {
		return ""
	}
	if t.Field(0).Name != "Value" {
		return ""
	}
	switch {
	case strings.HasPrefix(t.Name(), "Boxed["):
		return "Boxed"
	case strings.HasPrefix(t.Name(), "NonZero["):
		return "NonZero"
	case strings.HasPrefix(t.Name(), "Compressed["):
		return "Compressed"
	default:
		return ""
	}
}

// CtxDefaulter is implemented by a Go type that wants a non-zero Ctx
// applied when a caller invokes a top-level entry point without
// supplying one explicitly (spec.md §4.4 "Ctx defaults").
type CtxDefaulter interface {
	DekuCtxDefault() ctxmodel.Ctx
}

// readScalar dispatches a single value read by t's reflect.Kind/identity.
// It does not interpret sequence-termination attributes (count/until/...)
// itself — those are the caller's job (product.go, for slice-typed
// fields) so that the same dispatch also serves fixed arrays and scalar
// elements of a sequence.
func readScalar(r *bitio.Reader, t reflect.Type, ctx ctxmodel.Ctx) (reflect.Value, error) {
	switch {
	case t == typeUint128:
		v, err := codec.ReadUint128(r, ctx)
		return reflect.ValueOf(v), err
	case t == typeInt128:
		v, err := codec.ReadInt128(r, ctx)
		return reflect.ValueOf(v), err
	case t == typeNetIP:
		n := ctx.ByteCount
		if n == 0 {
			n = 4
		}
		var (
			ip  net.IP
			err error
		)
		switch n {
		case 4:
			ip, err = codec.ReadIPv4(r)
		case 16:
			ip, err = codec.ReadIPv6(r)
		default:
			return reflect.Value{}, dekuerr.NewInvalidParam("net.IP: bytes must be 4 or 16, got %d", n)
		}
		return reflect.ValueOf(ip), err
	case t == typeNetMAC:
		mac, err := codec.ReadMACAddr(r)
		return reflect.ValueOf(mac), err
	}

	if kind := wrapperKind(t); kind != "" {
		return readWrapper(r, kind, t, ctx)
	}

	switch t.Kind() {
	case reflect.Bool:
		v, err := codec.ReadBool(r, ctx)
		return reflect.ValueOf(v), err
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		v, err := codec.ReadUint(r, ctx, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.New(t).Elem()
		rv.SetUint(v)
		return rv, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		v, err := codec.ReadInt(r, ctx, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.New(t).Elem()
		rv.SetInt(v)
		return rv, nil
	case reflect.Float32:
		v, err := codec.ReadFloat32(r, ctx)
		return reflect.ValueOf(v), err
	case reflect.Float64:
		v, err := codec.ReadFloat64(r, ctx)
		return reflect.ValueOf(v), err
	case reflect.String:
		n := ctx.ByteCount
		if n > 0 {
			b, err := r.ReadBytesAligned(n)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(string(b)), nil
		}
		s, err := codec.ReadCString(r, 0)
		return reflect.ValueOf(s), err
	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := 0; i < t.Len(); i++ {
			ev, err := readScalar(r, t.Elem(), ctx)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			n := ctx.ByteCount
			if n == 0 {
				return reflect.Value{}, dekuerr.NewInvalidParam("byte slice %s: fixed read needs an explicit bytes= width", t)
			}
			b, err := r.ReadBytesAligned(n)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(b), nil
		}
		return reflect.Value{}, dekuerr.NewInvalidParam("slice type %s needs a sequence-termination attribute (count/until/bytes_read/bits_read/read_all)", t)
	case reflect.Map:
		return reflect.Value{}, dekuerr.NewInvalidParam("map type %s needs a count attribute", t)
	case reflect.Ptr:
		inner, err := readScalar(r, t.Elem(), ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	case reflect.Struct:
		nested, err := decl.ForProduct(t)
		if err != nil {
			return reflect.Value{}, err
		}
		return ReadProduct(r, nested, ctx)
	case reflect.Interface:
		nested, err := decl.ForSum(t)
		if err != nil {
			return reflect.Value{}, err
		}
		return ReadSum(r, nested, ctx)
	default:
		return reflect.Value{}, dekuerr.NewInvalidParam("lower: no codec for type %s", t)
	}
}

func writeScalar(w *bitio.Writer, t reflect.Type, v reflect.Value, ctx ctxmodel.Ctx) error {
	switch {
	case t == typeUint128:
		return codec.WriteUint128(w, ctx, v.Interface().(codec.Uint128))
	case t == typeInt128:
		return codec.WriteInt128(w, ctx, v.Interface().(codec.Int128))
	case t == typeNetIP:
		ip := v.Interface().(net.IP)
		n := ctx.ByteCount
		if n == 0 {
			n = 4
		}
		if n == 16 {
			return codec.WriteIPv6(w, ip)
		}
		return codec.WriteIPv4(w, ip)
	case t == typeNetMAC:
		return codec.WriteMACAddr(w, v.Interface().(net.HardwareAddr))
	}

	if kind := wrapperKind(t); kind != "" {
		return writeWrapper(w, kind, t, v, ctx)
	}

	switch t.Kind() {
	case reflect.Bool:
		return codec.WriteBool(w, ctx, v.Bool())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return codec.WriteUint(w, ctx, t.Bits(), v.Uint())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return codec.WriteInt(w, ctx, t.Bits(), v.Int())
	case reflect.Float32:
		return codec.WriteFloat32(w, ctx, float32(v.Float()))
	case reflect.Float64:
		return codec.WriteFloat64(w, ctx, v.Float())
	case reflect.String:
		s := v.String()
		if ctx.ByteCount > 0 {
			b := []byte(s)
			if len(b) != ctx.ByteCount {
				return dekuerr.NewInvalidParam("string %q does not fit declared width %d", s, ctx.ByteCount)
			}
			return w.WriteBytesAligned(b)
		}
		return codec.WriteCString(w, s)
	case reflect.Array:
		for i := 0; i < t.Len(); i++ {
			if err := writeScalar(w, t.Elem(), v.Index(i), ctx); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return w.WriteBytesAligned(v.Bytes())
		}
		return dekuerr.NewInvalidParam("slice type %s needs a sequence-termination attribute", t)
	case reflect.Ptr:
		if v.IsNil() {
			return dekuerr.NewInvalidParam("lower: nil pointer for non-optional field of type %s", t)
		}
		return writeScalar(w, t.Elem(), v.Elem(), ctx)
	case reflect.Struct:
		nested, err := decl.ForProduct(t)
		if err != nil {
			return err
		}
		return WriteProduct(w, nested, v, ctx)
	case reflect.Interface:
		nested, err := decl.ForSum(t)
		if err != nil {
			return err
		}
		return WriteSum(w, nested, v, ctx)
	default:
		return dekuerr.NewInvalidParam("lower: no codec for type %s", t)
	}
}

// readWrapper reads through one of the transparent single-field wrapper
// types identified by wrapperKind, dispatching the inner Value field's
// own read and, for Compressed, peeling off the zstd frame first.
func readWrapper(r *bitio.Reader, kind string, t reflect.Type, ctx ctxmodel.Ctx) (reflect.Value, error) {
	innerType := t.Field(0).Type
	out := reflect.New(t).Elem()

	switch kind {
	case "Compressed":
		raw, err := codec.ReadCompressed(r)
		if err != nil {
			return reflect.Value{}, err
		}
		sub := bitio.NewReader(bytes.NewReader(raw))
		inner, err := readScalar(sub, innerType, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Field(0).Set(inner)
		return out, nil
	case "NonZero":
		inner, err := readScalar(r, innerType, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		if inner.IsZero() {
			return reflect.Value{}, dekuerr.NewInvalidParam("non_zero: value was zero")
		}
		out.Field(0).Set(inner)
		return out, nil
	default: // Boxed
		inner, err := readScalar(r, innerType, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Field(0).Set(inner)
		return out, nil
	}
}

// writeWrapper is the dual of readWrapper.
func writeWrapper(w *bitio.Writer, kind string, t reflect.Type, v reflect.Value, ctx ctxmodel.Ctx) error {
	inner := v.Field(0)

	switch kind {
	case "Compressed":
		var buf bytes.Buffer
		sub := bitio.NewWriter(&buf)
		if err := writeScalar(sub, t.Field(0).Type, inner, ctx); err != nil {
			return err
		}
		if err := sub.Finalize(); err != nil {
			return err
		}
		return codec.WriteCompressed(w, buf.Bytes())
	case "NonZero":
		if inner.IsZero() {
			return dekuerr.NewInvalidParam("non_zero: value was zero")
		}
		return writeScalar(w, t.Field(0).Type, inner, ctx)
	default: // Boxed
		return writeScalar(w, t.Field(0).Type, inner, ctx)
	}
}

// zeroValue returns the Go zero value of t as a reflect.Value, used when
// a cond/skip field takes its implicit default.
func zeroValue(t reflect.Type) reflect.Value { return reflect.Zero(t) }

// convertAny coerces an expr-evaluated value (int64, bool, or a value
// already of the right dynamic type) into a reflect.Value assignable to t.
func convertAny(v any, t reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Zero(t), nil
	}
	if rv.Type() == t {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64, reflect.Bool, reflect.String:
			return rv.Convert(t), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("lower: cannot use value %v (%T) for field of type %s", v, v, t)
}
