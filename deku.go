// Package deku implements a declarative bit-level binary codec: given a
// Go struct whose fields carry `deku:"..."` tags (or an interface type
// registered via decl.RegisterSum for tagged-sum/variant types), it
// derives symmetric read and write procedures without the caller hand-
// writing either one. The struct tags are the schema (see SPEC_FULL.md
// §1); internal/decl parses them once per type into an immutable
// Declaration, and internal/lower is the declaration-driven interpreter
// that plays the role of the generated reader/writer pair.
//
// This file is the thin top-level API surface, mirroring the shape of
// the teacher's own top-level vom.Encode/vom.Decode wrappers around the
// internal vdl/vom machinery: callers never touch internal/* directly.
package deku

import (
	"bytes"
	"reflect"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/ctxmodel"
	"github.com/sharksforarms/deku/internal/decl"
	"github.com/sharksforarms/deku/internal/dekuerr"
	"github.com/sharksforarms/deku/internal/lower"
	"github.com/sharksforarms/deku/internal/validate"
)

// RegisterSum exposes decl.RegisterSum at the top level, since a sum's
// "fields" are distinct Go types and there is no single struct to hang
// tags off of (see decl/registry.go). Call it once at program init for
// every interface type used as a sum field or top-level value; it
// validates the result immediately so a malformed registration fails
// fast rather than at first use.
func RegisterSum(sumType reflect.Type, spec decl.SumSpec) error {
	d, err := decl.RegisterSum(sumType, spec)
	if err != nil {
		return err
	}
	return validate.Declaration(d)
}

// declarationFor resolves and validates the Declaration for a value's
// type, dispatching to the product or sum path by Go kind.
func declarationFor(t reflect.Type) (*decl.Declaration, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var d *decl.Declaration
	var err error
	switch t.Kind() {
	case reflect.Struct:
		d, err = decl.ForProduct(t)
	case reflect.Interface:
		d, err = decl.ForSum(t)
	default:
		return nil, dekuerr.NewInvalidParam("deku: %s is not a registered product or sum type", t)
	}
	if err != nil {
		return nil, err
	}
	if err := validate.Declaration(d); err != nil {
		return nil, err
	}
	return d, nil
}

// ctxDefault applies a type's CtxDefaulter (spec.md §4.4 "Ctx defaults")
// when the caller supplies no outer ctx, falling back to host order.
func ctxDefault(t reflect.Type) ctxmodel.Ctx {
	zero := reflect.Zero(t)
	if zero.CanInterface() {
		if cd, ok := zero.Interface().(lower.CtxDefaulter); ok {
			return cd.DekuCtxDefault()
		}
	}
	if t.Kind() != reflect.Ptr {
		ptr := reflect.New(t)
		if cd, ok := ptr.Interface().(lower.CtxDefaulter); ok {
			return cd.DekuCtxDefault()
		}
	}
	return ctxmodel.Default()
}

// FromBytes wraps data in a bit reader starting at startBitOffset bits
// into the slice, decodes a value of out's pointed-to type (out must be
// a non-nil pointer), and returns the number of whole bytes and leftover
// bits not consumed (spec.md §6.1 from_bytes).
func FromBytes(data []byte, startBitOffset int, out any) (bytesRemaining int, bitOffsetRemaining int, err error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return 0, 0, dekuerr.NewInvalidParam("deku.FromBytes: out must be a non-nil pointer")
	}
	r := bitio.NewReader(bytes.NewReader(data))
	if startBitOffset > 0 {
		if err := r.SkipBits(startBitOffset); err != nil {
			return 0, 0, err
		}
	}
	v, err := readValue(r, rv.Type().Elem())
	if err != nil {
		return 0, 0, err
	}
	rv.Elem().Set(v)

	bytePos, leftover := r.Position()
	return len(data) - int(bytePos), leftover, nil
}

// FromReader decodes a single value of out's pointed-to type from r,
// which is first skipped forward by startBitOffset bits (spec.md §6.1
// from_reader).
func FromReader(r *bitio.Reader, startBitOffset int, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return dekuerr.NewInvalidParam("deku.FromReader: out must be a non-nil pointer")
	}
	if startBitOffset > 0 {
		if err := r.SkipBits(startBitOffset); err != nil {
			return err
		}
	}
	v, err := readValue(r, rv.Type().Elem())
	if err != nil {
		return err
	}
	rv.Elem().Set(v)
	return nil
}

func readValue(r *bitio.Reader, t reflect.Type) (reflect.Value, error) {
	d, err := declarationFor(t)
	if err != nil {
		return reflect.Value{}, err
	}
	ctx := ctxDefault(t)
	if d.Kind == decl.KindSum {
		v, err := lower.ReadSum(r, d, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		if t.Kind() == reflect.Interface {
			return v, nil
		}
		return v.Elem(), nil
	}
	return lower.ReadProduct(r, d, ctx)
}

// ToBytes serializes value (a struct or a registered sum interface
// value) and byte-aligns the output, padding any trailing bits with the
// writer's configured pad value (spec.md §6.1 to_bytes).
func ToBytes(value any) ([]byte, error) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	if err := ToWriter(value, w); err != nil {
		return nil, err
	}
	if err := w.Finalize(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToWriter streams value's serialized form to w. The caller owns
// finalization: on success the caller should still call w.Finalize() to
// flush any leftover bits, since a multi-value stream may have more to
// write before the final byte boundary matters.
func ToWriter(value any, w *bitio.Writer) error {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return dekuerr.NewInvalidParam("deku.ToWriter: nil value")
		}
		rv = rv.Elem()
	}

	// A value read out of a sum field arrives here as a pointer to its
	// concrete variant payload, not as the sum's interface type — `any`
	// erases that. Check the variant registry before falling back to
	// treating rv's type as a standalone product.
	if rv.Kind() == reflect.Struct {
		if sumDecl, _, err := decl.FindSumByVariant(rv.Type()); err == nil {
			if err := validate.Declaration(sumDecl); err != nil {
				return err
			}
			return lower.WriteSum(w, sumDecl, rv, ctxDefault(sumDecl.GoType))
		}
	}

	d, err := declarationFor(rv.Type())
	if err != nil {
		return err
	}
	ctx := ctxDefault(rv.Type())
	if d.Kind == decl.KindSum {
		return lower.WriteSum(w, d, rv, ctx)
	}
	return lower.WriteProduct(w, d, rv, ctx)
}

// DekuID recovers the wire discriminator for a sum value without
// serializing it (spec.md §6.1 deku_id).
func DekuID(value any) (uint64, error) {
	rv := reflect.ValueOf(value)
	t := rv.Type()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if d, err := decl.ForSum(t); err == nil {
		return lower.DiscriminatorOf(d, rv)
	}
	// value's static sum-interface type was erased by the any parameter;
	// resolve it the other way, from the concrete payload type back to
	// whichever registered sum claims it as a variant.
	if d, _, err := decl.FindSumByVariant(t); err == nil {
		return lower.DiscriminatorOf(d, rv)
	}
	return 0, dekuerr.NewInvalidParam("deku.DekuID: %s is not a registered sum type or variant payload", t)
}

// SetSuppressAssertionMessages controls whether Assertion errors carry a
// human-readable message or only the failing field's name, for
// footprint-constrained deployments (spec.md §7).
func SetSuppressAssertionMessages(suppress bool) {
	dekuerr.SetSuppressAssertionMessages(suppress)
}
