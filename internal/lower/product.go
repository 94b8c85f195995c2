package lower

import (
	"bytes"
	"reflect"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/ctxmodel"
	"github.com/sharksforarms/deku/internal/decl"
	"github.com/sharksforarms/deku/internal/decl/expr"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

// ReadProduct executes the read procedure of spec.md §4.5 for a product
// Declaration: sequential, in declared order, applying magic/padding/
// cond/skip/map/assert/temp around each field's child read.
func ReadProduct(r *bitio.Reader, d *decl.Declaration, outer ctxmodel.Ctx) (reflect.Value, error) {
	if len(d.Magic) > 0 {
		got, err := r.ReadBytesAligned(len(d.Magic))
		if err != nil {
			return reflect.Value{}, err
		}
		if !bytes.Equal(got, d.Magic) {
			return reflect.Value{}, dekuerr.NewMagic(d.Magic, got)
		}
	}

	out := reflect.New(d.GoType).Elem()
	scope := map[string]any{}
	if d.ByteOrder != ctxmodel.Host {
		outer = outer.WithOrder(d.ByteOrder)
	}

	for _, f := range d.Fields {
		fv, err := readField(r, f, outer, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		scope[f.Name] = fv.Interface()
		if !f.Temp {
			out.Field(f.StructIdx).Set(fv)
		}
	}
	return out, nil
}

// readField runs steps 1-9 of §4.5 for a single field and returns its
// resolved value (always bound into scope by the caller, even when Temp).
func readField(r *bitio.Reader, f *decl.Field, outer ctxmodel.Ctx, scope map[string]any) (reflect.Value, error) {
	if len(f.Magic) > 0 {
		got, err := r.ReadBytesAligned(len(f.Magic))
		if err != nil {
			return reflect.Value{}, err
		}
		if !bytes.Equal(got, f.Magic) {
			return reflect.Value{}, dekuerr.NewMagic(f.Magic, got)
		}
	}
	if f.PadBitsBefore > 0 {
		if err := r.SkipBits(f.PadBitsBefore); err != nil {
			return reflect.Value{}, err
		}
	}
	if f.PadBytesBefore > 0 {
		if err := r.SkipBytes(f.PadBytesBefore); err != nil {
			return reflect.Value{}, err
		}
	}

	var fv reflect.Value
	wireConsumed := true

	switch {
	case f.Cond != "":
		ok, err := expr.EvalBool(f.Cond, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		if !ok {
			fv, err = fieldDefault(f, scope)
			if err != nil {
				return reflect.Value{}, err
			}
			wireConsumed = false
		}
	case f.Skip:
		var err error
		fv, err = fieldDefault(f, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		wireConsumed = false
	}

	if wireConsumed && !fv.IsValid() {
		ctx, err := childCtx(outer, f, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		if f.HasSequenceTermination() {
			fv, err = readSequence(r, sequenceSpec{Count: f.Count, Until: f.Until, BytesRead: f.BytesRead, BitsRead: f.BitsRead, ReadAll: f.ReadAll}, f.GoType, ctx, scope)
		} else {
			fv, err = readScalar(r, f.GoType, ctx)
		}
		if err != nil {
			return reflect.Value{}, err
		}
	}

	if f.MapRead != "" {
		mscope := cloneScope(scope)
		mscope[f.Name] = fv.Interface()
		v, err := expr.EvalAny(f.MapRead, mscope)
		if err != nil {
			return reflect.Value{}, err
		}
		fv, err = convertAny(v, f.GoType)
		if err != nil {
			return reflect.Value{}, err
		}
	}

	ascope := cloneScope(scope)
	ascope[f.Name] = fv.Interface()
	if f.Assert != "" {
		ok, err := expr.EvalBool(f.Assert, ascope)
		if err != nil {
			return reflect.Value{}, err
		}
		if !ok {
			return reflect.Value{}, dekuerr.NewAssertion(f.Name, "assert %q", f.Assert)
		}
	}
	if f.AssertEq != "" {
		ok, err := expr.EvalBool(f.AssertEq, ascope)
		if err != nil {
			return reflect.Value{}, err
		}
		if !ok {
			return reflect.Value{}, dekuerr.NewAssertion(f.Name, "assert_eq %q", f.AssertEq)
		}
	}

	if f.PadBitsAfter > 0 {
		if err := r.SkipBits(f.PadBitsAfter); err != nil {
			return reflect.Value{}, err
		}
	}
	if f.PadBytesAfter > 0 {
		if err := r.SkipBytes(f.PadBytesAfter); err != nil {
			return reflect.Value{}, err
		}
	}

	return fv, nil
}

func fieldDefault(f *decl.Field, scope map[string]any) (reflect.Value, error) {
	if f.Default == "" {
		return zeroValue(f.GoType), nil
	}
	v, err := expr.EvalAny(f.Default, scope)
	if err != nil {
		return reflect.Value{}, err
	}
	return convertAny(v, f.GoType)
}

// childCtx synthesizes the Ctx passed to a field's child read/write,
// following the §4.4 synthesis rules: byte order override, bits/bytes,
// ctx expressions, and sibling scope.
func childCtx(outer ctxmodel.Ctx, f *decl.Field, scope map[string]any) (ctxmodel.Ctx, error) {
	var extra []any
	for _, e := range f.CtxExprs {
		v, err := expr.EvalAny(e, scope)
		if err != nil {
			return ctxmodel.Ctx{}, err
		}
		extra = append(extra, v)
	}
	return outer.Child(f.ByteOrderOverride, f.Bits, f.Bytes, extra, scope), nil
}

// WriteProduct executes the write procedure of spec.md §4.5 for a
// product Declaration: fields are written in declared order with the same
// magic/padding framing as the read path, and each field's `update`
// expression is evaluated just before that field is written (spec.md
// invariant 5). The expression sees earlier fields' written values and
// later fields' current, not yet updated, values.
func WriteProduct(w *bitio.Writer, d *decl.Declaration, v reflect.Value, outer ctxmodel.Ctx) error {
	if len(d.Magic) > 0 {
		if err := w.WriteBytesAligned(d.Magic); err != nil {
			return err
		}
	}
	if d.ByteOrder != ctxmodel.Host {
		outer = outer.WithOrder(d.ByteOrder)
	}

	scope := map[string]any{}
	for _, f := range d.Fields {
		scope[f.Name] = v.Field(f.StructIdx).Interface()
	}

	for _, f := range d.Fields {
		if err := writeField(w, f, outer, scope); err != nil {
			return err
		}
	}
	return nil
}

func writeField(w *bitio.Writer, f *decl.Field, outer ctxmodel.Ctx, scope map[string]any) error {
	val := scope[f.Name]

	if f.Temp {
		switch {
		case f.MapWrite != "":
			v, err := expr.EvalAny(f.MapWrite, scope)
			if err != nil {
				return err
			}
			val = v
		case f.Default != "":
			v, err := expr.EvalAny(f.Default, scope)
			if err != nil {
				return err
			}
			val = v
		}
	}

	if f.Update != "" {
		v, err := expr.EvalAny(f.Update, scope)
		if err != nil {
			return err
		}
		val = v
	}
	scope[f.Name] = val

	fv, err := convertAny(val, f.GoType)
	if err != nil {
		return err
	}

	if len(f.Magic) > 0 {
		if err := w.WriteBytesAligned(f.Magic); err != nil {
			return err
		}
	}
	if f.PadBitsBefore > 0 {
		if err := w.WritePad(f.PadBitsBefore); err != nil {
			return err
		}
	}
	if f.PadBytesBefore > 0 {
		if err := w.WritePad(f.PadBytesBefore * 8); err != nil {
			return err
		}
	}

	wireConsumed := true
	if f.Cond != "" {
		ok, err := expr.EvalBool(f.Cond, scope)
		if err != nil {
			return err
		}
		wireConsumed = ok
	}
	if f.Skip {
		wireConsumed = false
	}

	if wireConsumed {
		ctx, err := childCtx(outer, f, scope)
		if err != nil {
			return err
		}
		if f.HasSequenceTermination() {
			if err := writeSequence(w, f.GoType, fv, ctx); err != nil {
				return err
			}
		} else if err := writeScalar(w, f.GoType, fv, ctx); err != nil {
			return err
		}
	}

	if f.PadBitsAfter > 0 {
		if err := w.WritePad(f.PadBitsAfter); err != nil {
			return err
		}
	}
	if f.PadBytesAfter > 0 {
		if err := w.WritePad(f.PadBytesAfter * 8); err != nil {
			return err
		}
	}
	return nil
}
