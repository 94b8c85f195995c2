package lower

import (
	"reflect"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/ctxmodel"
	"github.com/sharksforarms/deku/internal/decl/expr"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

// readSequence handles a slice- or map-typed field under its chosen
// termination policy (spec.md §4.3/C3), dispatching each element through
// readScalar. Byte slices with a fixed bytes= width are handled directly
// by readScalar and never reach here (see product.go's dispatch).
func readSequence(r *bitio.Reader, f sequenceSpec, t reflect.Type, ctx ctxmodel.Ctx, scope map[string]any) (reflect.Value, error) {
	switch {
	case t.Kind() == reflect.Map:
		return readMapLike(r, f, t, ctx, scope)
	case t.Kind() == reflect.Slice:
		return readSliceLike(r, f, t, ctx, scope)
	default:
		return reflect.Value{}, dekuerr.NewInvalidParam("lower: %s is not a sequence-capable type", t)
	}
}

// sequenceSpec is the subset of decl.Field attributes that select a
// termination policy, factored out so both product fields and variant
// fields can drive the same sequence logic.
type sequenceSpec struct {
	Count     string
	Until     string
	BytesRead string
	BitsRead  string
	ReadAll   bool
}

func readSliceLike(r *bitio.Reader, f sequenceSpec, t reflect.Type, ctx ctxmodel.Ctx, scope map[string]any) (reflect.Value, error) {
	elemType := t.Elem()
	readElem := func() (reflect.Value, error) { return readScalar(r, elemType, ctx) }

	switch {
	case f.Count != "":
		n, err := expr.EvalInt(f.Count, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(t, 0, int(n))
		for i := int64(0); i < n; i++ {
			v, err := readElem()
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, v)
		}
		return out, nil
	case f.Until != "":
		out := reflect.MakeSlice(t, 0, 0)
		for {
			v, err := readElem()
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, v)
			untilScope := cloneScope(scope)
			untilScope["last"] = v.Interface()
			done, err := expr.EvalBool(f.Until, untilScope)
			if err != nil {
				return reflect.Value{}, err
			}
			if done {
				return out, nil
			}
		}
	case f.BytesRead != "":
		n, err := expr.EvalInt(f.BytesRead, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		start := r.BitsRead()
		limit := start + int(n)*8
		out := reflect.MakeSlice(t, 0, 0)
		for r.BitsRead() < limit {
			v, err := readElem()
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, v)
		}
		if r.BitsRead() != limit {
			return reflect.Value{}, dekuerr.NewParse("bytes_read budget overrun: consumed %d bits, budget was %d", r.BitsRead()-start, int(n)*8)
		}
		return out, nil
	case f.BitsRead != "":
		n, err := expr.EvalInt(f.BitsRead, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		start := r.BitsRead()
		limit := start + int(n)
		out := reflect.MakeSlice(t, 0, 0)
		for r.BitsRead() < limit {
			v, err := readElem()
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, v)
		}
		if r.BitsRead() != limit {
			return reflect.Value{}, dekuerr.NewParse("bits_read budget overrun: consumed %d bits, budget was %d", r.BitsRead()-start, int(n))
		}
		return out, nil
	case f.ReadAll:
		out := reflect.MakeSlice(t, 0, 0)
		for !r.End() {
			v, err := readElem()
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, v)
		}
		if leftover := r.Rest(); len(leftover) != 0 {
			return reflect.Value{}, dekuerr.NewIncomplete(len(leftover))
		}
		return out, nil
	default:
		return reflect.Value{}, dekuerr.NewInvalidParam("lower: slice field %s has no sequence-termination attribute", t)
	}
}

func readMapLike(r *bitio.Reader, f sequenceSpec, t reflect.Type, ctx ctxmodel.Ctx, scope map[string]any) (reflect.Value, error) {
	if f.Count == "" {
		return reflect.Value{}, dekuerr.NewInvalidParam("lower: map/set field %s requires count", t)
	}
	n, err := expr.EvalInt(f.Count, scope)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeMapWithSize(t, int(n))
	keyType, valType := t.Key(), t.Elem()
	for i := int64(0); i < n; i++ {
		k, err := readScalar(r, keyType, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := readScalar(r, valType, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(k, v)
	}
	return out, nil
}

func writeSequence(w *bitio.Writer, t reflect.Type, v reflect.Value, ctx ctxmodel.Ctx) error {
	switch t.Kind() {
	case reflect.Slice:
		elemType := t.Elem()
		for i := 0; i < v.Len(); i++ {
			if err := writeScalar(w, elemType, v.Index(i), ctx); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		// Entries are written in Go map range order, which is unspecified.
		keyType, valType := t.Key(), t.Elem()
		iter := v.MapRange()
		for iter.Next() {
			if err := writeScalar(w, keyType, iter.Key(), ctx); err != nil {
				return err
			}
			if valType.Kind() != reflect.Struct || valType.NumField() != 0 {
				if err := writeScalar(w, valType, iter.Value(), ctx); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return dekuerr.NewInvalidParam("lower: %s is not a sequence-capable type", t)
	}
}

func cloneScope(scope map[string]any) map[string]any {
	out := make(map[string]any, len(scope)+1)
	for k, v := range scope {
		out[k] = v
	}
	return out
}
