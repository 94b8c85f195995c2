package decl

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/sharksforarms/deku/internal/ctxmodel"
)

// registry caches resolved Declarations by Go type, mirroring the
// sync.Mutex-guarded reflect.Type-keyed registry the teacher's vdl
// package uses for the same reason: deriving a Declaration from struct
// tags is pure but not free, and a program decodes/encodes the same
// handful of types over and over.
type registry struct {
	mu    sync.Mutex
	byype map[reflect.Type]*Declaration
}

var globalRegistry = &registry{byype: map[reflect.Type]*Declaration{}}

// ForProduct returns the cached Declaration for t (a struct type),
// building and caching it on first use.
func ForProduct(t reflect.Type) (*Declaration, error) {
	globalRegistry.mu.Lock()
	if d, ok := globalRegistry.byype[t]; ok {
		globalRegistry.mu.Unlock()
		return d, nil
	}
	globalRegistry.mu.Unlock()

	d, err := BuildProduct(t)
	if err != nil {
		return nil, err
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	if existing, ok := globalRegistry.byype[t]; ok {
		return existing, nil
	}
	globalRegistry.byype[t] = d
	return d, nil
}

// DiscriminatorSpec configures how a sum's wire discriminator is read or
// supplied. Exactly one of IDType or IDExpr must be set; validate.Declaration
// rejects a sum that sets neither or both.
type DiscriminatorSpec struct {
	IDType string // "u8","u16","u32","u64","i8","i16","i32","i64"; empty means externally supplied
	Bits   int
	Endian ctxmodel.ByteOrder
	IDExpr string // name of the outer-ctx-supplied discriminator, when IDType == ""
}

// VariantSpec describes one arm of a registered sum.
type VariantSpec struct {
	Name     string
	New      func() any // allocates and returns a pointer to the variant's payload struct
	ID       uint64
	CatchAll bool   // id_pat = _
	IDField  string // struct field receiving the stored discriminator, for CatchAll variants; "" if none
}

// SumSpec is the explicit registration a sum type needs, since a Go
// interface type carries no struct tags of its own to parse (unlike a
// product's fields) — see declaration.go's Header doc comment for the
// analogous problem on the product side, solved differently because a
// sum's "fields" are actually distinct alternative Go types.
type SumSpec struct {
	Discriminator DiscriminatorSpec
	Variants      []VariantSpec
}

// RegisterSum builds and caches a sum Declaration for the interface type T,
// identified by a representative nil pointer of that interface's type
// (registries key on reflect.Type, so callers pass reflect.TypeOf((*T)(nil)).Elem()).
func RegisterSum(sumType reflect.Type, spec SumSpec) (*Declaration, error) {
	d := &Declaration{
		Kind:   KindSum,
		Name:   sumType.Name(),
		GoType: sumType,
		Discriminator: DiscriminatorPolicy{
			HasIDType: spec.Discriminator.IDType != "",
			IDTypeTag: spec.Discriminator.IDType,
			Bits:      spec.Discriminator.Bits,
			ByteOrder: spec.Discriminator.Endian,
			HasIDExpr: spec.Discriminator.IDExpr != "",
			IDExpr:    spec.Discriminator.IDExpr,
		},
	}
	sawCatchAll := false
	for _, vs := range spec.Variants {
		v := &Variant{
			Name:     vs.Name,
			HasID:    !vs.CatchAll || vs.ID != 0,
			ID:       vs.ID,
			CatchAll: vs.CatchAll,
			IDField:  vs.IDField,
			New:      vs.New,
		}
		if vs.CatchAll {
			if sawCatchAll {
				return nil, fmt.Errorf("decl: sum %s has more than one catch-all variant", sumType)
			}
			sawCatchAll = true
		}
		if vs.New != nil {
			payload := vs.New()
			pt := reflect.TypeOf(payload)
			if pt.Kind() != reflect.Ptr || pt.Elem().Kind() != reflect.Struct {
				return nil, fmt.Errorf("decl: sum %s variant %s: New must return a struct pointer", sumType, vs.Name)
			}
			v.GoType = pt.Elem()
			fields, err := BuildProduct(v.GoType)
			if err != nil {
				return nil, fmt.Errorf("decl: sum %s variant %s: %w", sumType, vs.Name, err)
			}
			v.Fields = fields.Fields
			if vs.IDField != "" {
				// Invariant 2: the id_pat storage field is bound directly,
				// not through the normal attribute pipeline — drop it from
				// Fields so lowering doesn't try to read/write it twice.
				filtered := v.Fields[:0]
				for _, f := range fields.Fields {
					if f.Name != vs.IDField {
						filtered = append(filtered, f)
					}
				}
				v.Fields = filtered
			}
		} else {
			v.IsUnit = true
		}
		d.Variants = append(d.Variants, v)
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byype[sumType] = d
	return d, nil
}

// ForSum returns the Declaration previously registered for sumType via
// RegisterSum.
func ForSum(sumType reflect.Type) (*Declaration, error) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	d, ok := globalRegistry.byype[sumType]
	if !ok || d.Kind != KindSum {
		return nil, fmt.Errorf("decl: sum type %s was never registered via RegisterSum", sumType)
	}
	return d, nil
}

// FindSumByVariant returns the sum Declaration (and matching Variant) that
// claims t as a non-unit variant's payload type, searching every sum
// registered via RegisterSum. Top-level callers need this because a Go
// value passed through an `any` parameter only carries its concrete
// dynamic type — the sum interface it was read into is not recoverable
// by reflection once boxed — so resolving "which sum does this struct
// belong to" has to go the other way, from payload type back to sum.
func FindSumByVariant(t reflect.Type) (*Declaration, *Variant, error) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	for _, d := range globalRegistry.byype {
		if d.Kind != KindSum {
			continue
		}
		for _, v := range d.Variants {
			if !v.IsUnit && v.GoType == t {
				return d, v, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("decl: %s is not a variant payload of any registered sum", t)
}

// All returns every Declaration built or registered so far, sorted by
// name. Used by cmd/dekuinfo to dump the set of Declarations a given
// binary has compiled in; callers must import (or otherwise force
// registration/first-use of) the types they want listed before calling
// this, since a product Declaration is built lazily on first ForProduct.
func All() []*Declaration {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	out := make([]*Declaration, 0, len(globalRegistry.byype))
	for _, d := range globalRegistry.byype {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
