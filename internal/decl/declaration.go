// Package decl implements the in-memory Declaration model (spec.md §3.1,
// §4.5/C5): the resolved, immutable representation of a user-declared
// product or sum type, built once per Go type from its struct tags (or,
// for sums, from an explicit registration — see registry.go) and cached.
package decl

import (
	"reflect"

	"github.com/sharksforarms/deku/internal/ctxmodel"
)

// Kind distinguishes a product (field list) Declaration from a sum
// (variant list) Declaration.
type Kind int

const (
	KindProduct Kind = iota
	KindSum
)

// Header is an exported zero-size marker type. Embedding a field of this
// type in a struct is how a top-level (container)
// attribute string attaches to a Go struct, since Go has no type-level
// tag position: `Header `deku:"endian=big,magic=DEAD"``. Go idiom
// already leans on marker embeds for this (ORMs hang table-level config
// off an embedded base type the same way); decl just borrows it, rather
// than inventing a parallel registration call for the common case.
type Header struct{}

var headerType = reflect.TypeOf(Header{})

// Declaration is the resolved, compile-time-only description of an
// aggregate. It is immutable once built.
type Declaration struct {
	Kind Kind
	Name string

	// Product fields.
	ByteOrder ctxmodel.ByteOrder
	Magic     []byte
	CtxExprs  []string
	Fields    []*Field

	// Bits/Bytes capture a bits=/bytes= key seen on the container-level
	// Header tag. Neither is meaningful there (there is no enclosing field
	// for them to constrain the width of) — BuildProduct still parses them
	// so validate can reject the declaration instead of silently dropping
	// the attribute.
	Bits  int
	Bytes int

	// Sum fields.
	Discriminator DiscriminatorPolicy
	Variants      []*Variant

	GoType reflect.Type
}

// DiscriminatorPolicy describes how a sum's wire discriminator is
// obtained: either read directly (IDType set) or supplied externally via
// an outer ctx expression (IDExpr set) — spec.md §3.1, exactly one applies.
type DiscriminatorPolicy struct {
	HasIDType bool
	IDTypeTag string // "u8","u16","u32","u64","i8","i16","i32","i64"
	Bits      int
	ByteOrder ctxmodel.ByteOrder

	HasIDExpr bool
	IDExpr    string
}

// Variant describes one arm of a sum.
type Variant struct {
	Name     string
	IsUnit   bool
	GoType   reflect.Type // payload struct type, nil if IsUnit
	Fields   []*Field     // resolved fields of GoType, if not unit
	New      func() any   // allocates a new *GoType value

	HasID    bool
	ID       uint64
	CatchAll bool // id_pat = _
	IDField  string
}

// Field describes one attribute-resolved struct field.
type Field struct {
	Name       string
	GoType     reflect.Type
	StructIdx  int

	ByteOrderOverride *ctxmodel.ByteOrder
	Bits              int
	Bytes             int

	Count     string
	Until     string
	BytesRead string
	BitsRead  string
	ReadAll   bool

	Cond    string
	Default string

	MapRead  string
	MapWrite string

	CtxExprs []string

	Assert    string
	AssertEq  string

	PadBitsBefore  int
	PadBytesBefore int
	PadBitsAfter   int
	PadBytesAfter  int
	PadValue       uint8

	Update string
	Temp   bool
	Skip   bool
	Magic  []byte
}

// HasSequenceTermination reports whether any of the five mutually
// exclusive sequence-termination attributes (invariant 4) is present.
func (f *Field) HasSequenceTermination() bool {
	return f.Count != "" || f.Until != "" || f.BytesRead != "" || f.BitsRead != "" || f.ReadAll
}
