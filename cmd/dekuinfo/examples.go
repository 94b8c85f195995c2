package main

import (
	"reflect"

	"github.com/sharksforarms/deku/internal/decl"
)

// framedMessage mirrors spec.md's S4 scenario: a magic-prefixed header
// whose length field is asserted and then drives a count-terminated
// payload.
type framedMessage struct {
	Header `deku:"magic=dead"`
	Len    uint8  `deku:"assert_eq=Len==3"`
	Data   []byte `deku:"count=Len"`
}

type Header = decl.Header

// knownOrOtherID is the discriminator-storage payload for the
// catch-all arm of exampleSum, mirroring S5's Other variant.
type knownOrOtherID struct {
	ID    uint8
	Extra uint8
}

type known struct {
	V uint8
}

// registerExamples builds/registers the Declarations dekuinfo shows by
// default when no -name filter is given. It exists so this binary has
// something to introspect without requiring a caller to vendor their
// own types first.
func registerExamples() {
	must(decl.ForProduct(reflect.TypeOf(framedMessage{})))
	registerExampleSum()
}

func must(_ *decl.Declaration, err error) {
	if err != nil {
		panic(err)
	}
}

// exampleSum is the interface type standing in for S5's sum
// declaration ("Known id=1 {v:u8}" / "Other id_pat=_ {id, extra}").
type exampleSum interface{ isExampleSum() }

func (known) isExampleSum()          {}
func (knownOrOtherID) isExampleSum() {}

func registerExampleSum() {
	sumType := reflect.TypeOf((*exampleSum)(nil)).Elem()
	_, err := decl.RegisterSum(sumType, decl.SumSpec{
		Discriminator: decl.DiscriminatorSpec{IDType: "u8"},
		Variants: []decl.VariantSpec{
			{Name: "Known", New: func() any { return &known{} }, ID: 1},
			{Name: "Other", New: func() any { return &knownOrOtherID{} }, CatchAll: true, IDField: "ID"},
		},
	})
	if err != nil {
		panic(err)
	}
}
