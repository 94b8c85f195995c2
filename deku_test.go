package deku_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sharksforarms/deku"
	"github.com/sharksforarms/deku/internal/decl"
)

type apiHeader struct {
	A uint8  `deku:"bits=4"`
	B uint8  `deku:"bits=4"`
	C uint16 `deku:"endian=big"`
}

func TestFromBytesToBytesRoundTrip(t *testing.T) {
	input := []byte{0x69, 0xBE, 0xEF}

	var got apiHeader
	remaining, bitsRemaining, err := deku.FromBytes(input, 0, &got)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)
	require.Equal(t, 0, bitsRemaining)
	require.EqualValues(t, 6, got.A)
	require.EqualValues(t, 9, got.B)
	require.EqualValues(t, 0xBEEF, got.C)

	out, err := deku.ToBytes(got)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestFromBytesStartOffset(t *testing.T) {
	input := []byte{0xFF, 0x69, 0xBE, 0xEF}

	var got apiHeader
	remaining, bitsRemaining, err := deku.FromBytes(input, 8, &got)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)
	require.Equal(t, 0, bitsRemaining)
	require.EqualValues(t, 6, got.A)
}

type apiSum interface{ isAPISum() }

type apiA struct{ X uint8 }
type apiB struct {
	Y uint16 `deku:"endian=little"`
}

func (apiA) isAPISum() {}
func (apiB) isAPISum() {}

func registerAPISum(t *testing.T) reflect.Type {
	t.Helper()
	sumType := reflect.TypeOf((*apiSum)(nil)).Elem()
	err := deku.RegisterSum(sumType, decl.SumSpec{
		Discriminator: decl.DiscriminatorSpec{IDType: "u8"},
		Variants: []decl.VariantSpec{
			{Name: "A", New: func() any { return &apiA{} }, ID: 1},
			{Name: "B", New: func() any { return &apiB{} }, ID: 2},
		},
	})
	require.NoError(t, err)
	return sumType
}

func TestSumFromBytesAndDekuID(t *testing.T) {
	registerAPISum(t)

	var got apiSum
	_, _, err := deku.FromBytes([]byte{0x02, 0x34, 0x12}, 0, &got)
	require.NoError(t, err)

	b, ok := got.(*apiB)
	require.True(t, ok)
	require.EqualValues(t, 0x1234, b.Y)

	id, err := deku.DekuID(got)
	require.NoError(t, err)
	require.EqualValues(t, 2, id)
}

func TestSumToBytesRoundTrip(t *testing.T) {
	registerAPISum(t)

	var value apiSum = &apiB{Y: 0xABCD}
	out, err := deku.ToBytes(value)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0xCD, 0xAB}, out)
}

func TestSetSuppressAssertionMessagesDoesNotPanic(t *testing.T) {
	deku.SetSuppressAssertionMessages(true)
	deku.SetSuppressAssertionMessages(false)
}
