package lower_test

import (
	"bytes"
	"net"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/codec"
	"github.com/sharksforarms/deku/internal/ctxmodel"
	"github.com/sharksforarms/deku/internal/decl"
	"github.com/sharksforarms/deku/internal/dekuerr"
	"github.com/sharksforarms/deku/internal/lower"
)

// s1Header is spec.md scenario S1: two 4-bit fields then a big-endian u16.
type s1Header struct {
	A uint8  `deku:"bits=4"`
	B uint8  `deku:"bits=4"`
	C uint16 `deku:"endian=big"`
}

func TestS1BitPackedHeaderRoundTrip(t *testing.T) {
	input := []byte{0x69, 0xBE, 0xEF}
	d, err := decl.ForProduct(reflect.TypeOf(s1Header{}))
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader(input))
	v, err := lower.ReadProduct(r, d, ctxmodel.Default())
	require.NoError(t, err)

	got := v.Interface().(s1Header)
	require.EqualValues(t, 6, got.A)
	require.EqualValues(t, 9, got.B)
	require.EqualValues(t, 0xBEEF, got.C)

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, lower.WriteProduct(w, d, v, ctxmodel.Default()))
	require.NoError(t, w.Finalize())
	require.Equal(t, input, buf.Bytes())
}

// s2Mixed is spec.md scenario S2: little-endian default, field-level
// big-endian override on the trailing u16, and a 7-bit/1-bit split byte.
type s2Mixed struct {
	decl.Header `deku:"endian=little"`
	A uint8
	B uint8 `deku:"bits=7"`
	C uint8 `deku:"bits=1"`
	D uint16 `deku:"endian=big"`
}

func TestS2LittleEndianDefaultWithBigOverride(t *testing.T) {
	input := []byte{0xAB, 0xA5, 0xAB, 0xCD}
	d, err := decl.ForProduct(reflect.TypeOf(s2Mixed{}))
	require.NoError(t, err)

	r := bitio.NewReader(bytes.NewReader(input))
	v, err := lower.ReadProduct(r, d, ctxmodel.Default())
	require.NoError(t, err)

	got := v.Interface().(s2Mixed)
	require.EqualValues(t, 0xAB, got.A)
	require.EqualValues(t, 0x52, got.B)
	require.EqualValues(t, 1, got.C)
	require.EqualValues(t, 0xABCD, got.D)
}

// --- S3: sum with a byte discriminator ---

type s3Sum interface{ isS3() }

type s3A struct{ X uint8 }
type s3B struct{ Y uint16 `deku:"endian=little"` }

func (s3A) isS3() {}
func (s3B) isS3() {}

func s3Declaration(t *testing.T) *decl.Declaration {
	t.Helper()
	sumType := reflect.TypeOf((*s3Sum)(nil)).Elem()
	d, err := decl.RegisterSum(sumType, decl.SumSpec{
		Discriminator: decl.DiscriminatorSpec{IDType: "u8"},
		Variants: []decl.VariantSpec{
			{Name: "A", New: func() any { return &s3A{} }, ID: 1},
			{Name: "B", New: func() any { return &s3B{} }, ID: 2},
		},
	})
	require.NoError(t, err)
	return d
}

func TestS3SumSelectsMatchingVariant(t *testing.T) {
	d := s3Declaration(t)
	r := bitio.NewReader(bytes.NewReader([]byte{0x02, 0x34, 0x12}))
	v, err := lower.ReadSum(r, d, ctxmodel.Default())
	require.NoError(t, err)

	b := v.Interface().(*s3B)
	require.EqualValues(t, 0x1234, b.Y)
}

func TestS3SumNoMatchingVariant(t *testing.T) {
	d := s3Declaration(t)
	r := bitio.NewReader(bytes.NewReader([]byte{0x03, 0, 0}))
	_, err := lower.ReadSum(r, d, ctxmodel.Default())
	require.Error(t, err)
	require.Equal(t, dekuerr.NoMatchingVariant, dekuerr.KindOf(err))
}

// --- S4: magic + assert_eq + count-driven payload ---

type s4Frame struct {
	decl.Header `deku:"magic=dead"`
	Len         uint8  `deku:"assert_eq=Len==3"`
	Data        []byte `deku:"count=Len"`
}

func TestS4MagicAssertEqAndCount(t *testing.T) {
	d, err := decl.ForProduct(reflect.TypeOf(s4Frame{}))
	require.NoError(t, err)

	good := []byte{0xDE, 0xAD, 0x03, 1, 2, 3}
	r := bitio.NewReader(bytes.NewReader(good))
	v, err := lower.ReadProduct(r, d, ctxmodel.Default())
	require.NoError(t, err)
	got := v.Interface().(s4Frame)
	require.EqualValues(t, 3, got.Len)
	require.Equal(t, []byte{1, 2, 3}, got.Data)

	badMagic := []byte{0xDE, 0xAE, 0x03, 1, 2, 3}
	_, err = lower.ReadProduct(bitio.NewReader(bytes.NewReader(badMagic)), d, ctxmodel.Default())
	require.Error(t, err)
	require.Equal(t, dekuerr.Magic, dekuerr.KindOf(err))

	badLen := []byte{0xDE, 0xAD, 0x04, 1, 2, 3, 4}
	_, err = lower.ReadProduct(bitio.NewReader(bytes.NewReader(badLen)), d, ctxmodel.Default())
	require.Error(t, err)
	require.Equal(t, dekuerr.Assertion, dekuerr.KindOf(err))
}

// --- S5: id_pat catch-all with stored discriminator ---

type s5Sum interface{ isS5() }

type s5Known struct{ V uint8 }
type s5Other struct {
	ID    uint8
	Extra uint8
}

func (s5Known) isS5() {}
func (s5Other) isS5() {}

func s5Declaration(t *testing.T) *decl.Declaration {
	t.Helper()
	sumType := reflect.TypeOf((*s5Sum)(nil)).Elem()
	d, err := decl.RegisterSum(sumType, decl.SumSpec{
		Discriminator: decl.DiscriminatorSpec{IDType: "u8"},
		Variants: []decl.VariantSpec{
			{Name: "Known", New: func() any { return &s5Known{} }, ID: 1},
			{Name: "Other", New: func() any { return &s5Other{} }, CatchAll: true, IDField: "ID"},
		},
	})
	require.NoError(t, err)
	return d
}

func TestS5CatchAllWithStoredDiscriminator(t *testing.T) {
	d := s5Declaration(t)
	input := []byte{0x42, 0x99}
	r := bitio.NewReader(bytes.NewReader(input))
	v, err := lower.ReadSum(r, d, ctxmodel.Default())
	require.NoError(t, err)

	other := v.Interface().(*s5Other)
	require.EqualValues(t, 0x42, other.ID)
	require.EqualValues(t, 0x99, other.Extra)

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, lower.WriteSum(w, d, reflect.ValueOf(other), ctxmodel.Default()))
	require.NoError(t, w.Finalize())
	require.Equal(t, input, buf.Bytes())
}

// --- S6: cond + default, zero-length on false ---

type s6Body struct {
	Flag uint8
	Body uint16 `deku:"cond=Flag!=0,default=0,endian=big"`
}

func TestS6CondDefaultConsumesExactBytes(t *testing.T) {
	d, err := decl.ForProduct(reflect.TypeOf(s6Body{}))
	require.NoError(t, err)

	r1 := bitio.NewReader(bytes.NewReader([]byte{0x01, 0x00, 0x10}))
	v1, err := lower.ReadProduct(r1, d, ctxmodel.Default())
	require.NoError(t, err)
	got1 := v1.Interface().(s6Body)
	require.EqualValues(t, 1, got1.Flag)
	require.EqualValues(t, 0x10, got1.Body)

	r2 := bitio.NewReader(bytes.NewReader([]byte{0x00}))
	v2, err := lower.ReadProduct(r2, d, ctxmodel.Default())
	require.NoError(t, err)
	got2 := v2.Interface().(s6Body)
	require.EqualValues(t, 0, got2.Flag)
	require.EqualValues(t, 0, got2.Body)
	bytePos, leftover := r2.Position()
	require.EqualValues(t, 1, bytePos)
	require.Equal(t, 0, leftover)
}

// --- wrapper dispatch: Boxed / NonZero / Compressed / net.IP through a product field ---

type wrapped struct {
	B codec.Boxed[uint8]
	N codec.NonZero[uint8]
	C codec.Compressed[uint8]
	IP net.IP `deku:"bytes=4"`
}

func TestWrapperFieldsRoundTrip(t *testing.T) {
	d, err := decl.ForProduct(reflect.TypeOf(wrapped{}))
	require.NoError(t, err)

	v := reflect.New(reflect.TypeOf(wrapped{})).Elem()
	v.FieldByName("B").Set(reflect.ValueOf(codec.Boxed[uint8]{Value: 7}))
	v.FieldByName("N").Set(reflect.ValueOf(codec.NonZero[uint8]{Value: 9}))
	v.FieldByName("C").Set(reflect.ValueOf(codec.Compressed[uint8]{Value: 200}))
	v.FieldByName("IP").Set(reflect.ValueOf(net.IPv4(10, 0, 0, 1).To4()))

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, lower.WriteProduct(w, d, v, ctxmodel.Default()))
	require.NoError(t, w.Finalize())

	r := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	out, err := lower.ReadProduct(r, d, ctxmodel.Default())
	require.NoError(t, err)
	got := out.Interface().(wrapped)
	require.EqualValues(t, 7, got.B.Value)
	require.EqualValues(t, 9, got.N.Value)
	require.EqualValues(t, 200, got.C.Value)
	require.True(t, got.IP.Equal(net.IPv4(10, 0, 0, 1)))
}

func TestNonZeroFieldRejectsZeroOnWrite(t *testing.T) {
	d, err := decl.ForProduct(reflect.TypeOf(wrapped{}))
	require.NoError(t, err)

	v := reflect.New(reflect.TypeOf(wrapped{})).Elem()
	v.FieldByName("IP").Set(reflect.ValueOf(net.IPv4(1, 1, 1, 1).To4()))
	v.FieldByName("N").Set(reflect.ValueOf(codec.NonZero[uint8]{Value: 0}))

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	err = lower.WriteProduct(w, d, v, ctxmodel.Default())
	require.Error(t, err)
}
