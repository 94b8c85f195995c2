package codec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/codec"
	"github.com/sharksforarms/deku/internal/ctxmodel"
)

func TestReadUintBigEndian16(t *testing.T) {
	r := bitio.NewReader(bytes.NewReader([]byte{0x01, 0x02}))
	v, err := codec.ReadUint(r, ctxmodel.Default().WithOrder(ctxmodel.Big), 16)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102), v)
}

func TestReadUintLittleEndian16(t *testing.T) {
	r := bitio.NewReader(bytes.NewReader([]byte{0x01, 0x02}))
	v, err := codec.ReadUint(r, ctxmodel.Default().WithOrder(ctxmodel.Little), 16)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0201), v)
}

func TestWriteUintRoundTrip24Bit(t *testing.T) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	ctx := ctxmodel.Default().WithOrder(ctxmodel.Big).WithBitWidth(24)
	require.NoError(t, codec.WriteUint(w, ctx, 24, 0x010203))
	require.NoError(t, w.Finalize())
	require.Equal(t, []byte{0x01, 0x02, 0x03}, buf.Bytes())

	r := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	v, err := codec.ReadUint(r, ctx, 24)
	require.NoError(t, err)
	require.Equal(t, uint64(0x010203), v)
}

func TestWriteUintRejectsOverflow(t *testing.T) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	err := codec.WriteUint(w, ctxmodel.Default().WithBitWidth(4), 8, 0x10)
	require.Error(t, err)
}

func TestSignExtendNegativeNibble(t *testing.T) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	ctx := ctxmodel.Default().WithBitWidth(4)
	require.NoError(t, codec.WriteInt(w, ctx, 8, -1))
	require.NoError(t, w.Finalize())

	r := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	v, err := codec.ReadInt(r, ctx, 8)
	require.NoError(t, err)
	require.Equal(t, int64(-1), v)
}

func TestReadBoolNonZero(t *testing.T) {
	r := bitio.NewReader(bytes.NewReader([]byte{0x05}))
	v, err := codec.ReadBool(r, ctxmodel.Default())
	require.NoError(t, err)
	require.True(t, v)
}

func TestFloat32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, codec.WriteFloat32(w, ctxmodel.Default().WithOrder(ctxmodel.Big), 3.5))
	require.NoError(t, w.Finalize())

	r := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	v, err := codec.ReadFloat32(r, ctxmodel.Default().WithOrder(ctxmodel.Big))
	require.NoError(t, err)
	require.Equal(t, float32(3.5), v)
}

func TestUint128RoundTripBigEndian(t *testing.T) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	ctx := ctxmodel.Default().WithOrder(ctxmodel.Big)
	in := codec.Uint128{Hi: 0x0102030405060708, Lo: 0x090a0b0c0d0e0f10}
	require.NoError(t, codec.WriteUint128(w, ctx, in))
	require.NoError(t, w.Finalize())

	r := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	out, err := codec.ReadUint128(r, ctx)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
