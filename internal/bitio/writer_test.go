package bitio

import (
	"bytes"
	"testing"

	"github.com/sharksforarms/deku/internal/dekuerr"
	"github.com/stretchr/testify/require"
)

func TestWriteBitsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteBits(6, 4))
	require.NoError(t, w.WriteBits(9, 4))
	require.NoError(t, w.WriteBits(0xBEEF, 16))
	require.NoError(t, w.Finalize())
	require.Equal(t, []byte{0x69, 0xBE, 0xEF}, buf.Bytes())
}

func TestWriteBitsOverflowRejected(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteBits(16, 4)
	require.Equal(t, dekuerr.InvalidParam, dekuerr.KindOf(err))
}

func TestFinalizePadsWithConfiguredValue(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.SetPadValue(1)
	require.NoError(t, w.WriteBits(0b101, 3))
	require.NoError(t, w.Finalize())
	require.Equal(t, []byte{0b1011_1111}, buf.Bytes())
}

func TestFinalizeIsNoopWhenByteAligned(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteBits(0xAB, 8))
	require.NoError(t, w.Finalize())
	require.Equal(t, []byte{0xAB}, buf.Bytes())
}

func TestWriteBytesAlignedFastPath(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteBytesAligned([]byte{1, 2, 3}))
	require.NoError(t, w.Finalize())
	require.Equal(t, []byte{1, 2, 3}, buf.Bytes())
}

func TestWriteBytesAlignedFallsBackWithPending(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteBits(0xF, 4))
	require.NoError(t, w.WriteBytesAligned([]byte{0xAB}))
	require.NoError(t, w.Finalize())
	require.Equal(t, []byte{0xFA, 0xB0}, buf.Bytes())
}

func TestWritePad(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteBits(0b1, 4))
	require.NoError(t, w.WritePad(4))
	require.NoError(t, w.Finalize())
	require.Equal(t, []byte{0b0001_0000}, buf.Bytes())
}
