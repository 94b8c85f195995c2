package codec

import (
	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

// ReadCString reads bytes up to and including a terminating NUL, returning
// the string without the terminator. maxLen bounds the scan to avoid an
// unbounded read against a malformed stream; 0 means unbounded.
func ReadCString(r *bitio.Reader, maxLen int) (string, error) {
	var out []byte
	for maxLen <= 0 || len(out) < maxLen {
		b, err := r.ReadBits(8)
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, byte(b))
	}
	return "", dekuerr.NewParse("cstring: no NUL terminator within %d bytes", maxLen)
}

// WriteCString writes s followed by a terminating NUL byte. s must not
// itself contain an embedded NUL, which would desynchronize a reader.
func WriteCString(w *bitio.Writer, s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return dekuerr.NewInvalidParam("cstring: value contains an embedded NUL byte")
		}
	}
	if err := w.WriteBytesAligned([]byte(s)); err != nil {
		return err
	}
	return w.WriteBytesAligned([]byte{0})
}
