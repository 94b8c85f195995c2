package bitio

import "io"

// buffer manages the read-ahead byte buffer shared by Reader's aligned
// reads and its peek/lookahead support. The approach mirrors a
// bufio.Reader, but the API is shaped around what Reader actually needs:
// peeking without consuming, and returning slices into the internal
// array rather than copying through io.Reader's buffer-supplied-by-
// caller convention.
type buffer struct {
	buf []byte
	nr  int
	nw  int
	src io.Reader
}

// defaultBufferSize is large enough to satisfy Peek's lookahead window
// without needing to grow for ordinary protocol fields.
const defaultBufferSize = 4096

func newBuffer(r io.Reader) *buffer {
	return &buffer{
		buf: make([]byte, defaultBufferSize),
		src: r,
	}
}

// fillAtLeast fills the buffer with at least min unread bytes. Returns an
// error iff fewer than min bytes could be filled; on EOF with zero bytes
// read, returns io.EOF, and with some bytes read but fewer than min,
// returns io.ErrUnexpectedEOF.
func (b *buffer) fillAtLeast(min int) error {
	if b.nw-b.nr >= min {
		return nil
	}
	if min > len(b.buf) {
		grown := make([]byte, min*2)
		copy(grown, b.buf[b.nr:b.nw])
		b.nw -= b.nr
		b.nr = 0
		b.buf = grown
	} else if len(b.buf)-b.nr < min {
		copy(b.buf, b.buf[b.nr:b.nw])
		b.nw -= b.nr
		b.nr = 0
	}
	start := b.nw
	for buf := b.buf[b.nw:]; b.nw-b.nr < min; {
		n, err := b.src.Read(buf)
		if n == 0 && err != nil {
			if b.nw > start {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		b.nw += n
		buf = buf[n:]
	}
	return nil
}

// peekAtLeast returns a slice over the next n unread bytes without
// consuming them. The returned slice is only valid until the next buffer
// call; callers that need to keep it must copy.
func (b *buffer) peekAtLeast(n int) ([]byte, error) {
	if err := b.fillAtLeast(n); err != nil {
		if b.nw-b.nr > 0 {
			return b.buf[b.nr:b.nw], err
		}
		return nil, err
	}
	return b.buf[b.nr : b.nr+n], nil
}

// readBuf returns the next n unread bytes and advances the read
// position past them.
func (b *buffer) readBuf(n int) ([]byte, error) {
	if err := b.fillAtLeast(n); err != nil {
		return nil, err
	}
	out := b.buf[b.nr : b.nr+n]
	b.nr += n
	return out, nil
}

// readByte reads and returns the next byte.
func (b *buffer) readByte() (byte, error) {
	if err := b.fillAtLeast(1); err != nil {
		return 0, err
	}
	c := b.buf[b.nr]
	b.nr++
	return c, nil
}

// skip discards the next n bytes without copying them out.
func (b *buffer) skip(n int) error {
	for n > 0 {
		avail := b.nw - b.nr
		if avail == 0 {
			if err := b.fillAtLeast(1); err != nil {
				return err
			}
			avail = b.nw - b.nr
		}
		take := n
		if take > avail {
			take = avail
		}
		b.nr += take
		n -= take
	}
	return nil
}

// atEOF reports whether the buffer has no unread bytes and the
// underlying source is exhausted. It is allowed to perform one blocking
// read against the source to find out.
func (b *buffer) atEOF() bool {
	if b.nw > b.nr {
		return false
	}
	return b.fillAtLeast(1) != nil
}
