package proto

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// reader is a bounds-checked cursor over one frame. Every read peeks the
// marker byte first so a type mismatch never consumes input.
type reader struct {
	buf *bytes.Reader
	dec *msgpack.Decoder
}

func newReader(b []byte) *reader {
	buf := bytes.NewReader(b)
	return &reader{buf: buf, dec: msgpack.NewDecoder(buf)}
}

func (r *reader) peek() (byte, error) {
	c, err := r.dec.PeekCode()
	if err != nil {
		return 0, ioError(err)
	}
	return c, nil
}

func (r *reader) arrayLen() (int, error) {
	c, err := r.peek()
	if err != nil {
		return 0, err
	}
	if !msgpcode.IsFixedArray(c) && c != msgpcode.Array16 && c != msgpcode.Array32 {
		return 0, fmt.Errorf("%w: want array, got 0x%02x", ErrTypeMismatch, c)
	}
	n, err := r.dec.DecodeArrayLen()
	if err != nil {
		return 0, ioError(err)
	}
	return n, nil
}

func (r *reader) tag() (string, error) {
	c, err := r.peek()
	if err != nil {
		return "", err
	}
	if !msgpcode.IsString(c) {
		return "", fmt.Errorf("%w: want string tag, got 0x%02x", ErrTypeMismatch, c)
	}
	s, err := r.dec.DecodeString()
	if err != nil {
		return "", ioError(err)
	}
	return s, nil
}

func (r *reader) uint32() (uint32, error) {
	c, err := r.peek()
	if err != nil {
		return 0, err
	}
	if !isInt(c) {
		return 0, fmt.Errorf("%w: want integer, got 0x%02x", ErrTypeMismatch, c)
	}

	if c == msgpcode.Uint64 {
		n, err := r.dec.DecodeUint64()
		if err != nil {
			return 0, ioError(err)
		}
		if n > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %d overflows uint32", ErrTypeMismatch, n)
		}
		return uint32(n), nil
	}

	n, err := r.dec.DecodeInt64()
	if err != nil {
		return 0, ioError(err)
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d out of uint32 range", ErrTypeMismatch, n)
	}
	return uint32(n), nil
}

// float64 accepts float32, float64 and every integer width; browser peers
// send whole numbers as integers.
func (r *reader) float64() (float64, error) {
	c, err := r.peek()
	if err != nil {
		return 0, err
	}
	switch {
	case c == msgpcode.Float || c == msgpcode.Double:
		f, err := r.dec.DecodeFloat64()
		if err != nil {
			return 0, ioError(err)
		}
		return f, nil
	case c == msgpcode.Uint64:
		n, err := r.dec.DecodeUint64()
		if err != nil {
			return 0, ioError(err)
		}
		return float64(n), nil
	case isInt(c):
		n, err := r.dec.DecodeInt64()
		if err != nil {
			return 0, ioError(err)
		}
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: want number, got 0x%02x", ErrTypeMismatch, c)
	}
}

func (r *reader) end() error {
	if n := r.buf.Len(); n > 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, n)
	}
	return nil
}

func isInt(c byte) bool {
	return msgpcode.IsFixedNum(c) || (c >= msgpcode.Uint8 && c <= msgpcode.Int64)
}

func ioError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

// writer accumulates the first encoder error so callers can chain writes.
type writer struct {
	buf bytes.Buffer
	enc *msgpack.Encoder
	err error
}

func newWriter() *writer {
	w := &writer{}
	w.enc = msgpack.NewEncoder(&w.buf)
	return w
}

func (w *writer) header(tag string, fields int) {
	if w.err != nil {
		return
	}
	if w.err = w.enc.EncodeArrayLen(fields + 1); w.err != nil {
		return
	}
	w.err = w.enc.EncodeString(tag)
}

// id is always written as a fixed-width uint32 (0xce).
func (w *writer) id(v uint32) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeUint32(v)
}

func (w *writer) floats(vs ...float64) {
	for _, v := range vs {
		if w.err != nil {
			return
		}
		w.err = w.enc.EncodeFloat64(v)
	}
}

func (w *writer) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}
