package ind

import (
	"encoding/binary"
	"math"
)

// byteReader walks a big-endian buffer and yields host-order values.
// Every read is bounds checked and reports Corrupt instead of panicking.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte, offset int) *byteReader {
	return &byteReader{data: data, pos: offset}
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *byteReader) take(n int, what string) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, corruptf("reading %s at offset %d: need %d bytes, have %d", what, r.pos, n, r.remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) u8(what string) (uint8, error) {
	b, err := r.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) u16(what string) (uint16, error) {
	b, err := r.take(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *byteReader) i16(what string) (int16, error) {
	v, err := r.u16(what)
	return int16(v), err
}

func (r *byteReader) u32(what string) (uint32, error) {
	b, err := r.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *byteReader) i32(what string) (int32, error) {
	v, err := r.u32(what)
	return int32(v), err
}

func (r *byteReader) f32(what string) (float32, error) {
	v, err := r.u32(what)
	return math.Float32frombits(v), err
}

// byteWriter appends host-order values in big-endian storage order
type byteWriter struct {
	buf []byte
}

func newByteWriter(capacity int) *byteWriter {
	return &byteWriter{buf: make([]byte, 0, capacity)}
}

func (w *byteWriter) bytes() []byte {
	return w.buf
}

func (w *byteWriter) raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *byteWriter) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *byteWriter) u16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *byteWriter) i16(v int16) {
	w.u16(uint16(v))
}

func (w *byteWriter) u32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *byteWriter) i32(v int32) {
	w.u32(uint32(v))
}

func (w *byteWriter) f32(v float32) {
	w.u32(math.Float32bits(v))
}
