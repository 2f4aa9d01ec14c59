package binary

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer provides positioned writes of fixed-width integers and reals.
type Writer struct {
	w        io.WriterAt
	order    binary.ByteOrder
	realSize int
	pos      int64
}

// NewWriter creates a binary writer with the given configuration.
func NewWriter(w io.WriterAt, cfg Config) *Writer {
	return &Writer{
		w:        w,
		order:    cfg.ByteOrder,
		realSize: cfg.RealSize,
		pos:      0,
	}
}

// At returns a new writer positioned at the given offset.
// The new writer shares the underlying io.WriterAt but has independent position.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{
		w:        w.w,
		order:    w.order,
		realSize: w.realSize,
		pos:      offset,
	}
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteBytes writes the given bytes at the current position.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// WriteInt32 writes a signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) error {
	buf := make([]byte, 4)
	w.order.PutUint32(buf, uint32(v))
	return w.WriteBytes(buf)
}

// WriteFloat64 writes an IEEE 754 double.
func (w *Writer) WriteFloat64(v float64) error {
	buf := make([]byte, 8)
	w.order.PutUint64(buf, math.Float64bits(v))
	return w.WriteBytes(buf)
}

// WriteFloat32 writes an IEEE 754 single.
func (w *Writer) WriteFloat32(v float32) error {
	buf := make([]byte, 4)
	w.order.PutUint32(buf, math.Float32bits(v))
	return w.WriteBytes(buf)
}

// WriteReal writes a real using the configured real size.
func (w *Writer) WriteReal(v float64) error {
	if w.realSize == 4 {
		return w.WriteFloat32(float32(v))
	}
	return w.WriteFloat64(v)
}

// WriteReals writes all values as reals in a single call.
func (w *Writer) WriteReals(values []float64) error {
	buf := make([]byte, len(values)*w.realSize)
	for i, v := range values {
		if w.realSize == 4 {
			w.order.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
		} else {
			w.order.PutUint64(buf[i*8:], math.Float64bits(v))
		}
	}
	return w.WriteBytes(buf)
}

// WriteInt32s writes all values truncated to 32-bit integers.
func (w *Writer) WriteInt32s(values []float64) error {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		w.order.PutUint32(buf[i*4:], uint32(int32(v)))
	}
	return w.WriteBytes(buf)
}

// WriteString writes s right-justified in a blank-padded field of width n.
// Longer strings are truncated to n bytes.
func (w *Writer) WriteString(s string, n int) error {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = ' '
	}
	if len(s) > n {
		s = s[:n]
	}
	copy(buf[n-len(s):], s)
	return w.WriteBytes(buf)
}

// Skip advances the position by n bytes without writing.
func (w *Writer) Skip(n int64) {
	w.pos += n
}

// RealSize returns the configured real size in bytes.
func (w *Writer) RealSize() int {
	return w.realSize
}

// ByteOrder returns the configured byte order.
func (w *Writer) ByteOrder() binary.ByteOrder {
	return w.order
}

// SeekableWriterAt wraps an io.WriteSeeker to provide io.WriterAt functionality.
type SeekableWriterAt struct {
	ws io.WriteSeeker
}

// NewSeekableWriterAt creates a WriterAt from a WriteSeeker.
func NewSeekableWriterAt(ws io.WriteSeeker) *SeekableWriterAt {
	return &SeekableWriterAt{ws: ws}
}

// WriteAt implements io.WriterAt.
func (s *SeekableWriterAt) WriteAt(p []byte, off int64) (n int, err error) {
	_, err = s.ws.Seek(off, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return s.ws.Write(p)
}
