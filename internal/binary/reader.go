// Package binary provides low-level binary I/O for MODFLOW array and head files.
package binary

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrInvalidSize is returned when an invalid real size is specified.
var ErrInvalidSize = errors.New("invalid real size: must be 4 or 8")

// Reader provides positioned reads of fixed-width integers and reals.
type Reader struct {
	r        io.ReaderAt
	order    binary.ByteOrder
	realSize int
	pos      int64
}

// Config holds reader and writer configuration.
type Config struct {
	ByteOrder binary.ByteOrder
	RealSize  int // 4 (single precision) or 8 (double precision)
}

// DefaultConfig returns the layout MODFLOW 6 uses: little-endian, double precision.
func DefaultConfig() Config {
	return Config{
		ByteOrder: binary.LittleEndian,
		RealSize:  8,
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.RealSize != 4 && c.RealSize != 8 {
		return ErrInvalidSize
	}
	return nil
}

// NewReader creates a binary reader with the given configuration.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{
		r:        r,
		order:    cfg.ByteOrder,
		realSize: cfg.RealSize,
		pos:      0,
	}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{
		r:        r.r,
		order:    r.order,
		realSize: r.realSize,
		pos:      offset,
	}
}

// WithRealSize returns a new reader reading reals of the given width.
func (r *Reader) WithRealSize(size int) *Reader {
	return &Reader{
		r:        r.r,
		order:    r.order,
		realSize: size,
		pos:      r.pos,
	}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got == n {
		r.pos += int64(n)
		return buf, nil
	}
	if err == nil || err == io.EOF {
		if got == 0 {
			return nil, io.EOF
		}
		err = io.ErrUnexpectedEOF
	}
	return nil, err
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(r.order.Uint32(buf)), nil
}

// ReadFloat64 reads an IEEE 754 double.
func (r *Reader) ReadFloat64() (float64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(r.order.Uint64(buf)), nil
}

// ReadFloat32 reads an IEEE 754 single.
func (r *Reader) ReadFloat32() (float32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(r.order.Uint32(buf)), nil
}

// ReadReal reads a real using the configured real size.
func (r *Reader) ReadReal() (float64, error) {
	if r.realSize == 4 {
		v, err := r.ReadFloat32()
		return float64(v), err
	}
	return r.ReadFloat64()
}

// ReadReals reads n reals into a new slice.
func (r *Reader) ReadReals(n int) ([]float64, error) {
	buf, err := r.ReadBytes(n * r.realSize)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		if r.realSize == 4 {
			out[i] = float64(math.Float32frombits(r.order.Uint32(buf[i*4:])))
		} else {
			out[i] = math.Float64frombits(r.order.Uint64(buf[i*8:]))
		}
	}
	return out, nil
}

// ReadInt32s reads n 32-bit integers, widened to float64.
func (r *Reader) ReadInt32s(n int) ([]float64, error) {
	buf, err := r.ReadBytes(n * 4)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(int32(r.order.Uint32(buf[i*4:])))
	}
	return out, nil
}

// ReadString reads a fixed-width character field and trims blank padding.
func (r *Reader) ReadString(n int) (string, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	start, end := 0, len(buf)
	for start < end && (buf[start] == ' ' || buf[start] == 0) {
		start++
	}
	for end > start && (buf[end-1] == ' ' || buf[end-1] == 0) {
		end--
	}
	return string(buf[start:end]), nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// Peek reads n bytes without advancing the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	_, err := r.r.ReadAt(buf, r.pos)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// RealSize returns the configured real size in bytes.
func (r *Reader) RealSize() int {
	return r.realSize
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}
