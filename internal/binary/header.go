package binary

import (
	"fmt"
	"io"
)

// TextSize is the width of the record label field.
const TextSize = 16

// HeaderSize returns the size in bytes of a record header for the given
// real size: two int32 step counters, two reals, the label and three int32
// dimensions.
func HeaderSize(realSize int) int {
	return 4 + 4 + 2*realSize + TextSize + 3*4
}

// Header is the record header preceding every array in MODFLOW binary array
// input and head output files.
type Header struct {
	Kstp   int32   // time step, 1-based
	Kper   int32   // stress period, 1-based
	Pertim float64 // time within the period
	Totim  float64 // total simulation time
	Text   string  // label, at most TextSize characters
	M1     int32   // ncol (or element count for 1D data)
	M2     int32   // nrow (1 for vertex and 1D data)
	M3     int32   // layer, 1-based
}

// Count returns the number of values following the header.
func (h Header) Count() int {
	return int(h.M1) * int(h.M2)
}

// ReadHeader reads a record header at the reader's position.
func ReadHeader(r *Reader) (Header, error) {
	var h Header
	var err error
	if h.Kstp, err = r.ReadInt32(); err != nil {
		return h, err
	}
	if h.Kper, err = r.ReadInt32(); err != nil {
		return h, fmt.Errorf("reading kper: %w", unexpected(err))
	}
	if h.Pertim, err = r.ReadReal(); err != nil {
		return h, fmt.Errorf("reading pertim: %w", unexpected(err))
	}
	if h.Totim, err = r.ReadReal(); err != nil {
		return h, fmt.Errorf("reading totim: %w", unexpected(err))
	}
	if h.Text, err = r.ReadString(TextSize); err != nil {
		return h, fmt.Errorf("reading text: %w", unexpected(err))
	}
	if h.M1, err = r.ReadInt32(); err != nil {
		return h, fmt.Errorf("reading m1: %w", unexpected(err))
	}
	if h.M2, err = r.ReadInt32(); err != nil {
		return h, fmt.Errorf("reading m2: %w", unexpected(err))
	}
	if h.M3, err = r.ReadInt32(); err != nil {
		return h, fmt.Errorf("reading m3: %w", unexpected(err))
	}
	if h.M1 < 0 || h.M2 < 0 {
		return h, fmt.Errorf("negative record dimensions %d x %d", h.M1, h.M2)
	}
	return h, nil
}

// WriteHeader writes a record header at the writer's position.
func WriteHeader(w *Writer, h Header) error {
	if err := w.WriteInt32(h.Kstp); err != nil {
		return err
	}
	if err := w.WriteInt32(h.Kper); err != nil {
		return err
	}
	if err := w.WriteReal(h.Pertim); err != nil {
		return err
	}
	if err := w.WriteReal(h.Totim); err != nil {
		return err
	}
	if err := w.WriteString(h.Text, TextSize); err != nil {
		return err
	}
	if err := w.WriteInt32(h.M1); err != nil {
		return err
	}
	if err := w.WriteInt32(h.M2); err != nil {
		return err
	}
	return w.WriteInt32(h.M3)
}

// ReadRecord reads a header followed by its values. Integer records hold
// int32 values; real records use the reader's real size.
func ReadRecord(r *Reader, integer bool) (Header, []float64, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return h, nil, err
	}
	var values []float64
	if integer {
		values, err = r.ReadInt32s(h.Count())
	} else {
		values, err = r.ReadReals(h.Count())
	}
	if err != nil {
		return h, nil, fmt.Errorf("reading %d values of %q: %w", h.Count(), h.Text, unexpected(err))
	}
	return h, values, nil
}

// WriteRecord writes a header and its values.
func WriteRecord(w *Writer, h Header, values []float64, integer bool) error {
	if len(values) != h.Count() {
		return fmt.Errorf("record %q: %d values for %d x %d", h.Text, len(values), h.M1, h.M2)
	}
	if err := WriteHeader(w, h); err != nil {
		return err
	}
	if integer {
		return w.WriteInt32s(values)
	}
	return w.WriteReals(values)
}

// unexpected turns a clean EOF inside a record into io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
