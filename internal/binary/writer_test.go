package binary

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"
)

// bytesWriterAt implements io.WriterAt for testing
type bytesWriterAt struct {
	buf []byte
}

func (b *bytesWriterAt) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if int(off)+len(p) > len(b.buf) {
		newBuf := make([]byte, int(off)+len(p))
		copy(newBuf, b.buf)
		b.buf = newBuf
	}
	copy(b.buf[off:], p)
	return len(p), nil
}

func TestWriterPrimitives(t *testing.T) {
	buf := &bytesWriterAt{}
	w := NewWriter(buf, DefaultConfig())

	if err := w.WriteInt32(-2); err != nil {
		t.Fatalf("WriteInt32 failed: %v", err)
	}
	if err := w.WriteFloat64(math.Pi); err != nil {
		t.Fatalf("WriteFloat64 failed: %v", err)
	}

	var want bytes.Buffer
	binary.Write(&want, binary.LittleEndian, int32(-2))
	binary.Write(&want, binary.LittleEndian, math.Pi)

	if !bytes.Equal(buf.buf, want.Bytes()) {
		t.Errorf("expected % x, got % x", want.Bytes(), buf.buf)
	}
	if w.Pos() != 12 {
		t.Errorf("expected pos 12, got %d", w.Pos())
	}
}

func TestWriterString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HEAD", "            HEAD"},
		{"", "                "},
		{"ABCDEFGHIJKLMNOPQRS", "ABCDEFGHIJKLMNOP"},
	}
	for _, tt := range tests {
		buf := &bytesWriterAt{}
		w := NewWriter(buf, DefaultConfig())
		if err := w.WriteString(tt.in, TextSize); err != nil {
			t.Fatalf("WriteString failed: %v", err)
		}
		if string(buf.buf) != tt.want {
			t.Errorf("WriteString(%q): expected %q, got %q", tt.in, tt.want, string(buf.buf))
		}
	}
}

func TestWriterAt(t *testing.T) {
	buf := &bytesWriterAt{}
	w := NewWriter(buf, DefaultConfig())

	w2 := w.At(32)
	if w2.Pos() != 32 {
		t.Errorf("expected position 32, got %d", w2.Pos())
	}
	if w.Pos() != 0 {
		t.Errorf("expected original position 0, got %d", w.Pos())
	}
}

func TestRecordRoundTrip(t *testing.T) {
	h := Header{Kstp: 1, Kper: 2, Pertim: 0.5, Totim: 10.5, Text: "BOTM", M1: 3, M2: 2, M3: 1}
	values := []float64{1, 2, 3, 4, 5, 6.25}

	buf := &bytesWriterAt{}
	w := NewWriter(buf, DefaultConfig())
	if err := WriteRecord(w, h, values, false); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	if len(buf.buf) != HeaderSize(8)+len(values)*8 {
		t.Fatalf("expected %d bytes, got %d", HeaderSize(8)+len(values)*8, len(buf.buf))
	}

	r := NewReader(bytesReaderAt(buf.buf), DefaultConfig())
	got, gotValues, err := ReadRecord(r, false)
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if got != h {
		t.Errorf("expected header %+v, got %+v", h, got)
	}
	for i := range values {
		if gotValues[i] != values[i] {
			t.Errorf("value %d: expected %g, got %g", i, values[i], gotValues[i])
		}
	}
}

func TestRecordLayout(t *testing.T) {
	// Fixed layout: kstp, kper, pertim, totim, text, m1, m2, m3, values.
	h := Header{Kstp: 1, Kper: 1, Text: "IDOMAIN", M1: 2, M2: 1, M3: 1}
	buf := &bytesWriterAt{}
	if err := WriteRecord(NewWriter(buf, DefaultConfig()), h, []float64{1, -1}, true); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}

	var want bytes.Buffer
	binary.Write(&want, binary.LittleEndian, int32(1))
	binary.Write(&want, binary.LittleEndian, int32(1))
	binary.Write(&want, binary.LittleEndian, float64(0))
	binary.Write(&want, binary.LittleEndian, float64(0))
	want.WriteString("         IDOMAIN")
	binary.Write(&want, binary.LittleEndian, int32(2))
	binary.Write(&want, binary.LittleEndian, int32(1))
	binary.Write(&want, binary.LittleEndian, int32(1))
	binary.Write(&want, binary.LittleEndian, int32(1))
	binary.Write(&want, binary.LittleEndian, int32(-1))

	if !bytes.Equal(buf.buf, want.Bytes()) {
		t.Errorf("layout mismatch:\nexpected % x\ngot      % x", want.Bytes(), buf.buf)
	}
}

func TestWriteRecordCountMismatch(t *testing.T) {
	h := Header{Text: "TOP", M1: 3, M2: 1, M3: 1}
	if err := WriteRecord(NewWriter(&bytesWriterAt{}, DefaultConfig()), h, []float64{1}, false); err == nil {
		t.Error("expected error for value count mismatch")
	}
}
