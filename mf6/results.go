package mf6

import (
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-mf6/internal/binary"
)

// ResultIndexer finds the result series of an entity in output files.
type ResultIndexer interface {
	Index(entity string) ([]ResultKey, []*ResultSeries, error)
}

// ResultRecord locates one array record of an output file.
type ResultRecord struct {
	Kstp   int
	Kper   int
	Pertim float64
	Totim  float64
	Layer  int
	Count  int

	offset int64
}

// ResultSeries is the sequence of records of one quantity in an output
// file. Values are read on demand.
type ResultSeries struct {
	path    string
	cfg     binary.Config
	records []ResultRecord
}

// Path returns the output file.
func (s *ResultSeries) Path() string { return s.path }

// Records returns the record descriptors in file order.
func (s *ResultSeries) Records() []ResultRecord {
	return append([]ResultRecord(nil), s.records...)
}

func (s *ResultSeries) Len() int { return len(s.records) }

// Read returns the values of record i.
func (s *ResultSeries) Read(i int) ([]float64, error) {
	if i < 0 || i >= len(s.records) {
		return nil, fmt.Errorf("%w: record %d of %d", ErrIndex, i, len(s.records))
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()
	rec := s.records[i]
	vals, err := binary.NewReader(f, s.cfg).At(rec.offset).ReadReals(rec.Count)
	if err != nil {
		return nil, fmt.Errorf("reading %s record %d: %w", s.path, i, err)
	}
	return vals, nil
}

// HeadFile indexes a binary head (or other dependent-variable) output file.
// Every record text becomes a state quantity: HEAD, DRAWDOWN.
type HeadFile struct {
	Path      string
	ByteOrder stdbinary.ByteOrder // nil means little-endian
	RealSize  int                 // 0 means 8
}

// Index scans the record headers of the file.
func (h HeadFile) Index(entity string) ([]ResultKey, []*ResultSeries, error) {
	cfg := binary.DefaultConfig()
	if h.ByteOrder != nil {
		cfg.ByteOrder = h.ByteOrder
	}
	if h.RealSize != 0 {
		cfg.RealSize = h.RealSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(h.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingExternalFile, h.Path)
		}
		return nil, nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	bySeries := make(map[string]*ResultSeries)
	r := binary.NewReader(f, cfg)
	for {
		hdr, err := binary.ReadHeader(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &FormatError{File: h.Path, Err: err}
		}
		q := strings.ToLower(hdr.Text)
		s, ok := bySeries[q]
		if !ok {
			s = &ResultSeries{path: h.Path, cfg: cfg}
			bySeries[q] = s
		}
		s.records = append(s.records, ResultRecord{
			Kstp:   int(hdr.Kstp),
			Kper:   int(hdr.Kper),
			Pertim: hdr.Pertim,
			Totim:  hdr.Totim,
			Layer:  int(hdr.M3),
			Count:  hdr.Count(),
			offset: r.Pos(),
		})
		r.Skip(int64(hdr.Count() * cfg.RealSize))
		if r.Pos() > st.Size() {
			return nil, nil, &FormatError{File: h.Path, Err: fmt.Errorf("record %q truncated: %w", hdr.Text, io.ErrUnexpectedEOF)}
		}
	}

	names := make([]string, 0, len(bySeries))
	for q := range bySeries {
		names = append(names, q)
	}
	sort.Strings(names)
	keys := make([]ResultKey, len(names))
	series := make([]*ResultSeries, len(names))
	for i, q := range names {
		keys[i] = ResultKey{Entity: strings.ToLower(entity), Kind: OutputState, Quantity: q}
		series[i] = bySeries[q]
	}
	return keys, series, nil
}
