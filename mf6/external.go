package mf6

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-mf6/dfn"
	"github.com/robert-malhotra/go-mf6/internal/binary"
	"github.com/robert-malhotra/go-mf6/internal/dtype"
	"github.com/robert-malhotra/go-mf6/internal/token"
)

// fileEnv is what items need to reach their external files: the directory
// relative paths resolve against and the number conventions.
type fileEnv struct {
	root    string
	cfg     binary.Config
	format  dtype.Formatter
	perLine int
	sugar   *zap.SugaredLogger
	metrics *metrics
}

func defaultEnv() *fileEnv {
	return &fileEnv{
		root:    ".",
		cfg:     binary.DefaultConfig(),
		format:  dtype.Formatter{Precision: -1},
		perLine: 10,
		sugar:   zap.NewNop().Sugar(),
	}
}

func (e *fileEnv) resolve(path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.root, path)
}

func (e *fileEnv) open(path string) (*os.File, error) {
	f, err := os.Open(e.resolve(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingExternalFile, path)
		}
		return nil, err
	}
	return f, nil
}

func (e *fileEnv) create(path string) (*os.File, error) {
	full := e.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	return os.Create(full)
}

func formatName(isBinary bool) string {
	if isBinary {
		return formatBinary
	}
	return formatText
}

// readArray reads the n values of an external array file.
func (e *fileEnv) readArray(ext *External, n int, integer bool) ([]float64, error) {
	f, err := e.open(ext.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var vals []float64
	if ext.Binary {
		vals, err = readBinaryArray(f, e.cfg, ext.Path, n, integer)
	} else {
		vals, err = readTextArray(f, ext.Path, n, integer)
	}
	if err != nil {
		e.metrics.rejected()
		return nil, err
	}
	e.metrics.read(formatName(ext.Binary))
	e.sugar.Debugw("read external array", "path", ext.Path, "binary", ext.Binary, "values", n)
	return vals, nil
}

func readBinaryArray(r io.ReaderAt, cfg binary.Config, name string, n int, integer bool) ([]float64, error) {
	br := binary.NewReader(r, cfg)
	vals := make([]float64, 0, n)
	for len(vals) < n {
		_, v, err := binary.ReadRecord(br, integer)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{File: name, Err: err}
		}
		vals = append(vals, v...)
	}
	if len(vals) != n {
		return nil, &FormatError{File: name, Err: fmt.Errorf("%w: %d values, expected %d", ErrShapeMismatch, len(vals), n)}
	}
	return vals, nil
}

func readTextArray(r io.Reader, name string, n int, integer bool) ([]float64, error) {
	sc, err := token.Scan(name, r)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, 0, n)
	for {
		l, ok := sc.Next()
		if !ok {
			break
		}
		for _, tok := range l.Fields {
			if len(vals) == n {
				return nil, formatErrorf(name, l.Num, tok, "%w: more than %d values", ErrShapeMismatch, n)
			}
			v, err := parseValue(tok, integer)
			if err != nil {
				return nil, &FormatError{File: name, Line: l.Num, Token: tok, Err: err}
			}
			vals = append(vals, v)
		}
	}
	if len(vals) != n {
		return nil, formatErrorf(name, sc.LastLine(), "", "%w: %d values, expected %d", ErrShapeMismatch, len(vals), n)
	}
	return vals, nil
}

func parseValue(tok string, integer bool) (float64, error) {
	if integer {
		v, err := dtype.ParseInt(tok)
		return float64(v), err
	}
	return dtype.ParseFloat(tok)
}

// writeArray writes the supplied values of storage unit k of a.
func (e *fileEnv) writeArray(ext *External, a *ArrayItem, k, kper int) error {
	f, err := e.create(ext.Path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", ext.Path, err)
	}
	if ext.Binary {
		err = writeBinaryArray(binary.NewWriter(f, e.cfg), a.records(k, kper), ext.Values, a.Integer())
	} else {
		bw := bufio.NewWriter(f)
		err = writeValues(bw, ext.Values, a.Integer(), e.format, e.perLine, "")
		if err == nil {
			err = bw.Flush()
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", ext.Path, err)
	}
	e.metrics.wrote(formatName(ext.Binary))
	e.sugar.Debugw("wrote external array", "path", ext.Path, "binary", ext.Binary)
	return nil
}

func writeBinaryArray(w *binary.Writer, headers []binary.Header, vals []float64, integer bool) error {
	off := 0
	for _, h := range headers {
		n := h.Count()
		if off+n > len(vals) {
			return fmt.Errorf("%w: %d values for %d records", ErrShapeMismatch, len(vals), len(headers))
		}
		if err := binary.WriteRecord(w, h, vals[off:off+n], integer); err != nil {
			return err
		}
		off += n
	}
	return nil
}

// readList reads the rows of an external list file.
func (e *fileEnv) readList(l *ListItem, ext *ExternalList) ([]Row, error) {
	f, err := e.open(ext.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []Row
	if ext.Binary {
		rows, err = readBinaryList(f, e.cfg, l, ext.Path)
	} else {
		rows, err = readTextList(f, l, ext.Path)
	}
	if err == nil && l.shape.MaxRows > 0 && len(rows) > l.shape.MaxRows {
		err = &FormatError{File: ext.Path, Err: fmt.Errorf("%w: %d rows, at most %d allowed", ErrShapeMismatch, len(rows), l.shape.MaxRows)}
	}
	if err != nil {
		e.metrics.rejected()
		return nil, err
	}
	e.metrics.read(formatName(ext.Binary))
	e.sugar.Debugw("read external list", "path", ext.Path, "binary", ext.Binary, "rows", len(rows))
	return rows, nil
}

func readTextList(r io.Reader, l *ListItem, name string) ([]Row, error) {
	sc, err := token.Scan(name, r)
	if err != nil {
		return nil, err
	}
	rows := []Row{}
	for {
		line, ok := sc.Next()
		if !ok {
			return rows, nil
		}
		row, err := l.parseRow(line.Fields)
		if err != nil {
			return nil, asFormatError(name, line.Num, err)
		}
		rows = append(rows, row)
	}
}

func readBinaryList(r io.ReaderAt, cfg binary.Config, l *ListItem, name string) ([]Row, error) {
	if err := l.binaryLayout(); err != nil {
		return nil, err
	}
	br := binary.NewReader(r, cfg)
	width := 0
	if l.def.CellID {
		width = cellIDSize(l.disc)
	}
	rows := []Row{}
	for {
		var row Row
		start := br.Pos()
		for j := 0; j < width; j++ {
			v, err := br.ReadInt32()
			if err == io.EOF && j == 0 {
				return rows, nil
			}
			if err != nil {
				return nil, binaryRowError(name, len(rows), err)
			}
			row.Cell = append(row.Cell, int(v)-1)
		}
		for _, f := range l.def.Fields {
			var v float64
			var err error
			if f.Type == dfn.TypeInteger {
				var iv int32
				iv, err = br.ReadInt32()
				v = float64(iv)
			} else {
				v, err = br.ReadFloat64()
			}
			if err == io.EOF && width == 0 && len(row.Values) == 0 {
				return rows, nil
			}
			if err != nil {
				return nil, binaryRowError(name, len(rows), err)
			}
			row.Values = append(row.Values, v)
		}
		for range l.shape.AuxNames {
			v, err := br.ReadFloat64()
			if err != nil {
				return nil, binaryRowError(name, len(rows), err)
			}
			row.Aux = append(row.Aux, v)
		}
		if br.Pos() == start {
			return rows, nil
		}
		if err := l.checkCell(row.Cell); err != nil {
			return nil, &FormatError{File: name, Err: fmt.Errorf("row %d: %w", len(rows)+1, err)}
		}
		rows = append(rows, row)
	}
}

func binaryRowError(name string, row int, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &FormatError{File: name, Err: fmt.Errorf("row %d: %w", row+1, err)}
}

// writeList writes rows to an external list file.
func (e *fileEnv) writeList(l *ListItem, ext *ExternalList, rows []Row) error {
	f, err := e.create(ext.Path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", ext.Path, err)
	}
	if ext.Binary {
		err = writeBinaryList(binary.NewWriter(f, e.cfg), l, rows)
	} else {
		bw := bufio.NewWriter(f)
		for _, r := range rows {
			if _, err = fmt.Fprintln(bw, strings.Join(l.formatRow(r, e.format), " ")); err != nil {
				break
			}
		}
		if err == nil {
			err = bw.Flush()
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", ext.Path, err)
	}
	e.metrics.wrote(formatName(ext.Binary))
	e.sugar.Debugw("wrote external list", "path", ext.Path, "binary", ext.Binary, "rows", len(rows))
	return nil
}

func writeBinaryList(w *binary.Writer, l *ListItem, rows []Row) error {
	if err := l.binaryLayout(); err != nil {
		return err
	}
	for n, r := range rows {
		if len(r.Values) != l.def.NumericFields() {
			return fmt.Errorf("%w: row %d of %s has %d values, expected %d", ErrShapeMismatch, n+1, l.Name(), len(r.Values), l.def.NumericFields())
		}
		for _, c := range r.Cell {
			if err := w.WriteInt32(int32(c + 1)); err != nil {
				return err
			}
		}
		for i, f := range l.def.Fields {
			var err error
			if f.Type == dfn.TypeInteger {
				err = w.WriteInt32(int32(r.Values[i]))
			} else {
				err = w.WriteFloat64(r.Values[i])
			}
			if err != nil {
				return err
			}
		}
		for _, v := range r.Aux {
			if err := w.WriteFloat64(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// asFormatError places a validation error at a file position.
func asFormatError(file string, line int, err error) error {
	var fe *FormatError
	if errors.As(err, &fe) {
		return err
	}
	var te *tokenError
	if errors.As(err, &te) {
		return &FormatError{File: file, Line: line, Token: te.token, Err: te.err}
	}
	return &FormatError{File: file, Line: line, Err: err}
}
