package mf6

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-mf6/dfn"
	"github.com/robert-malhotra/go-mf6/internal/dtype"
)

// CellID is a 0-based cell address: (layer, row, col), (layer, cell) or
// (node).
type CellID []int

func (c CellID) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Row is one list entry. Values holds the numeric fields in schema order,
// Text the string fields.
type Row struct {
	Cell   CellID
	Values []float64
	Text   []string
	Aux    []float64
	Name   string
}

func (r Row) clone() Row {
	return Row{
		Cell:   append(CellID(nil), r.Cell...),
		Values: append([]float64(nil), r.Values...),
		Text:   append([]string(nil), r.Text...),
		Aux:    append([]float64(nil), r.Aux...),
		Name:   r.Name,
	}
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

// ListShape is the row layout of a list beyond its schema fields.
type ListShape struct {
	MaxRows  int      // 0 means unbounded
	AuxNames []string // one aux value per name follows the fields
	HasNames bool     // rows may end with a boundname
}

// ListItem holds rows of typed fields.
//
// Rows returns the item's live buffer: edits to the returned rows are seen
// by later reads and writes without calling Set. Use Set to change the
// number of rows.
type ListItem struct {
	def     *dfn.Item
	disc    Discretization
	shape   ListShape
	storage ListStorage
	env     *fileEnv
}

// NewList creates an empty list. disc is required when rows carry cell
// addresses.
func NewList(def *dfn.Item, disc Discretization, shape ListShape) (*ListItem, error) {
	if def == nil || def.Kind != dfn.KindList {
		return nil, fmt.Errorf("%w: not a list definition", ErrSchema)
	}
	if def.CellID && disc == nil {
		return nil, fmt.Errorf("%w: list %s needs a discretization for cell addresses", ErrSchema, def.Name)
	}
	if !def.Aux {
		shape.AuxNames = nil
		shape.HasNames = false
	}
	shape.AuxNames = append([]string(nil), shape.AuxNames...)
	return &ListItem{def: def, disc: disc, shape: shape, storage: &InternalList{}, env: defaultEnv()}, nil
}

func (l *ListItem) Name() string { return l.def.Name }

func (l *ListItem) Kind() dfn.Kind { return dfn.KindList }

// Schema returns the item definition.
func (l *ListItem) Schema() *dfn.Item { return l.def }

// Shape returns the row layout.
func (l *ListItem) Shape() ListShape {
	s := l.shape
	s.AuxNames = append([]string(nil), s.AuxNames...)
	return s
}

func (l *ListItem) MaxRows() int { return l.shape.MaxRows }

func (l *ListItem) AuxNames() []string { return append([]string(nil), l.shape.AuxNames...) }

func (l *ListItem) HasNames() bool { return l.shape.HasNames }

// Storage returns the list's storage variant.
func (l *ListItem) Storage() ListStorage { return l.storage }

// Set replaces the list's storage: []Row becomes an InternalList holding a
// copy of the rows, an ExternalListSpec an ExternalList, a ListStorage is
// used as is and nil empties the list. Rows are validated first; the list
// is unchanged on error.
func (l *ListItem) Set(v any) error {
	var s ListStorage
	switch x := v.(type) {
	case nil:
		s = &InternalList{}
	case []Row:
		s = &InternalList{Rows: cloneRows(x)}
	case ExternalListSpec:
		s = l.external(x)
	case *ExternalListSpec:
		s = l.external(*x)
	case *InternalList:
		s = x
	case *ExternalList:
		s = x
	default:
		return fmt.Errorf("list %s: %w: unsupported value type %T", l.Name(), ErrSchema, v)
	}
	if err := l.check(s); err != nil {
		return fmt.Errorf("list %s: %w", l.Name(), err)
	}
	l.storage = s
	return nil
}

func (l *ListItem) external(spec ExternalListSpec) *ExternalList {
	e := &ExternalList{Path: spec.Path, Binary: spec.Binary}
	if spec.Rows != nil {
		e.Rows = cloneRows(spec.Rows)
	}
	return e
}

func (l *ListItem) check(s ListStorage) error {
	switch v := s.(type) {
	case *InternalList:
		return l.validateRows(v.Rows)
	case *ExternalList:
		if v.Path == "" {
			return fmt.Errorf("%w: external reference without path", ErrSchema)
		}
		if v.Binary {
			if err := l.binaryLayout(); err != nil {
				return err
			}
		}
		if v.Rows != nil {
			return l.validateRows(v.Rows)
		}
		return nil
	default:
		panic(fmt.Sprintf("mf6: unknown list storage %T", s))
	}
}

// Rows returns the live row buffer, reading an external file on first use.
func (l *ListItem) Rows() ([]Row, error) {
	switch s := l.storage.(type) {
	case *InternalList:
		return s.Rows, nil
	case *ExternalList:
		if s.Rows != nil {
			return s.Rows, nil
		}
		if !s.loaded {
			rows, err := l.env.readList(l, s)
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", l.Name(), err)
			}
			s.cache = rows
			s.loaded = true
		}
		return s.cache, nil
	default:
		panic(fmt.Sprintf("mf6: unknown list storage %T", l.storage))
	}
}

// Len returns the number of rows.
func (l *ListItem) Len() (int, error) {
	rows, err := l.Rows()
	return len(rows), err
}

// Validate checks the current rows against the schema and shape. It is
// useful after editing the live buffer.
func (l *ListItem) Validate() error {
	rows, err := l.Rows()
	if err != nil {
		return err
	}
	if err := l.validateRows(rows); err != nil {
		return fmt.Errorf("list %s: %w", l.Name(), err)
	}
	return nil
}

func (l *ListItem) validateRows(rows []Row) error {
	if l.shape.MaxRows > 0 && len(rows) > l.shape.MaxRows {
		return fmt.Errorf("%w: %d rows, at most %d allowed", ErrShapeMismatch, len(rows), l.shape.MaxRows)
	}
	for i, r := range rows {
		if err := l.validateRow(r); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

func (l *ListItem) validateRow(r Row) error {
	if err := l.checkCell(r.Cell); err != nil {
		return err
	}
	lo, hi := l.fieldRange(true)
	if err := checkCount("numeric fields", len(r.Values), lo, hi); err != nil {
		return err
	}
	lo, hi = l.fieldRange(false)
	if err := checkCount("string fields", len(r.Text), lo, hi); err != nil {
		return err
	}
	if len(r.Aux) != len(l.shape.AuxNames) {
		return fmt.Errorf("%w: %d aux values for %d aux names", ErrShapeMismatch, len(r.Aux), len(l.shape.AuxNames))
	}
	if r.Name != "" && !l.shape.HasNames {
		return fmt.Errorf("%w: boundname %q without BOUNDNAMES", ErrShapeMismatch, r.Name)
	}
	return nil
}

func checkCount(what string, got int, min, max int) error {
	if got < min || (max >= 0 && got > max) {
		if max < 0 {
			return fmt.Errorf("%w: %d %s, expected at least %d", ErrShapeMismatch, got, what, min)
		}
		if min == max {
			return fmt.Errorf("%w: %d %s, expected %d", ErrShapeMismatch, got, what, max)
		}
		return fmt.Errorf("%w: %d %s, expected %d to %d", ErrShapeMismatch, got, what, min, max)
	}
	return nil
}

// fieldRange returns how many numeric (or string) values a row holds at
// least and at most. max is -1 when a variadic field makes it unbounded.
func (l *ListItem) fieldRange(numeric bool) (min, max int) {
	for _, f := range l.def.Fields {
		if f.Type.Numeric() != numeric {
			continue
		}
		if f.Variadic {
			max = -1
			continue
		}
		if max >= 0 {
			max++
		}
		if !f.Optional {
			min++
		}
	}
	return min, max
}

func (l *ListItem) checkCell(c CellID) error {
	if !l.def.CellID {
		if len(c) != 0 {
			return fmt.Errorf("%w: list %s has no cell addresses", ErrShapeMismatch, l.Name())
		}
		return nil
	}
	bounds := cellBounds(l.disc)
	if len(c) != len(bounds) {
		return fmt.Errorf("%w: cell address %v, expected %d components", ErrShapeMismatch, c, len(bounds))
	}
	for i, v := range c {
		if v < 0 || v >= bounds[i] {
			return fmt.Errorf("%w: cell %v outside grid", ErrShapeMismatch, c)
		}
	}
	return nil
}

// parseRow reads one row from its tokens. Cell addresses in the file are
// 1-based.
func (l *ListItem) parseRow(fields []string) (Row, error) {
	var r Row
	i := 0
	if l.def.CellID {
		n := cellIDSize(l.disc)
		if len(fields) < n {
			return r, tokenErrorf(strings.Join(fields, " "), "%w: cell address needs %d integers", ErrShapeMismatch, n)
		}
		r.Cell = make(CellID, n)
		for j := 0; j < n; j++ {
			v, err := dtype.ParseInt(fields[j])
			if err != nil {
				return r, &tokenError{token: fields[j], err: err}
			}
			r.Cell[j] = v - 1
		}
		i = n
	}
	tail := len(l.shape.AuxNames)
	for _, f := range l.def.Fields {
		if f.Variadic {
			for ; i < len(fields)-tail; i++ {
				if err := appendField(&r, f, fields[i]); err != nil {
					return r, err
				}
			}
			continue
		}
		if i >= len(fields) {
			if f.Optional {
				continue
			}
			return r, tokenErrorf("", "%w: missing field %s", ErrShapeMismatch, f.Name)
		}
		if err := appendField(&r, f, fields[i]); err != nil {
			return r, err
		}
		i++
	}
	for _, name := range l.shape.AuxNames {
		if i >= len(fields) {
			return r, tokenErrorf("", "%w: missing aux value %s", ErrShapeMismatch, name)
		}
		v, err := dtype.ParseFloat(fields[i])
		if err != nil {
			return r, &tokenError{token: fields[i], err: err}
		}
		r.Aux = append(r.Aux, v)
		i++
	}
	if l.shape.HasNames && i < len(fields) {
		r.Name = fields[i]
		i++
	}
	if i < len(fields) {
		return r, tokenErrorf(fields[i], "%w: unexpected token", ErrShapeMismatch)
	}
	if err := l.checkCell(r.Cell); err != nil {
		return r, &tokenError{token: strings.Join(fields, " "), err: err}
	}
	return r, nil
}

func appendField(r *Row, f dfn.Field, tok string) error {
	switch f.Type {
	case dfn.TypeInteger:
		v, err := dtype.ParseInt(tok)
		if err != nil {
			return &tokenError{token: tok, err: err}
		}
		r.Values = append(r.Values, float64(v))
	case dfn.TypeDouble:
		v, err := dtype.ParseFloat(tok)
		if err != nil {
			return &tokenError{token: tok, err: err}
		}
		r.Values = append(r.Values, v)
	default:
		r.Text = append(r.Text, tok)
	}
	return nil
}

// formatRow renders a row as file tokens.
func (l *ListItem) formatRow(r Row, f dtype.Formatter) []string {
	out := make([]string, 0, len(r.Cell)+len(r.Values)+len(r.Text)+len(r.Aux)+1)
	for _, c := range r.Cell {
		out = append(out, strconv.Itoa(c+1))
	}
	vi, ti := 0, 0
	for _, fd := range l.def.Fields {
		numeric := fd.Type.Numeric()
		for {
			if numeric && vi < len(r.Values) {
				out = append(out, f.Value(r.Values[vi], fd.Type == dfn.TypeInteger))
				vi++
			} else if !numeric && ti < len(r.Text) {
				out = append(out, dtype.Quote(r.Text[ti]))
				ti++
			} else {
				break
			}
			if !fd.Variadic {
				break
			}
		}
	}
	for _, v := range r.Aux {
		out = append(out, f.Float(v))
	}
	if r.Name != "" {
		out = append(out, dtype.Quote(r.Name))
	}
	return out
}

// binaryLayout reports whether rows can be written in binary form.
func (l *ListItem) binaryLayout() error {
	if l.shape.HasNames {
		return fmt.Errorf("%w: binary list %s cannot hold boundnames", ErrSchema, l.Name())
	}
	for _, f := range l.def.Fields {
		if !f.Type.Numeric() || f.Variadic || f.Optional {
			return fmt.Errorf("%w: binary list %s cannot hold field %s", ErrSchema, l.Name(), f.Name)
		}
	}
	return nil
}

func (l *ListItem) bind(env *fileEnv) {
	l.env = env
}
