package mf6

import (
	"io"
	"strings"

	"github.com/robert-malhotra/go-mf6/dfn"
	"github.com/robert-malhotra/go-mf6/internal/dtype"
	"github.com/robert-malhotra/go-mf6/internal/token"
)

// read parses the package file. Nothing is registered unless the whole
// file parses.
func (p *Package) read() error {
	f, err := p.sim.env.open(p.fileName)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := p.parse(f); err != nil {
		p.sim.metrics.rejected()
		return err
	}
	p.sim.metrics.read(formatText)
	p.sim.sugar.Debugw("read package", "package", p.name, "type", p.ftype, "file", p.fileName)
	return nil
}

// blockState collects what a file adds to a block until it is committed.
type blockState struct {
	suffix      *string
	extra       []string
	periodExtra map[int][]string
	periods     []int
}

// stagedSource sees staged items before registered ones.
type stagedSource struct {
	staged map[Path]Item
	base   itemSource
}

func (s stagedSource) lookup(path Path) (Item, bool) {
	if it, ok := s.staged[path]; ok {
		return it, true
	}
	return s.base.lookup(path)
}

type parser struct {
	pkg     *Package
	sc      *token.Scanner
	file    string
	staged  map[Path]Item
	order   []Path
	src     stagedSource
	states  map[*Block]*blockState
	unknown []*Block
}

func (p *Package) parse(r io.Reader) error {
	sc, err := token.Scan(p.fileName, r)
	if err != nil {
		return err
	}
	ps := &parser{
		pkg:    p,
		sc:     sc,
		file:   p.fileName,
		staged: make(map[Path]Item),
		states: make(map[*Block]*blockState),
	}
	ps.src = stagedSource{staged: ps.staged, base: p.sim.registry}
	if err := ps.run(); err != nil {
		return err
	}
	ps.commit()
	return nil
}

func (ps *parser) errorf(line int, tok string, format string, args ...any) error {
	return formatErrorf(ps.file, line, tok, format, args...)
}

func (ps *parser) run() error {
	seen := make(map[string]bool)
	for {
		l, ok := ps.sc.Next()
		if !ok {
			break
		}
		if l.Keyword() != "BEGIN" {
			return ps.errorf(l.Num, l.Fields[0], "expected BEGIN")
		}
		if len(l.Fields) < 2 {
			return ps.errorf(l.Num, l.Fields[0], "block without name")
		}
		name := strings.ToLower(l.Fields[1])
		b, ok := ps.pkg.Block(name)
		if !ok || b.def == nil {
			if err := ps.unknownBlock(l, name); err != nil {
				return err
			}
			continue
		}
		seen[name] = true
		if err := ps.block(l, b); err != nil {
			return err
		}
	}
	for i := range ps.pkg.def.Blocks {
		b := &ps.pkg.def.Blocks[i]
		if b.Required && !seen[strings.ToLower(b.Name)] {
			return ps.errorf(ps.sc.LastLine(), b.Name, "missing required block")
		}
	}
	return nil
}

func (ps *parser) unknownBlock(begin token.Line, name string) error {
	var body []string
	for {
		l, ok := ps.sc.Next()
		if !ok {
			return ps.errorf(begin.Num, "BEGIN "+begin.Fields[1], "unterminated block")
		}
		if l.Keyword() == "END" && len(l.Fields) > 1 && strings.EqualFold(l.Fields[1], name) {
			ps.unknown = append(ps.unknown, &Block{
				name:   name,
				pkg:    ps.pkg,
				extra:  body,
				header: begin.Text,
				footer: l.Text,
			})
			ps.pkg.sim.sugar.Infow("keeping unknown block verbatim", "file", ps.file, "block", name, "lines", len(body))
			return nil
		}
		body = append(body, l.Text)
	}
}

func (ps *parser) state(b *Block) *blockState {
	st, ok := ps.states[b]
	if !ok {
		st = &blockState{periodExtra: make(map[int][]string)}
		ps.states[b] = st
	}
	return st
}

func (ps *parser) block(begin token.Line, b *Block) error {
	st := ps.state(b)
	period := -1
	if b.def.Transient {
		if len(begin.Fields) < 3 {
			return ps.errorf(begin.Num, begin.Fields[1], "period block without period number")
		}
		n, err := dtype.ParseInt(begin.Fields[2])
		if err != nil || n < 1 {
			return ps.errorf(begin.Num, begin.Fields[2], "invalid period number")
		}
		period = n - 1
		if nper := ps.pkg.sim.nperBound(); nper >= 0 && period >= nper {
			return ps.errorf(begin.Num, begin.Fields[2], "%w: period %d, simulation has %d", ErrPeriodRange, n, nper)
		}
		st.periods = append(st.periods, period)
	} else if len(begin.Fields) > 2 {
		suffix := strings.Join(begin.Fields[2:], " ")
		st.suffix = &suffix
	}

	present := make(map[string]bool)
	list := b.def.List()
	for {
		l, ok := ps.sc.Next()
		if !ok {
			return ps.errorf(begin.Num, "BEGIN "+begin.Fields[1], "unterminated block")
		}
		kw := l.Keyword()
		if kw == "END" {
			if len(l.Fields) < 2 || !strings.EqualFold(l.Fields[1], b.name) {
				return ps.errorf(l.Num, l.Text, "END does not match BEGIN %s", b.name)
			}
			if period < 0 {
				if err := ps.checkRequired(b, l.Num); err != nil {
					return err
				}
			}
			break
		}
		if kw == "BEGIN" {
			return ps.errorf(l.Num, l.Text, "BEGIN inside block %s", b.name)
		}
		if def, ok := b.def.Item(l.Fields[0]); ok && def.Kind != dfn.KindList {
			it, err := ps.item(l, def)
			if err != nil {
				return err
			}
			if err := ps.stage(b, def, period, it, l.Num); err != nil {
				return err
			}
			present[strings.ToLower(def.Name)] = true
			continue
		}
		if list != nil && !present[strings.ToLower(list.Name)] {
			ps.sc.Back()
			it, err := ps.list(b, list)
			if err != nil {
				return err
			}
			if err := ps.stage(b, list, period, it, l.Num); err != nil {
				return err
			}
			present[strings.ToLower(list.Name)] = true
			continue
		}
		if period >= 0 {
			st.periodExtra[period] = append(st.periodExtra[period], l.Text)
		} else {
			st.extra = append(st.extra, l.Text)
		}
		ps.pkg.sim.sugar.Infow("keeping unknown line verbatim", "file", ps.file, "line", l.Num, "block", b.name)
	}

	// a period block without rows switches the list off
	if period >= 0 && list != nil && !present[strings.ToLower(list.Name)] {
		it, err := ps.newList(list)
		if err != nil {
			return ps.errorf(begin.Num, list.Name, "%w", err)
		}
		if err := ps.stage(b, list, period, it, begin.Num); err != nil {
			return err
		}
	}
	return nil
}

func (ps *parser) checkRequired(b *Block, line int) error {
	for i := range b.def.Items {
		def := &b.def.Items[i]
		if !def.Required {
			continue
		}
		if _, ok := ps.staged[ps.pkg.path(b.name, def.Name)]; !ok {
			return ps.errorf(line, def.Name, "missing required item in block %s", b.name)
		}
	}
	return nil
}

func (ps *parser) stage(b *Block, def *dfn.Item, period int, it Item, line int) error {
	path := ps.pkg.path(b.name, def.Name)
	if period < 0 {
		ps.put(path, it)
		return nil
	}
	// periods go to a staged container; commit merges it into a
	// registered one
	t, ok := ps.staged[path].(*Transient)
	if !ok {
		t = ps.pkg.newTransient(def)
		if existing, found := ps.src.lookup(path); found {
			registered, isTransient := existing.(*Transient)
			if !isTransient {
				return ps.errorf(line, def.Name, "%w: %s is not transient", ErrSchema, path)
			}
			t.SetOpenEnded(registered.OpenEnded())
		}
	}
	if err := t.Put(period, it); err != nil {
		return ps.errorf(line, def.Name, "%w", err)
	}
	ps.put(path, t)
	return nil
}

func (ps *parser) put(path Path, it Item) {
	if _, ok := ps.staged[path]; !ok {
		ps.order = append(ps.order, path)
	}
	ps.staged[path] = it
}

func (ps *parser) item(l token.Line, def *dfn.Item) (Item, error) {
	switch def.Kind {
	case dfn.KindRecord:
		words := fillKeywords(def, l.Fields[1:])
		if err := checkRecord(def, words); err != nil {
			return nil, asFormatError(ps.file, l.Num, err)
		}
		return &RecordItem{def: def, words: words}, nil
	case dfn.KindArray:
		return ps.array(l, def)
	default:
		return nil, ps.errorf(l.Num, def.Name, "%w: unexpected item kind %s", ErrSchema, def.Kind)
	}
}

func (ps *parser) array(l token.Line, def *dfn.Item) (*ArrayItem, error) {
	layered := false
	for _, f := range l.Fields[1:] {
		if !strings.EqualFold(f, "LAYERED") {
			return nil, ps.errorf(l.Num, f, "unexpected token after array name")
		}
		layered = true
	}
	disc, err := ps.pkg.discretization(ps.src)
	if err != nil {
		return nil, &FormatError{File: ps.file, Line: l.Num, Token: def.Name, Err: err}
	}
	a, err := newArray(def, disc)
	if err != nil {
		return nil, &FormatError{File: ps.file, Line: l.Num, Token: def.Name, Err: err}
	}
	if layered && !a.layerable() {
		return nil, ps.errorf(l.Num, "LAYERED", "%w: array %s cannot be layered", ErrSchema, def.Name)
	}
	units := 1
	if layered {
		units = a.layerCount()
	}
	n := a.unitSize(layered)
	storage := make([]ArrayStorage, units)
	for k := range storage {
		if storage[k], err = ps.control(a, n); err != nil {
			return nil, err
		}
	}
	a.layered = layered
	a.storage = storage
	a.bind(ps.pkg.sim.env)
	return a, nil
}

// control reads one array control record and its inline values.
func (ps *parser) control(a *ArrayItem, n int) (ArrayStorage, error) {
	l, ok := ps.sc.Next()
	if !ok {
		return nil, ps.errorf(ps.sc.LastLine(), a.Name(), "missing control record")
	}
	switch l.Keyword() {
	case "CONSTANT":
		if len(l.Fields) != 2 {
			return nil, ps.errorf(l.Num, l.Text, "CONSTANT takes one value")
		}
		v, err := parseValue(l.Fields[1], a.Integer())
		if err != nil {
			return nil, &FormatError{File: ps.file, Line: l.Num, Token: l.Fields[1], Err: err}
		}
		return NewConstant(v), nil
	case "INTERNAL":
		factor, iprn, _, err := ps.controlOptions(l, l.Fields[1:], false, a.Integer())
		if err != nil {
			return nil, err
		}
		vals, err := ps.values(n, a.Integer())
		if err != nil {
			return nil, err
		}
		return &Internal{Values: vals, Factor: factor, PrintCode: iprn}, nil
	case "OPEN/CLOSE":
		if len(l.Fields) < 2 {
			return nil, ps.errorf(l.Num, l.Fields[0], "missing file name")
		}
		factor, iprn, bin, err := ps.controlOptions(l, l.Fields[2:], true, a.Integer())
		if err != nil {
			return nil, err
		}
		return &External{Path: l.Fields[1], Binary: bin, Factor: factor, PrintCode: iprn}, nil
	default:
		return nil, ps.errorf(l.Num, l.Fields[0], "unknown array control keyword")
	}
}

func (ps *parser) controlOptions(l token.Line, fields []string, allowBinary, integer bool) (factor float64, iprn int, bin bool, err error) {
	factor, iprn = 1, NoPrintCode
	for i := 0; i < len(fields); i++ {
		switch strings.ToUpper(fields[i]) {
		case "FACTOR":
			if i++; i >= len(fields) {
				return 0, 0, false, ps.errorf(l.Num, "FACTOR", "missing factor value")
			}
			if factor, err = parseValue(fields[i], integer); err != nil {
				return 0, 0, false, &FormatError{File: ps.file, Line: l.Num, Token: fields[i], Err: err}
			}
		case "IPRN":
			if i++; i >= len(fields) {
				return 0, 0, false, ps.errorf(l.Num, "IPRN", "missing print code")
			}
			if iprn, err = dtype.ParseInt(fields[i]); err != nil {
				return 0, 0, false, &FormatError{File: ps.file, Line: l.Num, Token: fields[i], Err: err}
			}
		case "(BINARY)", "BINARY":
			if !allowBinary {
				return 0, 0, false, ps.errorf(l.Num, fields[i], "BINARY only applies to OPEN/CLOSE")
			}
			bin = true
		default:
			return 0, 0, false, ps.errorf(l.Num, fields[i], "unexpected control option")
		}
	}
	return factor, iprn, bin, nil
}

// values reads exactly n inline numbers, which may span lines.
func (ps *parser) values(n int, integer bool) ([]float64, error) {
	vals := make([]float64, 0, n)
	for len(vals) < n {
		l, ok := ps.sc.Next()
		if !ok {
			return nil, ps.errorf(ps.sc.LastLine(), "", "%w: expected %d values, found %d before end of file", ErrShapeMismatch, n, len(vals))
		}
		if !dtype.IsNumber(l.Fields[0]) {
			return nil, ps.errorf(l.Num, l.Fields[0], "%w: expected %d values, found %d", ErrShapeMismatch, n, len(vals))
		}
		if len(vals)+len(l.Fields) > n {
			return nil, ps.errorf(l.Num, l.Fields[n-len(vals)], "%w: more than %d values", ErrShapeMismatch, n)
		}
		for _, tok := range l.Fields {
			v, err := parseValue(tok, integer)
			if err != nil {
				return nil, &FormatError{File: ps.file, Line: l.Num, Token: tok, Err: err}
			}
			vals = append(vals, v)
		}
	}
	return vals, nil
}

func (ps *parser) newList(def *dfn.Item) (*ListItem, error) {
	var disc Discretization
	if def.CellID {
		var err error
		if disc, err = ps.pkg.discretization(ps.src); err != nil {
			return nil, err
		}
	}
	l, err := NewList(def, disc, ps.pkg.listShape(def, ps.src))
	if err != nil {
		return nil, err
	}
	l.bind(ps.pkg.sim.env)
	return l, nil
}

// list reads list rows up to the next item keyword or END.
func (ps *parser) list(b *Block, def *dfn.Item) (*ListItem, error) {
	first, _ := ps.sc.Peek()
	l, err := ps.newList(def)
	if err != nil {
		return nil, &FormatError{File: ps.file, Line: first.Num, Token: def.Name, Err: err}
	}
	var ext *ExternalList
	rows := []Row{}
	for {
		line, ok := ps.sc.Next()
		if !ok {
			break
		}
		kw := line.Keyword()
		if kw == "END" || kw == "BEGIN" || ps.isItem(b, line) {
			ps.sc.Back()
			break
		}
		if ext != nil {
			return nil, ps.errorf(line.Num, line.Fields[0], "unexpected content after OPEN/CLOSE")
		}
		if kw == "OPEN/CLOSE" && len(rows) == 0 {
			if ext, err = ps.externalList(l, line); err != nil {
				return nil, err
			}
			continue
		}
		row, err := l.parseRow(line.Fields)
		if err != nil {
			return nil, asFormatError(ps.file, line.Num, err)
		}
		rows = append(rows, row)
		if max := l.shape.MaxRows; max > 0 && len(rows) > max {
			return nil, ps.errorf(line.Num, "", "%w: more than %d rows", ErrShapeMismatch, max)
		}
	}
	if ext != nil {
		l.storage = ext
	} else {
		l.storage = &InternalList{Rows: rows}
	}
	return l, nil
}

func (ps *parser) externalList(l *ListItem, line token.Line) (*ExternalList, error) {
	if len(line.Fields) < 2 {
		return nil, ps.errorf(line.Num, line.Fields[0], "missing file name")
	}
	ext := &ExternalList{Path: line.Fields[1]}
	for _, f := range line.Fields[2:] {
		switch strings.ToUpper(f) {
		case "(BINARY)", "BINARY":
			ext.Binary = true
		default:
			return nil, ps.errorf(line.Num, f, "unexpected control option")
		}
	}
	if ext.Binary {
		if err := l.binaryLayout(); err != nil {
			return nil, &FormatError{File: ps.file, Line: line.Num, Token: line.Fields[1], Err: err}
		}
	}
	return ext, nil
}

func (ps *parser) isItem(b *Block, l token.Line) bool {
	def, ok := b.def.Item(l.Fields[0])
	return ok && def.Kind != dfn.KindList
}

// commit registers the staged items and applies the block changes.
func (ps *parser) commit() {
	for _, path := range ps.order {
		it := ps.staged[path]
		if t, ok := it.(*Transient); ok {
			if existing, ok := ps.pkg.sim.registry.lookup(path); ok {
				existing.(*Transient).merge(t)
				continue
			}
		}
		ps.pkg.sim.registry.Register(path, it)
	}
	for b, st := range ps.states {
		if st.suffix != nil {
			b.suffix = *st.suffix
		}
		b.extra = append(b.extra, st.extra...)
		for p, lines := range st.periodExtra {
			b.periodExtra[p] = append(b.periodExtra[p], lines...)
		}
		for _, p := range st.periods {
			b.periods[p] = true
		}
	}
	ps.pkg.blocks = append(ps.pkg.blocks, ps.unknown...)
}
