package mf6

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/robert-malhotra/go-mf6/internal/dtype"
)

const (
	itemIndent  = "  "
	ctrlIndent  = "    "
	valueIndent = "      "
)

// write writes the package file and the external files it owns.
func (p *Package) write() error {
	f, err := p.sim.env.create(p.fileName)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if p.def == nil {
		_, err = w.Write(p.raw)
	} else {
		err = p.emit(w)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	p.sim.metrics.wrote(formatText)
	p.sim.sugar.Debugw("wrote package", "package", p.name, "type", p.ftype, "file", p.fileName)
	return nil
}

func (p *Package) emit(w *bufio.Writer) error {
	for _, b := range p.blocks {
		var err error
		switch {
		case b.def == nil:
			err = emitVerbatim(w, b)
		case b.def.Transient:
			for _, period := range b.Periods() {
				if err = p.emitPeriod(w, b, period); err != nil {
					break
				}
			}
		default:
			err = p.emitBlock(w, b)
		}
		if err != nil {
			return fmt.Errorf("block %s: %w", b.name, err)
		}
	}
	return nil
}

func emitVerbatim(w io.Writer, b *Block) error {
	lines := append([]string{b.header}, b.extra...)
	lines = append(lines, b.footer, "")
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func (p *Package) emitBlock(w *bufio.Writer, b *Block) error {
	items := b.Items()
	if len(items) == 0 && len(b.extra) == 0 && !b.def.Required {
		return nil
	}
	header := b.name
	if b.suffix != "" {
		header += " " + b.suffix
	}
	fmt.Fprintf(w, "BEGIN %s\n", header)
	for _, it := range items {
		if err := p.emitItem(w, it, 0); err != nil {
			return err
		}
	}
	for _, l := range b.extra {
		fmt.Fprintln(w, l)
	}
	_, err := fmt.Fprintf(w, "END %s\n\n", b.name)
	return err
}

func (p *Package) emitPeriod(w *bufio.Writer, b *Block, period int) error {
	fmt.Fprintf(w, "BEGIN %s %d\n", b.name, period+1)
	for _, it := range b.Items() {
		t, ok := it.(*Transient)
		if !ok {
			continue
		}
		entry, ok := t.At(period)
		if !ok || empty(entry) {
			continue
		}
		if err := p.emitItem(w, entry, period); err != nil {
			return fmt.Errorf("period %d: %w", period+1, err)
		}
	}
	for _, l := range b.periodExtra[period] {
		fmt.Fprintln(w, l)
	}
	_, err := fmt.Fprintf(w, "END %s\n\n", b.name)
	return err
}

// emitItem writes one item. period stamps binary external files.
func (p *Package) emitItem(w *bufio.Writer, it Item, period int) error {
	switch x := it.(type) {
	case *RecordItem:
		return p.emitRecord(w, x)
	case *ArrayItem:
		return p.emitArray(w, x, period)
	case *ListItem:
		return p.emitList(w, x)
	case *Transient:
		return fmt.Errorf("%w: transient %s outside a period block", ErrSchema, x.Name())
	default:
		return fmt.Errorf("%w: cannot write %T", ErrSchema, it)
	}
}

func (p *Package) emitRecord(w *bufio.Writer, r *RecordItem) error {
	parts := []string{strings.ToUpper(r.Name())}
	for _, word := range r.words {
		parts = append(parts, dtype.Quote(word))
	}
	_, err := fmt.Fprintln(w, itemIndent+strings.Join(parts, " "))
	return err
}

func (p *Package) emitArray(w *bufio.Writer, a *ArrayItem, period int) error {
	if !a.IsSet() {
		return nil
	}
	env := p.sim.env
	header := itemIndent + strings.ToUpper(a.Name())
	if a.layered {
		header += " LAYERED"
	}
	fmt.Fprintln(w, header)
	for k, s := range a.storage {
		if err := a.checkIntegral(s); err != nil {
			return fmt.Errorf("array %s: %w", a.Name(), err)
		}
		switch v := s.(type) {
		case *Constant:
			// CONSTANT carries no FACTOR: write the effective value
			fmt.Fprintf(w, "%sCONSTANT %s\n", ctrlIndent, env.format.Value(v.Value*v.Factor, a.Integer()))
		case *Internal:
			fmt.Fprintf(w, "%sINTERNAL%s\n", ctrlIndent, controlOptions(env.format, v.Factor, false, v.PrintCode, a.Integer()))
			if err := writeValues(w, v.Values, a.Integer(), env.format, env.perLine, valueIndent); err != nil {
				return err
			}
		case *External:
			fmt.Fprintf(w, "%sOPEN/CLOSE %s%s\n", ctrlIndent, dtype.Quote(v.Path), controlOptions(env.format, v.Factor, v.Binary, v.PrintCode, a.Integer()))
			if v.Values != nil {
				if err := env.writeArray(v, a, k, period); err != nil {
					return err
				}
			}
		default:
			panic(fmt.Sprintf("mf6: unknown array storage %T", s))
		}
	}
	return nil
}

// controlOptions renders the non-default options of a control record in
// the order FACTOR, (BINARY), IPRN.
func controlOptions(f dtype.Formatter, factor float64, bin bool, iprn int, integer bool) string {
	var sb strings.Builder
	if factor != 1 {
		sb.WriteString(" FACTOR " + f.Value(factor, integer))
	}
	if bin {
		sb.WriteString(" (BINARY)")
	}
	if iprn != NoPrintCode {
		fmt.Fprintf(&sb, " IPRN %d", iprn)
	}
	return sb.String()
}

func (p *Package) emitList(w *bufio.Writer, l *ListItem) error {
	env := p.sim.env
	switch s := l.storage.(type) {
	case *InternalList:
		if err := l.validateRows(s.Rows); err != nil {
			return fmt.Errorf("list %s: %w", l.Name(), err)
		}
		for _, r := range s.Rows {
			fmt.Fprintln(w, itemIndent+strings.Join(l.formatRow(r, env.format), " "))
		}
	case *ExternalList:
		ctrl := itemIndent + "OPEN/CLOSE " + dtype.Quote(s.Path)
		if s.Binary {
			ctrl += " (BINARY)"
		}
		fmt.Fprintln(w, ctrl)
		rows := s.Rows
		if rows == nil && s.loaded {
			rows = s.cache
		}
		if rows != nil {
			if err := l.validateRows(rows); err != nil {
				return fmt.Errorf("list %s: %w", l.Name(), err)
			}
			if err := env.writeList(l, s, rows); err != nil {
				return err
			}
		}
	default:
		panic(fmt.Sprintf("mf6: unknown list storage %T", l.storage))
	}
	return nil
}

// writeValues writes vals perLine to a line.
func writeValues(w io.Writer, vals []float64, integer bool, f dtype.Formatter, perLine int, indent string) error {
	if perLine <= 0 {
		perLine = len(vals)
	}
	parts := make([]string, 0, perLine)
	for i := 0; i < len(vals); i += perLine {
		end := i + perLine
		if end > len(vals) {
			end = len(vals)
		}
		parts = parts[:0]
		for _, v := range vals[i:end] {
			parts = append(parts, f.Value(v, integer))
		}
		if _, err := io.WriteString(w, indent+strings.Join(parts, " ")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

