package mf6

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-mf6/dfn"
)

type packageRole int

const (
	roleModel    packageRole = iota // package of a model
	roleNameFile                    // mfsim.nam or a model name file
	roleTiming                      // TDIS
	roleSolution                    // IMS and other solvers
	roleExchange                    // model-to-model exchange
)

// Package is one input file. Its items live in the simulation's registry.
// A package whose type the catalog does not know is raw: its content is
// kept verbatim.
type Package struct {
	name     string
	ftype    string
	fileName string
	role     packageRole
	def      *dfn.Package // nil for raw packages
	sim      *Simulation
	model    *Model
	blocks   []*Block
	raw      []byte
}

func (p *Package) Name() string { return p.name }

// Type returns the normalized file type: dis, wel, gwf-nam.
func (p *Package) Type() string { return p.ftype }

func (p *Package) FileName() string { return p.fileName }

// SetFileName changes the file the package is written to, relative to the
// simulation root.
func (p *Package) SetFileName(name string) { p.fileName = name }

// Model returns the owning model, nil for simulation packages.
func (p *Package) Model() *Model { return p.model }

// Schema returns the package definition, nil for raw packages.
func (p *Package) Schema() *dfn.Package { return p.def }

// IsRaw reports whether the package is kept verbatim.
func (p *Package) IsRaw() bool { return p.def == nil }

// RawContent returns the verbatim content of a raw package.
func (p *Package) RawContent() []byte { return append([]byte(nil), p.raw...) }

// Block returns the block named name.
func (p *Package) Block(name string) (*Block, bool) {
	name = strings.ToLower(name)
	for _, b := range p.blocks {
		if b.name == name {
			return b, true
		}
	}
	return nil, false
}

// Blocks returns the package's blocks: defined blocks in definition
// order, then unknown blocks in file order.
func (p *Package) Blocks() []*Block {
	return append([]*Block(nil), p.blocks...)
}

// path addresses an item of the package.
func (p *Package) path(block, item string) Path {
	if p.model != nil {
		return NewPath(p.model.name, p.name, block, item)
	}
	return NewPath(p.name, "", block, item)
}

// Path returns the registry path of an item of the package.
func (p *Package) Path(block, item string) Path {
	return p.path(block, item)
}

func (p *Package) schema(block, item string) (*dfn.Block, *dfn.Item, error) {
	if p.def == nil {
		return nil, nil, fmt.Errorf("%w: raw package %s has no schema", ErrSchema, p.name)
	}
	b, ok := p.def.Block(block)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s has no block %s", ErrSchema, p.ftype, block)
	}
	it, ok := b.Item(item)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s block %s has no item %s", ErrSchema, p.ftype, block, item)
	}
	return b, it, nil
}

func (p *Package) staticSchema(block, item string, kind dfn.Kind) (*dfn.Block, *dfn.Item, error) {
	b, it, err := p.schema(block, item)
	if err != nil {
		return nil, nil, err
	}
	if it.Kind != kind {
		return nil, nil, fmt.Errorf("%w: %s/%s is a %s, not %s", ErrSchema, block, item, it.Kind, kind)
	}
	if b.Transient {
		return nil, nil, fmt.Errorf("%w: block %s is transient; set its items per period", ErrSchema, block)
	}
	return b, it, nil
}

// SetRecord sets a record of a non-transient block.
func (p *Package) SetRecord(block, item string, values ...any) (*RecordItem, error) {
	b, def, err := p.staticSchema(block, item, dfn.KindRecord)
	if err != nil {
		return nil, err
	}
	r, err := NewRecord(def, values...)
	if err != nil {
		return nil, err
	}
	p.sim.registry.Register(p.path(b.Name, def.Name), r)
	return r, nil
}

// Record returns a record of a non-transient block.
func (p *Package) Record(block, item string) (*RecordItem, error) {
	if _, _, err := p.staticSchema(block, item, dfn.KindRecord); err != nil {
		return nil, err
	}
	return p.sim.registry.Record(p.path(block, item))
}

// SetArray sets an array of a non-transient block, creating it if needed.
// See ArrayItem.Set for the value forms.
func (p *Package) SetArray(block, item string, v any) (*ArrayItem, error) {
	b, def, err := p.staticSchema(block, item, dfn.KindArray)
	if err != nil {
		return nil, err
	}
	path := p.path(b.Name, def.Name)
	if a, err := p.sim.registry.Array(path); err == nil {
		return a, a.Set(v)
	}
	it, err := p.newItem(def, p.sim.registry)
	if err != nil {
		return nil, err
	}
	a := it.(*ArrayItem)
	if err := a.Set(v); err != nil {
		return nil, err
	}
	p.sim.registry.Register(path, a)
	return a, nil
}

// NewArrayTemplate registers an array of a non-transient block filled
// with value; see the package-level NewArrayTemplate.
func (p *Package) NewArrayTemplate(block, item string, layered bool, kinds []StorageKind, value float64) (*ArrayItem, error) {
	b, def, err := p.staticSchema(block, item, dfn.KindArray)
	if err != nil {
		return nil, err
	}
	disc, err := p.discretization(p.sim.registry)
	if err != nil {
		return nil, err
	}
	a, err := NewArrayTemplate(def, disc, layered, kinds, value)
	if err != nil {
		return nil, err
	}
	a.bind(p.sim.env)
	p.sim.registry.Register(p.path(b.Name, def.Name), a)
	return a, nil
}

// DefaultArray registers an array of a non-transient block filled with
// the default value of its definition.
func (p *Package) DefaultArray(block, item string, layered bool, kinds []StorageKind) (*ArrayItem, error) {
	_, def, err := p.staticSchema(block, item, dfn.KindArray)
	if err != nil {
		return nil, err
	}
	return p.NewArrayTemplate(block, item, layered, kinds, def.DefaultValue())
}

// Array returns an array of a non-transient block.
func (p *Package) Array(block, item string) (*ArrayItem, error) {
	if _, _, err := p.staticSchema(block, item, dfn.KindArray); err != nil {
		return nil, err
	}
	return p.sim.registry.Array(p.path(block, item))
}

func (p *Package) listSchema(block string) (*dfn.Block, *dfn.Item, error) {
	if p.def == nil {
		return nil, nil, fmt.Errorf("%w: raw package %s has no schema", ErrSchema, p.name)
	}
	b, ok := p.def.Block(block)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s has no block %s", ErrSchema, p.ftype, block)
	}
	l := b.List()
	if l == nil {
		return nil, nil, fmt.Errorf("%w: %s block %s has no list", ErrSchema, p.ftype, block)
	}
	return b, l, nil
}

// SetList sets the list of a non-transient block, creating it if needed.
// See ListItem.Set for the value forms.
func (p *Package) SetList(block string, v any) (*ListItem, error) {
	b, def, err := p.listSchema(block)
	if err != nil {
		return nil, err
	}
	if b.Transient {
		return nil, fmt.Errorf("%w: block %s is transient; set its list per period", ErrSchema, block)
	}
	path := p.path(b.Name, def.Name)
	if l, err := p.sim.registry.List(path); err == nil {
		return l, l.Set(v)
	}
	it, err := p.newItem(def, p.sim.registry)
	if err != nil {
		return nil, err
	}
	l := it.(*ListItem)
	if err := l.Set(v); err != nil {
		return nil, err
	}
	p.sim.registry.Register(path, l)
	return l, nil
}

// List returns the list of a non-transient block.
func (p *Package) List(block string) (*ListItem, error) {
	b, def, err := p.listSchema(block)
	if err != nil {
		return nil, err
	}
	return p.sim.registry.List(p.path(b.Name, def.Name))
}

// Transient returns the per-period container of an item of a transient
// block, creating it if needed.
func (p *Package) Transient(block, item string) (*Transient, error) {
	b, def, err := p.schema(block, item)
	if err != nil {
		return nil, err
	}
	if !b.Transient {
		return nil, fmt.Errorf("%w: block %s is not transient", ErrSchema, block)
	}
	path := p.path(b.Name, def.Name)
	t, err := p.sim.registry.Transient(path)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return t, err
	}
	t = p.newTransient(def)
	p.sim.registry.Register(path, t)
	return t, nil
}

// SetPeriodData sets the value of a transient item for one 0-based period.
func (p *Package) SetPeriodData(block, item string, period int, v any) error {
	t, err := p.Transient(block, item)
	if err != nil {
		return err
	}
	return t.SetData(v, period)
}

// ListShape returns the row layout a new list of block would get: MaxRows
// from the list's bound record, AuxNames from AUXILIARY and HasNames from
// BOUNDNAMES.
func (p *Package) ListShape(block string) (ListShape, error) {
	_, def, err := p.listSchema(block)
	if err != nil {
		return ListShape{}, err
	}
	return p.listShape(def, p.sim.registry), nil
}

func (p *Package) listShape(def *dfn.Item, src itemSource) ListShape {
	var shape ListShape
	if def.Bound != "" {
		if r := p.findRecord(def.Bound, src); r != nil {
			if n, err := r.Int(); err == nil && n > 0 {
				shape.MaxRows = n
			}
		}
	}
	if def.Aux {
		if r := p.findRecord("auxiliary", src); r != nil {
			shape.AuxNames = r.Strings()
		}
		shape.HasNames = p.findRecord("boundnames", src) != nil
	}
	return shape
}

// findRecord returns the record named name in any non-transient block.
func (p *Package) findRecord(name string, src itemSource) *RecordItem {
	for i := range p.def.Blocks {
		b := &p.def.Blocks[i]
		if b.Transient {
			continue
		}
		if it, ok := b.Item(name); ok && it.Kind == dfn.KindRecord {
			if found, ok := src.lookup(p.path(b.Name, it.Name)); ok {
				if r, ok := found.(*RecordItem); ok {
					return r
				}
			}
		}
	}
	return nil
}

func (p *Package) discretization(src itemSource) (Discretization, error) {
	if p.model == nil {
		return nil, fmt.Errorf("%w: simulation package %s has no grid", ErrSchema, p.name)
	}
	return p.model.discretization(src)
}

// newItem builds an empty item for def.
func (p *Package) newItem(def *dfn.Item, src itemSource) (Item, error) {
	var it Item
	switch def.Kind {
	case dfn.KindRecord:
		it = &RecordItem{def: def}
	case dfn.KindArray:
		disc, err := p.discretization(src)
		if err != nil {
			return nil, err
		}
		a, err := newArray(def, disc)
		if err != nil {
			return nil, err
		}
		it = a
	case dfn.KindList:
		var disc Discretization
		if def.CellID {
			var err error
			if disc, err = p.discretization(src); err != nil {
				return nil, err
			}
		}
		l, err := NewList(def, disc, p.listShape(def, src))
		if err != nil {
			return nil, err
		}
		it = l
	default:
		return nil, fmt.Errorf("%w: item %s has kind %v", ErrSchema, def.Name, def.Kind)
	}
	bindItem(it, p.sim.env)
	return it, nil
}

func (p *Package) newTransient(def *dfn.Item) *Transient {
	return NewTransient(def.Name, def.Kind, p.sim.nperBound, func() (Item, error) {
		return p.newItem(def, p.sim.registry)
	})
}
