package mf6

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-mf6/dfn"
)

// Block is one BEGIN/END section of a package. A block unknown to the
// package definition is kept verbatim.
type Block struct {
	name   string
	def    *dfn.Block // nil for unknown blocks
	pkg    *Package
	suffix string

	// pass-through lines; for unknown blocks the whole body
	extra       []string
	periodExtra map[int][]string
	periods     map[int]bool // periods declared by BEGIN PERIOD n

	header, footer string // verbatim BEGIN and END lines of unknown blocks
}

func newBlock(pkg *Package, def *dfn.Block) *Block {
	return &Block{
		name:        strings.ToLower(def.Name),
		def:         def,
		pkg:         pkg,
		periodExtra: make(map[int][]string),
		periods:     make(map[int]bool),
	}
}

func (b *Block) Name() string { return b.name }

// Schema returns the block definition, nil for unknown blocks.
func (b *Block) Schema() *dfn.Block { return b.def }

// Known reports whether the package definition declares the block.
func (b *Block) Known() bool { return b.def != nil }

// Transient reports whether the block repeats per stress period.
func (b *Block) Transient() bool { return b.def != nil && b.def.Transient }

// Suffix returns the words after the block name on the BEGIN line, as in
// BEGIN SOLUTIONGROUP 1.
func (b *Block) Suffix() string { return b.suffix }

func (b *Block) SetSuffix(s string) { b.suffix = s }

// Items returns the block's present items in definition order. Items of a
// transient block are *Transient containers.
func (b *Block) Items() []Item {
	if b.def == nil {
		return nil
	}
	var out []Item
	for i := range b.def.Items {
		path := b.pkg.path(b.name, b.def.Items[i].Name)
		if it, ok := b.pkg.sim.registry.lookup(path); ok {
			out = append(out, it)
		}
	}
	return out
}

// Item returns the item registered under name.
func (b *Block) Item(name string) (Item, error) {
	if b.def == nil {
		return nil, fmt.Errorf("%w: block %s is not defined", ErrSchema, b.name)
	}
	if _, ok := b.def.Item(name); !ok {
		return nil, fmt.Errorf("%w: block %s has no item %s", ErrSchema, b.name, name)
	}
	return b.pkg.sim.registry.Lookup(b.pkg.path(b.name, name))
}

// Passthrough returns the lines kept verbatim: unrecognized keywords of a
// known block, or the body of an unknown one.
func (b *Block) Passthrough() []string {
	return append([]string(nil), b.extra...)
}

// PeriodPassthrough returns the verbatim lines of one period of a
// transient block.
func (b *Block) PeriodPassthrough(period int) []string {
	return append([]string(nil), b.periodExtra[period]...)
}

// Periods returns the periods a transient block is written for: those
// holding data and those declared in the file, ascending. In a block with
// a list, a declared period whose list entry was deleted is left out
// together with its pass-through lines, since an empty period block reads
// back as "off".
func (b *Block) Periods() []int {
	if !b.Transient() {
		return nil
	}
	def := b.def.List()
	var list *Transient
	if def != nil {
		if it, ok := b.pkg.sim.registry.lookup(b.pkg.path(b.name, def.Name)); ok {
			list, _ = it.(*Transient)
		}
	}
	set := make(map[int]bool, len(b.periods))
	for p := range b.periods {
		if def == nil || (list != nil && list.Has(p)) {
			set[p] = true
		}
	}
	for _, it := range b.Items() {
		if t, ok := it.(*Transient); ok {
			for _, p := range t.Periods() {
				set[p] = true
			}
		}
	}
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
