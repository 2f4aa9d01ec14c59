// Package dfn describes the blocks and items of MODFLOW 6 input packages.
//
// A definition tells the codec which blocks a package file may contain,
// which items each block holds, and how every item is typed and shaped.
// Definitions are plain data: the core consumes them through [Catalog] and
// never hard-codes package layouts. [Default] returns a catalog built from
// the definitions embedded in this package; [Load] reads additional ones.
package dfn

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the structural category of an item.
type Kind int

const (
	KindRecord Kind = iota // keyword line: NLAY 2, SAVE_FLOWS
	KindArray              // grid-shaped numeric array
	KindList               // rows of typed fields
)

var kindNames = map[Kind]string{
	KindRecord: "record",
	KindArray:  "array",
	KindList:   "list",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// UnmarshalYAML decodes a kind name.
func (k *Kind) UnmarshalYAML(n *yaml.Node) error {
	return decodeEnum(n, kindNames, k)
}

// Type is the value type of a field or array element.
type Type int

const (
	TypeString Type = iota
	TypeDouble
	TypeInteger
	TypeKeyword // literal word matched case-insensitively against Field.Name
)

var typeNames = map[Type]string{
	TypeString:  "string",
	TypeDouble:  "double",
	TypeInteger: "integer",
	TypeKeyword: "keyword",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// Numeric reports whether values of the type are numbers.
func (t Type) Numeric() bool {
	return t == TypeDouble || t == TypeInteger
}

// UnmarshalYAML decodes a type name.
func (t *Type) UnmarshalYAML(n *yaml.Node) error {
	return decodeEnum(n, typeNames, t)
}

// Shape names the grid dimensions an array spans.
type Shape int

const (
	ShapeNone  Shape = iota
	ShapeGrid        // every cell of every layer; may be LAYERED
	ShapeLayer       // one value per cell of a single layer
	ShapeCols        // one value per column (structured grids)
	ShapeRows        // one value per row (structured grids)
)

var shapeNames = map[Shape]string{
	ShapeNone:  "none",
	ShapeGrid:  "grid",
	ShapeLayer: "layer",
	ShapeCols:  "ncol",
	ShapeRows:  "nrow",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return "shape(" + strconv.Itoa(int(s)) + ")"
}

// UnmarshalYAML decodes a shape name.
func (s *Shape) UnmarshalYAML(n *yaml.Node) error {
	return decodeEnum(n, shapeNames, s)
}

func decodeEnum[T comparable](n *yaml.Node, names map[T]string, dst *T) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range names {
		if name == s {
			*dst = v
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown value %q", n.Line, s)
}

// Field is one column of a list row or one value of a record.
type Field struct {
	Name     string `yaml:"name"`
	Type     Type   `yaml:"type"`
	Optional bool   `yaml:"optional"` // may be omitted at the end of a line
	Variadic bool   `yaml:"variadic"` // absorbs the remaining tokens; last field only
}

// Item declares one named quantity of a block.
type Item struct {
	Name     string  `yaml:"name"`
	Kind     Kind    `yaml:"kind"`
	Type     Type    `yaml:"type"`     // element type of arrays
	Shape    Shape   `yaml:"shape"`    // arrays only
	Layered  bool    `yaml:"layered"`  // array may be given one control record per layer
	CellID   bool    `yaml:"cellid"`   // list rows start with a cell address
	Aux      bool    `yaml:"aux"`      // list rows carry package aux values and boundnames
	Bound    string  `yaml:"bound"`    // record item in the package giving the list capacity
	Fields   []Field `yaml:"fields"`   // list columns or record values
	Required bool    `yaml:"required"` // must be present in its block
	Default  string  `yaml:"default"`
}

// DefaultValue returns the numeric default of an array item, 0 if unset.
func (it *Item) DefaultValue() float64 {
	if it.Default == "" {
		return 0
	}
	v, err := strconv.ParseFloat(it.Default, 64)
	if err != nil {
		return 0
	}
	return v
}

// NumericFields returns how many fields of a list row are numeric.
func (it *Item) NumericFields() int {
	n := 0
	for _, f := range it.Fields {
		if f.Type.Numeric() {
			n++
		}
	}
	return n
}

// Block declares one BEGIN/END section of a package file.
type Block struct {
	Name      string `yaml:"name"`
	Transient bool   `yaml:"transient"` // repeated per stress period: BEGIN PERIOD n
	Required  bool   `yaml:"required"`
	Items     []Item `yaml:"items"`

	index map[string]*Item
	list  *Item
}

// Item returns the item declared under name (case-insensitive).
func (b *Block) Item(name string) (*Item, bool) {
	if b.index == nil {
		b.buildIndex()
	}
	it, ok := b.index[strings.ToLower(name)]
	return it, ok
}

// List returns the block's keyless list item, or nil if it has none.
func (b *Block) List() *Item {
	if b.index == nil {
		b.buildIndex()
	}
	return b.list
}

func (b *Block) buildIndex() {
	b.index = make(map[string]*Item, len(b.Items))
	for i := range b.Items {
		it := &b.Items[i]
		b.index[strings.ToLower(it.Name)] = it
		if it.Kind == KindList && b.list == nil {
			b.list = it
		}
	}
}

// Package declares all blocks of one package type.
type Package struct {
	Name   string  `yaml:"name"` // file type without the version suffix: dis, wel, gwf-nam
	Blocks []Block `yaml:"blocks"`

	index map[string]*Block
}

// Index builds the block and item lookup tables. It is called by the
// loaders; callers constructing a Package by hand should call it once
// before sharing the value.
func (p *Package) Index() {
	p.index = make(map[string]*Block, len(p.Blocks))
	for i := range p.Blocks {
		b := &p.Blocks[i]
		b.buildIndex()
		p.index[strings.ToLower(b.Name)] = b
	}
}

// Block returns the block declared under name (case-insensitive).
func (p *Package) Block(name string) (*Block, bool) {
	if p.index == nil {
		p.Index()
	}
	b, ok := p.index[strings.ToLower(name)]
	return b, ok
}

// Validate checks internal consistency of the definition.
func (p *Package) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("package definition without name")
	}
	seen := make(map[string]bool)
	for i := range p.Blocks {
		b := &p.Blocks[i]
		key := strings.ToLower(b.Name)
		if seen[key] {
			return fmt.Errorf("%s: duplicate block %q", p.Name, b.Name)
		}
		seen[key] = true
		lists := 0
		items := make(map[string]bool)
		for j := range b.Items {
			it := &b.Items[j]
			if items[strings.ToLower(it.Name)] {
				return fmt.Errorf("%s/%s: duplicate item %q", p.Name, b.Name, it.Name)
			}
			items[strings.ToLower(it.Name)] = true
			switch it.Kind {
			case KindList:
				lists++
			case KindArray:
				if it.Shape == ShapeNone {
					return fmt.Errorf("%s/%s/%s: array without shape", p.Name, b.Name, it.Name)
				}
				if it.Layered && it.Shape != ShapeGrid {
					return fmt.Errorf("%s/%s/%s: only grid arrays can be layered", p.Name, b.Name, it.Name)
				}
			}
			for k, f := range it.Fields {
				if f.Variadic && k != len(it.Fields)-1 {
					return fmt.Errorf("%s/%s/%s: variadic field %q is not last", p.Name, b.Name, it.Name, f.Name)
				}
			}
		}
		if lists > 1 {
			return fmt.Errorf("%s/%s: more than one list item", p.Name, b.Name)
		}
	}
	return nil
}

// Catalog supplies package definitions by file type.
type Catalog interface {
	Package(ftype string) (*Package, bool)
}
