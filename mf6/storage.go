package mf6

import "fmt"

// StorageKind names a storage variant.
type StorageKind int

const (
	StorageConstant StorageKind = iota
	StorageInternal
	StorageExternal
)

func (k StorageKind) String() string {
	switch k {
	case StorageConstant:
		return "constant"
	case StorageInternal:
		return "internal"
	case StorageExternal:
		return "external"
	default:
		return fmt.Sprintf("storage(%d)", int(k))
	}
}

// NoPrintCode leaves IPRN off the control record.
const NoPrintCode = -1

// ArrayStorage is one physical representation of array values: *Constant,
// *Internal or *External.
type ArrayStorage interface {
	Kind() StorageKind
	arrayStorage()
}

// Constant broadcasts one value over its shape.
type Constant struct {
	Value float64
	// Factor is not kept in the file: CONSTANT is written with
	// Value*Factor and reads back with Factor 1.
	Factor    float64
	PrintCode int
}

// Internal holds values inline in the package file.
type Internal struct {
	Values    []float64
	Factor    float64
	PrintCode int
}

// External keeps values in a separate file, relative to the simulation root.
//
// When Values is non-nil the file is written from it on serialization.
// Otherwise the file is read on first access and the values cached in the
// variant; replacing the variant is the only way to drop the cache.
type External struct {
	Path      string
	Binary    bool
	Factor    float64
	PrintCode int
	Values    []float64

	cache []float64
}

// NewConstant returns a constant variant with unit factor.
func NewConstant(v float64) *Constant {
	return &Constant{Value: v, Factor: 1, PrintCode: NoPrintCode}
}

// NewInternal returns an inline variant holding a copy of values.
func NewInternal(values []float64) *Internal {
	return &Internal{Values: append([]float64(nil), values...), Factor: 1, PrintCode: NoPrintCode}
}

// NewExternal returns a text external reference to path.
func NewExternal(path string) *External {
	return &External{Path: path, Factor: 1, PrintCode: NoPrintCode}
}

func (*Constant) Kind() StorageKind { return StorageConstant }
func (*Internal) Kind() StorageKind { return StorageInternal }
func (*External) Kind() StorageKind { return StorageExternal }

func (*Constant) arrayStorage() {}
func (*Internal) arrayStorage() {}
func (*External) arrayStorage() {}

// ExternalSpec describes an external array reference for ArrayItem.Set.
// A zero Factor means 1; a nil PrintCode omits IPRN.
type ExternalSpec struct {
	Path      string
	Binary    bool
	Factor    float64
	PrintCode *int
	Values    []float64
}

func (s ExternalSpec) storage() *External {
	e := NewExternal(s.Path)
	e.Binary = s.Binary
	if s.Factor != 0 {
		e.Factor = s.Factor
	}
	if s.PrintCode != nil {
		e.PrintCode = *s.PrintCode
	}
	if s.Values != nil {
		e.Values = append([]float64(nil), s.Values...)
	}
	return e
}

func factorOf(s ArrayStorage) float64 {
	switch v := s.(type) {
	case *Constant:
		return v.Factor
	case *Internal:
		return v.Factor
	case *External:
		return v.Factor
	default:
		panic(fmt.Sprintf("mf6: unknown array storage %T", s))
	}
}

func setFactor(s ArrayStorage, f float64) {
	switch v := s.(type) {
	case *Constant:
		v.Factor = f
	case *Internal:
		v.Factor = f
	case *External:
		v.Factor = f
	default:
		panic(fmt.Sprintf("mf6: unknown array storage %T", s))
	}
}

func printCodeOf(s ArrayStorage) int {
	switch v := s.(type) {
	case *Constant:
		return v.PrintCode
	case *Internal:
		return v.PrintCode
	case *External:
		return v.PrintCode
	default:
		panic(fmt.Sprintf("mf6: unknown array storage %T", s))
	}
}

func setPrintCode(s ArrayStorage, code int) {
	switch v := s.(type) {
	case *Constant:
		v.PrintCode = code
	case *Internal:
		v.PrintCode = code
	case *External:
		v.PrintCode = code
	default:
		panic(fmt.Sprintf("mf6: unknown array storage %T", s))
	}
}

// ListStorage is one physical representation of list rows: *InternalList or
// *ExternalList.
type ListStorage interface {
	Kind() StorageKind
	listStorage()
}

// InternalList holds rows inline in the package file.
type InternalList struct {
	Rows []Row
}

// ExternalList keeps rows in a separate file, relative to the simulation
// root. Rows non-nil means the file is written on serialization; otherwise
// it is read on first access and cached.
type ExternalList struct {
	Path   string
	Binary bool
	Rows   []Row

	cache  []Row
	loaded bool
}

// ExternalListSpec describes an external list reference for ListItem.Set.
type ExternalListSpec struct {
	Path   string
	Binary bool
	Rows   []Row
}

func (*InternalList) Kind() StorageKind { return StorageInternal }
func (*ExternalList) Kind() StorageKind { return StorageExternal }

func (*InternalList) listStorage() {}
func (*ExternalList) listStorage() {}
