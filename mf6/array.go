package mf6

import (
	"fmt"
	"math"
	"strings"

	"github.com/robert-malhotra/go-mf6/dfn"
	"github.com/robert-malhotra/go-mf6/internal/binary"
)

// ArrayItem is a grid-shaped numeric array. A layered array holds one
// storage variant per layer; otherwise a single variant covers the whole
// shape.
type ArrayItem struct {
	def     *dfn.Item
	disc    Discretization
	layered bool
	storage []ArrayStorage
	env     *fileEnv
}

func newArray(def *dfn.Item, disc Discretization) (*ArrayItem, error) {
	if def == nil || def.Kind != dfn.KindArray {
		return nil, fmt.Errorf("%w: not an array definition", ErrSchema)
	}
	if _, _, err := shapeOf(disc, def.Shape); err != nil {
		return nil, fmt.Errorf("array %s: %w", def.Name, err)
	}
	return &ArrayItem{def: def, disc: disc, env: defaultEnv()}, nil
}

// NewArray creates an array and sets its value; see Set for the accepted
// value forms.
func NewArray(def *dfn.Item, disc Discretization, value any) (*ArrayItem, error) {
	a, err := newArray(def, disc)
	if err != nil {
		return nil, err
	}
	if err := a.Set(value); err != nil {
		return nil, err
	}
	return a, nil
}

// NewArrayTemplate creates an array filled with value. kinds selects the
// storage of each layer (or of the whole array when not layered); a single
// kind applies to every layer and no kinds means constant. External
// templates get the paths <item>.txt or <item>_layer<k>.txt.
func NewArrayTemplate(def *dfn.Item, disc Discretization, layered bool, kinds []StorageKind, value float64) (*ArrayItem, error) {
	a, err := newArray(def, disc)
	if err != nil {
		return nil, err
	}
	if layered && !a.layerable() {
		return nil, fmt.Errorf("%w: array %s cannot be layered", ErrSchema, a.Name())
	}
	units := 1
	if layered {
		units = a.layerCount()
	}
	if len(kinds) == 0 {
		kinds = []StorageKind{StorageConstant}
	}
	if len(kinds) != 1 && len(kinds) != units {
		return nil, fmt.Errorf("%w: %d storage kinds for %d layers", ErrShapeMismatch, len(kinds), units)
	}
	n := a.unitSize(layered)
	storage := make([]ArrayStorage, units)
	for k := range storage {
		kind := kinds[0]
		if len(kinds) > 1 {
			kind = kinds[k]
		}
		switch kind {
		case StorageConstant:
			storage[k] = NewConstant(value)
		case StorageInternal:
			storage[k] = NewInternal(fill(n, value))
		case StorageExternal:
			e := NewExternal(a.externalName(layered, k))
			e.Values = fill(n, value)
			storage[k] = e
		default:
			return nil, fmt.Errorf("%w: unknown storage kind %v", ErrSchema, kind)
		}
		if err := a.checkIntegral(storage[k]); err != nil {
			return nil, fmt.Errorf("array %s: %w", a.Name(), err)
		}
	}
	a.layered = layered
	a.storage = storage
	return a, nil
}

func (a *ArrayItem) Name() string { return a.def.Name }

func (a *ArrayItem) Kind() dfn.Kind { return dfn.KindArray }

// Schema returns the item definition.
func (a *ArrayItem) Schema() *dfn.Item { return a.def }

// Integer reports whether the array holds integers.
func (a *ArrayItem) Integer() bool { return a.def.Type == dfn.TypeInteger }

// Layered reports whether the array holds one variant per layer.
func (a *ArrayItem) Layered() bool { return a.layered }

// IsSet reports whether any storage has been assigned.
func (a *ArrayItem) IsSet() bool { return len(a.storage) > 0 }

// Len returns the element count of the whole array.
func (a *ArrayItem) Len() int { return a.unitSize(false) }

// Storage returns the storage variants in layer order. The variants are
// shared with the item.
func (a *ArrayItem) Storage() []ArrayStorage {
	return append([]ArrayStorage(nil), a.storage...)
}

// Set replaces the array's storage.
//
// A scalar becomes a Constant, a []float64 or []int an Internal, an
// ExternalSpec an External, and an ArrayStorage is used as is. Per-layer
// input ([][]float64, [][]int, []ArrayStorage or []any of the former
// forms) must have one entry per layer and makes the array layered; any
// other form makes it non-layered. The array is unchanged on error.
func (a *ArrayItem) Set(v any) error {
	layered, storage, err := a.convert(v)
	if err != nil {
		return fmt.Errorf("array %s: %w", a.Name(), err)
	}
	a.layered = layered
	a.storage = storage
	return nil
}

func (a *ArrayItem) convert(v any) (bool, []ArrayStorage, error) {
	var parts []any
	switch x := v.(type) {
	case [][]float64:
		for _, p := range x {
			parts = append(parts, p)
		}
	case [][]int:
		for _, p := range x {
			parts = append(parts, p)
		}
	case []ArrayStorage:
		for _, p := range x {
			parts = append(parts, p)
		}
	case []any:
		parts = x
	default:
		s, err := a.convertUnit(v, a.unitSize(false))
		if err != nil {
			return false, nil, err
		}
		return false, []ArrayStorage{s}, nil
	}
	if !a.layerable() {
		return false, nil, fmt.Errorf("%w: per-layer input for a non-layered array", ErrSchema)
	}
	if len(parts) != a.layerCount() {
		return false, nil, fmt.Errorf("%w: %d layers given, grid has %d", ErrShapeMismatch, len(parts), a.layerCount())
	}
	n := a.unitSize(true)
	storage := make([]ArrayStorage, len(parts))
	for k, p := range parts {
		s, err := a.convertUnit(p, n)
		if err != nil {
			return false, nil, fmt.Errorf("layer %d: %w", k+1, err)
		}
		storage[k] = s
	}
	return true, storage, nil
}

// convertUnit builds the variant for one storage unit of n elements.
func (a *ArrayItem) convertUnit(v any, n int) (ArrayStorage, error) {
	s, err := a.storageFor(v, n)
	if err != nil {
		return nil, err
	}
	if err := a.checkIntegral(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *ArrayItem) storageFor(v any, n int) (ArrayStorage, error) {
	count := func(got int) error {
		if got != n {
			return fmt.Errorf("%w: %d values, expected %d", ErrShapeMismatch, got, n)
		}
		return nil
	}
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrSchema)
	case float64:
		return NewConstant(x), nil
	case float32:
		return NewConstant(float64(x)), nil
	case int:
		return NewConstant(float64(x)), nil
	case int32:
		return NewConstant(float64(x)), nil
	case int64:
		return NewConstant(float64(x)), nil
	case []float64:
		if err := count(len(x)); err != nil {
			return nil, err
		}
		return NewInternal(x), nil
	case []int:
		if err := count(len(x)); err != nil {
			return nil, err
		}
		vals := make([]float64, len(x))
		for i, iv := range x {
			vals[i] = float64(iv)
		}
		return &Internal{Values: vals, Factor: 1, PrintCode: NoPrintCode}, nil
	case ExternalSpec:
		return a.storageFor(x.storage(), n)
	case *ExternalSpec:
		return a.storageFor(x.storage(), n)
	case *Constant:
		return x, nil
	case *Internal:
		if err := count(len(x.Values)); err != nil {
			return nil, err
		}
		return x, nil
	case *External:
		if x.Path == "" {
			return nil, fmt.Errorf("%w: external reference without path", ErrSchema)
		}
		if x.Values != nil {
			if err := count(len(x.Values)); err != nil {
				return nil, err
			}
		}
		return x, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrSchema, v)
	}
}

// checkIntegral rejects fractional values and factors on integer arrays;
// the file holds both as integers.
func (a *ArrayItem) checkIntegral(s ArrayStorage) error {
	if !a.Integer() {
		return nil
	}
	if f := factorOf(s); !isIntegral(f) {
		return fmt.Errorf("%w: factor %g on integer array", ErrSchema, f)
	}
	var vals []float64
	switch v := s.(type) {
	case *Constant:
		vals = []float64{v.Value}
	case *Internal:
		vals = v.Values
	case *External:
		vals = v.Values
	}
	for _, x := range vals {
		if !isIntegral(x) {
			return fmt.Errorf("%w: value %g in integer array", ErrSchema, x)
		}
	}
	return nil
}

func isIntegral(x float64) bool {
	return x == math.Trunc(x) && !math.IsInf(x, 0)
}

// Raw returns a copy of the stored values in layer order, without factors.
func (a *ArrayItem) Raw() ([]float64, error) {
	return a.collect(false)
}

// Values returns a copy of the effective values: each layer's raw values
// times its factor, concatenated in layer order.
func (a *ArrayItem) Values() ([]float64, error) {
	return a.collect(true)
}

func (a *ArrayItem) collect(effective bool) ([]float64, error) {
	if len(a.storage) == 0 {
		return nil, fmt.Errorf("%w: array %s has no values", ErrNotFound, a.Name())
	}
	out := make([]float64, 0, a.unitSize(false))
	for k := range a.storage {
		vals, err := a.unitValues(k, effective)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

func (a *ArrayItem) unitValues(k int, effective bool) ([]float64, error) {
	s := a.storage[k]
	var raw []float64
	switch v := s.(type) {
	case *Constant:
		raw = fill(a.unitSize(a.layered), v.Value)
	case *Internal:
		raw = append([]float64(nil), v.Values...)
	case *External:
		vals, err := a.external(v, k)
		if err != nil {
			return nil, err
		}
		raw = append([]float64(nil), vals...)
	default:
		panic(fmt.Sprintf("mf6: unknown array storage %T", s))
	}
	if effective {
		f := factorOf(s)
		for i := range raw {
			raw[i] *= f
		}
	}
	return raw, nil
}

// external returns the values behind an external reference, reading and
// caching the file on first use.
func (a *ArrayItem) external(e *External, k int) ([]float64, error) {
	if e.Values != nil {
		return e.Values, nil
	}
	if e.cache != nil {
		return e.cache, nil
	}
	vals, err := a.env.readArray(e, a.unitSize(a.layered), a.Integer())
	if err != nil {
		return nil, fmt.Errorf("array %s: %w", a.Name(), err)
	}
	e.cache = vals
	return vals, nil
}

// Slice returns effective values [start, end) of a non-layered array.
func (a *ArrayItem) Slice(start, end int) ([]float64, error) {
	if a.layered {
		return nil, fmt.Errorf("%w: slicing layered array %s", ErrSchema, a.Name())
	}
	vals, err := a.Values()
	if err != nil {
		return nil, err
	}
	if start < 0 || end > len(vals) || start > end {
		return nil, fmt.Errorf("%w: [%d:%d] of %d values", ErrIndex, start, end, len(vals))
	}
	return vals[start:end], nil
}

// Layer returns a handle to storage unit k: a layer of a layered array, or
// the single variant (k == 0) of a non-layered one.
func (a *ArrayItem) Layer(k int) (*LayerHandle, error) {
	if k < 0 || k >= len(a.storage) {
		return nil, fmt.Errorf("%w: layer %d of %d in array %s", ErrIndex, k, len(a.storage), a.Name())
	}
	return &LayerHandle{a: a, k: k}, nil
}

// layerable reports whether the array accepts one variant per layer.
func (a *ArrayItem) layerable() bool {
	return a.def.Layered && a.def.Shape == dfn.ShapeGrid
}

func (a *ArrayItem) layerCount() int {
	layers, _, _ := shapeOf(a.disc, a.def.Shape)
	return layers
}

// unitSize is the element count of one storage unit.
func (a *ArrayItem) unitSize(layered bool) int {
	layers, perLayer, _ := shapeOf(a.disc, a.def.Shape)
	if layered {
		return perLayer
	}
	return layers * perLayer
}

func (a *ArrayItem) externalName(layered bool, k int) string {
	if layered {
		return fmt.Sprintf("%s_layer%d.txt", a.Name(), k+1)
	}
	return a.Name() + ".txt"
}

// records returns the binary headers of storage unit k, one per layer it
// covers.
func (a *ArrayItem) records(k, kper int) []binary.Header {
	_, rows, cols := a.disc.GridDimensions()
	m1, m2 := rows, 1
	if cols > 0 {
		m1, m2 = cols, rows
	}
	switch a.def.Shape {
	case dfn.ShapeCols:
		m1, m2 = cols, 1
	case dfn.ShapeRows:
		m1, m2 = rows, 1
	}
	first, n := 0, 1
	switch {
	case a.def.Shape != dfn.ShapeGrid:
	case a.layered:
		first = k
	default:
		n = a.layerCount()
	}
	out := make([]binary.Header, n)
	for i := range out {
		out[i] = binary.Header{
			Kstp: 1,
			Kper: int32(kper + 1),
			Text: strings.ToUpper(a.Name()),
			M1:   int32(m1),
			M2:   int32(m2),
			M3:   int32(first + i + 1),
		}
	}
	return out
}

func (a *ArrayItem) bind(env *fileEnv) {
	a.env = env
}

// LayerHandle addresses one storage unit of an ArrayItem.
type LayerHandle struct {
	a *ArrayItem
	k int
}

// Storage returns the unit's variant.
func (h *LayerHandle) Storage() ArrayStorage {
	return h.a.storage[h.k]
}

func (h *LayerHandle) Factor() float64 {
	return factorOf(h.Storage())
}

// SetFactor sets the unit's factor. Integer arrays take integral factors
// only.
func (h *LayerHandle) SetFactor(f float64) error {
	if h.a.Integer() && !isIntegral(f) {
		return fmt.Errorf("array %s layer %d: %w: factor %g on integer array", h.a.Name(), h.k+1, ErrSchema, f)
	}
	setFactor(h.Storage(), f)
	return nil
}

func (h *LayerHandle) PrintCode() int {
	return printCodeOf(h.Storage())
}

func (h *LayerHandle) SetPrintCode(code int) {
	setPrintCode(h.Storage(), code)
}

// SetRaw replaces the unit's variant; v takes the non-nested forms
// accepted by ArrayItem.Set.
func (h *LayerHandle) SetRaw(v any) error {
	s, err := h.a.convertUnit(v, h.a.unitSize(h.a.layered))
	if err != nil {
		return fmt.Errorf("array %s layer %d: %w", h.a.Name(), h.k+1, err)
	}
	h.a.storage[h.k] = s
	return nil
}

func (h *LayerHandle) Raw() ([]float64, error) {
	return h.a.unitValues(h.k, false)
}

func (h *LayerHandle) Values() ([]float64, error) {
	return h.a.unitValues(h.k, true)
}
