package mf6

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-mf6/dfn"
	"github.com/robert-malhotra/go-mf6/internal/binary"
)

func itemDef(t *testing.T, ftype, block, item string) *dfn.Item {
	t.Helper()
	pkg, ok := dfn.Default().Package(ftype)
	require.True(t, ok, ftype)
	b, ok := pkg.Block(block)
	require.True(t, ok, block)
	it, ok := b.Item(item)
	require.True(t, ok, item)
	return it
}

func TestLayeredTemplateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, m := newTestSim(t, dir, 1, 2, 2, 5)
	npf, err := m.AddPackage("npf", "")
	require.NoError(t, err)

	k, err := npf.NewArrayTemplate("griddata", "k", true, []StorageKind{StorageInternal, StorageConstant}, 100)
	require.NoError(t, err)
	layer, err := k.Layer(0)
	require.NoError(t, err)
	require.NoError(t, layer.SetRaw(seq(10, 1)))

	want := append(seq(10, 1), fill(10, 100)...)
	got, err := k.Values()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Write())
	text := readFile(t, dir, "gwf.npf")
	assert.Contains(t, text, "  K LAYERED\n    INTERNAL\n      1 2 3 4 5 6 7 8 9 10\n    CONSTANT 100\n")

	s2, err := Load(dir)
	require.NoError(t, err)
	m2, err := s2.Model("gwf")
	require.NoError(t, err)
	npf2, err := m2.Package("npf")
	require.NoError(t, err)
	k2, err := npf2.Array("griddata", "k")
	require.NoError(t, err)

	assert.True(t, k2.Layered())
	storage := k2.Storage()
	require.Len(t, storage, 2)
	assert.Equal(t, StorageInternal, storage[0].Kind())
	assert.Equal(t, StorageConstant, storage[1].Kind())
	got, err = k2.Values()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestArrayTemplateKinds(t *testing.T) {
	def := itemDef(t, "npf", "griddata", "k")
	grid := StructuredGrid(3, 2, 2)

	a, err := NewArrayTemplate(def, grid, true, []StorageKind{StorageExternal}, 1.5)
	require.NoError(t, err)
	for k, s := range a.Storage() {
		e, ok := s.(*External)
		require.True(t, ok)
		assert.Equal(t, []string{"k_layer1.txt", "k_layer2.txt", "k_layer3.txt"}[k], e.Path)
		assert.Equal(t, fill(4, 1.5), e.Values)
	}

	a, err = NewArrayTemplate(def, grid, false, []StorageKind{StorageExternal}, 0)
	require.NoError(t, err)
	assert.Equal(t, "k.txt", a.Storage()[0].(*External).Path)

	_, err = NewArrayTemplate(def, grid, true, []StorageKind{StorageConstant, StorageInternal}, 0)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	top := itemDef(t, "dis", "griddata", "top")
	_, err = NewArrayTemplate(top, grid, true, nil, 0)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestDefaultArray(t *testing.T) {
	_, m := newTestSim(t, t.TempDir(), 1, 2, 2, 2)
	npf, err := m.AddPackage("npf", "")
	require.NoError(t, err)

	k, err := npf.DefaultArray("griddata", "k", true, nil)
	require.NoError(t, err)
	vals, err := k.Values()
	require.NoError(t, err)
	assert.Equal(t, fill(8, 1), vals)
	assert.True(t, k.Layered())

	cells, err := npf.DefaultArray("griddata", "icelltype", false, []StorageKind{StorageInternal})
	require.NoError(t, err)
	assert.Equal(t, &Internal{Values: fill(8, 0), Factor: 1, PrintCode: NoPrintCode}, cells.Storage()[0])
	got, err := npf.Array("griddata", "icelltype")
	require.NoError(t, err)
	assert.Same(t, cells, got)

	_, err = npf.DefaultArray("griddata", "missing", false, nil)
	assert.ErrorIs(t, err, ErrSchema)
	_, err = npf.NewArrayTemplate("griddata", "icelltype", false, nil, 0.5)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestArrayFactor(t *testing.T) {
	def := itemDef(t, "npf", "griddata", "k")
	a, err := NewArray(def, StructuredGrid(1, 2, 3), &Internal{Values: seq(6, 1), Factor: 3, PrintCode: NoPrintCode})
	require.NoError(t, err)

	raw, err := a.Raw()
	require.NoError(t, err)
	assert.Equal(t, seq(6, 1), raw)
	vals, err := a.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6, 9, 12, 15, 18}, vals)

	h, err := a.Layer(0)
	require.NoError(t, err)
	require.NoError(t, h.SetFactor(0.5))
	assert.Equal(t, 0.5, h.Factor())
	vals, err = h.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2, 2.5, 3}, vals)

	part, err := a.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.5}, part)
	_, err = a.Slice(4, 7)
	assert.ErrorIs(t, err, ErrIndex)
}

func TestArrayIntegerFactor(t *testing.T) {
	dir := t.TempDir()
	s, m := newTestSim(t, dir, 1, 1, 2, 2)
	npf, err := m.AddPackage("npf", "")
	require.NoError(t, err)
	_, err = npf.SetArray("griddata", "k", 1.0)
	require.NoError(t, err)
	cells, err := npf.SetArray("griddata", "icelltype", &Internal{Values: []float64{1, 2, 3, 4}, Factor: 2, PrintCode: NoPrintCode})
	require.NoError(t, err)

	for name, v := range map[string]any{
		"fractional factor":   &Internal{Values: []float64{2, 4, 6, 8}, Factor: 0.5, PrintCode: NoPrintCode},
		"fractional values":   []float64{1.5, 2, 3, 4},
		"fractional constant": 0.25,
		"constant factor":     &Constant{Value: 4, Factor: 0.5, PrintCode: NoPrintCode},
	} {
		assert.ErrorIs(t, cells.Set(v), ErrSchema, name)
	}
	h, err := cells.Layer(0)
	require.NoError(t, err)
	assert.ErrorIs(t, h.SetFactor(0.5), ErrSchema)
	assert.ErrorIs(t, h.SetRaw([]float64{0.5, 1, 1, 1}), ErrSchema)
	assert.Equal(t, 2.0, h.Factor())

	require.NoError(t, s.Write())
	text := readFile(t, dir, "gwf.npf")
	assert.Contains(t, text, "  ICELLTYPE\n    INTERNAL FACTOR 2\n      1 2 3 4\n")

	s2, err := Load(dir)
	require.NoError(t, err)
	m2, _ := s2.Model("gwf")
	npf2, err := m2.Package("npf")
	require.NoError(t, err)
	loaded, err := npf2.Array("griddata", "icelltype")
	require.NoError(t, err)
	raw, err := loaded.Raw()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, raw)
	vals, err := loaded.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6, 8}, vals)

	// storage mutated after Set is checked again on write
	h.Storage().(*Internal).Factor = 0.5
	assert.ErrorIs(t, s.Write(), ErrSchema)

	writeFiles(t, dir, map[string]string{"gwf.npf": strings.Replace(text, "FACTOR 2", "FACTOR 0.5", 1)})
	_, err = Load(dir)
	var fe *FormatError
	require.True(t, errors.As(err, &fe), "%v", err)
	assert.Equal(t, "0.5", fe.Token)
}

func TestArrayShapeMismatch(t *testing.T) {
	def := itemDef(t, "npf", "griddata", "k")
	a, err := NewArray(def, StructuredGrid(2, 2, 5), 1.0)
	require.NoError(t, err)

	err = a.Set(seq(19, 0))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	err = a.Set([][]float64{seq(10, 0), seq(10, 0), seq(10, 0)})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	err = a.Set([][]float64{seq(10, 0), seq(9, 0)})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	err = a.Set("one")
	assert.ErrorIs(t, err, ErrSchema)

	// failed sets leave the array alone
	vals, err := a.Values()
	require.NoError(t, err)
	assert.Equal(t, fill(20, 1), vals)
	assert.False(t, a.Layered())

	_, err = a.Layer(1)
	assert.ErrorIs(t, err, ErrIndex)

	top, err := NewArray(itemDef(t, "dis", "griddata", "top"), StructuredGrid(2, 2, 5), 0.0)
	require.NoError(t, err)
	assert.Equal(t, 10, top.Len())
	err = top.Set([][]float64{seq(10, 0), seq(10, 0)})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestArrayShapeNeedsGrid(t *testing.T) {
	_, err := NewArray(itemDef(t, "dis", "griddata", "delr"), VertexGrid(1, 4), 1.0)
	assert.ErrorIs(t, err, ErrSchema)
	_, err = NewArray(itemDef(t, "npf", "griddata", "k"), nil, 1.0)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestConstantFactorWrittenAsEffectiveValue(t *testing.T) {
	dir := t.TempDir()
	s, m := newTestSim(t, dir, 1, 1, 2, 2)
	dis, err := m.Package("dis")
	require.NoError(t, err)
	_, err = dis.SetArray("griddata", "top", &Constant{Value: 2, Factor: 5, PrintCode: NoPrintCode})
	require.NoError(t, err)
	require.NoError(t, s.Write())
	assert.Contains(t, readFile(t, dir, "gwf.dis"), "  TOP\n    CONSTANT 10\n")

	s2, err := Load(dir)
	require.NoError(t, err)
	m2, _ := s2.Model("gwf")
	dis2, _ := m2.Package("dis")
	top, err := dis2.Array("griddata", "top")
	require.NoError(t, err)
	h, err := top.Layer(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, h.Factor())
	vals, err := top.Values()
	require.NoError(t, err)
	assert.Equal(t, fill(4, 10), vals)
}

func TestExternalTextRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, m := newTestSim(t, dir, 1, 2, 2, 5)
	npf, err := m.AddPackage("npf", "")
	require.NoError(t, err)
	_, err = npf.SetArray("griddata", "k", []any{
		ExternalSpec{Path: "data/k_l1.txt", Factor: 2, Values: seq(10, 1)},
		5.0,
	})
	require.NoError(t, err)
	require.NoError(t, s.Write())

	assert.Equal(t, "1 2 3 4 5 6 7 8 9 10\n", readFile(t, dir, "data/k_l1.txt"))
	assert.Contains(t, readFile(t, dir, "gwf.npf"), "    OPEN/CLOSE data/k_l1.txt FACTOR 2\n")

	s2, err := Load(dir)
	require.NoError(t, err)
	m2, _ := s2.Model("gwf")
	npf2, _ := m2.Package("npf")
	k, err := npf2.Array("griddata", "k")
	require.NoError(t, err)

	e, ok := k.Storage()[0].(*External)
	require.True(t, ok)
	assert.Equal(t, "data/k_l1.txt", e.Path)
	assert.Equal(t, 2.0, e.Factor)
	assert.False(t, e.Binary)

	raw, err := k.Raw()
	require.NoError(t, err)
	assert.Equal(t, append(seq(10, 1), fill(10, 5)...), raw)
	h, err := k.Layer(0)
	require.NoError(t, err)
	vals, err := h.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}, vals)
}

func TestExternalBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, m := newTestSim(t, dir, 1, 2, 2, 5)
	npf, err := m.AddPackage("npf", "")
	require.NoError(t, err)
	iprn := 3
	_, err = npf.SetArray("griddata", "k", ExternalSpec{Path: "k.bin", Binary: true, PrintCode: &iprn, Values: seq(20, 1)})
	require.NoError(t, err)
	require.NoError(t, s.Write())

	assert.Contains(t, readFile(t, dir, "gwf.npf"), "    OPEN/CLOSE k.bin (BINARY) IPRN 3\n")

	// one record per layer: 52-byte header and 10 doubles
	path := filepath.Join(dir, "k.bin")
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2*(52+10*8)), st.Size())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := binary.NewReader(f, binary.DefaultConfig())
	for layer := 1; layer <= 2; layer++ {
		h, vals, err := binary.ReadRecord(r, false)
		require.NoError(t, err)
		assert.Equal(t, "K", h.Text)
		assert.Equal(t, int32(1), h.Kper)
		assert.Equal(t, int32(5), h.M1)
		assert.Equal(t, int32(2), h.M2)
		assert.Equal(t, int32(layer), h.M3)
		assert.Equal(t, seq(10, float64(1+10*(layer-1))), vals)
	}

	s2, err := Load(dir)
	require.NoError(t, err)
	m2, _ := s2.Model("gwf")
	npf2, _ := m2.Package("npf")
	k, err := npf2.Array("griddata", "k")
	require.NoError(t, err)
	h, err := k.Layer(0)
	require.NoError(t, err)
	assert.Equal(t, 3, h.PrintCode())
	assert.True(t, h.Storage().(*External).Binary)
	vals, err := k.Values()
	require.NoError(t, err)
	assert.Equal(t, seq(20, 1), vals)
}

func TestExternalReadIsCached(t *testing.T) {
	dir := t.TempDir()
	_, m := newTestSim(t, dir, 1, 1, 1, 3)
	writeFiles(t, dir, map[string]string{"k.txt": "1 2\n3\n"})
	npf, err := m.AddPackage("npf", "")
	require.NoError(t, err)
	k, err := npf.SetArray("griddata", "k", NewExternal("k.txt"))
	require.NoError(t, err)

	vals, err := k.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, vals)

	writeFiles(t, dir, map[string]string{"k.txt": "7 8 9\n"})
	vals, err = k.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, vals)

	require.NoError(t, k.Set(NewExternal("k.txt")))
	vals, err = k.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8, 9}, vals)
}

func TestExternalFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, m := newTestSim(t, dir, 1, 1, 1, 3)
	writeFiles(t, dir, map[string]string{
		"short.txt": "1 2\n",
		"bad.txt":   "1\n2 x\n",
	})
	npf, err := m.AddPackage("npf", "")
	require.NoError(t, err)

	k, err := npf.SetArray("griddata", "k", ExternalSpec{Path: "missing.txt"})
	require.NoError(t, err)
	_, err = k.Values()
	assert.ErrorIs(t, err, ErrMissingExternalFile)

	require.NoError(t, k.Set(ExternalSpec{Path: "short.txt"}))
	_, err = k.Values()
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.ErrorIs(t, err, ErrFormat)

	require.NoError(t, k.Set(ExternalSpec{Path: "bad.txt"}))
	_, err = k.Values()
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "bad.txt", fe.File)
	assert.Equal(t, 2, fe.Line)
	assert.Equal(t, "x", fe.Token)
	assert.True(t, strings.HasPrefix(fe.Error(), "bad.txt:2:"))
}
