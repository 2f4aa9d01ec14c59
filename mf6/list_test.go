package mf6

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func periodList(t *testing.T, p *Package, period int) *ListItem {
	t.Helper()
	tr, err := p.Transient("period", "stress_period_data")
	require.NoError(t, err)
	it, ok := tr.At(period)
	require.True(t, ok, "period %d", period)
	l, ok := it.(*ListItem)
	require.True(t, ok)
	return l
}

func TestWellPeriodsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, m := newTestSim(t, dir, 2, 1, 3, 3)
	wel, err := m.AddPackage("wel", "")
	require.NoError(t, err)
	_, err = wel.SetRecord("dimensions", "maxbound", 2)
	require.NoError(t, err)

	first := []Row{
		{Cell: CellID{0, 0, 0}, Values: []float64{-100}},
		{Cell: CellID{0, 2, 2}, Values: []float64{-50.5}},
	}
	second := []Row{{Cell: CellID{0, 1, 1}, Values: []float64{25}}}
	require.NoError(t, wel.SetPeriodData("period", "stress_period_data", 0, first))
	require.NoError(t, wel.SetPeriodData("period", "stress_period_data", 1, second))

	err = wel.SetPeriodData("period", "stress_period_data", 1, append(first, second...))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	require.NoError(t, s.Write())
	text := readFile(t, dir, "gwf.wel")
	assert.Contains(t, text, "BEGIN period 1\n  1 1 1 -100\n  1 3 3 -50.5\nEND period\n")
	assert.Contains(t, text, "BEGIN period 2\n  1 2 2 25\nEND period\n")

	s2, err := Load(dir)
	require.NoError(t, err)
	m2, _ := s2.Model("gwf")
	wel2, err := m2.Package("wel")
	require.NoError(t, err)
	tr, err := wel2.Transient("period", "stress_period_data")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, tr.Periods())

	l := periodList(t, wel2, 0)
	assert.Equal(t, 2, l.MaxRows())
	rows, err := l.Rows()
	require.NoError(t, err)
	assert.Equal(t, first, rows)
	rows, err = periodList(t, wel2, 1).Rows()
	require.NoError(t, err)
	assert.Equal(t, second, rows)
}

func TestListAuxAndBoundnames(t *testing.T) {
	dir := t.TempDir()
	s, m := newTestSim(t, dir, 1, 1, 2, 2)
	wel, err := m.AddPackage("wel", "")
	require.NoError(t, err)
	_, err = wel.SetRecord("options", "auxiliary", "mult", "conc")
	require.NoError(t, err)
	_, err = wel.SetRecord("options", "boundnames")
	require.NoError(t, err)
	_, err = wel.SetRecord("dimensions", "maxbound", 1)
	require.NoError(t, err)

	shape, err := wel.ListShape("period")
	require.NoError(t, err)
	assert.Equal(t, ListShape{MaxRows: 1, AuxNames: []string{"mult", "conc"}, HasNames: true}, shape)

	rows := []Row{{Cell: CellID{0, 1, 0}, Values: []float64{-3}, Aux: []float64{0.5, 2}, Name: "west well"}}
	require.NoError(t, wel.SetPeriodData("period", "stress_period_data", 0, rows))
	require.NoError(t, s.Write())
	text := readFile(t, dir, "gwf.wel")
	assert.Contains(t, text, "  AUXILIARY mult conc\n  BOUNDNAMES\n")
	assert.Contains(t, text, "  1 2 1 -3 0.5 2 'west well'\n")

	s2, err := Load(dir)
	require.NoError(t, err)
	m2, _ := s2.Model("gwf")
	wel2, _ := m2.Package("wel")
	l := periodList(t, wel2, 0)
	assert.Equal(t, []string{"mult", "conc"}, l.AuxNames())
	assert.True(t, l.HasNames())
	got, err := l.Rows()
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestListValidation(t *testing.T) {
	def := itemDef(t, "wel", "period", "stress_period_data")
	l, err := NewList(def, StructuredGrid(1, 2, 2), ListShape{MaxRows: 2})
	require.NoError(t, err)

	good := []Row{{Cell: CellID{0, 1, 1}, Values: []float64{1}}}
	require.NoError(t, l.Set(good))

	for name, rows := range map[string][]Row{
		"too many rows": {good[0], good[0], good[0]},
		"outside grid":  {{Cell: CellID{0, 2, 0}, Values: []float64{1}}},
		"short cell":    {{Cell: CellID{0, 1}, Values: []float64{1}}},
		"no value":      {{Cell: CellID{0, 0, 0}}},
		"aux":           {{Cell: CellID{0, 0, 0}, Values: []float64{1}, Aux: []float64{1}}},
		"boundname":     {{Cell: CellID{0, 0, 0}, Values: []float64{1}, Name: "w"}},
	} {
		err := l.Set(rows)
		assert.ErrorIs(t, err, ErrShapeMismatch, name)
	}
	got, err := l.Rows()
	require.NoError(t, err)
	assert.Equal(t, good, got)

	assert.ErrorIs(t, l.Set(42), ErrSchema)
	require.NoError(t, l.Set(nil))
	n, err := l.Len()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = NewList(def, nil, ListShape{})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestListLiveBuffer(t *testing.T) {
	def := itemDef(t, "wel", "period", "stress_period_data")
	l, err := NewList(def, StructuredGrid(1, 2, 2), ListShape{})
	require.NoError(t, err)

	in := []Row{{Cell: CellID{0, 0, 0}, Values: []float64{1}}}
	require.NoError(t, l.Set(in))
	in[0].Values[0] = 99 // Set copied the rows

	rows, err := l.Rows()
	require.NoError(t, err)
	assert.Equal(t, 1.0, rows[0].Values[0])

	rows[0].Values[0] = 7
	rows[0].Cell[2] = 5 // invalid, seen by Validate
	again, err := l.Rows()
	require.NoError(t, err)
	assert.Equal(t, 7.0, again[0].Values[0])
	assert.ErrorIs(t, l.Validate(), ErrShapeMismatch)

	again[0].Cell[2] = 1
	assert.NoError(t, l.Validate())
}

func TestExternalListRoundTrip(t *testing.T) {
	for _, bin := range []bool{false, true} {
		name := "text"
		if bin {
			name = "binary"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			s, m := newTestSim(t, dir, 1, 2, 2, 2)
			wel, err := m.AddPackage("wel", "")
			require.NoError(t, err)
			_, err = wel.SetRecord("dimensions", "maxbound", 3)
			require.NoError(t, err)
			rows := []Row{
				{Cell: CellID{0, 0, 1}, Values: []float64{-1.25}},
				{Cell: CellID{1, 1, 0}, Values: []float64{-2}},
			}
			spec := ExternalListSpec{Path: "wel_p1." + name, Binary: bin, Rows: rows}
			require.NoError(t, wel.SetPeriodData("period", "stress_period_data", 0, spec))
			require.NoError(t, s.Write())

			control := "  OPEN/CLOSE wel_p1." + name
			if bin {
				control += " (BINARY)"
				// three int32 cell components and one double per row
				st, err := os.Stat(filepath.Join(dir, "wel_p1.binary"))
				require.NoError(t, err)
				assert.Equal(t, int64(2*(3*4+8)), st.Size())
			} else {
				assert.Equal(t, "1 1 2 -1.25\n2 2 1 -2\n", readFile(t, dir, "wel_p1.text"))
			}
			assert.Contains(t, readFile(t, dir, "gwf.wel"), control+"\n")

			s2, err := Load(dir)
			require.NoError(t, err)
			m2, _ := s2.Model("gwf")
			wel2, _ := m2.Package("wel")
			l := periodList(t, wel2, 0)
			ext, ok := l.Storage().(*ExternalList)
			require.True(t, ok)
			assert.Equal(t, bin, ext.Binary)
			got, err := l.Rows()
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestBinaryListLayout(t *testing.T) {
	def := itemDef(t, "wel", "period", "stress_period_data")
	l, err := NewList(def, StructuredGrid(1, 1, 1), ListShape{HasNames: true})
	require.NoError(t, err)
	err = l.Set(ExternalListSpec{Path: "wel.bin", Binary: true})
	assert.ErrorIs(t, err, ErrSchema)
	assert.NoError(t, l.Set(ExternalListSpec{Path: "wel.txt"}))

	oc := itemDef(t, "oc", "period", "saverecord")
	l, err = NewList(oc, nil, ListShape{})
	require.NoError(t, err)
	assert.ErrorIs(t, l.Set(&ExternalList{Path: "oc.bin", Binary: true}), ErrSchema)
}

func TestExternalListMissing(t *testing.T) {
	def := itemDef(t, "wel", "period", "stress_period_data")
	l, err := NewList(def, StructuredGrid(1, 1, 1), ListShape{})
	require.NoError(t, err)
	require.NoError(t, l.Set(ExternalListSpec{Path: filepath.Join(t.TempDir(), "none.txt")}))
	_, err = l.Rows()
	assert.ErrorIs(t, err, ErrMissingExternalFile)
}

func TestVariadicListFields(t *testing.T) {
	def := itemDef(t, "oc", "period", "saverecord")
	l, err := NewList(def, nil, ListShape{})
	require.NoError(t, err)
	r, err := l.parseRow([]string{"SAVE", "HEAD", "STEPS", "1", "3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SAVE", "HEAD", "STEPS", "1", "3"}, r.Text)
	assert.Equal(t, "SAVE HEAD STEPS 1 3", strings.Join(l.formatRow(r, defaultEnv().format), " "))

	_, err = l.parseRow([]string{"SAVE", "HEAD"})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
