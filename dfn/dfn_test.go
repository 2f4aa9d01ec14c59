package dfn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	set := Default()
	for _, name := range []string{"sim-nam", "tdis", "ims", "gwf-nam", "dis", "disv", "disu", "ic", "npf", "sto", "chd", "wel", "rcha", "oc"} {
		_, ok := set.Package(name)
		assert.True(t, ok, "missing definition %s", name)
	}

	dis, ok := set.Package("DIS6")
	require.True(t, ok)
	grid, ok := dis.Block("GRIDDATA")
	require.True(t, ok)
	botm, ok := grid.Item("BOTM")
	require.True(t, ok)
	assert.Equal(t, KindArray, botm.Kind)
	assert.Equal(t, ShapeGrid, botm.Shape)
	assert.True(t, botm.Layered)
	assert.Nil(t, grid.List())

	wel, _ := set.Package("wel")
	period, ok := wel.Block("period")
	require.True(t, ok)
	assert.True(t, period.Transient)
	spd := period.List()
	require.NotNil(t, spd)
	assert.Equal(t, "maxbound", spd.Bound)
	assert.True(t, spd.CellID)
	assert.Equal(t, 1, spd.NumericFields())
}

func TestLoad(t *testing.T) {
	src := `
packages:
  - name: evt
    blocks:
      - name: dimensions
        items:
          - {name: maxbound, kind: record, fields: [{name: maxbound, type: integer}]}
      - name: period
        transient: true
        items:
          - name: stress_period_data
            kind: list
            cellid: true
            fields:
              - {name: surface, type: double}
              - {name: rate, type: double}
`
	set, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	p, ok := set.Package("EVT6")
	require.True(t, ok)
	b, ok := p.Block("period")
	require.True(t, ok)
	assert.Equal(t, 2, b.List().NumericFields())
	assert.Equal(t, []string{"evt"}, set.Names())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown kind", "packages:\n  - name: x\n    blocks:\n      - name: b\n        items:\n          - {name: a, kind: matrix}\n"},
		{"unknown field", "packages:\n  - name: x\n    colour: red\n"},
		{"array without shape", "packages:\n  - name: x\n    blocks:\n      - name: b\n        items:\n          - {name: a, kind: array}\n"},
		{"layered non-grid", "packages:\n  - name: x\n    blocks:\n      - name: b\n        items:\n          - {name: a, kind: array, shape: layer, layered: true}\n"},
		{"two lists", "packages:\n  - name: x\n    blocks:\n      - name: b\n        items:\n          - {name: a, kind: list}\n          - {name: c, kind: list}\n"},
		{"variadic not last", "packages:\n  - name: x\n    blocks:\n      - name: b\n        items:\n          - {name: a, kind: list, fields: [{name: f, variadic: true}, {name: g}]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "dis", Normalize("DIS6"))
	assert.Equal(t, "gwf", Normalize(" gwf6 "))
	assert.Equal(t, "gwf-nam", Normalize("gwf-nam"))
}

func TestDefaultValue(t *testing.T) {
	it := Item{Default: "1.0e-5"}
	assert.Equal(t, 1e-5, it.DefaultValue())
	assert.Equal(t, 0.0, (&Item{}).DefaultValue())
}
