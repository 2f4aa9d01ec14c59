package mf6

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestSim builds a simulation with nper periods and one structured
// GWF model "gwf" of nlay x nrow x ncol cells, with TDIS, IMS and DIS set.
func newTestSim(t *testing.T, root string, nper, nlay, nrow, ncol int, opts ...Option) (*Simulation, *Model) {
	t.Helper()
	s, err := New("sim", root, opts...)
	require.NoError(t, err)

	tdis, err := s.AddPackage("tdis", "")
	require.NoError(t, err)
	_, err = tdis.SetRecord("dimensions", "nper", nper)
	require.NoError(t, err)
	periods := make([]Row, nper)
	for i := range periods {
		periods[i] = Row{Values: []float64{1, 1, 1}}
	}
	_, err = tdis.SetList("perioddata", periods)
	require.NoError(t, err)

	_, err = s.AddPackage("ims", "")
	require.NoError(t, err)

	m, err := s.AddModel("gwf", "gwf")
	require.NoError(t, err)
	dis, err := m.AddPackage("dis", "")
	require.NoError(t, err)
	for name, v := range map[string]int{"nlay": nlay, "nrow": nrow, "ncol": ncol} {
		_, err = dis.SetRecord("dimensions", name, v)
		require.NoError(t, err)
	}
	_, err = dis.SetArray("griddata", "delr", 10.0)
	require.NoError(t, err)
	_, err = dis.SetArray("griddata", "delc", 10.0)
	require.NoError(t, err)
	_, err = dis.SetArray("griddata", "top", 0.0)
	require.NoError(t, err)
	_, err = dis.SetArray("griddata", "botm", -10.0)
	require.NoError(t, err)
	return s, m
}

// writeFiles writes name -> content below dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func seq(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}
