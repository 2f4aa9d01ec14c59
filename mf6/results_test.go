package mf6

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-mf6/internal/binary"
)

// writeHeadFile writes two periods of HEAD for a 2-layer 2x3 grid, with a
// DRAWDOWN record after the first period.
func writeHeadFile(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := binary.NewWriter(f, binary.DefaultConfig())
	write := func(text string, kper, layer int32, totim float64, vals []float64) {
		h := binary.Header{Kstp: 1, Kper: kper, Pertim: totim, Totim: totim, Text: text, M1: 3, M2: 2, M3: layer}
		require.NoError(t, binary.WriteRecord(w, h, vals, false))
	}
	write("HEAD", 1, 1, 1, seq(6, 1))
	write("HEAD", 1, 2, 1, seq(6, 7))
	write("DRAWDOWN", 1, 1, 1, fill(6, 0.5))
	write("HEAD", 2, 1, 11, seq(6, 101))
	write("HEAD", 2, 2, 11, seq(6, 107))
}

func TestHeadFileIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gwf.hds")
	writeHeadFile(t, path)

	r := NewRegistry(nil)
	require.NoError(t, r.IndexResults("GWF", HeadFile{Path: path}))
	assert.ElementsMatch(t, []ResultKey{
		{Entity: "gwf", Kind: OutputState, Quantity: "head"},
		{Entity: "gwf", Kind: OutputState, Quantity: "drawdown"},
	}, r.OutputKeys())

	heads, err := r.LookupResult(ResultKey{Entity: "gwf", Kind: OutputState, Quantity: "head"})
	require.NoError(t, err)
	assert.Equal(t, path, heads.Path())
	require.Equal(t, 4, heads.Len())
	recs := heads.Records()
	assert.Equal(t, 2, recs[2].Kper)
	assert.Equal(t, 1, recs[2].Layer)
	assert.Equal(t, 11.0, recs[2].Totim)
	assert.Equal(t, 6, recs[2].Count)

	vals, err := heads.Read(3)
	require.NoError(t, err)
	assert.Equal(t, seq(6, 107), vals)
	_, err = heads.Read(4)
	assert.ErrorIs(t, err, ErrIndex)

	dd, err := r.LookupResult(ResultKey{Entity: "gwf", Kind: OutputState, Quantity: "drawdown"})
	require.NoError(t, err)
	vals, err = dd.Read(0)
	require.NoError(t, err)
	assert.Equal(t, fill(6, 0.5), vals)

	_, err = r.LookupResult(ResultKey{Entity: "gwf", Kind: OutputFlow, Quantity: "head"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHeadFileErrors(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(nil)
	err := r.IndexResults("gwf", HeadFile{Path: filepath.Join(dir, "none.hds")})
	assert.ErrorIs(t, err, ErrMissingExternalFile)

	path := filepath.Join(dir, "gwf.hds")
	writeHeadFile(t, path)
	st, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, st.Size()-8))
	err = r.IndexResults("gwf", HeadFile{Path: path})
	assert.ErrorIs(t, err, ErrFormat)

	require.NoError(t, os.Truncate(path, 20))
	err = r.IndexResults("gwf", HeadFile{Path: path})
	assert.ErrorIs(t, err, ErrFormat)

	err = r.IndexResults("gwf", HeadFile{Path: path, RealSize: 5})
	assert.Error(t, err)
	assert.Empty(t, r.OutputKeys())
}
