package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"  BEGIN options", []string{"BEGIN", "options"}},
		{"1 2 3 -50.0", []string{"1", "2", "3", "-50.0"}},
		{"1,2,3", []string{"1", "2", "3"}},
		{"# a comment", nil},
		{"NLAY 2 # layers", []string{"NLAY", "2"}},
		{"NLAY 2 ! layers", []string{"NLAY", "2"}},
		{"// note", nil},
		{"OPEN/CLOSE data/botm.txt", []string{"OPEN/CLOSE", "data/botm.txt"}},
		{"1 1 1 -5.0 'well one'", []string{"1", "1", "1", "-5.0", "well one"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Split(tt.in), "Split(%q)", tt.in)
	}
}

func TestScannerSkipsBlankAndComments(t *testing.T) {
	src := "# header\n\nBEGIN dimensions\r\n  NLAY 2\n\n  # c\nEND dimensions\n"
	s, err := Scan("test.dis", strings.NewReader(src))
	require.NoError(t, err)

	l, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 3, l.Num)
	assert.Equal(t, "BEGIN", l.Keyword())

	l, ok = s.Peek()
	require.True(t, ok)
	assert.Equal(t, 4, l.Num)

	s.Next()
	l, _ = s.Next()
	assert.Equal(t, 7, l.Num)
	assert.Equal(t, "END", l.Keyword())

	_, ok = s.Next()
	assert.False(t, ok)
	assert.Equal(t, 7, s.LastLine())
}
