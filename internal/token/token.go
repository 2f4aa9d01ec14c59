// Package token splits block-structured MODFLOW text input into lines of
// whitespace-delimited tokens, keeping line numbers for diagnostics.
package token

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Line is one non-blank, non-comment input line.
type Line struct {
	Num    int      // 1-based line number in the source
	Text   string   // raw text without the line terminator
	Fields []string // tokens with comments and quotes removed
}

// Keyword returns the upper-cased first token, or "" for an empty line.
func (l Line) Keyword() string {
	if len(l.Fields) == 0 {
		return ""
	}
	return strings.ToUpper(l.Fields[0])
}

// Scanner iterates over the significant lines of one file.
type Scanner struct {
	name  string
	lines []Line
	pos   int
	last  int
}

// maxLine bounds a single input line; long INTERNAL arrays are often
// written on one line.
const maxLine = 64 << 20

// Scan reads all of r and returns a scanner positioned at the first line.
func Scan(name string, r io.Reader) (*Scanner, error) {
	s := &Scanner{name: name}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	num := 0
	for sc.Scan() {
		num++
		text := strings.TrimRight(sc.Text(), "\r")
		fields := Split(text)
		if len(fields) == 0 {
			continue
		}
		s.lines = append(s.lines, Line{Num: num, Text: text, Fields: fields})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}
	s.last = num
	return s, nil
}

// Name returns the source name given to Scan.
func (s *Scanner) Name() string {
	return s.name
}

// Next returns the next line and advances.
func (s *Scanner) Next() (Line, bool) {
	if s.pos >= len(s.lines) {
		return Line{}, false
	}
	l := s.lines[s.pos]
	s.pos++
	return l, true
}

// Peek returns the next line without advancing.
func (s *Scanner) Peek() (Line, bool) {
	if s.pos >= len(s.lines) {
		return Line{}, false
	}
	return s.lines[s.pos], true
}

// Back steps back one line.
func (s *Scanner) Back() {
	if s.pos > 0 {
		s.pos--
	}
}

// LastLine returns the number of the final line of the source, used to
// report unterminated blocks.
func (s *Scanner) LastLine() int {
	return s.last
}

// Split tokenizes one line. Whitespace and commas separate tokens; single
// or double quotes group words; '#', '!' and '//' start a comment.
func Split(text string) []string {
	var fields []string
	var cur strings.Builder
	inToken := false
	var quote byte

	flush := func() {
		if inToken {
			fields = append(fields, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				quote = 0
				continue
			}
			cur.WriteByte(c)
			continue
		}
		switch {
		case c == '\'' || c == '"':
			quote = c
			inToken = true
		case c == ' ' || c == '\t' || c == ',':
			flush()
		case !inToken && (c == '#' || c == '!'):
			flush()
			return fields
		case !inToken && c == '/' && i+1 < len(text) && text[i+1] == '/':
			flush()
			return fields
		default:
			cur.WriteByte(c)
			inToken = true
		}
	}
	flush()
	return fields
}
