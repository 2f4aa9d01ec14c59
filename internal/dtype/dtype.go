package dtype

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrSyntax is returned for tokens that are not valid numbers.
var ErrSyntax = errors.New("invalid numeric token")

// ParseFloat parses a real token, accepting Fortran D exponents.
func ParseFloat(tok string) (float64, error) {
	s := tok
	if i := strings.IndexAny(s, "dD"); i >= 0 {
		s = s[:i] + "e" + s[i+1:]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, tok)
	}
	return v, nil
}

// ParseInt parses an integer token. A real token with an integral value is
// accepted.
func ParseInt(tok string) (int, error) {
	if n, err := strconv.Atoi(tok); err == nil {
		return n, nil
	}
	v, err := ParseFloat(tok)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrSyntax, tok)
	}
	return int(v), nil
}

// IsNumber reports whether tok parses as a real.
func IsNumber(tok string) bool {
	_, err := ParseFloat(tok)
	return err == nil
}

// Formatter renders numeric values for text output.
type Formatter struct {
	// Precision is the number of digits after the decimal point in
	// scientific notation. Negative selects the shortest representation
	// that parses back to the same float64.
	Precision int
}

// Float formats a real value.
func (f Formatter) Float(v float64) string {
	if f.Precision < 0 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'E', f.Precision, 64)
}

// Int formats an integral value.
func (f Formatter) Int(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}

// Value formats v as an integer when integer is set, otherwise as a real.
func (f Formatter) Value(v float64, integer bool) string {
	if integer {
		return f.Int(v)
	}
	return f.Float(v)
}

// Quote wraps s in single quotes when it contains whitespace.
func Quote(s string) string {
	if strings.ContainsAny(s, " \t") {
		return "'" + s + "'"
	}
	return s
}
