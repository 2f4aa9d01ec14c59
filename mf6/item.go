package mf6

import (
	"fmt"

	"github.com/robert-malhotra/go-mf6/dfn"
)

// Item is one named quantity of a block: *ArrayItem, *ListItem,
// *RecordItem or a *Transient holding one of those per period.
type Item interface {
	Name() string
	Kind() dfn.Kind
}

// binder is implemented by items that read or write external files.
type binder interface {
	bind(env *fileEnv)
}

func bindItem(it Item, env *fileEnv) {
	if b, ok := it.(binder); ok {
		b.bind(env)
	}
}

// tokenError ties a validation failure to the word that caused it. The
// parser turns it into a FormatError.
type tokenError struct {
	token string
	err   error
}

func (e *tokenError) Error() string {
	if e.token == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%v (near %q)", e.err, e.token)
}

func (e *tokenError) Unwrap() error {
	return e.err
}

func tokenErrorf(token string, format string, args ...any) error {
	return &tokenError{token: token, err: fmt.Errorf(format, args...)}
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
