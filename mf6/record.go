package mf6

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-mf6/dfn"
	"github.com/robert-malhotra/go-mf6/internal/dtype"
)

// RecordItem is a keyword line such as NLAY 2, SAVE_FLOWS or
// HEAD FILEOUT gwf.hds. It holds the words after the keyword.
type RecordItem struct {
	def   *dfn.Item
	words []string
}

// NewRecord creates a record; see Set.
func NewRecord(def *dfn.Item, values ...any) (*RecordItem, error) {
	if def == nil || def.Kind != dfn.KindRecord {
		return nil, fmt.Errorf("%w: not a record definition", ErrSchema)
	}
	r := &RecordItem{def: def}
	if err := r.Set(values...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RecordItem) Name() string { return r.def.Name }

func (r *RecordItem) Kind() dfn.Kind { return dfn.KindRecord }

// Schema returns the item definition.
func (r *RecordItem) Schema() *dfn.Item { return r.def }

// Set replaces the record's values. Strings, integers, reals and []string
// are accepted. Keyword fields the caller leaves out are filled in, so
// Set("gwf.hds") on HEAD FILEOUT <fname> stores FILEOUT gwf.hds.
func (r *RecordItem) Set(values ...any) error {
	words := make([]string, 0, len(values))
	for _, v := range values {
		switch x := v.(type) {
		case string:
			words = append(words, x)
		case []string:
			words = append(words, x...)
		case int:
			words = append(words, strconv.Itoa(x))
		case int32:
			words = append(words, strconv.FormatInt(int64(x), 10))
		case int64:
			words = append(words, strconv.FormatInt(x, 10))
		case float64:
			words = append(words, strconv.FormatFloat(x, 'g', -1, 64))
		case float32:
			words = append(words, strconv.FormatFloat(float64(x), 'g', -1, 32))
		default:
			return fmt.Errorf("record %s: %w: unsupported value type %T", r.Name(), ErrSchema, v)
		}
	}
	words = fillKeywords(r.def, words)
	if err := checkRecord(r.def, words); err != nil {
		return fmt.Errorf("record %s: %w", r.Name(), err)
	}
	r.words = words
	return nil
}

// Words returns every word after the keyword, keyword fields included.
func (r *RecordItem) Words() []string {
	return append([]string(nil), r.words...)
}

// Strings returns the values of the non-keyword fields.
func (r *RecordItem) Strings() []string {
	var out []string
	i := 0
	for _, f := range r.def.Fields {
		if i >= len(r.words) {
			break
		}
		if f.Variadic {
			out = append(out, r.words[i:]...)
			break
		}
		if f.Type != dfn.TypeKeyword {
			if f.Optional && fieldSkipped(f, r.words[i]) {
				continue
			}
			out = append(out, r.words[i])
		}
		i++
	}
	return out
}

// String returns the non-keyword values joined by spaces.
func (r *RecordItem) String() string {
	return strings.Join(r.Strings(), " ")
}

// Int returns the first value as an integer.
func (r *RecordItem) Int() (int, error) {
	s := r.Strings()
	if len(s) == 0 {
		return 0, fmt.Errorf("%w: record %s has no value", ErrNotFound, r.Name())
	}
	return dtype.ParseInt(s[0])
}

// Float returns the first value as a real.
func (r *RecordItem) Float() (float64, error) {
	s := r.Strings()
	if len(s) == 0 {
		return 0, fmt.Errorf("%w: record %s has no value", ErrNotFound, r.Name())
	}
	return dtype.ParseFloat(s[0])
}

// fieldSkipped reports whether an optional field is absent because word
// does not fit its type.
func fieldSkipped(f dfn.Field, word string) bool {
	return checkWord(f, word) != nil
}

func fillKeywords(def *dfn.Item, words []string) []string {
	out := make([]string, 0, len(def.Fields))
	i := 0
	for _, f := range def.Fields {
		if f.Variadic {
			break
		}
		if f.Type == dfn.TypeKeyword {
			if i < len(words) && strings.EqualFold(words[i], f.Name) {
				out = append(out, strings.ToUpper(words[i]))
				i++
			} else {
				out = append(out, strings.ToUpper(f.Name))
			}
			continue
		}
		if i < len(words) {
			out = append(out, words[i])
			i++
		}
	}
	return append(out, words[i:]...)
}

// checkRecord validates the words of a record against its fields.
func checkRecord(def *dfn.Item, words []string) error {
	i := 0
	for _, f := range def.Fields {
		if f.Variadic {
			for ; i < len(words); i++ {
				if err := checkWord(f, words[i]); err != nil {
					return err
				}
			}
			return nil
		}
		if i >= len(words) {
			if f.Optional {
				continue
			}
			return tokenErrorf("", "%w: missing value %s", ErrShapeMismatch, f.Name)
		}
		if err := checkWord(f, words[i]); err != nil {
			if f.Optional {
				continue
			}
			return err
		}
		i++
	}
	if i < len(words) {
		return tokenErrorf(words[i], "%w: unexpected value", ErrShapeMismatch)
	}
	return nil
}

func checkWord(f dfn.Field, word string) error {
	switch f.Type {
	case dfn.TypeInteger:
		if _, err := dtype.ParseInt(word); err != nil {
			return &tokenError{token: word, err: err}
		}
	case dfn.TypeDouble:
		if _, err := dtype.ParseFloat(word); err != nil {
			return &tokenError{token: word, err: err}
		}
	case dfn.TypeKeyword:
		if !strings.EqualFold(word, f.Name) {
			return tokenErrorf(word, "%w: expected keyword %s", ErrSchema, strings.ToUpper(f.Name))
		}
	}
	return nil
}
