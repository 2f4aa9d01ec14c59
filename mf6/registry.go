package mf6

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Registry maps paths to the items of one simulation, plus the result
// series indexed from its output files. It is not safe for concurrent use.
type Registry struct {
	items   map[Path]Item
	results map[ResultKey]*ResultSeries
	sugar   *zap.SugaredLogger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		items:   make(map[Path]Item),
		results: make(map[ResultKey]*ResultSeries),
		sugar:   logger.Sugar(),
	}
}

// Register stores it at path, replacing any previous item.
func (r *Registry) Register(path Path, it Item) {
	if _, ok := r.items[path]; ok {
		r.sugar.Warnw("replacing registered item", "path", path.String())
	}
	r.items[path] = it
}

// Lookup returns the item at path.
func (r *Registry) Lookup(path Path) (Item, error) {
	it, ok := r.items[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return it, nil
}

// Array returns the array at path.
func (r *Registry) Array(path Path) (*ArrayItem, error) {
	it, err := r.Lookup(path)
	if err != nil {
		return nil, err
	}
	a, ok := it.(*ArrayItem)
	if !ok {
		return nil, kindMismatch(path, it, "array")
	}
	return a, nil
}

// List returns the list at path.
func (r *Registry) List(path Path) (*ListItem, error) {
	it, err := r.Lookup(path)
	if err != nil {
		return nil, err
	}
	l, ok := it.(*ListItem)
	if !ok {
		return nil, kindMismatch(path, it, "list")
	}
	return l, nil
}

// Record returns the record at path.
func (r *Registry) Record(path Path) (*RecordItem, error) {
	it, err := r.Lookup(path)
	if err != nil {
		return nil, err
	}
	rec, ok := it.(*RecordItem)
	if !ok {
		return nil, kindMismatch(path, it, "record")
	}
	return rec, nil
}

// Transient returns the per-period container at path.
func (r *Registry) Transient(path Path) (*Transient, error) {
	it, err := r.Lookup(path)
	if err != nil {
		return nil, err
	}
	t, ok := it.(*Transient)
	if !ok {
		return nil, kindMismatch(path, it, "transient")
	}
	return t, nil
}

func kindMismatch(path Path, it Item, want string) error {
	if _, ok := it.(*Transient); ok {
		return fmt.Errorf("%w: %s is transient, not %s", ErrSchema, path, want)
	}
	return fmt.Errorf("%w: %s is a %s, not %s", ErrSchema, path, it.Kind(), want)
}

// Remove deletes the item at path and reports whether it existed.
func (r *Registry) Remove(path Path) bool {
	_, ok := r.items[path]
	delete(r.items, path)
	return ok
}

// Paths returns every registered path in lexical order.
func (r *Registry) Paths() []Path {
	out := make([]Path, 0, len(r.items))
	for p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

func (r *Registry) Len() int {
	return len(r.items)
}

// RegisterResult stores a result series, replacing any previous one.
func (r *Registry) RegisterResult(key ResultKey, s *ResultSeries) {
	if _, ok := r.results[key]; ok {
		r.sugar.Warnw("replacing result series", "key", key.String())
	}
	r.results[key] = s
}

// LookupResult returns the result series under key.
func (r *Registry) LookupResult(key ResultKey) (*ResultSeries, error) {
	s, ok := r.results[key]
	if !ok {
		return nil, fmt.Errorf("%w: result %s", ErrNotFound, key)
	}
	return s, nil
}

// OutputKeys returns the keys of all indexed results in no particular
// order.
func (r *Registry) OutputKeys() []ResultKey {
	out := make([]ResultKey, 0, len(r.results))
	for k := range r.results {
		out = append(out, k)
	}
	return out
}

// IndexResults registers every series ix finds for entity.
func (r *Registry) IndexResults(entity string, ix ResultIndexer) error {
	keys, series, err := ix.Index(entity)
	if err != nil {
		return fmt.Errorf("indexing results of %s: %w", entity, err)
	}
	if len(keys) != len(series) {
		return fmt.Errorf("indexing results of %s: %d keys for %d series", entity, len(keys), len(series))
	}
	for i, k := range keys {
		r.RegisterResult(k, series[i])
	}
	r.sugar.Debugw("indexed results", "entity", entity, "series", len(keys))
	return nil
}

// itemSource resolves items while a file is being read, before its items
// are registered.
type itemSource interface {
	lookup(path Path) (Item, bool)
}

func (r *Registry) lookup(path Path) (Item, bool) {
	it, ok := r.items[path]
	return it, ok
}
