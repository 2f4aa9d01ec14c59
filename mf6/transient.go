package mf6

import (
	"fmt"
	"sort"

	"github.com/robert-malhotra/go-mf6/dfn"
)

// Transient holds one item per stress period. Periods are 0-based.
//
// A period without an entry inherits the closest earlier entry. An entry
// with no data (see AddPeriod) is an explicit "off" and stops the
// inheritance.
type Transient struct {
	name    string
	kind    dfn.Kind
	periods []int // sorted
	entries map[int]Item
	nper    func() int
	open    bool
	factory func() (Item, error)
}

// NewTransient creates an empty container. nper returns the declared
// period count; a nil func or a negative count leaves it unbounded. factory builds an
// empty item for a period that has none yet.
func NewTransient(name string, kind dfn.Kind, nper func() int, factory func() (Item, error)) *Transient {
	return &Transient{
		name:    name,
		kind:    kind,
		entries: make(map[int]Item),
		nper:    nper,
		factory: factory,
	}
}

func (t *Transient) Name() string { return t.name }

// Kind returns the kind of the per-period items.
func (t *Transient) Kind() dfn.Kind { return t.kind }

// SetOpenEnded allows periods beyond the declared count.
func (t *Transient) SetOpenEnded(open bool) { t.open = open }

func (t *Transient) OpenEnded() bool { return t.open }

func (t *Transient) checkPeriod(period int) error {
	if period < 0 {
		return fmt.Errorf("%w: %s period %d", ErrPeriodRange, t.name, period)
	}
	if t.open || t.nper == nil {
		return nil
	}
	if n := t.nper(); n >= 0 && period >= n {
		return fmt.Errorf("%w: %s period %d, simulation has %d", ErrPeriodRange, t.name, period, n)
	}
	return nil
}

// SetData sets the value of period's item, creating the item on first use.
func (t *Transient) SetData(value any, period int) error {
	if err := t.checkPeriod(period); err != nil {
		return err
	}
	it, ok := t.entries[period]
	if !ok {
		var err error
		if it, err = t.newItem(); err != nil {
			return err
		}
	}
	if err := setItem(it, value); err != nil {
		return fmt.Errorf("period %d: %w", period+1, err)
	}
	t.store(period, it)
	return nil
}

// Put stores a prebuilt item for period.
func (t *Transient) Put(period int, it Item) error {
	if err := t.checkPeriod(period); err != nil {
		return err
	}
	if it.Kind() != t.kind {
		return fmt.Errorf("%w: %s item in %s container", ErrSchema, it.Kind(), t.kind)
	}
	t.store(period, it)
	return nil
}

// AddPeriod declares period with an empty item. An existing entry is kept.
func (t *Transient) AddPeriod(period int) error {
	if err := t.checkPeriod(period); err != nil {
		return err
	}
	if _, ok := t.entries[period]; ok {
		return nil
	}
	it, err := t.newItem()
	if err != nil {
		return err
	}
	t.store(period, it)
	return nil
}

// Resolve returns the item in effect at period: its own entry or the
// closest earlier one.
func (t *Transient) Resolve(period int) (Item, error) {
	if err := t.checkPeriod(period); err != nil {
		return nil, err
	}
	i := sort.SearchInts(t.periods, period+1) - 1
	if i < 0 {
		return nil, fmt.Errorf("%w: %s has no data at or before period %d", ErrNotFound, t.name, period)
	}
	return t.entries[t.periods[i]], nil
}

// At returns period's own entry without inheritance.
func (t *Transient) At(period int) (Item, bool) {
	it, ok := t.entries[period]
	return it, ok
}

// Periods returns the periods with an entry in ascending order.
func (t *Transient) Periods() []int {
	return append([]int(nil), t.periods...)
}

func (t *Transient) Has(period int) bool {
	_, ok := t.entries[period]
	return ok
}

// Delete removes period's entry, which then inherits again.
func (t *Transient) Delete(period int) {
	if _, ok := t.entries[period]; !ok {
		return
	}
	delete(t.entries, period)
	i := sort.SearchInts(t.periods, period)
	t.periods = append(t.periods[:i], t.periods[i+1:]...)
}

func (t *Transient) Len() int { return len(t.periods) }

// merge stores every entry of src, replacing entries of the same period.
func (t *Transient) merge(src *Transient) {
	for _, p := range src.periods {
		t.store(p, src.entries[p])
	}
}

func (t *Transient) store(period int, it Item) {
	if _, ok := t.entries[period]; !ok {
		i := sort.SearchInts(t.periods, period)
		t.periods = append(t.periods, 0)
		copy(t.periods[i+1:], t.periods[i:])
		t.periods[i] = period
	}
	t.entries[period] = it
}

func (t *Transient) newItem() (Item, error) {
	if t.factory == nil {
		return nil, fmt.Errorf("%w: %s cannot create period items", ErrSchema, t.name)
	}
	return t.factory()
}

// setItem applies value to an item with the item's own setter.
func setItem(it Item, value any) error {
	switch x := it.(type) {
	case *ArrayItem:
		return x.Set(value)
	case *ListItem:
		return x.Set(value)
	case *RecordItem:
		if vs, ok := value.([]any); ok {
			return x.Set(vs...)
		}
		if value == nil {
			return x.Set()
		}
		return x.Set(value)
	default:
		return fmt.Errorf("%w: cannot set %T", ErrSchema, it)
	}
}

// empty reports whether a period entry carries no data.
func empty(it Item) bool {
	switch x := it.(type) {
	case *ArrayItem:
		return !x.IsSet()
	case *ListItem:
		in, ok := x.storage.(*InternalList)
		return ok && len(in.Rows) == 0
	default:
		return false
	}
}
