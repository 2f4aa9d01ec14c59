package mf6

import (
	"fmt"
	"strings"
)

// Path addresses one item: (model, package, block, item) for model
// packages and (package, "", block, item) for simulation packages.
// Components are case-insensitive and stored lower-case.
type Path struct {
	Entity string
	Sub    string
	Block  string
	Item   string
}

// NewPath builds a normalized path.
func NewPath(entity, sub, block, item string) Path {
	return Path{
		Entity: strings.ToLower(entity),
		Sub:    strings.ToLower(sub),
		Block:  strings.ToLower(block),
		Item:   strings.ToLower(item),
	}
}

// String renders the path as slash-separated components, omitting an empty
// Sub: "gwf/dis/griddata/botm", "tdis/perioddata/perioddata".
func (p Path) String() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.Entity, p.Sub, p.Block, p.Item} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// ParsePath parses the String form of a path. Three components address a
// simulation package item, four a model package item.
func ParsePath(s string) (Path, error) {
	parts := SplitPath(s)
	switch len(parts) {
	case 3:
		return NewPath(parts[0], "", parts[1], parts[2]), nil
	case 4:
		return NewPath(parts[0], parts[1], parts[2], parts[3]), nil
	default:
		return Path{}, fmt.Errorf("%w: path %q must have 3 or 4 components", ErrNotFound, s)
	}
}

// SplitPath splits a path into its components.
// Leading and trailing slashes are handled, empty components are removed.
//
// Examples:
//   - "/" -> []string{}
//   - "gwf/dis" -> []string{"gwf", "dis"}
//   - "/gwf//dis/" -> []string{"gwf", "dis"}
func SplitPath(path string) []string {
	raw := strings.Split(strings.Trim(path, "/"), "/")
	parts := raw[:0]
	for _, s := range raw {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// ResultKey addresses a result quantity of an entity.
type ResultKey struct {
	Entity   string
	Kind     OutputKind
	Quantity string
}

func (k ResultKey) String() string {
	return k.Entity + "/" + k.Kind.String() + "/" + k.Quantity
}

// OutputKind separates state output (heads) from flow output (budgets).
type OutputKind int

const (
	OutputState OutputKind = iota
	OutputFlow
)

func (k OutputKind) String() string {
	switch k {
	case OutputState:
		return "state"
	case OutputFlow:
		return "flow"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
