package dfn

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defs/*.yaml
var embedded embed.FS

// Set is a Catalog backed by an in-memory map.
type Set struct {
	pkgs map[string]*Package
}

// NewSet returns an empty definition set.
func NewSet() *Set {
	return &Set{pkgs: make(map[string]*Package)}
}

type document struct {
	Packages []*Package `yaml:"packages"`
}

// Package implements Catalog. The version suffix of a file type ("DIS6")
// is ignored.
func (s *Set) Package(ftype string) (*Package, bool) {
	p, ok := s.pkgs[Normalize(ftype)]
	return p, ok
}

// Add validates, indexes and stores p, replacing any definition with the
// same name.
func (s *Set) Add(p *Package) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Index()
	s.pkgs[Normalize(p.Name)] = p
	return nil
}

// Names returns the sorted file types in the set.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.pkgs))
	for n := range s.pkgs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load decodes a YAML definition document and adds its packages to s.
func (s *Set) Load(r io.Reader) error {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decoding definitions: %w", err)
	}
	for _, p := range doc.Packages {
		if err := s.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// LoadFS loads every file of fsys matching pattern.
func (s *Set) LoadFS(fsys fs.FS, pattern string) error {
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return err
	}
	for _, name := range matches {
		f, err := fsys.Open(name)
		if err != nil {
			return err
		}
		err = s.Load(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path.Base(name), err)
		}
	}
	return nil
}

// Load reads a single YAML definition document into a new Set.
func Load(r io.Reader) (*Set, error) {
	s := NewSet()
	if err := s.Load(r); err != nil {
		return nil, err
	}
	return s, nil
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// Default returns the catalog of embedded definitions. The returned set is
// shared; callers that need to add definitions should build their own with
// NewSet and LoadDefaults.
func Default() *Set {
	defaultOnce.Do(func() {
		defaultSet = NewSet()
		defaultErr = defaultSet.LoadFS(embedded, "defs/*.yaml")
	})
	if defaultErr != nil {
		panic("dfn: embedded definitions: " + defaultErr.Error())
	}
	return defaultSet
}

// LoadDefaults adds the embedded definitions to s.
func (s *Set) LoadDefaults() error {
	return s.LoadFS(embedded, "defs/*.yaml")
}

// Normalize maps a file type as written in name files ("DIS6", "gwf6")
// to the definition name ("dis", "gwf").
func Normalize(ftype string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(ftype)), "6")
}
