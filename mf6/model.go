package mf6

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-mf6/dfn"
)

// Model is a model of a simulation: its name file and packages.
type Model struct {
	name     string
	mtype    string
	sim      *Simulation
	nam      *Package
	packages []*Package
}

func (m *Model) Name() string { return m.name }

// Type returns the model type: gwf.
func (m *Model) Type() string { return m.mtype }

// Simulation returns the owning simulation.
func (m *Model) Simulation() *Simulation { return m.sim }

// NameFile returns the model name file package.
func (m *Model) NameFile() *Package { return m.nam }

// Packages returns the model's packages in name-file order, without the
// name file.
func (m *Model) Packages() []*Package {
	return append([]*Package(nil), m.packages...)
}

// Package returns the package named name.
func (m *Model) Package(name string) (*Package, error) {
	name = strings.ToLower(name)
	if name == m.nam.name {
		return m.nam, nil
	}
	for _, p := range m.packages {
		if p.name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: model %s has no package %s", ErrNotFound, m.name, name)
}

// AddPackage adds a package of type ftype. An empty name defaults to the
// type; the file name defaults to <model>.<ftype>.
func (m *Model) AddPackage(ftype, name string) (*Package, error) {
	ftype = dfn.Normalize(ftype)
	if name == "" {
		name = ftype
	}
	if strings.HasSuffix(ftype, "-nam") {
		return nil, fmt.Errorf("%w: %s is a name file", ErrSchema, ftype)
	}
	if _, err := m.Package(name); err == nil {
		return nil, fmt.Errorf("%w: model %s already has a package %s", ErrSchema, m.name, name)
	}
	if isDiscretization(ftype) {
		if d := m.discretizationPackage(); d != nil {
			return nil, fmt.Errorf("%w: model %s already has discretization %s", ErrSchema, m.name, d.name)
		}
	}
	p, err := m.sim.newPackage(ftype, name, m.name+"."+ftype, m, roleModel)
	if err != nil {
		return nil, err
	}
	m.packages = append(m.packages, p)
	return p, nil
}

func (m *Model) addRaw(ftype, name, fileName string, content []byte) *Package {
	p := m.sim.rawPackage(ftype, name, fileName, m, roleModel, content)
	m.packages = append(m.packages, p)
	return p
}

func (m *Model) discretizationPackage() *Package {
	for _, p := range m.packages {
		if isDiscretization(p.ftype) && p.def != nil {
			return p
		}
	}
	return nil
}

// Discretization returns the model grid from its DIS, DISV or DISU
// dimensions.
func (m *Model) Discretization() (Discretization, error) {
	return m.discretization(m.sim.registry)
}

func (m *Model) discretization(src itemSource) (Discretization, error) {
	d := m.discretizationPackage()
	if d == nil {
		return nil, fmt.Errorf("%w: model %s has no discretization package", ErrSchema, m.name)
	}
	get := func(name string) (int, error) {
		it, ok := src.lookup(d.path("dimensions", name))
		if !ok {
			return 0, fmt.Errorf("%w: %s dimension %s is not set", ErrSchema, d.name, name)
		}
		r, ok := it.(*RecordItem)
		if !ok {
			return 0, fmt.Errorf("%w: %s dimension %s is not a record", ErrSchema, d.name, name)
		}
		return r.Int()
	}
	return recordDims(d.ftype, get)
}

// allPackages returns the name file followed by the packages.
func (m *Model) allPackages() []*Package {
	return append([]*Package{m.nam}, m.packages...)
}
