package mf6

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-mf6/dfn"
	"github.com/robert-malhotra/go-mf6/internal/binary"
	"github.com/robert-malhotra/go-mf6/internal/dtype"
)

// SimNameFile is the simulation name file every simulation starts from.
const SimNameFile = "mfsim.nam"

// Simulation is a MODFLOW 6 simulation rooted in one directory. It owns
// the registry of all items of its packages. A Simulation is not safe for
// concurrent use; independent simulations may be used concurrently.
type Simulation struct {
	name     string
	id       uuid.UUID
	catalog  dfn.Catalog
	registry *Registry
	env      *fileEnv
	sugar    *zap.SugaredLogger
	metrics  *metrics

	nam      *Package
	packages []*Package
	models   []*Model
}

// New creates an empty simulation that writes to root.
func New(name, root string, opts ...Option) (*Simulation, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	catalog := o.catalog
	if catalog == nil {
		catalog = dfn.Default()
	}
	id := uuid.New()
	logger := o.logger.With(zap.String("simulation", name), zap.String("id", id.String()))
	m := newMetrics(o.registerer)
	s := &Simulation{
		name:     name,
		id:       id,
		catalog:  catalog,
		registry: NewRegistry(logger),
		sugar:    logger.Sugar(),
		metrics:  m,
	}
	s.env = &fileEnv{
		root:    root,
		cfg:     binary.Config{ByteOrder: o.order, RealSize: 8},
		format:  dtype.Formatter{Precision: o.precision},
		perLine: o.perLine,
		sugar:   s.sugar,
		metrics: m,
	}
	nam, err := s.newPackage("sim-nam", "nam", SimNameFile, nil, roleNameFile)
	if err != nil {
		return nil, err
	}
	s.nam = nam
	return s, nil
}

func (s *Simulation) Name() string { return s.name }

// ID identifies this in-memory instance in logs.
func (s *Simulation) ID() uuid.UUID { return s.id }

// Root returns the directory files are read from and written to.
func (s *Simulation) Root() string { return s.env.root }

// Registry returns the simulation's item registry.
func (s *Simulation) Registry() *Registry { return s.registry }

// NameFile returns the mfsim.nam package.
func (s *Simulation) NameFile() *Package { return s.nam }

// Models returns the models in name-file order.
func (s *Simulation) Models() []*Model {
	return append([]*Model(nil), s.models...)
}

// Model returns the model named name.
func (s *Simulation) Model(name string) (*Model, error) {
	name = strings.ToLower(name)
	for _, m := range s.models {
		if m.name == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: model %s", ErrNotFound, name)
}

// Packages returns the simulation-level packages without the name file.
func (s *Simulation) Packages() []*Package {
	return append([]*Package(nil), s.packages...)
}

// Package returns the simulation-level package named name; "nam" is the
// simulation name file.
func (s *Simulation) Package(name string) (*Package, error) {
	name = strings.ToLower(name)
	if name == s.nam.name {
		return s.nam, nil
	}
	for _, p := range s.packages {
		if p.name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: simulation package %s", ErrNotFound, name)
}

// TDIS returns the time discretization package, nil if there is none.
func (s *Simulation) TDIS() *Package {
	for _, p := range s.packages {
		if p.role == roleTiming {
			return p
		}
	}
	return nil
}

// PeriodCount returns NPER from TDIS, 0 without TDIS.
func (s *Simulation) PeriodCount() int {
	if n := s.nperBound(); n > 0 {
		return n
	}
	return 0
}

// nperBound is the period bound of transient containers: NPER, or -1
// when it is not known yet.
func (s *Simulation) nperBound() int {
	t := s.TDIS()
	if t == nil || t.def == nil {
		return -1
	}
	r, err := s.registry.Record(t.path("dimensions", "nper"))
	if err != nil {
		return -1
	}
	n, err := r.Int()
	if err != nil {
		return -1
	}
	return n
}

func (s *Simulation) entityTaken(name string) bool {
	if name == s.nam.name {
		return true
	}
	for _, p := range s.packages {
		if p.name == name {
			return true
		}
	}
	for _, m := range s.models {
		if m.name == name {
			return true
		}
	}
	return false
}

// AddPackage adds a simulation-level package: tdis, a solver such as ims,
// or an exchange. An empty name defaults to the type; the file name
// defaults to <simulation>.<ftype>.
func (s *Simulation) AddPackage(ftype, name string) (*Package, error) {
	ftype = dfn.Normalize(ftype)
	if name == "" {
		name = ftype
	}
	name = strings.ToLower(name)
	if strings.HasSuffix(ftype, "-nam") {
		return nil, fmt.Errorf("%w: %s is a name file", ErrSchema, ftype)
	}
	if s.entityTaken(name) {
		return nil, fmt.Errorf("%w: name %s is already used", ErrSchema, name)
	}
	role := simRole(ftype)
	if role == roleTiming && s.TDIS() != nil {
		return nil, fmt.Errorf("%w: simulation already has tdis", ErrSchema)
	}
	p, err := s.newPackage(ftype, name, s.name+"."+ftype, nil, role)
	if err != nil {
		return nil, err
	}
	s.packages = append(s.packages, p)
	return p, nil
}

func simRole(ftype string) packageRole {
	switch {
	case ftype == "tdis":
		return roleTiming
	case strings.Contains(ftype, "-"):
		return roleExchange
	default:
		return roleSolution
	}
}

// AddModel adds a model of type mtype with its name file <name>.nam.
func (s *Simulation) AddModel(name, mtype string) (*Model, error) {
	name = strings.ToLower(name)
	mtype = dfn.Normalize(mtype)
	if name == "" {
		return nil, fmt.Errorf("%w: model without name", ErrSchema)
	}
	if s.entityTaken(name) {
		return nil, fmt.Errorf("%w: name %s is already used", ErrSchema, name)
	}
	m := &Model{name: name, mtype: mtype, sim: s}
	nam, err := s.newPackage(mtype+"-nam", "nam", name+".nam", m, roleNameFile)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	m.nam = nam
	s.models = append(s.models, m)
	return m, nil
}

func (s *Simulation) newPackage(ftype, name, fileName string, m *Model, role packageRole) (*Package, error) {
	def, ok := s.catalog.Package(ftype)
	if !ok {
		return nil, fmt.Errorf("%w: unknown package type %s", ErrSchema, ftype)
	}
	p := &Package{
		name:     strings.ToLower(name),
		ftype:    ftype,
		fileName: fileName,
		role:     role,
		def:      def,
		sim:      s,
		model:    m,
	}
	for i := range def.Blocks {
		p.blocks = append(p.blocks, newBlock(p, &def.Blocks[i]))
	}
	return p, nil
}

func (s *Simulation) rawPackage(ftype, name, fileName string, m *Model, role packageRole, content []byte) *Package {
	return &Package{
		name:     strings.ToLower(name),
		ftype:    ftype,
		fileName: fileName,
		role:     role,
		sim:      s,
		model:    m,
		raw:      content,
	}
}

// Load reads the simulation whose mfsim.nam is in root: the name file,
// TDIS, every model with its packages (discretization first), exchanges
// and solvers. Package types the catalog does not know are kept raw.
func Load(root string, opts ...Option) (*Simulation, error) {
	s, err := New(filepath.Base(filepath.Clean(root)), root, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.sugar.Infow("loaded simulation", "root", root, "models", len(s.models), "items", s.registry.Len())
	return s, nil
}

func (s *Simulation) load() error {
	if err := s.nam.read(); err != nil {
		return err
	}
	tdis, err := s.nam.Record("timing", "tdis6")
	if err != nil {
		return err
	}
	if _, err := s.loadSimPackage("tdis", "tdis", tdis.String(), roleTiming); err != nil {
		return err
	}

	models, err := s.nam.List("models")
	if err != nil {
		return err
	}
	rows, err := models.Rows()
	if err != nil {
		return err
	}
	for _, r := range rows {
		mtype, fname, mname := r.Text[0], r.Text[1], r.Text[2]
		m, err := s.AddModel(mname, mtype)
		if err != nil {
			return err
		}
		m.nam.fileName = fname
		if err := m.load(); err != nil {
			return fmt.Errorf("model %s: %w", m.name, err)
		}
	}

	if ex, err := s.nam.List("exchanges"); err == nil {
		rows, err := ex.Rows()
		if err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := s.loadSimPackage(r.Text[0], "", r.Text[1], roleExchange); err != nil {
				return err
			}
		}
	}
	if sg, err := s.nam.List("solutiongroup"); err == nil {
		rows, err := sg.Rows()
		if err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := s.loadSimPackage(r.Text[0], "", r.Text[1], roleSolution); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Simulation) uniqueName(base string) string {
	name := base
	for i := 2; s.entityTaken(name); i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}

func (s *Simulation) loadSimPackage(ftype, name, fileName string, role packageRole) (*Package, error) {
	ftype = dfn.Normalize(ftype)
	if name == "" {
		name = ftype
	}
	name = s.uniqueName(strings.ToLower(name))
	if _, ok := s.catalog.Package(ftype); !ok {
		content, err := s.env.readRaw(fileName)
		if err != nil {
			return nil, err
		}
		p := s.rawPackage(ftype, name, fileName, nil, role, content)
		s.packages = append(s.packages, p)
		s.sugar.Infow("keeping package verbatim", "type", ftype, "file", fileName)
		return p, nil
	}
	p, err := s.newPackage(ftype, name, fileName, nil, role)
	if err != nil {
		return nil, err
	}
	if err := p.read(); err != nil {
		return nil, err
	}
	s.packages = append(s.packages, p)
	return p, nil
}

func (m *Model) load() error {
	if err := m.nam.read(); err != nil {
		return err
	}
	list, err := m.nam.List("packages")
	if err != nil {
		return err
	}
	rows, err := list.Rows()
	if err != nil {
		return err
	}
	// the grid must exist before any array is read
	ordered := append([]Row(nil), rows...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return isDiscretization(dfn.Normalize(ordered[i].Text[0])) && !isDiscretization(dfn.Normalize(ordered[j].Text[0]))
	})
	for _, r := range ordered {
		ftype := dfn.Normalize(r.Text[0])
		fname := r.Text[1]
		name := ftype
		if len(r.Text) > 2 {
			name = r.Text[2]
		}
		name = m.uniqueName(strings.ToLower(name))
		if _, ok := m.sim.catalog.Package(ftype); !ok {
			content, err := m.sim.env.readRaw(fname)
			if err != nil {
				return err
			}
			m.addRaw(ftype, name, fname, content)
			m.sim.sugar.Infow("keeping package verbatim", "model", m.name, "type", ftype, "file", fname)
			continue
		}
		p, err := m.sim.newPackage(ftype, name, fname, m, roleModel)
		if err != nil {
			return err
		}
		m.packages = append(m.packages, p)
		if err := p.read(); err != nil {
			return err
		}
	}
	sort.SliceStable(m.packages, func(i, j int) bool {
		return packageIndex(rows, m.packages[i].fileName) < packageIndex(rows, m.packages[j].fileName)
	})
	return nil
}

func packageIndex(rows []Row, fileName string) int {
	for i, r := range rows {
		if r.Text[1] == fileName {
			return i
		}
	}
	return len(rows)
}

func (m *Model) uniqueName(base string) string {
	name := base
	for i := 2; ; i++ {
		if _, err := m.Package(name); err != nil {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

func (e *fileEnv) readRaw(fileName string) ([]byte, error) {
	f, err := e.open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	e.metrics.read(formatText)
	return content, nil
}

// Write writes every package file, and every external file whose values
// are held in memory, below the root. Name files are regenerated from the
// models and packages first. Files written before a failure are left on
// disk.
func (s *Simulation) Write() error {
	if err := s.syncNameFiles(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.env.root, 0o755); err != nil {
		return err
	}
	files := 0
	write := func(p *Package) error {
		if err := p.write(); err != nil {
			return fmt.Errorf("writing %s: %w", p.fileName, err)
		}
		files++
		return nil
	}
	if err := write(s.nam); err != nil {
		return err
	}
	for _, p := range s.packages {
		if err := write(p); err != nil {
			return err
		}
	}
	for _, m := range s.models {
		for _, p := range m.allPackages() {
			if err := write(p); err != nil {
				return err
			}
		}
	}
	s.sugar.Infow("wrote simulation", "root", s.env.root, "files", files)
	return nil
}

// syncNameFiles rebuilds the file lists of the name files.
func (s *Simulation) syncNameFiles() error {
	if t := s.TDIS(); t != nil {
		if _, err := s.nam.SetRecord("timing", "tdis6", t.fileName); err != nil {
			return err
		}
	}
	models := make([]Row, 0, len(s.models))
	names := make([]string, 0, len(s.models))
	for _, m := range s.models {
		models = append(models, Row{Text: []string{strings.ToUpper(m.mtype) + "6", m.nam.fileName, m.name}})
		names = append(names, m.name)
	}
	if _, err := s.nam.SetList("models", models); err != nil {
		return err
	}

	if _, err := s.nam.List("solutiongroup"); err != nil {
		var rows []Row
		for _, p := range s.packages {
			if p.role == roleSolution {
				rows = append(rows, Row{Text: append([]string{strings.ToUpper(p.ftype) + "6", p.fileName}, names...)})
			}
		}
		if len(rows) > 0 {
			if _, err := s.nam.SetList("solutiongroup", rows); err != nil {
				return err
			}
			if b, ok := s.nam.Block("solutiongroup"); ok && b.suffix == "" {
				b.suffix = "1"
			}
		}
	}

	for _, m := range s.models {
		rows := make([]Row, 0, len(m.packages))
		for _, p := range m.packages {
			rows = append(rows, Row{Text: []string{strings.ToUpper(p.ftype) + "6", p.fileName, p.name}})
		}
		if _, err := m.nam.SetList("packages", rows); err != nil {
			return fmt.Errorf("model %s: %w", m.name, err)
		}
	}
	return nil
}
