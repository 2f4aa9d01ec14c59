package mf6

// WalkFunc is called for each object during traversal.
// path addresses the object: empty for the simulation, the entity (and
// package) for models and packages, down to the item for items.
// obj is a *Simulation, *Model, *Package, *Block or Item.
// Return nil to continue walking, or an error to stop.
type WalkFunc func(path Path, obj any) error

// Walk visits the simulation, its packages, its models with their
// packages, and every block and present item, in file order.
//
// Example:
//
//	Walk(sim, func(path Path, obj any) error {
//	    switch o := obj.(type) {
//	    case *Package:
//	        fmt.Println("package:", path, o.FileName())
//	    case *ArrayItem:
//	        fmt.Println("array:", path, o.Len())
//	    }
//	    return nil
//	})
func Walk(s *Simulation, fn WalkFunc) error {
	if err := fn(Path{}, s); err != nil {
		return err
	}
	if err := walkPackage(s.nam, fn); err != nil {
		return err
	}
	for _, p := range s.packages {
		if err := walkPackage(p, fn); err != nil {
			return err
		}
	}
	for _, m := range s.models {
		if err := fn(Path{Entity: m.name}, m); err != nil {
			return err
		}
		for _, p := range m.allPackages() {
			if err := walkPackage(p, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkPackage visits a package, its blocks and their items.
func walkPackage(p *Package, fn WalkFunc) error {
	base := p.path("", "")
	if err := fn(base, p); err != nil {
		return err
	}
	for _, b := range p.blocks {
		bp := base
		bp.Block = b.name
		if err := fn(bp, b); err != nil {
			return err
		}
		for _, it := range b.Items() {
			if err := fn(p.path(b.name, it.Name()), it); err != nil {
				return err
			}
		}
	}
	return nil
}
