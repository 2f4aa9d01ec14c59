// Diagnostic tool for inspecting MODFLOW 6 simulations
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-mf6/dfn"
	"github.com/robert-malhotra/go-mf6/internal/config"
	"github.com/robert-malhotra/go-mf6/mf6"
)

func main() {
	cfg, err := config.NewConfig(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatal(err)
		}
	}
	defer logger.Sync()

	opts := []mf6.Option{mf6.WithLogger(logger), mf6.WithPrecision(cfg.Precision)}
	if cfg.Definitions != "" {
		catalog, err := loadCatalog(cfg.Definitions)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, mf6.WithCatalog(catalog))
	}

	fmt.Printf("=== Analyzing %s ===\n\n", cfg.Root)
	sim, err := mf6.Load(cfg.Root, opts...)
	if err != nil {
		fmt.Printf("ERROR: Failed to load simulation: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Periods: %d, models: %d, items: %d\n\n", sim.PeriodCount(), len(sim.Models()), sim.Registry().Len())

	if err := mf6.Walk(sim, printObject); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	if cfg.Rewrite {
		if err := sim.Write(); err != nil {
			fmt.Printf("ERROR: Failed to write simulation: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nRewrote simulation in %s\n", sim.Root())
	}

	if cfg.Heads != "" {
		if err := printHeads(sim, cfg); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	}
}

func loadCatalog(path string) (*dfn.Set, error) {
	set := dfn.NewSet()
	if err := set.LoadDefaults(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := set.Load(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

func printObject(path mf6.Path, obj any) error {
	indent := strings.Repeat("  ", depth(path))
	switch o := obj.(type) {
	case *mf6.Simulation:
		fmt.Printf("Simulation %q (%s)\n", o.Name(), o.ID())
	case *mf6.Model:
		fmt.Printf("%sModel %q type %s\n", indent, o.Name(), o.Type())
	case *mf6.Package:
		raw := ""
		if o.IsRaw() {
			raw = " [verbatim]"
		}
		fmt.Printf("%sPackage %q type %s file %s%s\n", indent, o.Name(), o.Type(), o.FileName(), raw)
	case *mf6.Block:
		if n := len(o.Passthrough()); n > 0 || !o.Known() {
			fmt.Printf("%sBlock %s (%d verbatim lines)\n", indent, o.Name(), n)
		}
	case *mf6.ArrayItem:
		fmt.Printf("%s%s: array of %d, layered=%v\n", indent, o.Name(), o.Len(), o.Layered())
	case *mf6.ListItem:
		n, err := o.Len()
		if err != nil {
			fmt.Printf("%s%s: list, ERROR %v\n", indent, o.Name(), err)
			return nil
		}
		fmt.Printf("%s%s: list of %d rows\n", indent, o.Name(), n)
	case *mf6.RecordItem:
		fmt.Printf("%s%s %s\n", indent, strings.ToUpper(o.Name()), strings.Join(o.Words(), " "))
	case *mf6.Transient:
		fmt.Printf("%s%s: %s in periods %v\n", indent, o.Name(), o.Kind(), oneBased(o.Periods()))
	}
	return nil
}

func depth(p mf6.Path) int {
	n := 0
	for _, s := range []string{p.Entity, p.Sub, p.Block, p.Item} {
		if s != "" {
			n++
		}
	}
	return n
}

func oneBased(periods []int) []int {
	out := make([]int, len(periods))
	for i, p := range periods {
		out[i] = p + 1
	}
	return out
}

func printHeads(sim *mf6.Simulation, cfg *config.Config) error {
	reg := sim.Registry()
	if err := reg.IndexResults(cfg.Model, mf6.HeadFile{Path: cfg.Heads}); err != nil {
		return err
	}
	fmt.Println()
	for _, key := range reg.OutputKeys() {
		s, err := reg.LookupResult(key)
		if err != nil {
			return err
		}
		fmt.Printf("Result %s: %d records\n", key, s.Len())
		for _, r := range s.Records() {
			fmt.Printf("  kper %d kstp %d layer %d totim %g (%d values)\n", r.Kper, r.Kstp, r.Layer, r.Totim, r.Count)
		}
	}
	return nil
}
