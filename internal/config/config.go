package config

import (
	"errors"
	"flag"
	"io"
)

type Config struct {
	Root        string // simulation directory holding mfsim.nam
	Definitions string // extra package definitions, YAML; empty for the built-in set
	Heads       string // binary head file to index; empty to skip
	Model       string // model the head file belongs to
	Precision   int    // digits written after the decimal point; -1 for shortest
	Rewrite     bool   // write the loaded simulation back in place
	Verbose     bool
}

// NewConfig parses command-line arguments, without the program name.
// The first positional argument overrides -root.
func NewConfig(args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("diagnose", flag.ContinueOnError)
	fs.SetOutput(output)
	root := fs.String("root", ".", "simulation directory")
	defs := fs.String("dfn", "", "extra package definitions (YAML)")
	heads := fs.String("heads", "", "binary head file to index")
	model := fs.String("model", "", "model owning the head file")
	prec := fs.Int("precision", -1, "digits after the decimal point when rewriting")
	rewrite := fs.Bool("rewrite", false, "write the simulation back in place")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, errors.New("at most one simulation directory")
	}
	if fs.NArg() == 1 {
		*root = fs.Arg(0)
	}
	if *heads != "" && *model == "" {
		return nil, errors.New("-heads needs -model")
	}

	return &Config{
		Root:        *root,
		Definitions: *defs,
		Heads:       *heads,
		Model:       *model,
		Precision:   *prec,
		Rewrite:     *rewrite,
		Verbose:     *verbose,
	}, nil
}
