package mf6

import (
	"encoding/binary"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-mf6/dfn"
)

// Option configures a Simulation.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	catalog    dfn.Catalog
	registerer prometheus.Registerer
	precision  int
	perLine    int
	order      binary.ByteOrder
}

func defaultOptions() *options {
	return &options{
		logger:    zap.NewNop(),
		precision: -1,
		perLine:   10,
		order:     binary.LittleEndian,
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCatalog sets the package definition catalog. The default is
// dfn.Default().
func WithCatalog(c dfn.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithMetrics registers codec counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithPrecision writes reals in scientific notation with p digits after the
// decimal point. Negative p (the default) writes the shortest representation
// that reads back exactly.
func WithPrecision(p int) Option {
	return func(o *options) {
		o.precision = p
	}
}

// WithValuesPerLine sets how many array values are written per line.
func WithValuesPerLine(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.perLine = n
		}
	}
}

// WithByteOrder sets the byte order of binary external files. The default
// is little-endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *options) {
		if order != nil {
			o.order = order
		}
	}
}
