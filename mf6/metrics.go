package mf6

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	formatText   = "text"
	formatBinary = "binary"
)

// metrics counts codec activity. A nil *metrics is valid and records nothing.
type metrics struct {
	filesRead    *prometheus.CounterVec
	filesWritten *prometheus.CounterVec
	formatErrors prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		filesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mf6_files_read_total",
			Help: "Input files read, by format.",
		}, []string{"format"}),
		filesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mf6_files_written_total",
			Help: "Input files written, by format.",
		}, []string{"format"}),
		formatErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mf6_format_errors_total",
			Help: "Files rejected as malformed.",
		}),
	}
	if reg == nil {
		return m
	}
	m.filesRead = register(reg, m.filesRead)
	m.filesWritten = register(reg, m.filesWritten)
	m.formatErrors = register(reg, m.formatErrors)
	return m
}

// register registers c, returning the collector already registered under
// the same descriptor when several simulations share a registerer.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) read(format string) {
	if m != nil {
		m.filesRead.WithLabelValues(format).Inc()
	}
}

func (m *metrics) wrote(format string) {
	if m != nil {
		m.filesWritten.WithLabelValues(format).Inc()
	}
}

func (m *metrics) rejected() {
	if m != nil {
		m.formatErrors.Inc()
	}
}
