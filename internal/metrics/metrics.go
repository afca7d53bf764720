package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK          = "ok"
	OutcomeCallerError = "caller_error"
	OutcomeError       = "error"
)

type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bracket_operations_total",
			Help: "Bracket operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bracket_operation_duration_seconds",
			Help:    "Time spent in bracket operations, store round trips included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		m.operations,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one finished operation. Pass time.Now() from before the
// operation started.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Outcome buckets an error into a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case IsCallerError(err):
		return OutcomeCallerError
	default:
		return OutcomeError
	}
}

func IsCallerError(err error) bool {
	for _, target := range []error{
		bracket.ErrInsufficientEntrants,
		bracket.ErrUnsupportedFormat,
		bracket.ErrNotFound,
		bracket.ErrInconsistentResult,
		bracket.ErrAlreadyCompleted,
		bracket.ErrMatchNotReady,
		bracket.ErrInvalidEntrant,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
