package expiry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "trash_expiry"

// Deletion results, used as the "result" label.
const (
	ResultDeleted   = "deleted"
	ResultFailed    = "failed"
	ResultProtected = "protected"
	ResultDryRun    = "dry_run"
)

// Metrics collects pass statistics in a private registry so they can be
// exported through the node_exporter textfile collector.
type Metrics struct {
	registry    *prometheus.Registry
	textfile    string
	itemsTotal  *prometheus.CounterVec
	deletions   *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastRun     prometheus.Gauge
	runDuration prometheus.Gauge
}

// NewMetrics creates the metric set. textfile may be empty, in which case
// WriteTextfile does nothing.
func NewMetrics(textfile string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "items_total",
				Help:      "Trashed items seen, by expiry class",
			},
			[]string{"class"},
		),
		deletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "deletions_total",
				Help:      "Expired items by deletion outcome",
			},
			[]string{"result"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "errors_total",
				Help:      "Non-fatal errors, by kind",
			},
			[]string{"kind"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Start time of the last expiry pass",
			},
		),
		runDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of the last expiry pass",
			},
		),
	}

	// pre-create label values so every series is exported from the first pass
	for _, c := range Classes {
		m.itemsTotal.WithLabelValues(c.String())
	}
	for _, r := range []string{ResultDeleted, ResultFailed, ResultProtected, ResultDryRun} {
		m.deletions.WithLabelValues(r)
	}

	m.registry.MustRegister(
		m.itemsTotal,
		m.deletions,
		m.errorsTotal,
		m.lastRun,
		m.runDuration,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe adds the outcome of a finished pass.
func (m *Metrics) Observe(r *Report) {
	for _, c := range Classes {
		m.itemsTotal.WithLabelValues(c.String()).Add(float64(r.ClassCount(c)))
	}

	failed := 0
	for kind, n := range r.ErrorsByKind() {
		m.errorsTotal.WithLabelValues(kind).Add(float64(n))
		if kind == KindDeletionFailed {
			failed = n
		}
	}

	m.deletions.WithLabelValues(ResultDeleted).Add(float64(r.Deleted))
	m.deletions.WithLabelValues(ResultFailed).Add(float64(failed))
	m.deletions.WithLabelValues(ResultProtected).Add(float64(r.Protected))
	if r.DryRun {
		m.deletions.WithLabelValues(ResultDryRun).Add(float64(r.Expired - r.Protected))
	}

	m.lastRun.Set(float64(r.Started.Unix()))
	m.runDuration.Set(r.Duration.Seconds())
}

// WriteTextfile atomically writes the registry to the configured textfile.
func (m *Metrics) WriteTextfile() error {
	if m.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", m.textfile, err)
	}
	return nil
}
