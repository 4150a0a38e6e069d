// Package metrics collects run and discovery metrics on a private Prometheus
// registry and exports them in the node_exporter textfile format.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AndreyAkinshin/testbridge/internal/discovery"
	bridgeerrors "github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/outcome"
	"github.com/AndreyAkinshin/testbridge/internal/runner"
)

const Namespace = "testbridge"

// Result label values.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultCancelled = "cancelled"
)

// Collector holds every testbridge metric.
type Collector struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	testsTotal       *prometheus.CounterVec
	testsMissing     prometheus.Counter
	testsUnknown     prometheus.Counter
	errorsTotal      *prometheus.CounterVec
	discoveriesTotal *prometheus.CounterVec
	discoveredNodes  prometheus.Gauge
	discoveredLeaves prometheus.Gauge
}

var _ runner.Observer = (*Collector)(nil)

// New creates a Collector registered on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Count of test runs by mode and result",
		}, []string{"mode", "result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of test runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"mode"}),
		testsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_total",
			Help:      "Count of terminal statuses reported to run sessions",
		}, []string{"status"}),
		testsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_missing_total",
			Help:      "Count of dispatched tests the runner reported no outcome for",
		}),
		testsUnknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_unknown_total",
			Help:      "Count of outcomes for tests that were not dispatched",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Count of errors by kind and process reason",
		}, []string{"kind", "reason"}),
		discoveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "discoveries_total",
			Help:      "Count of discoveries by result",
		}, []string{"result"}),
		discoveredNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "discovered_nodes",
			Help:      "Nodes in the test tree after the last discovery",
		}),
		discoveredLeaves: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "discovered_leaves",
			Help:      "Leaf tests in the test tree after the last discovery",
		}),
	}

	c.registry.MustRegister(
		c.runsTotal,
		c.runDuration,
		c.testsTotal,
		c.testsMissing,
		c.testsUnknown,
		c.errorsTotal,
		c.discoveriesTotal,
		c.discoveredNodes,
		c.discoveredLeaves,
	)
	return c
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveRun implements runner.Observer.
func (c *Collector) ObserveRun(r *runner.Report, err error) {
	mode := "run"
	if r.Debug {
		mode = "debug"
	}
	c.runsTotal.WithLabelValues(mode, resultLabel(err, r.Cancelled)).Inc()
	c.runDuration.WithLabelValues(mode).Observe(r.Duration.Seconds())

	for _, s := range []outcome.Status{outcome.StatusPassed, outcome.StatusFailed, outcome.StatusErrored, outcome.StatusSkipped} {
		if n := r.Reported[s]; n > 0 {
			c.testsTotal.WithLabelValues(s.String()).Add(float64(n))
		}
	}
	c.testsMissing.Add(float64(len(r.Missing)))
	c.testsUnknown.Add(float64(len(r.Unknown)))
	c.RecordError(err)
}

// ObserveDiscovery records a finished discovery.
func (c *Collector) ObserveDiscovery(res *discovery.Result, err error) {
	cancelled := res != nil && res.Cancelled
	c.discoveriesTotal.WithLabelValues(resultLabel(err, cancelled)).Inc()
	if err == nil && !cancelled && res != nil {
		c.discoveredNodes.Set(float64(res.Stats.Nodes))
		c.discoveredLeaves.Set(float64(res.Stats.Leaves))
	}
	c.RecordError(err)
}

// RecordError counts err by its classification. Nil errors are ignored.
func (c *Collector) RecordError(err error) {
	if err == nil {
		return
	}
	kind, reason := "unclassified", "none"
	var be *bridgeerrors.BridgeError
	if errors.As(err, &be) {
		kind = be.Kind.String()
		reason = be.Reason.String()
	} else if errors.Is(err, runner.ErrRunInProgress) {
		kind = "overlap"
	}
	c.errorsTotal.WithLabelValues(kind, reason).Inc()
}

// WriteTextfile writes all metrics to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

func resultLabel(err error, cancelled bool) string {
	switch {
	case err != nil:
		return ResultError
	case cancelled:
		return ResultCancelled
	default:
		return ResultOK
	}
}
