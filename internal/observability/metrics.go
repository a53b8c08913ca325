// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing used by the placement registry.
package observability

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Placement operations used as the "op" label.
const (
	OpPlace     = "place"
	OpDuplicate = "duplicate"
)

// Placement outcomes used as the "result" label. Rejected requests never
// started a load; only failed ones count as load failures.
const (
	ResultOK        = "ok"
	ResultFailed    = "failed"
	ResultCancelled = "cancelled"
	ResultRejected  = "rejected"
)

// PlacementMetrics records placement throughput, asset load latency and the
// live instance count. A nil *PlacementMetrics is valid and records nothing.
type PlacementMetrics struct {
	Placements   *prometheus.CounterVec
	LoadFailures prometheus.Counter
	Cancelled    prometheus.Counter
	Instances    prometheus.Gauge
	LoadDuration *prometheus.HistogramVec
}

// NewPlacementMetrics registers against reg, defaulting to the global
// registry when nil. Collectors already registered under the same name are
// reused.
func NewPlacementMetrics(reg prometheus.Registerer) (*PlacementMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	placements, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siteplan_placements_total",
		Help: "Placement requests by operation and result.",
	}, []string{"op", "result"}), "siteplan_placements_total")
	if err != nil {
		return nil, err
	}

	failures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siteplan_asset_load_failures_total",
		Help: "Asset loads that failed to produce a model.",
	}), "siteplan_asset_load_failures_total")
	if err != nil {
		return nil, err
	}

	cancelled, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siteplan_placements_cancelled_total",
		Help: "Placements discarded because they were cancelled or the scene was cleared.",
	}), "siteplan_placements_cancelled_total")
	if err != nil {
		return nil, err
	}

	instances, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "siteplan_instances",
		Help: "Model instances currently in the scene.",
	}), "siteplan_instances")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "siteplan_asset_load_duration_seconds",
		Help:    "Time spent loading model assets.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"op"}), "siteplan_asset_load_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &PlacementMetrics{
		Placements:   placements,
		LoadFailures: failures,
		Cancelled:    cancelled,
		Instances:    instances,
		LoadDuration: duration,
	}, nil
}

func (m *PlacementMetrics) ObservePlacement(op, result string) {
	if m == nil || m.Placements == nil {
		return
	}
	m.Placements.WithLabelValues(op, result).Inc()
	switch result {
	case ResultFailed:
		if m.LoadFailures != nil {
			m.LoadFailures.Inc()
		}
	case ResultCancelled:
		if m.Cancelled != nil {
			m.Cancelled.Inc()
		}
	}
}

func (m *PlacementMetrics) ObserveLoad(op string, d time.Duration) {
	if m == nil || m.LoadDuration == nil {
		return
	}
	m.LoadDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *PlacementMetrics) SetInstances(n int) {
	if m == nil || m.Instances == nil {
		return
	}
	m.Instances.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
