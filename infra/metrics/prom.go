package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/kgc/core/metrics"
)

// PromSink records schedule loads and column toggles in Prometheus metrics.
type PromSink struct {
	loads    *prometheus.CounterVec
	duration prometheus.Histogram
	records  prometheus.Gauge
	runs     prometheus.Gauge
	lastOK   prometheus.Gauge
	toggles  *prometheus.CounterVec
}

// NewPromSink registers schedule metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_loads_total",
			Help: "Total number of schedule load attempts",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "schedule_load_duration_seconds",
			Help:    "Duration of schedule load attempts",
			Buckets: prometheus.DefBuckets,
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schedule_records",
			Help: "Number of records in the current snapshot",
		}),
		runs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schedule_league_runs",
			Help: "Number of merged league runs in the current snapshot",
		}),
		lastOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schedule_last_success_timestamp_seconds",
			Help: "Unix time of the last successful load",
		}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_column_toggles_total",
			Help: "Column visibility changes",
		}, []string{"column", "visible"}),
	}
	var err error
	if s.loads, err = register(reg, s.loads); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.records, err = register(reg, s.records); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.lastOK, err = register(reg, s.lastOK); err != nil {
		return nil, err
	}
	if s.toggles, err = register(reg, s.toggles); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an already registered collector of the same name.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordLoad counts the attempt. Gauges only move on success.
func (s *PromSink) RecordLoad(ev coremetrics.LoadEvent) error {
	s.loads.WithLabelValues(ev.Outcome()).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	if ev.Success {
		s.records.Set(float64(ev.Records))
		s.runs.Set(float64(ev.Runs))
		s.lastOK.Set(float64(ev.Time.Unix()))
	}
	return nil
}

// RecordToggle counts a visibility change.
func (s *PromSink) RecordToggle(ev coremetrics.ToggleEvent) error {
	s.toggles.WithLabelValues(ev.Column, strconv.FormatBool(ev.Visible)).Inc()
	return nil
}
