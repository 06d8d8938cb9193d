// Package telemetry exports planning runs and CBS search progress as
// Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elektrokombinacija/pickplan/internal/algo"
)

// Outcomes of a planning run.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// RunSample describes one finished planner invocation.
type RunSample struct {
	Planner   string
	Outcome   string
	Duration  time.Duration
	Makespan  int
	IdleSteps int
}

// Recorder receives planning run samples.
type Recorder interface {
	RecordRun(s RunSample)
}

// NopRecorder discards samples.
type NopRecorder struct{}

func (NopRecorder) RecordRun(RunSample) {}

// PromRecorder records runs in Prometheus collectors. It also implements
// algo.Observer to count CBS expansions and conflicts.
type PromRecorder struct {
	gatherer  prometheus.Gatherer
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	makespan  *prometheus.GaugeVec
	idle      *prometheus.GaugeVec
	nodes     prometheus.Counter
	conflicts *prometheus.CounterVec
}

var _ algo.Observer = (*PromRecorder)(nil)

// NewPromRecorder registers the planner metrics on reg under namespace. If
// reg is nil a fresh registry is used. Collectors that are already
// registered are reused.
func NewPromRecorder(namespace string, reg *prometheus.Registry) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &PromRecorder{gatherer: reg}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "planning_runs_total",
		Help:      "Total number of planner invocations",
	}, []string{"planner", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "planning_duration_seconds",
		Help:      "Wall time of a planner invocation",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"planner"})
	makespan := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "plan_makespan_steps",
		Help:      "Latest end timestep across the last plan",
	}, []string{"planner"})
	idle := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "plan_idle_steps",
		Help:      "Stop steps summed over the last plan",
	}, []string{"planner"})
	nodes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cbs_nodes_expanded_total",
		Help:      "Constraint tree nodes expanded by conflict-based search",
	})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cbs_conflicts_total",
		Help:      "Conflicts branched on by conflict-based search",
	}, []string{"kind"})

	var err error
	if r.runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if r.makespan, err = register(reg, makespan); err != nil {
		return nil, err
	}
	if r.idle, err = register(reg, idle); err != nil {
		return nil, err
	}
	if r.nodes, err = register(reg, nodes); err != nil {
		return nil, err
	}
	if r.conflicts, err = register(reg, conflicts); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun implements Recorder.
func (r *PromRecorder) RecordRun(s RunSample) {
	r.runs.WithLabelValues(s.Planner, s.Outcome).Inc()
	r.duration.WithLabelValues(s.Planner).Observe(s.Duration.Seconds())
	if s.Outcome != OutcomeFailed {
		r.makespan.WithLabelValues(s.Planner).Set(float64(s.Makespan))
		r.idle.WithLabelValues(s.Planner).Set(float64(s.IdleSteps))
	}
}

func (r *PromRecorder) OnNodeExpanded(algo.NodeInfo) { r.nodes.Inc() }

func (r *PromRecorder) OnConflictDetected(_ algo.NodeInfo, c algo.Conflict) {
	r.conflicts.WithLabelValues(string(c.Kind())).Inc()
}

func (r *PromRecorder) OnConstraintAdded(algo.NodeInfo, algo.Constraint) {}
func (r *PromRecorder) OnSolutionFound(algo.NodeInfo)                    {}

// WriteTextfile dumps every registered metric in the Prometheus text format,
// for node_exporter's textfile collector.
func (r *PromRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.gatherer)
}
