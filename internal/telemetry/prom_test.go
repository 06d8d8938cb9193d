package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/pickplan/internal/algo"
)

func TestPromRecorder_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPromRecorder("pickplan", reg)
	require.NoError(t, err)

	rec.RecordRun(RunSample{Planner: "CA", Outcome: OutcomeOK, Duration: 3 * time.Millisecond, Makespan: 17, IdleSteps: 4})
	rec.RecordRun(RunSample{Planner: "CBS", Outcome: OutcomeFailed, Duration: time.Second})

	expected := `
# HELP pickplan_planning_runs_total Total number of planner invocations
# TYPE pickplan_planning_runs_total counter
pickplan_planning_runs_total{outcome="failed",planner="CBS"} 1
pickplan_planning_runs_total{outcome="ok",planner="CA"} 1
`
	if err := testutil.CollectAndCompare(rec.runs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	assert.Equal(t, 17.0, testutil.ToFloat64(rec.makespan.WithLabelValues("CA")))
	assert.Equal(t, 4.0, testutil.ToFloat64(rec.idle.WithLabelValues("CA")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.makespan))
	assert.Equal(t, 2, testutil.CollectAndCount(rec.duration))
}

func TestPromRecorder_Observer(t *testing.T) {
	rec, err := NewPromRecorder("pickplan", nil)
	require.NoError(t, err)

	var obs algo.Observer = rec
	obs.OnNodeExpanded(algo.NodeInfo{})
	obs.OnNodeExpanded(algo.NodeInfo{ID: 1})
	obs.OnConflictDetected(algo.NodeInfo{}, algo.Conflict{IsEdge: true})
	obs.OnConflictDetected(algo.NodeInfo{}, algo.Conflict{})
	obs.OnConflictDetected(algo.NodeInfo{}, algo.Conflict{})
	obs.OnSolutionFound(algo.NodeInfo{})

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.nodes))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.conflicts.WithLabelValues("edge")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.conflicts.WithLabelValues("vertex")))
}

func TestNewPromRecorderReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromRecorder("pickplan", reg)
	require.NoError(t, err)
	b, err := NewPromRecorder("pickplan", reg)
	require.NoError(t, err)

	a.RecordRun(RunSample{Planner: "CA", Outcome: OutcomeOK})
	assert.Equal(t, 1.0, testutil.ToFloat64(b.runs.WithLabelValues("CA", OutcomeOK)))
}

func TestWriteTextfile(t *testing.T) {
	rec, err := NewPromRecorder("wh", nil)
	require.NoError(t, err)
	rec.RecordRun(RunSample{Planner: "CA", Outcome: OutcomeDegraded, Makespan: 9})

	path := filepath.Join(t.TempDir(), "pickplan.prom")
	require.NoError(t, rec.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `wh_planning_runs_total{outcome="degraded",planner="CA"} 1`)
	assert.Contains(t, string(data), `wh_plan_makespan_steps{planner="CA"} 9`)
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	r.RecordRun(RunSample{})
}
