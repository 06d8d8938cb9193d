// Package sim replays planned paths tick by tick.
//
// The simulator moves every vehicle along its plan, keeps finished vehicles
// parked at their last cell, and records:
// - vertex collisions (two or more vehicles on one cell)
// - swaps (two vehicles exchanging cells in one tick)
// - pick, drop and idle counts
package sim

import (
	"cmp"
	"context"
	"encoding/json"
	"os"
	"slices"
	"sync"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// Collision is a set of vehicles sharing a cell at a timestep.
type Collision struct {
	Codes []core.VehicleCode `json:"codes"`
	T     int                `json:"t"`
	X     int                `json:"x"`
	Y     int                `json:"y"`
}

// Swap is two vehicles crossing the same edge in opposite directions.
type Swap struct {
	A    core.VehicleCode `json:"a"`
	B    core.VehicleCode `json:"b"`
	T    int              `json:"t"`
	From core.Pos         `json:"from"` // A's cell at T-1, B's cell at T
	To   core.Pos         `json:"to"`
}

// SimulationMetrics collects counts during a replay.
type SimulationMetrics struct {
	Ticks          int `json:"ticks"`
	Makespan       int `json:"makespan"`
	PicksCompleted int `json:"picksCompleted"`
	DropsCompleted int `json:"dropsCompleted"`
	IdleSteps      int `json:"idleSteps"`
	Collisions     int `json:"collisions"`
	Swaps          int `json:"swaps"`
}

// Report is the outcome of a replay.
type Report struct {
	Collisions []Collision       `json:"collisions"`
	Swaps      []Swap            `json:"swaps"`
	Metrics    SimulationMetrics `json:"metrics"`
}

// Clean reports whether no vehicles collided or swapped.
func (r *Report) Clean() bool {
	return len(r.Collisions) == 0 && len(r.Swaps) == 0
}

// Simulator replays vehicle plans.
type Simulator struct {
	mu sync.Mutex

	plans []core.VehiclePlan

	// State
	currentTime int
	makespan    int
	poses       []core.Pos
	active      []bool

	report Report
}

// NewSimulator creates a simulator positioned at t=0. Vehicles with an empty
// path take no part in the replay.
func NewSimulator(plans []core.VehiclePlan) *Simulator {
	s := &Simulator{
		plans:    plans,
		makespan: core.Makespan(plans),
		poses:    make([]core.Pos, len(plans)),
		active:   make([]bool, len(plans)),
	}
	for i, vp := range plans {
		s.poses[i], s.active[i] = vp.Path.At(0)
	}
	s.report.Metrics.Makespan = s.makespan
	s.observe(0)
	return s
}

// Time returns the last simulated timestep.
func (s *Simulator) Time() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// Step advances the simulation by one tick. It returns false once every
// plan has finished.
func (s *Simulator) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentTime >= s.makespan {
		return false
	}
	s.currentTime++
	t := s.currentTime

	prev := slices.Clone(s.poses)
	for i, vp := range s.plans {
		if s.active[i] {
			s.poses[i], _ = vp.Path.At(t)
		}
	}
	s.detectSwaps(t, prev)
	s.observe(t)
	s.report.Metrics.Ticks = t
	return true
}

// Run steps until every plan has finished or ctx is done.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	for s.Step() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return s.Report(), nil
}

// Report returns a copy of the report so far with collisions sorted by
// time, then row, then column.
func (s *Simulator) Report() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Report{
		Collisions: slices.Clone(s.report.Collisions),
		Swaps:      slices.Clone(s.report.Swaps),
		Metrics:    s.report.Metrics,
	}
	slices.SortStableFunc(r.Collisions, func(a, b Collision) int {
		return cmp.Or(cmp.Compare(a.T, b.T), cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	})
	return &r
}

// observe records collisions and step actions at t.
func (s *Simulator) observe(t int) {
	occupancy := make(map[core.Pos][]core.VehicleCode)
	var order []core.Pos
	for i, vp := range s.plans {
		if !s.active[i] {
			continue
		}
		p := s.poses[i]
		if _, ok := occupancy[p]; !ok {
			order = append(order, p)
		}
		occupancy[p] = append(occupancy[p], vp.Code)

		if k := t - vp.Path[0].T; k >= 0 && k < len(vp.Path) {
			switch vp.Path[k].Action {
			case core.ActionPick:
				s.report.Metrics.PicksCompleted++
			case core.ActionDrop:
				s.report.Metrics.DropsCompleted++
			case core.ActionStop:
				s.report.Metrics.IdleSteps++
			}
		}
	}
	for _, p := range order {
		if codes := occupancy[p]; len(codes) > 1 {
			s.report.Collisions = append(s.report.Collisions, Collision{Codes: codes, T: t, X: p.X, Y: p.Y})
			s.report.Metrics.Collisions++
		}
	}
}

func (s *Simulator) detectSwaps(t int, prev []core.Pos) {
	for i := range s.plans {
		if !s.active[i] || prev[i] == s.poses[i] {
			continue
		}
		for j := i + 1; j < len(s.plans); j++ {
			if s.active[j] && prev[i] == s.poses[j] && prev[j] == s.poses[i] {
				s.report.Swaps = append(s.report.Swaps, Swap{
					A: s.plans[i].Code, B: s.plans[j].Code, T: t, From: prev[i], To: s.poses[i],
				})
				s.report.Metrics.Swaps++
			}
		}
	}
}

// ExportReport writes the report to a JSON file.
func (s *Simulator) ExportReport(path string) error {
	data, err := json.MarshalIndent(s.Report(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Replay is a convenience function that runs a complete replay.
func Replay(plans []core.VehiclePlan) *Report {
	r, _ := NewSimulator(plans).Run(context.Background())
	return r
}
