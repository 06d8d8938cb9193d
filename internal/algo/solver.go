// Package algo implements the path planners: space-time A*, cooperative
// reservation planning, conflict-based search and the naive baseline.
package algo

import (
	"context"
	"errors"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

var (
	// ErrNoPath means a single-vehicle search exhausted its horizon.
	ErrNoPath = errors.New("algo: no path")
	// ErrNoSolution means conflict-based search ran out of nodes to expand.
	ErrNoSolution = errors.New("algo: no conflict-free solution")
	// ErrSearchBudget means conflict-based search hit its node budget.
	ErrSearchBudget = errors.New("algo: search budget exhausted")
)

// Planner produces one path per vehicle, in roster order.
type Planner interface {
	// Plan computes paths for vehicles whose jobs are already assigned.
	Plan(ctx context.Context, g *core.Grid, vehicles []*core.Vehicle) (*Result, error)

	// Name returns the planner name.
	Name() string
}

// Result is the output of one planner run.
type Result struct {
	Planner string
	Plans   []core.VehiclePlan
	Metrics core.Metrics
	Stats   Stats

	// Reservations is the final reservation table (cooperative planner only).
	Reservations *ReservationTable
}

// Stats counts search effort.
type Stats struct {
	StatesExpanded int `json:"statesExpanded"` // A* states across all searches
	NodesExpanded  int `json:"nodesExpanded"`  // CBS high-level nodes
	Conflicts      int `json:"conflicts"`      // CBS conflicts branched on
	Degraded       int `json:"degraded"`       // vehicles with a failed leg
}

func newResult(name string, plans []core.VehiclePlan, stats Stats) *Result {
	for _, vp := range plans {
		if vp.Degraded {
			stats.Degraded++
		}
	}
	return &Result{
		Planner: name,
		Plans:   plans,
		Metrics: core.ComputeMetrics(plans),
		Stats:   stats,
	}
}

// Conflict is a collision between two vehicles, identified by roster index.
type Conflict struct {
	A, B   int
	Pos    core.Pos // A's cell at T
	T      int
	IsEdge bool
	From   core.Pos // A's cell at T-1, edge conflicts only
}

// Kind returns the conflict kind.
func (c Conflict) Kind() core.ConflictKind {
	if c.IsEdge {
		return core.ConflictEdge
	}
	return core.ConflictVertex
}

// FindFirstConflict returns the earliest conflict among paths, or nil.
// Vehicles that have finished stay parked at their last cell. A vertex
// conflict at any t wins over every swap; within each sweep the lowest t
// wins and pairs are scanned in roster order.
func FindFirstConflict(paths []core.Path) *Conflict {
	end := 0
	for _, p := range paths {
		end = max(end, p.End())
	}
	for t := 0; t <= end; t++ {
		if c := vertexConflictAt(paths, t); c != nil {
			return c
		}
	}
	for t := 1; t <= end; t++ {
		if c := edgeConflictAt(paths, t); c != nil {
			return c
		}
	}
	return nil
}

// FindAllConflicts returns every pairwise conflict, ordered by time.
func FindAllConflicts(paths []core.Path) []Conflict {
	end := 0
	for _, p := range paths {
		end = max(end, p.End())
	}
	var out []Conflict
	for t := 0; t <= end; t++ {
		for i := range paths {
			for j := i + 1; j < len(paths); j++ {
				if c, ok := pairConflict(paths, i, j, t, false); ok {
					out = append(out, c)
				}
			}
		}
		if t == 0 {
			continue
		}
		for i := range paths {
			for j := i + 1; j < len(paths); j++ {
				if c, ok := pairConflict(paths, i, j, t, true); ok {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

func vertexConflictAt(paths []core.Path, t int) *Conflict {
	for i := range paths {
		for j := i + 1; j < len(paths); j++ {
			if c, ok := pairConflict(paths, i, j, t, false); ok {
				return &c
			}
		}
	}
	return nil
}

func edgeConflictAt(paths []core.Path, t int) *Conflict {
	for i := range paths {
		for j := i + 1; j < len(paths); j++ {
			if c, ok := pairConflict(paths, i, j, t, true); ok {
				return &c
			}
		}
	}
	return nil
}

func pairConflict(paths []core.Path, i, j, t int, edge bool) (Conflict, bool) {
	pi, ok := paths[i].At(t)
	if !ok {
		return Conflict{}, false
	}
	pj, ok := paths[j].At(t)
	if !ok {
		return Conflict{}, false
	}
	if !edge {
		return Conflict{A: i, B: j, Pos: pi, T: t}, pi == pj
	}
	qi, _ := paths[i].At(t - 1)
	qj, _ := paths[j].At(t - 1)
	if qi != pi && qi == pj && qj == pi {
		return Conflict{A: i, B: j, Pos: pi, T: t, IsEdge: true, From: qi}, true
	}
	return Conflict{}, false
}
