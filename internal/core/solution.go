package core

// Step is one tick of a vehicle's plan.
type Step struct {
	Pos    Pos
	T      int
	Action Action
	PickOf *Item // item picked at this step, pick steps only
}

// Path is a time-ordered sequence of steps with consecutive timesteps.
type Path []Step

// At returns the vehicle position at time t. Before its first step the vehicle
// is at its first cell; after its last step it stays parked at the last cell.
func (p Path) At(t int) (Pos, bool) {
	if len(p) == 0 {
		return Pos{}, false
	}
	i := t - p[0].T
	switch {
	case i < 0:
		return p[0].Pos, true
	case i >= len(p):
		return p[len(p)-1].Pos, true
	default:
		return p[i].Pos, true
	}
}

// End returns the timestep of the last step, or -1 for an empty path.
func (p Path) End() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1].T
}

// Count returns how many steps carry the given action.
func (p Path) Count(a Action) int {
	n := 0
	for _, s := range p {
		if s.Action == a {
			n++
		}
	}
	return n
}

// Picks returns the picked items in path order.
func (p Path) Picks() []Item {
	var out []Item
	for _, s := range p {
		if s.Action == ActionPick && s.PickOf != nil {
			out = append(out, *s.PickOf)
		}
	}
	return out
}

// ConflictKind distinguishes vertex from edge conflicts.
type ConflictKind string

const (
	ConflictVertex ConflictKind = "vertex"
	ConflictEdge   ConflictKind = "edge"
)

// Resolution describes how a planned path stepped around a reservation.
type Resolution string

const (
	ResolutionWait   Resolution = "wait"
	ResolutionDetour Resolution = "detour"
)

// PossibleConflict is an advisory note: a better successor was blocked by
// another vehicle's reservation while the path was being planned.
type PossibleConflict struct {
	Coordinate  Pos          `json:"coordinate"`
	T           int          `json:"t"`
	Kind        ConflictKind `json:"conflictType"`
	Resolution  Resolution   `json:"resolution"`
	VehicleCode VehicleCode  `json:"vehicleCode"`
}

// VehiclePlan is the planner output for one vehicle.
type VehiclePlan struct {
	Code      VehicleCode
	Job       Job
	Path      Path
	Conflicts [][]PossibleConflict // per leg, cooperative planner only
	Degraded  bool                 // a leg failed and the remaining legs were skipped
	Err       error
}

// Metrics summarises a finished plan.
type Metrics struct {
	EstimatedPickingTime          int     `json:"estimatedPickingTime"`
	EstimatedVehiclesStoppingTime int     `json:"estimatedVehiclesStoppingTime"`
	IdleSteps                     int     `json:"idleSteps"`
	TotalPathLength               int     `json:"totalPathLength"`
	AveragePathLength             float64 `json:"averagePathLength"`
}

// ComputeMetrics aggregates metrics over plans in roster order. The stopping
// time is the idle count of the last vehicle with a non-empty path.
func ComputeMetrics(plans []VehiclePlan) Metrics {
	var m Metrics
	counted := 0
	for _, vp := range plans {
		if len(vp.Path) == 0 {
			continue
		}
		if len(vp.Path) > m.EstimatedPickingTime {
			m.EstimatedPickingTime = len(vp.Path)
		}
		idle := vp.Path.Count(ActionStop)
		m.IdleSteps += idle
		m.EstimatedVehiclesStoppingTime = idle
		m.TotalPathLength += vp.Path.Count(ActionMove)
		counted++
	}
	if counted > 0 {
		m.AveragePathLength = float64(m.TotalPathLength) / float64(counted)
	}
	return m
}

// Makespan returns the latest end time across plans.
func Makespan(plans []VehiclePlan) int {
	end := 0
	for _, vp := range plans {
		if e := vp.Path.End(); e > end {
			end = e
		}
	}
	return end
}
