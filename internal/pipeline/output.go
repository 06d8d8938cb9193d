package pipeline

import (
	"github.com/elektrokombinacija/pickplan/internal/algo"
	"github.com/elektrokombinacija/pickplan/internal/core"
	"github.com/elektrokombinacija/pickplan/internal/sim"
)

// PathStep is one step of a vehicle path as written to plan output.
type PathStep struct {
	X      int         `json:"x"`
	Y      int         `json:"y"`
	T      int         `json:"t"`
	Action core.Action `json:"action"`
	Item   core.ItemID `json:"item,omitempty"`
}

// VehicleOutput is one vehicle's job and path.
type VehicleOutput struct {
	Code      core.VehicleCode          `json:"code"`
	Job       core.Job                  `json:"job"`
	Path      []PathStep                `json:"path"`
	Conflicts [][]core.PossibleConflict `json:"conflicts,omitempty"`
	Degraded  bool                      `json:"degraded,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// PlanOutput is the result of planning one instance with one planner.
type PlanOutput struct {
	RunID    string          `json:"runId"`
	Instance string          `json:"instance"`
	Planner  string          `json:"planner"`
	Seed     int64           `json:"seed"`
	Vehicles []VehicleOutput `json:"vehicles"`
	Metrics  core.Metrics    `json:"metrics"`
	Stats    algo.Stats      `json:"stats"`

	Result *algo.Result `json:"-"`
}

// NaivePreview shows what uncoordinated routing would collide on.
type NaivePreview struct {
	Metrics            core.Metrics    `json:"metrics"`
	ConflictsToResolve []sim.Collision `json:"conflictsToResolve"`
}

// PlannerPreview is a coordinated planner's share of a preview.
type PlannerPreview struct {
	Metrics  *core.Metrics   `json:"metrics,omitempty"`
	Vehicles []VehicleOutput `json:"vehicles,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// PreviewOutput compares the naive, CA and CBS planners on the same jobs.
type PreviewOutput struct {
	RunID    string         `json:"runId"`
	Instance string         `json:"instance"`
	Seed     int64          `json:"seed"`
	Naive    NaivePreview   `json:"naive"`
	CA       PlannerPreview `json:"CA"`
	CBS      PlannerPreview `json:"CBS"`
}

func vehicleOutputs(plans []core.VehiclePlan, withConflicts bool) []VehicleOutput {
	out := make([]VehicleOutput, len(plans))
	for i, vp := range plans {
		vo := VehicleOutput{
			Code:     vp.Code,
			Job:      vp.Job,
			Path:     make([]PathStep, len(vp.Path)),
			Degraded: vp.Degraded,
		}
		if vo.Job.Items == nil {
			vo.Job.Items = []core.Item{}
		}
		for j, s := range vp.Path {
			ps := PathStep{X: s.Pos.X, Y: s.Pos.Y, T: s.T, Action: s.Action}
			if s.PickOf != nil {
				ps.Item = s.PickOf.ID
			}
			vo.Path[j] = ps
		}
		if withConflicts {
			vo.Conflicts = make([][]core.PossibleConflict, len(vp.Conflicts))
			for j, leg := range vp.Conflicts {
				if leg == nil {
					leg = []core.PossibleConflict{}
				}
				vo.Conflicts[j] = leg
			}
		}
		if vp.Err != nil {
			vo.Error = vp.Err.Error()
		}
		out[i] = vo
	}
	return out
}

func plannerPreview(res *algo.Result, err error, withConflicts bool) PlannerPreview {
	if err != nil {
		return PlannerPreview{Error: err.Error()}
	}
	m := res.Metrics
	return PlannerPreview{Metrics: &m, Vehicles: vehicleOutputs(res.Plans, withConflicts)}
}
