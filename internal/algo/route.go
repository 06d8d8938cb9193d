package algo

import (
	"fmt"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// routeOptions controls how each leg of a vehicle's route is searched.
type routeOptions struct {
	Slack    int
	PickHold int
	DropHold int
	Park     bool // final return leg only
	Annotate bool
	// OnLeg receives the steps appended for a leg, prefixed by the step the
	// leg departed from.
	OnLeg func(seg []core.Step)
}

type routeResult struct {
	Path      core.Path
	Conflicts [][]core.PossibleConflict
	Expanded  int
}

// planRoute chains searches through the vehicle's legs, continuing from the
// last step of prefix. A pick or drop leg ends with an extra pick or drop
// step one tick after arrival. On a failed leg the route so far is returned
// with the error.
func planRoute(g *core.Grid, v *core.Vehicle, prefix core.Path, cons Constraints, opts routeOptions) (routeResult, error) {
	res := routeResult{Path: append(core.Path(nil), prefix...)}
	legs := v.Legs()
	for i, leg := range legs {
		from := res.Path[len(res.Path)-1]
		req := SearchRequest{
			Grid:        g,
			Vehicle:     v.Code,
			Start:       from.Pos,
			StartTime:   from.T,
			Goal:        leg.Goal,
			Constraints: cons,
			Slack:       opts.Slack,
			Annotate:    opts.Annotate,
		}
		switch leg.Action {
		case core.ActionPick:
			req.Hold = opts.PickHold
		case core.ActionDrop:
			req.Hold = opts.DropHold
		default:
			req.Park = opts.Park && i == len(legs)-1
		}

		sr, err := Search(req)
		res.Expanded += sr.Expanded
		if err != nil {
			if opts.Annotate {
				res.Conflicts = append(res.Conflicts, nil)
			}
			return res, fmt.Errorf("vehicle %s leg %d/%d to %v: %w", v.Code, i+1, len(legs), leg.Goal, err)
		}

		mark := len(res.Path) - 1
		res.Path = append(res.Path, sr.Steps[1:]...)
		if leg.Action == core.ActionPick || leg.Action == core.ActionDrop {
			res.Path = append(res.Path, core.Step{
				Pos:    leg.Goal,
				T:      res.Path[len(res.Path)-1].T + 1,
				Action: leg.Action,
				PickOf: leg.Item,
			})
		}
		if opts.Annotate {
			res.Conflicts = append(res.Conflicts, sr.Annotations)
		}
		if opts.OnLeg != nil {
			opts.OnLeg(res.Path[mark:])
		}
	}
	return res, nil
}

func startPath(v *core.Vehicle) core.Path {
	return core.Path{{Pos: v.Start, T: 0, Action: core.ActionStop}}
}
