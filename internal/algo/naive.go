package algo

import (
	"context"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// Naive routes every vehicle as if it were alone on the grid. Its paths
// show what coordination has to fix.
type Naive struct {
	Slack int
}

func (n *Naive) Name() string { return "naive" }

// Plan implements Planner.
func (n *Naive) Plan(ctx context.Context, g *core.Grid, vehicles []*core.Vehicle) (*Result, error) {
	plans := make([]core.VehiclePlan, len(vehicles))
	var stats Stats
	for i, v := range vehicles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		route, err := planRoute(g, v, startPath(v), nil, routeOptions{Slack: n.Slack})
		stats.StatesExpanded += route.Expanded
		plans[i] = core.VehiclePlan{
			Code:     v.Code,
			Job:      v.Job.Clone(),
			Path:     route.Path,
			Degraded: err != nil,
			Err:      err,
		}
	}
	return newResult(n.Name(), plans, stats), nil
}
