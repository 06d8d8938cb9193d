package algo

import (
	"context"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// Cooperative is prioritized planning over a shared reservation table.
// Vehicles are planned one at a time in roster order; each one treats the
// footprints of the vehicles before it as hard obstacles and is never
// revisited.
type Cooperative struct {
	Slack int // search slack past the table horizon, 0 means grid cells

	afterVehicle func(i int, rt *ReservationTable)
}

// NewCooperative creates a cooperative reservation planner.
func NewCooperative(slack int) *Cooperative {
	return &Cooperative{Slack: slack}
}

func (c *Cooperative) Name() string { return "CA" }

// Plan implements Planner. Vehicle i waits at its start for i ticks before
// its first leg. A finished vehicle stays parked on its last cell, and later
// vehicles route around it. A failed leg degrades that vehicle only; it parks
// where its partial path ends, which vehicles planned before it never saw, so
// only plans without degraded vehicles are guaranteed collision free.
func (c *Cooperative) Plan(ctx context.Context, g *core.Grid, vehicles []*core.Vehicle) (*Result, error) {
	rt := NewReservationTable()

	// Every stagger is known before planning, so earlier vehicles route
	// around later vehicles still waiting at their starts.
	prefixes := make([]core.Path, len(vehicles))
	for i, v := range vehicles {
		prefixes[i] = stagger(v.Start, i)
		rt.ReserveSteps(v.Code, prefixes[i])
	}

	plans := make([]core.VehiclePlan, len(vehicles))
	var stats Stats
	for i, v := range vehicles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		code := v.Code
		route, err := planRoute(g, v, prefixes[i], rt, routeOptions{
			Slack:    c.Slack,
			PickHold: 2,
			DropHold: 1,
			Park:     true,
			Annotate: true,
			OnLeg:    func(seg []core.Step) { rt.ReserveLeg(code, seg) },
		})
		stats.StatesExpanded += route.Expanded
		if n := len(route.Path); n > 0 {
			rt.Park(code, route.Path[n-1])
		}
		plans[i] = core.VehiclePlan{
			Code:      v.Code,
			Job:       v.Job.Clone(),
			Path:      route.Path,
			Conflicts: route.Conflicts,
			Degraded:  err != nil,
			Err:       err,
		}
		if c.afterVehicle != nil {
			c.afterVehicle(i, rt)
		}
	}

	res := newResult(c.Name(), plans, stats)
	res.Reservations = rt
	return res, nil
}

// stagger returns the i+1 stop steps a vehicle spends at its start before
// planning begins at t=i.
func stagger(start core.Pos, i int) core.Path {
	p := make(core.Path, i+1)
	for t := range p {
		p[t] = core.Step{Pos: start, T: t, Action: core.ActionStop}
	}
	return p
}
