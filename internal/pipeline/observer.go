package pipeline

import (
	"github.com/elektrokombinacija/pickplan/internal/algo"
	"github.com/elektrokombinacija/pickplan/internal/logger"
)

// logObserver writes CBS search progress to the debug log.
type logObserver struct {
	log   logger.Logger
	runID string
}

func (o *logObserver) OnNodeExpanded(n algo.NodeInfo) {
	o.log.Debugw("cbs node expanded", map[string]any{
		"run":         o.runID,
		"node":        n.ID,
		"parent":      n.ParentID,
		"depth":       n.Depth,
		"constraints": n.Constraints,
		"cost":        n.Cost,
	})
}

func (o *logObserver) OnConflictDetected(n algo.NodeInfo, c algo.Conflict) {
	o.log.Debugw("cbs conflict", map[string]any{
		"run":  o.runID,
		"node": n.ID,
		"kind": string(c.Kind()),
		"a":    c.A,
		"b":    c.B,
		"x":    c.Pos.X,
		"y":    c.Pos.Y,
		"t":    c.T,
	})
}

func (o *logObserver) OnConstraintAdded(child algo.NodeInfo, c algo.Constraint) {
	o.log.Debugw("cbs constraint", map[string]any{
		"run":     o.runID,
		"node":    child.ID,
		"vehicle": string(c.Vehicle),
		"edge":    c.IsEdge,
		"x":       c.Pos.X,
		"y":       c.Pos.Y,
		"t":       c.T,
	})
}

func (o *logObserver) OnSolutionFound(n algo.NodeInfo) {
	o.log.Infof("run %s: cbs solution at node %d (depth %d, %d constraints, cost %d)",
		o.runID, n.ID, n.Depth, n.Constraints, n.Cost)
}
