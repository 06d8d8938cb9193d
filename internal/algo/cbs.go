package algo

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// DefaultMaxNodes bounds the constraint tree when no budget is configured.
const DefaultMaxNodes = 20000

// CBS implements Conflict-Based Search with breadth-first expansion of the
// constraint tree.
type CBS struct {
	MaxNodes int  // expansion budget, 0 means unlimited
	Slack    int  // search slack past the constraint horizon, 0 means grid cells
	Parallel bool // plan the root and both children concurrently
	Observer Observer
}

// NewCBS creates a CBS planner.
func NewCBS(maxNodes int) *CBS {
	return &CBS{MaxNodes: maxNodes, Parallel: true}
}

func (c *CBS) Name() string { return "CBS" }

// cbsNode is a node in the CBS constraint tree. Paths are shared with the
// parent except for the replanned vehicle.
type cbsNode struct {
	id, parent, depth int
	cons              *ConstraintSet
	paths             []core.Path
}

func (n *cbsNode) info() NodeInfo {
	cost := 0
	for _, p := range n.paths {
		cost += p.End()
	}
	return NodeInfo{ID: n.id, ParentID: n.parent, Depth: n.depth, Constraints: n.cons.Len(), Cost: cost}
}

type cbsBranch struct {
	vehicle  int
	con      Constraint
	set      *ConstraintSet
	path     core.Path
	ok       bool
	expanded int
}

// Plan implements Planner. It fails if a vehicle cannot be routed at all,
// when the tree is exhausted, on budget, or on context cancellation.
func (c *CBS) Plan(ctx context.Context, g *core.Grid, vehicles []*core.Vehicle) (*Result, error) {
	obs := c.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	var stats Stats

	root := &cbsNode{parent: -1, cons: EmptyConstraintSet, paths: make([]core.Path, len(vehicles))}
	rootExpanded := make([]int, len(vehicles))
	err := c.each(ctx, len(vehicles), func(i int) error {
		route, err := c.replan(g, vehicles[i], EmptyConstraintSet)
		rootExpanded[i] = route.Expanded
		if err != nil {
			return err
		}
		root.paths[i] = route.Path
		return nil
	})
	for _, n := range rootExpanded {
		stats.StatesExpanded += n
	}
	if err != nil {
		return nil, fmt.Errorf("%w: root: %w", ErrNoSolution, err)
	}

	seen := map[uint64][]*ConstraintSet{root.cons.Key(): {root.cons}}
	queue := []*cbsNode{root}
	nextID := 1

	for head := 0; head < len(queue); head++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.MaxNodes > 0 && stats.NodesExpanded >= c.MaxNodes {
			return nil, fmt.Errorf("%w: %d nodes expanded", ErrSearchBudget, stats.NodesExpanded)
		}
		node := queue[head]
		queue[head] = nil
		stats.NodesExpanded++
		info := node.info()
		obs.OnNodeExpanded(info)

		conflict := FindFirstConflict(node.paths)
		if conflict == nil {
			obs.OnSolutionFound(info)
			plans := make([]core.VehiclePlan, len(vehicles))
			for i, v := range vehicles {
				plans[i] = core.VehiclePlan{Code: v.Code, Job: v.Job.Clone(), Path: node.paths[i]}
			}
			return newResult(c.Name(), plans, stats), nil
		}
		stats.Conflicts++
		obs.OnConflictDetected(info, *conflict)

		// Sets are memoized when first generated, so a branch is never
		// replanned twice even if its replan fails.
		var branches []cbsBranch
		for _, bc := range branchConstraints(*conflict, vehicles) {
			set := node.cons.With(bc.con)
			if markSeen(seen, set) {
				bc.set = set
				branches = append(branches, bc)
			}
		}
		_ = c.each(ctx, len(branches), func(k int) error {
			b := &branches[k]
			route, err := c.replan(g, vehicles[b.vehicle], b.set)
			b.expanded = route.Expanded
			if err == nil {
				b.path, b.ok = route.Path, true
			}
			return nil
		})

		for _, b := range branches {
			stats.StatesExpanded += b.expanded
			if !b.ok {
				continue
			}
			child := &cbsNode{
				id:     nextID,
				parent: node.id,
				depth:  node.depth + 1,
				cons:   b.set,
				paths:  slices.Clone(node.paths),
			}
			child.paths[b.vehicle] = b.path
			nextID++
			obs.OnConstraintAdded(child.info(), b.con)
			queue = append(queue, child)
		}
	}
	return nil, fmt.Errorf("%w: %d nodes expanded", ErrNoSolution, stats.NodesExpanded)
}

// replan routes one vehicle from t=0 under a constraint set.
func (c *CBS) replan(g *core.Grid, v *core.Vehicle, set *ConstraintSet) (routeResult, error) {
	return planRoute(g, v, startPath(v), set, routeOptions{
		Slack:    c.Slack,
		PickHold: 1,
		DropHold: 1,
		Park:     true,
	})
}

// each runs fn for 0..n-1, concurrently when the planner is parallel.
func (c *CBS) each(ctx context.Context, n int, fn func(i int) error) error {
	if !c.Parallel || n < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	eg, _ := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		eg.Go(func() error { return fn(i) })
	}
	return eg.Wait()
}

// branchConstraints returns the constraint for each side of a conflict, in
// roster order. An edge conflict forbids each vehicle its own traversal.
func branchConstraints(cf Conflict, vehicles []*core.Vehicle) [2]cbsBranch {
	a, b := vehicles[cf.A].Code, vehicles[cf.B].Code
	if cf.IsEdge {
		return [2]cbsBranch{
			{vehicle: cf.A, con: Constraint{Vehicle: a, Pos: cf.Pos, From: cf.From, T: cf.T, IsEdge: true}},
			{vehicle: cf.B, con: Constraint{Vehicle: b, Pos: cf.From, From: cf.Pos, T: cf.T, IsEdge: true}},
		}
	}
	return [2]cbsBranch{
		{vehicle: cf.A, con: Constraint{Vehicle: a, Pos: cf.Pos, T: cf.T}},
		{vehicle: cf.B, con: Constraint{Vehicle: b, Pos: cf.Pos, T: cf.T}},
	}
}

// markSeen records set and reports whether it was new.
func markSeen(seen map[uint64][]*ConstraintSet, set *ConstraintSet) bool {
	bucket := seen[set.Key()]
	for _, s := range bucket {
		if s.Equal(set) {
			return false
		}
	}
	seen[set.Key()] = append(bucket, set)
	return true
}
