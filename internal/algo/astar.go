package algo

import (
	"container/heap"
	"fmt"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// SearchRequest describes one time-expanded A* query from (Start, StartTime)
// to Goal.
type SearchRequest struct {
	Grid        *core.Grid
	Vehicle     core.VehicleCode
	Start       core.Pos
	StartTime   int
	Goal        core.Pos
	Constraints Constraints // nil means unconstrained

	// Hold is the number of ticks after arrival that must be free at Goal.
	Hold int
	// Park requires Goal to be free of constraints forever after arrival.
	Park bool
	// Slack bounds the search to max(StartTime, Constraints.Horizon()) + Slack.
	// Zero uses the number of grid cells.
	Slack int
	// Annotate records blocked alternatives along the returned path.
	Annotate bool
}

// SearchResult is a found path. Steps[0] is the start state, tagged as a
// stop; every later step is a move or a stop.
type SearchResult struct {
	Steps       []core.Step
	Annotations []core.PossibleConflict
	Expanded    int
}

// searchNode lives in an arena; parents are arena indices.
type searchNode struct {
	pos    core.Pos
	t      int
	g      int
	parent int32
}

type openEntry struct {
	f    int
	seq  int
	node int32
}

// openList implements heap.Interface ordered by f, then insertion order.
type openList []openEntry

func (h openList) Len() int { return len(h) }
func (h openList) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h openList) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *openList) Push(x any)   { *h = append(*h, x.(openEntry)) }
func (h *openList) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// successorMoves are tried in this order; the last entry is a wait.
var successorMoves = [...]core.Pos{
	core.Directions[0], core.Directions[1], core.Directions[2], core.Directions[3], {},
}

// Search runs space-time A* with Manhattan distance as the heuristic. The
// result is a shortest path in time among those that honour the constraints.
// It fails with ErrNoPath when the goal cannot be reached within the horizon.
func Search(req SearchRequest) (SearchResult, error) {
	g := req.Grid
	if !g.Passable(req.Start) || !g.Passable(req.Goal) {
		return SearchResult{}, fmt.Errorf("%w: %v or %v is not passable", ErrNoPath, req.Start, req.Goal)
	}
	if !g.Connected(req.Start, req.Goal) {
		return SearchResult{}, fmt.Errorf("%w: %v and %v are not connected", ErrNoPath, req.Start, req.Goal)
	}

	cons := req.Constraints
	if cons == nil {
		cons = noConstraints{}
	}
	slack := req.Slack
	if slack <= 0 {
		slack = g.Cells()
	}
	limit := max(req.StartTime, cons.Horizon()) + slack

	goalFree := func(t int) bool {
		for h := 1; h <= req.Hold; h++ {
			if _, blocked := cons.VertexBlocked(req.Vehicle, req.Goal, t+h); blocked {
				return false
			}
		}
		return !req.Park || cons.LastVertexTime(req.Vehicle, req.Goal) < t
	}

	arena := []searchNode{{pos: req.Start, t: req.StartTime, parent: -1}}
	best := map[spaceTime]int{{P: req.Start, T: req.StartTime}: 0}
	open := &openList{{f: core.Manhattan(req.Start, req.Goal), node: 0}}
	seq := 1
	expanded := 0

	for open.Len() > 0 {
		idx := heap.Pop(open).(openEntry).node
		cur := arena[idx]
		expanded++

		if cur.pos == req.Goal && goalFree(cur.t) {
			res := SearchResult{Steps: reconstruct(arena, idx), Expanded: expanded}
			if req.Annotate {
				res.Annotations = annotate(req, cons, res.Steps)
			}
			return res, nil
		}
		if cur.t >= limit {
			continue
		}

		nt := cur.t + 1
		for _, d := range successorMoves {
			np := cur.pos.Add(d)
			if !g.Passable(np) {
				continue
			}
			if _, blocked := cons.VertexBlocked(req.Vehicle, np, nt); blocked {
				continue
			}
			if np != cur.pos {
				if _, blocked := cons.EdgeBlocked(req.Vehicle, cur.pos, np, nt); blocked {
					continue
				}
			}
			key := spaceTime{P: np, T: nt}
			ng := cur.g + 1
			if old, ok := best[key]; ok && old <= ng {
				continue
			}
			best[key] = ng
			arena = append(arena, searchNode{pos: np, t: nt, g: ng, parent: idx})
			heap.Push(open, openEntry{f: ng + core.Manhattan(np, req.Goal), seq: seq, node: int32(len(arena) - 1)})
			seq++
		}
	}

	return SearchResult{Expanded: expanded}, fmt.Errorf("%w: %v to %v from t=%d within t=%d",
		ErrNoPath, req.Start, req.Goal, req.StartTime, limit)
}

func reconstruct(arena []searchNode, idx int32) []core.Step {
	var rev []core.Step
	for i := idx; i >= 0; i = arena[i].parent {
		rev = append(rev, core.Step{Pos: arena[i].pos, T: arena[i].t})
	}
	steps := make([]core.Step, len(rev))
	for i := range rev {
		steps[i] = rev[len(rev)-1-i]
	}
	steps[0].Action = core.ActionStop
	for i := 1; i < len(steps); i++ {
		if steps[i].Pos == steps[i-1].Pos {
			steps[i].Action = core.ActionStop
		} else {
			steps[i].Action = core.ActionMove
		}
	}
	return steps
}

// annotate flags, for every step of the chosen path, the alternatives that
// would have brought the vehicle closer to the goal but were blocked.
func annotate(req SearchRequest, cons Constraints, steps []core.Step) []core.PossibleConflict {
	var out []core.PossibleConflict
	for i := 1; i < len(steps); i++ {
		parent, chosen := steps[i-1], steps[i]
		res := core.ResolutionDetour
		if chosen.Pos == parent.Pos {
			res = core.ResolutionWait
		}
		for _, d := range successorMoves {
			alt := parent.Pos.Add(d)
			if alt == chosen.Pos || !req.Grid.Passable(alt) {
				continue
			}
			if core.Manhattan(alt, req.Goal) >= core.Manhattan(chosen.Pos, req.Goal) {
				continue
			}
			if owner, blocked := cons.EdgeBlocked(req.Vehicle, parent.Pos, alt, chosen.T); blocked {
				out = append(out, core.PossibleConflict{
					Coordinate: alt, T: chosen.T, Kind: core.ConflictEdge, Resolution: res, VehicleCode: owner,
				})
				continue
			}
			if owner, blocked := cons.VertexBlocked(req.Vehicle, alt, chosen.T); blocked {
				out = append(out, core.PossibleConflict{
					Coordinate: alt, T: chosen.T, Kind: core.ConflictVertex, Resolution: res, VehicleCode: owner,
				})
			}
		}
	}
	return out
}
