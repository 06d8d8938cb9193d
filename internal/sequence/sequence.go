// Package sequence orders a vehicle's cartons into a short pick route.
//
// The route model returns to the drop point after every pick, so the cost of
// a sequence is the trip from the start to the first carton plus a round trip
// from the drop point to every carton (and back) thereafter.
package sequence

import (
	"slices"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// Optimize returns the job's items reordered by nearest neighbour followed by
// 2-opt. The item set is unchanged.
func Optimize(job core.Job, start, drop core.Pos) core.Job {
	if job.Len() == 0 {
		return core.Job{Items: []core.Item{}}
	}
	return core.Job{Items: TwoOpt(NearestNeighbor(job.Items, start, drop), start, drop)}
}

// NearestNeighbor builds a sequence greedily. After each pick the current
// position resets to the drop point.
func NearestNeighbor(items []core.Item, start, drop core.Pos) []core.Item {
	remaining := slices.Clone(items)
	ordered := make([]core.Item, 0, len(items))
	current := start

	for len(remaining) > 0 {
		best := 0
		bestDist := core.Manhattan(current, remaining[0].Coordinate)
		for i := 1; i < len(remaining); i++ {
			if d := core.Manhattan(current, remaining[i].Coordinate); d < bestDist {
				best, bestDist = i, d
			}
		}
		ordered = append(ordered, remaining[best])
		remaining = slices.Delete(remaining, best, best+1)
		current = drop
	}
	return ordered
}

// RouteDistance is the rectilinear length of the route under the
// return-to-drop model.
func RouteDistance(items []core.Item, start, drop core.Pos) int {
	total := 0
	current := start
	for _, it := range items {
		total += core.Manhattan(current, it.Coordinate)
		total += core.Manhattan(it.Coordinate, drop)
		current = drop
	}
	return total
}

// TwoOpt improves a sequence by reversing contiguous segments until no
// reversal shortens the route. The result is a local optimum.
func TwoOpt(items []core.Item, start, drop core.Pos) []core.Item {
	best := slices.Clone(items)
	if len(best) <= 1 {
		return best
	}
	bestDist := RouteDistance(best, start, drop)
	candidate := make([]core.Item, len(best))

	for improved := true; improved; {
		improved = false
		for i := 0; i < len(best)-1; i++ {
			for j := i + 1; j < len(best); j++ {
				copy(candidate, best)
				slices.Reverse(candidate[i : j+1])
				if d := RouteDistance(candidate, start, drop); d < bestDist {
					copy(best, candidate)
					bestDist = d
					improved = true
				}
			}
		}
	}
	return best
}
