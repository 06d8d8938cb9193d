package algo

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

func TestSearchStartIsGoal(t *testing.T) {
	res, err := Search(SearchRequest{Grid: createGrid(3), Vehicle: "v", Start: xy(1, 1), StartTime: 4, Goal: xy(1, 1)})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Steps) != 1 {
		t.Fatalf("Expected a single step, got %d", len(res.Steps))
	}
	if s := res.Steps[0]; s.Pos != xy(1, 1) || s.T != 4 || s.Action != core.ActionStop {
		t.Errorf("Expected stop at (1,1) t=4, got %+v", s)
	}
}

func TestSearchShortestPath(t *testing.T) {
	res, err := Search(SearchRequest{Grid: createGrid(5), Vehicle: "v", Start: xy(0, 0), Goal: xy(3, 2)})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if got := len(res.Steps) - 1; got != 5 {
		t.Errorf("Expected 5 moves, got %d", got)
	}
	checkWellFormed(t, createGrid(5), res.Steps)
	if res.Expanded == 0 {
		t.Error("Expected expanded states to be counted")
	}
}

func TestSearchWalledGoal(t *testing.T) {
	g, err := core.ParseGrid([]string{
		"00000",
		"00888",
		"00808",
		"00888",
	}, core.DefaultObstacle)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Search(SearchRequest{Grid: g, Vehicle: "v", Start: xy(0, 0), Goal: xy(3, 2)})
	if !errors.Is(err, ErrNoPath) {
		t.Errorf("Expected ErrNoPath, got %v", err)
	}
	_, err = Search(SearchRequest{Grid: g, Vehicle: "v", Start: xy(0, 0), Goal: xy(2, 2)})
	if !errors.Is(err, ErrNoPath) {
		t.Errorf("Expected ErrNoPath for an obstacle goal, got %v", err)
	}
}

func TestSearchWaitsForVertexConstraint(t *testing.T) {
	g := core.OpenGrid(3, 1)
	cons := EmptyConstraintSet.With(Constraint{Vehicle: "v", Pos: xy(1, 0), T: 1})

	res, err := Search(SearchRequest{Grid: g, Vehicle: "v", Start: xy(0, 0), Goal: xy(2, 0), Constraints: cons})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want := []core.Step{
		{Pos: xy(0, 0), T: 0, Action: core.ActionStop},
		{Pos: xy(0, 0), T: 1, Action: core.ActionStop},
		{Pos: xy(1, 0), T: 2, Action: core.ActionMove},
		{Pos: xy(2, 0), T: 3, Action: core.ActionMove},
	}
	if len(res.Steps) != len(want) {
		t.Fatalf("Expected %d steps, got %+v", len(want), res.Steps)
	}
	for i := range want {
		if res.Steps[i] != want[i] {
			t.Errorf("Step %d: expected %+v, got %+v", i, want[i], res.Steps[i])
		}
	}
}

func TestSearchIgnoresOtherVehiclesConstraints(t *testing.T) {
	g := core.OpenGrid(3, 1)
	cons := EmptyConstraintSet.With(Constraint{Vehicle: "w", Pos: xy(1, 0), T: 1})

	res, err := Search(SearchRequest{Grid: g, Vehicle: "v", Start: xy(0, 0), Goal: xy(2, 0), Constraints: cons})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if end := res.Steps[len(res.Steps)-1].T; end != 2 {
		t.Errorf("Expected arrival at t=2, got %d", end)
	}
}

func TestSearchEdgeConstraint(t *testing.T) {
	g := core.OpenGrid(2, 1)
	cons := EmptyConstraintSet.With(Constraint{Vehicle: "v", From: xy(0, 0), Pos: xy(1, 0), T: 1, IsEdge: true})

	res, err := Search(SearchRequest{Grid: g, Vehicle: "v", Start: xy(0, 0), Goal: xy(1, 0), Constraints: cons})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if end := res.Steps[len(res.Steps)-1].T; end != 2 {
		t.Errorf("Expected the traversal to be delayed to t=2, got %d", end)
	}
}

func TestSearchHold(t *testing.T) {
	g := core.OpenGrid(3, 1)
	cons := EmptyConstraintSet.With(Constraint{Vehicle: "v", Pos: xy(2, 0), T: 3})

	tests := []struct {
		hold    int
		arrival int
	}{
		{0, 2},
		{1, 4},
	}
	for _, tt := range tests {
		res, err := Search(SearchRequest{Grid: g, Vehicle: "v", Start: xy(0, 0), Goal: xy(2, 0), Constraints: cons, Hold: tt.hold})
		if err != nil {
			t.Fatalf("hold=%d: %v", tt.hold, err)
		}
		if end := res.Steps[len(res.Steps)-1].T; end != tt.arrival {
			t.Errorf("hold=%d: expected arrival t=%d, got %d", tt.hold, tt.arrival, end)
		}
	}
}

func TestSearchPark(t *testing.T) {
	g := createGrid(3)
	cons := EmptyConstraintSet.With(Constraint{Vehicle: "v", Pos: xy(1, 1), T: 10})

	res, err := Search(SearchRequest{Grid: g, Vehicle: "v", Start: xy(1, 1), Goal: xy(1, 1), Constraints: cons, Park: true})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if end := res.Steps[len(res.Steps)-1].T; end != 11 {
		t.Errorf("Expected to park after t=10, got arrival %d", end)
	}
	checkWellFormed(t, g, res.Steps)
}

func TestSearchAnnotatesWait(t *testing.T) {
	rt := NewReservationTable()
	rt.Add(Constraint{Vehicle: "o", Pos: xy(1, 0), T: 1})

	res, err := Search(SearchRequest{
		Grid: core.OpenGrid(3, 2), Vehicle: "v", Start: xy(0, 0), Goal: xy(2, 0),
		Constraints: rt, Annotate: true,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %+v", res.Annotations)
	}
	want := core.PossibleConflict{
		Coordinate: xy(1, 0), T: 1, Kind: core.ConflictVertex, Resolution: core.ResolutionWait, VehicleCode: "o",
	}
	if res.Annotations[0] != want {
		t.Errorf("Expected %+v, got %+v", want, res.Annotations[0])
	}
}

func TestSearchAnnotatesDetour(t *testing.T) {
	rt := NewReservationTable()
	rt.ReserveLeg("o", []core.Step{
		{Pos: xy(1, 0), T: 0},
		{Pos: xy(0, 0), T: 1, Action: core.ActionMove},
	})

	res, err := Search(SearchRequest{
		Grid: core.OpenGrid(3, 2), Vehicle: "v", Start: xy(0, 0), Goal: xy(2, 0),
		Constraints: rt, Annotate: true,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Steps[1].Pos != xy(0, 1) {
		t.Fatalf("Expected a detour through (0,1), got %+v", res.Steps)
	}
	if len(res.Annotations) < 2 {
		t.Fatalf("Expected at least 2 annotations, got %+v", res.Annotations)
	}
	if a := res.Annotations[0]; a.Kind != core.ConflictEdge || a.Coordinate != xy(1, 0) || a.Resolution != core.ResolutionDetour {
		t.Errorf("Expected edge detour at (1,0), got %+v", a)
	}
	if a := res.Annotations[1]; a.Kind != core.ConflictVertex || a.Coordinate != xy(0, 0) || a.Resolution != core.ResolutionDetour {
		t.Errorf("Expected vertex detour at (0,0), got %+v", a)
	}
}

// bfsDistance is the static shortest path length, or -1.
func bfsDistance(g *core.Grid, a, b core.Pos) int {
	dist := map[core.Pos]int{a: 0}
	queue := []core.Pos{a}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p == b {
			return dist[p]
		}
		for _, n := range g.Neighbors(p) {
			if _, ok := dist[n]; !ok {
				dist[n] = dist[p] + 1
				queue = append(queue, n)
			}
		}
	}
	return -1
}

func TestSearchPathProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 7).Draw(t, "w")
		h := rapid.IntRange(1, 7).Draw(t, "h")
		cells := rapid.SliceOfN(rapid.IntRange(0, 3), w*h, w*h).Draw(t, "cells")
		lines := make([]string, h)
		for y := 0; y < h; y++ {
			row := make([]byte, w)
			for x := 0; x < w; x++ {
				row[x] = '0'
				if cells[y*w+x] == 0 {
					row[x] = '8'
				}
			}
			lines[y] = string(row)
		}
		g, err := core.ParseGrid(lines, core.DefaultObstacle)
		if err != nil {
			t.Fatal(err)
		}
		start := core.Pos{X: rapid.IntRange(0, w-1).Draw(t, "sx"), Y: rapid.IntRange(0, h-1).Draw(t, "sy")}
		goal := core.Pos{X: rapid.IntRange(0, w-1).Draw(t, "gx"), Y: rapid.IntRange(0, h-1).Draw(t, "gy")}
		t0 := rapid.IntRange(0, 5).Draw(t, "t0")

		res, err := Search(SearchRequest{Grid: g, Vehicle: "v", Start: start, StartTime: t0, Goal: goal})
		if !g.Passable(start) || !g.Passable(goal) || !g.Connected(start, goal) {
			if !errors.Is(err, ErrNoPath) {
				t.Fatalf("expected ErrNoPath, got %v", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("search failed on a connected pair: %v", err)
		}
		checkWellFormed(t, g, res.Steps)
		if res.Steps[0].Pos != start || res.Steps[0].T != t0 {
			t.Fatalf("path starts at %v t=%d", res.Steps[0].Pos, res.Steps[0].T)
		}
		if last := res.Steps[len(res.Steps)-1]; last.Pos != goal {
			t.Fatalf("path ends at %v, want %v", last.Pos, goal)
		}
		if got, want := len(res.Steps)-1, bfsDistance(g, start, goal); got != want {
			t.Fatalf("unconstrained path takes %d ticks, shortest is %d", got, want)
		}
	})
}
