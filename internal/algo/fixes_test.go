package algo

import (
	"context"
	"testing"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// createCrossingVehicles sends two vehicles head-on along the same row.
func createCrossingVehicles() []*core.Vehicle {
	drop := xy(2, 2)
	return []*core.Vehicle{
		{Code: "a", Start: xy(0, 1), Drop: drop, Job: core.Job{Items: []core.Item{
			{ID: "east", Coordinate: xy(3, 1), ShelfOrder: 2},
		}}},
		{Code: "b", Start: xy(4, 1), Drop: drop, Job: core.Job{Items: []core.Item{
			{ID: "west", Coordinate: xy(1, 1), ShelfOrder: 1},
		}}},
	}
}

func TestNaiveLeavesConflicts(t *testing.T) {
	res, err := (&Naive{}).Plan(context.Background(), core.OpenGrid(5, 3), createCrossingVehicles())
	if err != nil {
		t.Fatalf("naive failed: %v", err)
	}

	c := FindFirstConflict([]core.Path{res.Plans[0].Path, res.Plans[1].Path})
	if c == nil {
		t.Fatal("Expected uncoordinated paths to collide")
	}
	if c.IsEdge || c.T != 2 || c.Pos != xy(2, 1) {
		t.Errorf("Expected vertex conflict at (2,1) t=2, got %+v", *c)
	}
}

func TestCBSResolvesHeadOn(t *testing.T) {
	g := core.OpenGrid(5, 3)
	res, err := NewCBS(DefaultMaxNodes).Plan(context.Background(), g, createCrossingVehicles())
	if err != nil {
		t.Fatalf("CBS failed: %v", err)
	}

	paths := []core.Path{res.Plans[0].Path, res.Plans[1].Path}
	if c := FindFirstConflict(paths); c != nil {
		t.Fatalf("Expected conflict-free paths, got %+v", *c)
	}
	for i, p := range paths {
		checkWellFormed(t, g, p)
		if p.Count(core.ActionPick) != 1 || p.Count(core.ActionDrop) != 1 {
			t.Errorf("Vehicle %d: expected one pick and one drop, got %d and %d",
				i, p.Count(core.ActionPick), p.Count(core.ActionDrop))
		}
	}
}

func TestCooperativeHeadOn(t *testing.T) {
	g := core.OpenGrid(5, 3)
	res, err := NewCooperative(0).Plan(context.Background(), g, createCrossingVehicles())
	if err != nil {
		t.Fatalf("CA failed: %v", err)
	}

	for _, vp := range res.Plans {
		if vp.Degraded {
			t.Errorf("Vehicle %s degraded: %v", vp.Code, vp.Err)
		}
		checkWellFormed(t, g, vp.Path)
	}
	// a is planned first and may not be disturbed by b.
	a, b := res.Plans[0].Path, res.Plans[1].Path
	for t0 := 0; t0 <= a.End(); t0++ {
		pa, _ := a.At(t0)
		pb, _ := b.At(t0)
		if t0 <= b.End() && pa == pb {
			t.Errorf("Expected b to avoid a, both at %v t=%d", pa, t0)
		}
	}
}

func TestPickStepCarriesItem(t *testing.T) {
	vehicles := createCrossingVehicles()
	res, err := (&Naive{}).Plan(context.Background(), core.OpenGrid(5, 3), vehicles[:1])
	if err != nil {
		t.Fatalf("naive failed: %v", err)
	}

	p := res.Plans[0].Path
	var pick, drop *core.Step
	for i := range p {
		switch p[i].Action {
		case core.ActionPick:
			pick = &p[i]
		case core.ActionDrop:
			drop = &p[i]
		}
	}
	if pick == nil || drop == nil {
		t.Fatalf("Expected pick and drop steps, got %+v", p)
	}
	if pick.Pos != xy(4, 1) || pick.PickOf == nil || pick.PickOf.ID != "east" {
		t.Errorf("Expected pick of east at (4,1), got %+v", *pick)
	}
	if prev := p[pick.T-1]; prev.Pos != pick.Pos {
		t.Errorf("Expected pick one tick after arriving at %v, previous step at %v", pick.Pos, prev.Pos)
	}
	if drop.Pos != xy(2, 2) {
		t.Errorf("Expected drop at (2,2), got %v", drop.Pos)
	}
	if drop.T <= pick.T {
		t.Errorf("Expected drop after pick, got pick t=%d drop t=%d", pick.T, drop.T)
	}
}
