package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

func items(coords ...core.Pos) []core.Item {
	out := make([]core.Item, len(coords))
	for i, c := range coords {
		out[i] = core.Item{ID: core.ItemID(fmt.Sprintf("c%d", i)), Coordinate: c, ShelfOrder: i + 1}
	}
	return out
}

func TestKMeansSeparatesDistantGroups(t *testing.T) {
	in := items(
		core.Pos{X: 0, Y: 0}, core.Pos{X: 1, Y: 0}, core.Pos{X: 0, Y: 1},
		core.Pos{X: 20, Y: 20}, core.Pos{X: 21, Y: 20}, core.Pos{X: 20, Y: 21},
	)
	jobs := KMeans(in, 2, NewRand(7))
	require.Len(t, jobs, 2)

	for _, j := range jobs {
		require.Len(t, j.Items, 3)
		near := j.Items[0].Coordinate.X < 10
		for _, it := range j.Items {
			assert.Equal(t, near, it.Coordinate.X < 10, "cluster mixes both groups")
		}
	}
}

func TestKMeansMoreVehiclesThanItems(t *testing.T) {
	jobs := KMeans(items(core.Pos{X: 3, Y: 4}), 3, NewRand(1))
	require.Len(t, jobs, 3)

	nonEmpty := 0
	for _, j := range jobs {
		if j.Len() > 0 {
			nonEmpty++
		}
	}
	assert.Equal(t, 1, nonEmpty)
}

func TestKMeansDegenerate(t *testing.T) {
	assert.Nil(t, KMeans(items(core.Pos{}), 0, NewRand(1)))

	jobs := KMeans(nil, 2, NewRand(1))
	require.Len(t, jobs, 2)
	assert.Zero(t, jobs[0].Len()+jobs[1].Len())

	// Identical coordinates must not stall seeding.
	same := items(core.Pos{X: 2, Y: 2}, core.Pos{X: 2, Y: 2}, core.Pos{X: 2, Y: 2}, core.Pos{X: 2, Y: 2})
	jobs = KMeans(same, 2, NewRand(3))
	require.Len(t, jobs, 2)
	assert.Equal(t, 2, jobs[0].Len())
	assert.Equal(t, 2, jobs[1].Len())
}

func TestKMeansDeterministicWithSeed(t *testing.T) {
	in := items(
		core.Pos{X: 1, Y: 1}, core.Pos{X: 5, Y: 2}, core.Pos{X: 9, Y: 9},
		core.Pos{X: 3, Y: 7}, core.Pos{X: 8, Y: 1}, core.Pos{X: 0, Y: 6},
	)
	assert.Equal(t, KMeans(in, 3, NewRand(42)), KMeans(in, 3, NewRand(42)))
}

// Property: clusters partition the input and respect the capacity cap.
func TestPropertyKMeansPartition(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		k := rapid.IntRange(1, 8).Draw(rt, "k")
		coords := make([]core.Pos, n)
		for i := range coords {
			coords[i] = core.Pos{
				X: rapid.IntRange(0, 30).Draw(rt, fmt.Sprintf("x%d", i)),
				Y: rapid.IntRange(0, 30).Draw(rt, fmt.Sprintf("y%d", i)),
			}
		}
		in := items(coords...)
		jobs := KMeans(in, k, NewRand(rapid.Int64().Draw(rt, "seed")))

		if len(jobs) != k {
			rt.Fatalf("got %d jobs, want %d", len(jobs), k)
		}
		eff := k
		if n < k {
			eff = n
		}
		limit := 0
		if eff > 0 {
			limit = (n + eff - 1) / eff
		}
		seen := make(map[core.ItemID]int)
		for _, j := range jobs {
			if j.Len() > limit {
				rt.Errorf("cluster size %d exceeds cap %d", j.Len(), limit)
			}
			for _, it := range j.Items {
				seen[it.ID]++
			}
		}
		if len(seen) != n {
			rt.Errorf("covered %d items, want %d", len(seen), n)
		}
		for id, c := range seen {
			if c != 1 {
				rt.Errorf("item %s assigned %d times", id, c)
			}
		}
	})
}
