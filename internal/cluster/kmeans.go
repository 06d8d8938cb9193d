// Package cluster partitions cartons across vehicles with a capacity-balanced
// k-means++.
package cluster

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

const (
	// MaxIterations bounds Lloyd refinement.
	MaxIterations = 100
	// Tolerance is the centroid movement below which refinement stops.
	Tolerance = 0.001
)

// KMeans clusters items into k jobs, one per vehicle. Every item is assigned
// exactly once and no job holds more than ceil(n/min(k,n)) items. When k > n
// the surplus jobs are empty. rng must not be shared across goroutines.
func KMeans(items []core.Item, k int, rng *rand.Rand) []core.Job {
	if k <= 0 {
		return nil
	}
	jobs := make([]core.Job, k)
	n := len(items)
	if n == 0 {
		return jobs
	}
	eff := k
	if eff > n {
		eff = n
	}
	capacity := (n + eff - 1) / eff

	points := make([][]float64, n)
	for i, it := range items {
		points[i] = []float64{float64(it.Coordinate.X), float64(it.Coordinate.Y)}
	}

	centroids := seed(points, eff, rng)
	var clusters [][]int
	for iter := 0; iter < MaxIterations; iter++ {
		clusters = assign(points, centroids, capacity)

		converged := true
		for c, members := range clusters {
			if len(members) == 0 {
				continue // keep the previous centroid
			}
			next := mean(points, members)
			if floats.Distance(next, centroids[c], 2) >= Tolerance {
				converged = false
			}
			centroids[c] = next
		}
		if converged {
			break
		}
	}

	for c, members := range clusters {
		jobs[c].Items = make([]core.Item, 0, len(members))
		for _, i := range members {
			jobs[c].Items = append(jobs[c].Items, items[i])
		}
	}
	return jobs
}

// seed picks k initial centroids with the k-means++ rule.
func seed(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(len(points))]))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		for i, p := range points {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := floats.Distance(p, c, 2); d < best {
					best = d
				}
			}
			dist[i] = best * best
		}
		total := floats.Sum(dist)
		if total == 0 {
			// All remaining points coincide with a centroid.
			centroids = append(centroids, clone(points[rng.Intn(len(points))]))
			continue
		}
		r := rng.Float64() * total
		pick := len(points) - 1
		cumulative := 0.0
		for i, d := range dist {
			cumulative += d
			if r < cumulative {
				pick = i
				break
			}
		}
		centroids = append(centroids, clone(points[pick]))
	}
	return centroids
}

// assign places each point in its nearest cluster that still has room.
func assign(points, centroids [][]float64, capacity int) [][]int {
	k := len(centroids)
	clusters := make([][]int, k)
	order := make([]int, k)
	dists := make([]float64, k)
	var leftover []int

	for i, p := range points {
		for c := range centroids {
			order[c] = c
			dists[c] = floats.Distance(p, centroids[c], 2)
		}
		sort.SliceStable(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })

		placed := false
		for _, c := range order {
			if len(clusters[c]) < capacity {
				clusters[c] = append(clusters[c], i)
				placed = true
				break
			}
		}
		if !placed {
			leftover = append(leftover, i)
		}
	}

	for _, i := range leftover {
		smallest := 0
		for c := range clusters {
			if len(clusters[c]) < len(clusters[smallest]) {
				smallest = c
			}
		}
		clusters[smallest] = append(clusters[smallest], i)
	}
	return clusters
}

func mean(points [][]float64, members []int) []float64 {
	xs := make([]float64, len(members))
	ys := make([]float64, len(members))
	for j, i := range members {
		xs[j] = points[i][0]
		ys[j] = points[i][1]
	}
	return []float64{stat.Mean(xs, nil), stat.Mean(ys, nil)}
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}

// NewRand returns a deterministic generator. A zero seed yields seed 1.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}
