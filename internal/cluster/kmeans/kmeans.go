// Package kmeans partitions embeddings with seeded k-means++ initialisation and
// Lloyd refinement. Results depend only on the input, k and the seed.
package kmeans

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Default Lloyd iteration cap and number of k-means++ initializations.
const (
	DefaultMaxIterations = 300
	DefaultRestarts      = 1
)

// ErrInvalidInput is returned for empty input, k out of range, or ragged vectors.
var ErrInvalidInput = errors.New("kmeans: invalid input")

// KMeans is a deterministic Lloyd's k-means clusterer. Safe for concurrent use.
type KMeans struct {
	maxIterations int
	restarts      int
}

// Option configures KMeans.
type Option func(*KMeans)

// WithMaxIterations caps Lloyd iterations per restart.
func WithMaxIterations(n int) Option {
	return func(k *KMeans) {
		if n > 0 {
			k.maxIterations = n
		}
	}
}

// WithRestarts sets how many seeded initialisations are tried; the lowest inertia wins.
func WithRestarts(n int) Option {
	return func(k *KMeans) {
		if n > 0 {
			k.restarts = n
		}
	}
}

// New creates a clusterer.
func New(opts ...Option) *KMeans {
	k := &KMeans{maxIterations: DefaultMaxIterations, restarts: DefaultRestarts}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Cluster assigns each embedding to one of k clusters and returns the label per item.
// Labels are canonical: clusters are numbered in order of their lowest member index,
// so item 0 is always in cluster 0.
func (km *KMeans) Cluster(embeddings [][]float32, k int, seed int64) ([]int, error) {
	points, err := toPoints(embeddings, k)
	if err != nil {
		return nil, err
	}

	var (
		best        []int
		bestInertia = math.Inf(1)
	)
	for r := 0; r < km.restarts; r++ {
		rng := rand.New(rand.NewPCG(uint64(seed), uint64(r))) //nolint:gosec // reproducibility, not security
		labels, inertia := km.run(points, k, rng)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no finite partition (NaN in embeddings?): %w", ErrInvalidInput)
	}
	return canonical(best), nil
}

func toPoints(embeddings [][]float32, k int) ([][]float64, error) {
	n := len(embeddings)
	if n == 0 {
		return nil, fmt.Errorf("no embeddings: %w", ErrInvalidInput)
	}
	if k < 1 || k > n {
		return nil, fmt.Errorf("k=%d out of range [1, %d]: %w", k, n, ErrInvalidInput)
	}
	dim := len(embeddings[0])
	points := make([][]float64, n)
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d: %w", i, len(e), dim, ErrInvalidInput)
		}
		p := make([]float64, dim)
		for j, v := range e {
			p[j] = float64(v)
		}
		points[i] = p
	}
	return points, nil
}

func (km *KMeans) run(points [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centers := seedPlusPlus(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < km.maxIterations; iter++ {
		changed := assign(points, centers, labels)
		fillEmpty(points, centers, labels)
		recompute(points, centers, labels)
		if !changed && iter > 0 {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centers[labels[i]])
	}
	return labels, inertia
}

// seedPlusPlus picks k initial centers with D^2 weighting. When every remaining
// point coincides with a chosen center, the lowest unchosen index is taken.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	chosen := make([]bool, n)
	centers := make([][]float64, 0, k)

	first := rng.IntN(n)
	chosen[first] = true
	centers = append(centers, clone(points[first]))

	d2 := make([]float64, n)
	for i, p := range points {
		d2[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		var total float64
		for i, d := range d2 {
			if !chosen[i] {
				total += d
			}
		}

		next := -1
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, d := range d2 {
				if chosen[i] || d == 0 {
					continue
				}
				acc += d
				next = i
				if acc > target {
					break
				}
			}
		}
		if next < 0 {
			for i := range points {
				if !chosen[i] {
					next = i
					break
				}
			}
		}

		chosen[next] = true
		c := clone(points[next])
		centers = append(centers, c)
		for i, p := range points {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centers
}

// assign moves every point to its nearest center; equal distances go to the lowest center index.
func assign(points, centers [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best, bestD := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(p, center); d < bestD {
				best, bestD = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// fillEmpty gives every empty cluster the point farthest from its current center,
// taken from a cluster with more than one member. Ties go to the lowest point index.
func fillEmpty(points, centers [][]float64, labels []int) {
	k := len(centers)
	for {
		sizes := make([]int, k)
		for _, l := range labels {
			sizes[l]++
		}
		empty := -1
		for c, s := range sizes {
			if s == 0 {
				empty = c
				break
			}
		}
		if empty < 0 {
			return
		}

		far, farD := -1, -1.0
		for i, p := range points {
			if sizes[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, centers[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			return
		}
		labels[far] = empty
		centers[empty] = clone(points[far])
	}
}

func recompute(points, centers [][]float64, labels []int) {
	dim := len(points[0])
	counts := make([]int, len(centers))
	sums := make([][]float64, len(centers))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		l := labels[i]
		counts[l]++
		for j, v := range p {
			sums[l][j] += v
		}
	}
	for c := range centers {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
		centers[c] = sums[c]
	}
}

func canonical(labels []int) []int {
	remap := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := remap[l]
		if !ok {
			id = len(remap)
			remap[l] = id
		}
		out[i] = id
	}
	return out
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(p []float64) []float64 {
	c := make([]float64, len(p))
	copy(c, p)
	return c
}
