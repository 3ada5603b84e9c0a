// Package vector holds the float32 vector math shared by clustering and BRD similarity.
package vector

import "math"

// SquaredDistance returns the squared Euclidean distance between a and b.
// Vectors of different length are compared over their common prefix.
func SquaredDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b []float32) float64 {
	return math.Sqrt(SquaredDistance(a, b))
}

// Mean returns the element-wise mean of vs. Returns nil for an empty input.
func Mean(vs [][]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	sum := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i := range sum {
			if i < len(v) {
				sum[i] += float64(v[i])
			}
		}
	}
	out := make([]float32, len(sum))
	n := float64(len(vs))
	for i, s := range sum {
		out[i] = float32(s / n)
	}
	return out
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero norm.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
