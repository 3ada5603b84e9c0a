package extraction

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
	"github.com/kailas-cloud/keypoints/internal/domain/vector"
)

// Cluster count policy and representative filtering.
const (
	DefaultSeed        = 42
	DefaultMinClusters = 3
	DefaultMaxClusters = 15
	unitsPerCluster    = 3
	minKeyPointRunes   = 11
)

// Selector groups unit embeddings and picks one representative KeyPoint per group.
type Selector struct {
	clusterer   Clusterer
	seed        int64
	minClusters int
	maxClusters int
}

// NewSelector creates a Selector with the default seed and cluster bounds.
func NewSelector(c Clusterer) *Selector {
	return &Selector{
		clusterer:   c,
		seed:        DefaultSeed,
		minClusters: DefaultMinClusters,
		maxClusters: DefaultMaxClusters,
	}
}

// WithSeed sets the clustering seed.
func (s *Selector) WithSeed(seed int64) *Selector {
	s.seed = seed
	return s
}

// WithClusterBounds overrides the [min, max] clamp of the cluster count.
func (s *Selector) WithClusterBounds(lo, hi int) *Selector {
	if lo > 0 {
		s.minClusters = lo
	}
	if hi >= s.minClusters {
		s.maxClusters = hi
	}
	return s
}

// ClusterCount returns clamp(n/3, lo, hi), capped at n so every cluster can be non-empty.
func ClusterCount(n, lo, hi int) int {
	k := n / unitsPerCluster
	k = max(k, lo)
	k = min(k, hi)
	return min(k, n)
}

// Select clusters the embeddings and returns one KeyPoint per cluster whose
// representative survives cleaning, ordered by source offset.
func (s *Selector) Select(units []keypoint.TextUnit, embeddings [][]float32) ([]keypoint.KeyPoint, error) {
	if len(units) != len(embeddings) {
		return nil, fmt.Errorf("%d units but %d embeddings: %w",
			len(units), len(embeddings), domain.ErrInvariantViolation)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no units to select from: %w", domain.ErrInvariantViolation)
	}

	if len(units) < 2 {
		u := units[0]
		return []keypoint.KeyPoint{
			keypoint.New(u.Text(), 0, embeddings[0], nil, u.SourceOffset()),
		}, nil
	}

	k := ClusterCount(len(units), s.minClusters, s.maxClusters)
	if k < 1 {
		return nil, fmt.Errorf("cluster count %d for %d units: %w", k, len(units), domain.ErrClusteringFailed)
	}

	labels, err := s.clusterer.Cluster(embeddings, k, s.seed)
	if err != nil {
		return nil, fmt.Errorf("cluster %d units into %d: %w: %w", len(units), k, domain.ErrClusteringFailed, err)
	}
	clusters, err := group(labels, embeddings, k)
	if err != nil {
		return nil, err
	}

	points := make([]keypoint.KeyPoint, 0, len(clusters))
	for _, c := range clusters {
		if kp, ok := representative(c, units, embeddings); ok {
			points = append(points, kp)
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].SourceOffset() < points[j].SourceOffset()
	})
	return points, nil
}

// group turns a label-per-item assignment into non-empty clusters in ascending id order.
func group(labels []int, embeddings [][]float32, k int) ([]keypoint.Cluster, error) {
	if len(labels) != len(embeddings) {
		return nil, fmt.Errorf("clusterer returned %d labels for %d items: %w",
			len(labels), len(embeddings), domain.ErrClusteringFailed)
	}
	members := make([][]int, k)
	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, fmt.Errorf("label %d of item %d outside [0, %d): %w", l, i, k, domain.ErrClusteringFailed)
		}
		members[l] = append(members[l], i)
	}

	clusters := make([]keypoint.Cluster, 0, k)
	for id, m := range members {
		if len(m) == 0 {
			continue
		}
		vecs := make([][]float32, len(m))
		for j, idx := range m {
			vecs[j] = embeddings[idx]
		}
		clusters = append(clusters, keypoint.NewCluster(id, m, vector.Mean(vecs)))
	}
	return clusters, nil
}

// representative picks the member closest to the centroid (lowest index on ties).
// ok is false when its cleaned text is too short to be meaningful.
func representative(c keypoint.Cluster, units []keypoint.TextUnit, embeddings [][]float32) (keypoint.KeyPoint, bool) {
	rep, best := -1, 0.0
	for _, idx := range c.Members() {
		d := vector.SquaredDistance(embeddings[idx], c.Centroid())
		if rep < 0 || d < best {
			rep, best = idx, d
		}
	}

	text := CleanText(units[rep].Text())
	if utf8.RuneCountInString(text) < minKeyPointRunes {
		return keypoint.KeyPoint{}, false
	}

	var similar []string
	for _, idx := range c.Members() {
		if len(similar) == keypoint.MaxSimilarPoints {
			break
		}
		if idx == rep {
			continue
		}
		other := CleanText(units[idx].Text())
		if other == "" || other == text {
			continue
		}
		similar = append(similar, other)
	}

	return keypoint.New(text, c.ID(), embeddings[rep], similar, units[rep].SourceOffset()), true
}
