// Package keypoint holds the value objects produced by the extraction pipeline.
package keypoint

// MaxSimilarPoints caps KeyPoint.SimilarPoints.
const MaxSimilarPoints = 3

// TextUnit is one segmented statement and the byte offset of its first
// occurrence in the source text.
type TextUnit struct {
	text   string
	offset int
}

// NewTextUnit creates a text unit.
func NewTextUnit(text string, offset int) TextUnit {
	return TextUnit{text: text, offset: offset}
}

// Text returns the unit text.
func (u TextUnit) Text() string { return u.text }

// SourceOffset returns the byte offset of the unit in the source text.
func (u TextUnit) SourceOffset() int { return u.offset }

// Cluster is a group of units judged similar by embedding proximity.
// Members are unit indices in ascending order.
type Cluster struct {
	id       int
	members  []int
	centroid []float32
}

// NewCluster creates a cluster. members must be sorted ascending.
func NewCluster(id int, members []int, centroid []float32) Cluster {
	return Cluster{id: id, members: members, centroid: centroid}
}

// ID returns the cluster label.
func (c Cluster) ID() int { return c.id }

// Members returns member unit indices in ascending order.
func (c Cluster) Members() []int { return c.members }

// Centroid returns the mean embedding of the members.
func (c Cluster) Centroid() []float32 { return c.centroid }

// KeyPoint is the representative statement of one cluster (immutable value object).
type KeyPoint struct {
	text          string
	clusterID     int
	embedding     []float32
	similarPoints []string
	offset        int
}

// New creates a KeyPoint. similar is truncated to MaxSimilarPoints.
func New(text string, clusterID int, embedding []float32, similar []string, offset int) KeyPoint {
	if len(similar) > MaxSimilarPoints {
		similar = similar[:MaxSimilarPoints]
	}
	s := make([]string, len(similar))
	copy(s, similar)
	return KeyPoint{
		text:          text,
		clusterID:     clusterID,
		embedding:     embedding,
		similarPoints: s,
		offset:        offset,
	}
}

// Text returns the representative statement.
func (k *KeyPoint) Text() string { return k.text }

// ClusterID returns the cluster the point represents.
func (k *KeyPoint) ClusterID() int { return k.clusterID }

// Embedding returns the representative's embedding.
func (k *KeyPoint) Embedding() []float32 { return k.embedding }

// SimilarPoints returns up to MaxSimilarPoints other statements from the same cluster.
func (k *KeyPoint) SimilarPoints() []string { return k.similarPoints }

// SourceOffset returns the representative's offset in the source text.
func (k *KeyPoint) SourceOffset() int { return k.offset }
