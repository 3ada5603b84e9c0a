package keypoints

// KeyPoint is the representative unit of one cluster.
type KeyPoint struct {
	// Text is the unit closest to its cluster centroid.
	Text string
	// ClusterID is 0-based; clusters are numbered by first appearance.
	ClusterID int
	// Embedding is the vector of Text.
	Embedding []float32
	// SimilarPoints are the other units of the cluster in document order.
	SimilarPoints []string
	// SourceOffset is the byte offset of Text in the input.
	SourceOffset int
}

// Extraction is the result of ExtractKeyPoints with embedding usage.
type Extraction struct {
	KeyPoints      []KeyPoint
	EmbeddingCalls int
	TotalTokens    int
}
