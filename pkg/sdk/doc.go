// Package keypoints extracts the key points of a text in-process, without
// running the keypoints server.
//
// Text is split into sentence units, every unit is embedded, the embeddings
// are clustered with seeded k-means, and the unit closest to each centroid is
// returned together with the other members of its cluster.
//
//	client, _ := keypoints.New(keypoints.WithOllama("http://localhost:11434", "all-minilm"))
//	points, _ := client.ExtractKeyPoints(ctx, transcript)
//	for _, p := range points {
//	    fmt.Println(p.Text, p.SimilarPoints)
//	}
//
// Any vectorizer can be plugged in with WithEmbedder. With the same seed and
// the same embeddings, ExtractKeyPoints returns the same result.
package keypoints
