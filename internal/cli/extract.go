package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
)

var extractNoEmbeddings bool

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract key points as JSON",
	Long: `Reads a transcript from a file, or from stdin when the file is omitted or "-",
and prints its key points as a JSON array in source order. Every key point carries
text, cluster_id, embedding and similar_points.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractNoEmbeddings, "no-embeddings", false, "print every embedding as an empty array")
	rootCmd.AddCommand(extractCmd)
}

type keyPointJSON struct {
	Text          string    `json:"text"`
	ClusterID     int       `json:"cluster_id"`
	SimilarPoints []string  `json:"similar_points"`
	SourceOffset  int       `json:"source_offset"`
	Embedding     []float32 `json:"embedding"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	ext, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	points, err := ext.ExtractKeyPoints(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("extract key points: %w", err)
	}

	data, err := json.MarshalIndent(toJSON(points, extractNoEmbeddings), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key points: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func toJSON(points []keypoint.KeyPoint, noEmbeddings bool) []keyPointJSON {
	out := make([]keyPointJSON, len(points))
	for i := range points {
		kp := &points[i]
		similar := kp.SimilarPoints()
		if similar == nil {
			similar = []string{}
		}
		embedding := kp.Embedding()
		if noEmbeddings || embedding == nil {
			embedding = []float32{}
		}
		out[i] = keyPointJSON{
			Text:          kp.Text(),
			ClusterID:     kp.ClusterID(),
			Embedding:     embedding,
			SimilarPoints: similar,
			SourceOffset:  kp.SourceOffset(),
		}
	}
	return out
}
