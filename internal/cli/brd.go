package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	dombrd "github.com/kailas-cloud/keypoints/internal/domain/brd"
)

var brdCmd = &cobra.Command{
	Use:   "brd [file]",
	Short: "Draft a BRD from a transcript",
	Long: `Extracts key points from a transcript and renders a Markdown business
requirements document from all of them to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBRD,
}

// now is replaced in tests.
var now = time.Now

func init() {
	rootCmd.AddCommand(brdCmd)
}

func runBRD(cmd *cobra.Command, args []string) error {
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

	selected := make([]string, len(points))
	for i := range points {
		selected[i] = points[i].Text()
	}
	if err := dombrd.ValidateSelection(selected); err != nil {
		return err
	}

	cmd.Print(dombrd.Compose(selected, now()))
	return nil
}
