package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	dombrd "github.com/kailas-cloud/keypoints/internal/domain/brd"
)

// ExtractInput is the input schema for the extract_key_points tool.
type ExtractInput struct {
	Text string `json:"text" jsonschema:"meeting transcript or notes to extract key points from"`
}

// ExtractOutput is the output schema for the extract_key_points tool.
type ExtractOutput struct {
	KeyPoints []KeyPointOutput `json:"key_points"`
	Count     int              `json:"count"`
}

// KeyPointOutput represents a single key point.
type KeyPointOutput struct {
	Text          string    `json:"text"`
	ClusterID     int       `json:"cluster_id"`
	Embedding     []float32 `json:"embedding"`
	SimilarPoints []string  `json:"similar_points"`
	SourceOffset  int       `json:"source_offset"`
}

// DraftBRDInput is the input schema for the draft_brd tool.
type DraftBRDInput struct {
	KeyPoints []string `json:"key_points" jsonschema:"key point sentences to turn into requirements"`
}

// DraftBRDOutput is the output schema for the draft_brd tool.
type DraftBRDOutput struct {
	Document string          `json:"document"`
	Sections []SectionOutput `json:"sections"`
}

// SectionOutput is one requirement category of a drafted BRD.
type SectionOutput struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_key_points",
		Description: "Extract the distinct key points of a meeting transcript, in source order",
	}, s.handleExtract)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_brd",
		Description: "Draft a Markdown business requirements document from selected key points",
	}, s.handleDraftBRD)
}

func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, ExtractOutput, error) {
	points, err := s.extractor.ExtractKeyPoints(ctx, input.Text)
	if err != nil {
		s.logger.Warn("extract_key_points failed", zap.Error(err))
		return nil, ExtractOutput{}, fmt.Errorf("extract key points: %w", err)
	}

	out := ExtractOutput{
		KeyPoints: make([]KeyPointOutput, len(points)),
		Count:     len(points),
	}
	for i := range points {
		kp := &points[i]
		embedding := kp.Embedding()
		if embedding == nil {
			embedding = []float32{}
		}
		similar := kp.SimilarPoints()
		if similar == nil {
			similar = []string{}
		}
		out.KeyPoints[i] = KeyPointOutput{
			Text:          kp.Text(),
			ClusterID:     kp.ClusterID(),
			Embedding:     embedding,
			SimilarPoints: similar,
			SourceOffset:  kp.SourceOffset(),
		}
	}
	return nil, out, nil
}

func (s *Server) handleDraftBRD(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input DraftBRDInput,
) (*mcp.CallToolResult, DraftBRDOutput, error) {
	if err := dombrd.ValidateSelection(input.KeyPoints); err != nil {
		return nil, DraftBRDOutput{}, err
	}

	sections := dombrd.Categorize(input.KeyPoints)
	out := DraftBRDOutput{
		Document: dombrd.Compose(input.KeyPoints, s.now()),
		Sections: make([]SectionOutput, len(sections)),
	}
	for i, sec := range sections {
		out.Sections[i] = SectionOutput{Title: sec.Title(), Points: sec.Points}
	}
	return nil, out, nil
}
