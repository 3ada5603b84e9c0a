// Package mcp exposes key-point extraction and BRD drafting as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
	"github.com/kailas-cloud/keypoints/internal/version"
)

// ErrMissingExtractor is returned when no extractor is provided.
var ErrMissingExtractor = errors.New("mcp: extractor is required")

// Extractor runs the key-point pipeline.
type Extractor interface {
	ExtractKeyPoints(ctx context.Context, text string) ([]keypoint.KeyPoint, error)
}

// Server is the MCP server for keypoints.
type Server struct {
	extractor Extractor
	server    *mcp.Server
	logger    *zap.Logger
	now       func() time.Time
}

// NewServer creates an MCP server with the extraction and drafting tools registered.
func NewServer(extractor Extractor, logger *zap.Logger) (*Server, error) {
	if extractor == nil {
		return nil, ErrMissingExtractor
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	impl := &mcp.Implementation{
		Name:    "keypoints",
		Version: version.Version,
	}

	s := &Server{
		extractor: extractor,
		server:    mcp.NewServer(impl, nil),
		logger:    logger,
		now:       time.Now,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
