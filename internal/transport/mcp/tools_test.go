package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
)

type mockExtractor struct {
	points  []keypoint.KeyPoint
	err     error
	gotText string
}

func (m *mockExtractor) ExtractKeyPoints(_ context.Context, text string) ([]keypoint.KeyPoint, error) {
	m.gotText = text
	return m.points, m.err
}

func TestNewServer_RequiresExtractor(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.ErrorIs(t, err, ErrMissingExtractor)
}

func TestServer_handleExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("returns key points", func(t *testing.T) {
		ext := &mockExtractor{points: []keypoint.KeyPoint{
			keypoint.New("Setup requires VPN access.", 0, []float32{0.6, 0.8}, []string{"VPN is mandatory."}, 0),
			keypoint.New("Login via RDP.", 1, []float32{1, 0}, nil, 40),
		}}
		server, err := NewServer(ext, nil)
		require.NoError(t, err)

		_, out, err := server.handleExtract(ctx, nil, ExtractInput{Text: "meeting notes"})

		require.NoError(t, err)
		assert.Equal(t, "meeting notes", ext.gotText)
		assert.Equal(t, 2, out.Count)
		require.Len(t, out.KeyPoints, 2)
		assert.Equal(t, "Setup requires VPN access.", out.KeyPoints[0].Text)
		assert.Equal(t, []string{"VPN is mandatory."}, out.KeyPoints[0].SimilarPoints)
		assert.Equal(t, 40, out.KeyPoints[1].SourceOffset)
		assert.Equal(t, 1, out.KeyPoints[1].ClusterID)
		assert.Equal(t, []float32{0.6, 0.8}, out.KeyPoints[0].Embedding)

		data, err := json.Marshal(out.KeyPoints[1])
		require.NoError(t, err)
		assert.Contains(t, string(data), `"embedding":[1,0]`)
		assert.Contains(t, string(data), `"similar_points":[]`)
	})

	t.Run("keeps error kind", func(t *testing.T) {
		server, err := NewServer(&mockExtractor{err: domain.ErrInvalidInput}, nil)
		require.NoError(t, err)

		_, _, err = server.handleExtract(ctx, nil, ExtractInput{Text: " "})

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestServer_handleDraftBRD(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(&mockExtractor{}, nil)
	require.NoError(t, err)
	server.now = func() time.Time { return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC) }

	t.Run("drafts document", func(t *testing.T) {
		_, out, err := server.handleDraftBRD(ctx, nil, DraftBRDInput{
			KeyPoints: []string{"install the vpn client", "login via rdp", "weekly sync on mondays"},
		})

		require.NoError(t, err)
		assert.Contains(t, out.Document, "# Business Requirements Document")
		assert.Contains(t, out.Document, "- Date: 2024-05-02")
		require.Len(t, out.Sections, 3)
		assert.Equal(t, "Setup", out.Sections[0].Title)
		assert.Equal(t, []string{"Install the vpn client."}, out.Sections[0].Points)
		assert.Equal(t, "Access", out.Sections[1].Title)
		assert.Equal(t, "Other", out.Sections[2].Title)
	})

	t.Run("rejects empty selection", func(t *testing.T) {
		_, _, err := server.handleDraftBRD(ctx, nil, DraftBRDInput{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no key points selected")
	})
}
