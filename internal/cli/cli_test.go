package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

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

// setupTestExtractor swaps the extractor factory and returns the mock plus
// the options the factory was called with.
func setupTestExtractor(t *testing.T, m *mockExtractor) *options {
	t.Helper()
	var got options
	orig := newExtractor
	newExtractor = func(o *options, _ *zap.Logger) (Extractor, error) {
		got = *o
		return m, nil
	}
	saved := opts
	t.Cleanup(func() {
		newExtractor = orig
		opts = saved
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		extractNoEmbeddings = false
	})
	return &got
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func samplePoints() []keypoint.KeyPoint {
	return []keypoint.KeyPoint{
		keypoint.New("Setup requires VPN access.", 0, []float32{0.5, 0.5}, []string{"VPN is mandatory."}, 0),
		keypoint.New("Login via RDP to the jump host.", 1, []float32{0.1, 0.9}, nil, 30),
	}
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "keypoints", rootCmd.Use)
	for _, name := range []string{"provider", "model", "base-url", "api-key", "dimensions", "seed"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "42", rootCmd.PersistentFlags().Lookup("seed").DefValue)
}

func TestExtractCmd_Stdin(t *testing.T) {
	m := &mockExtractor{points: samplePoints()}
	setupTestExtractor(t, m)

	out, err := run(t, "Setup requires VPN access. Login via RDP to the jump host.", "extract")
	require.NoError(t, err)
	assert.Equal(t, "Setup requires VPN access. Login via RDP to the jump host.", m.gotText)

	var got []keyPointJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Setup requires VPN access.", got[0].Text)
	assert.Equal(t, []string{"VPN is mandatory."}, got[0].SimilarPoints)
	assert.Equal(t, []string{}, got[1].SimilarPoints)
	assert.Equal(t, 30, got[1].SourceOffset)
	assert.Equal(t, []float32{0.5, 0.5}, got[0].Embedding)
	assert.Equal(t, []float32{0.1, 0.9}, got[1].Embedding)
}

func TestExtractCmd_FileNoEmbeddings(t *testing.T) {
	m := &mockExtractor{points: samplePoints()}
	setupTestExtractor(t, m)

	path := filepath.Join(t.TempDir(), "meeting.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	out, err := run(t, "", "extract", "--no-embeddings", path)
	require.NoError(t, err)
	assert.Equal(t, "from file", m.gotText)

	var got []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.JSONEq(t, `[]`, string(got[0]["embedding"]))
	assert.Contains(t, got[1], "similar_points")
}

func TestExtractCmd_MissingFile(t *testing.T) {
	setupTestExtractor(t, &mockExtractor{})

	_, err := run(t, "", "extract", filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read input")
}

func TestExtractCmd_TooManyArgs(t *testing.T) {
	setupTestExtractor(t, &mockExtractor{})

	_, err := run(t, "", "extract", "a.txt", "b.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg(s)")
}

func TestExtractCmd_ExtractionError(t *testing.T) {
	setupTestExtractor(t, &mockExtractor{err: domain.ErrInvalidInput})

	_, err := run(t, "   ", "extract")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractCmd_ProviderFlags(t *testing.T) {
	got := setupTestExtractor(t, &mockExtractor{})

	_, err := run(t, "text", "--provider", "openai", "--api-key", "sk-test", "--seed", "7", "extract")
	require.NoError(t, err)
	assert.Equal(t, "openai", got.provider)
	assert.Equal(t, "text-embedding-3-small", got.model)
	assert.Equal(t, int64(7), got.seed)
}

func TestExtractCmd_ProviderValidation(t *testing.T) {
	setupTestExtractor(t, &mockExtractor{})

	_, err := run(t, "text", "--provider", "cohere", "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")

	_, err = run(t, "text", "--provider", "openai", "--api-key", "", "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api-key")
}

func TestBRDCmd(t *testing.T) {
	setupTestExtractor(t, &mockExtractor{points: samplePoints()})
	origNow := now
	now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = origNow })

	out, err := run(t, "text", "brd")
	require.NoError(t, err)
	assert.Contains(t, out, "# Business Requirements Document")
	assert.Contains(t, out, "- Date: 2024-01-15")
	assert.Contains(t, out, "### Prerequisites\n1. Setup requires VPN access.")
	assert.Contains(t, out, "### Access\n1. Login via RDP to the jump host.")
}

func TestBRDCmd_NoKeyPoints(t *testing.T) {
	setupTestExtractor(t, &mockExtractor{})

	_, err := run(t, "text", "brd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no key points selected")
}

func TestVersionCmd(t *testing.T) {
	setupTestExtractor(t, &mockExtractor{})

	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "keypoints dev"))
}

func TestMCPCmd_RejectsArgs(t *testing.T) {
	setupTestExtractor(t, &mockExtractor{})

	_, err := run(t, "", "mcp", "extra")
	require.Error(t, err)
}
