package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/domain"
	dombrd "github.com/kailas-cloud/keypoints/internal/domain/brd"
	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
	domtr "github.com/kailas-cloud/keypoints/internal/domain/transcription"
	domusage "github.com/kailas-cloud/keypoints/internal/domain/usage"
	logpkg "github.com/kailas-cloud/keypoints/internal/logger"
	brduc "github.com/kailas-cloud/keypoints/internal/usecase/brd"
	healthuc "github.com/kailas-cloud/keypoints/internal/usecase/health"
)

// Extractor runs the key-point pipeline.
type Extractor interface {
	ExtractKeyPoints(ctx context.Context, text string) ([]keypoint.KeyPoint, error)
}

// TranscriptionService processes and serves transcriptions.
type TranscriptionService interface {
	Process(ctx context.Context, source, text string) (domtr.Transcription, error)
	Get(ctx context.Context, id string) (domtr.Transcription, error)
}

// BRDService drafts and serves BRDs.
type BRDService interface {
	Create(ctx context.Context, transcriptionID string, selected []string) (dombrd.BRD, error)
	Get(ctx context.Context, id string) (dombrd.BRD, error)
	Similar(ctx context.Context, points []string, threshold float64) ([]brduc.Match, error)
}

// UsageReporter reports embedding token usage.
type UsageReporter interface {
	GetReport(ctx context.Context) domusage.Report
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface on top of the use case services.
type Server struct {
	extractor      Extractor
	transcriptions TranscriptionService
	brds           BRDService
	usage          UsageReporter
	health         HealthChecker
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	extractor Extractor,
	transcriptions TranscriptionService,
	brds BRDService,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		extractor:      extractor,
		transcriptions: transcriptions,
		brds:           brds,
		usage:          usage,
		health:         health,
		logger:         logger,
	}
	// Quota comes first: a quota rejection may also carry ErrEmbeddingUnavailable.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, ErrorResponseCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorResponseCodeInvalidInput),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrEmbeddingUnavailable,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrClusteringFailed,
			http.StatusInternalServerError, ErrorResponseCodeClusteringFailed),
	}
	return s
}

// ExtractKeyPoints handles POST /v1/key-points.
func (s *Server) ExtractKeyPoints(w http.ResponseWriter, r *http.Request, params KeyPointParams) {
	var req ExtractRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	points, err := s.extractor.ExtractKeyPoints(ctx, req.Text)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, KeyPointListResponse{
		Items: keyPointsToAPI(points, derefBool(params.ExcludeEmbeddings)),
	})
}

// CreateTranscription handles POST /v1/transcriptions.
func (s *Server) CreateTranscription(w http.ResponseWriter, r *http.Request, params KeyPointParams) {
	var req CreateTranscriptionRequest
	if !s.decode(w, r, &req) {
		return
	}

	source := ""
	if req.Source != nil {
		source = *req.Source
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	t, err := s.transcriptions.Process(ctx, source, req.Text)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/transcriptions/"+t.ID())
	writeJSON(w, http.StatusCreated, transcriptionToAPI(&t, derefBool(params.ExcludeEmbeddings)))
}

// GetTranscription handles GET /v1/transcriptions/{id}.
func (s *Server) GetTranscription(w http.ResponseWriter, r *http.Request, id string, params KeyPointParams) {
	t, err := s.transcriptions.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transcriptionToAPI(&t, derefBool(params.ExcludeEmbeddings)))
}

// CreateBRD handles POST /v1/brds.
func (s *Server) CreateBRD(w http.ResponseWriter, r *http.Request) {
	var req CreateBRDRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	b, err := s.brds.Create(ctx, req.TranscriptionID, req.SelectedKeyPoints)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/brds/"+b.ID())
	writeJSON(w, http.StatusCreated, brdToAPI(&b))
}

// GetBRD handles GET /v1/brds/{id}.
func (s *Server) GetBRD(w http.ResponseWriter, r *http.Request, id string) {
	b, err := s.brds.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brdToAPI(&b))
}

// SimilarBRDs handles POST /v1/brds/similar.
func (s *Server) SimilarBRDs(w http.ResponseWriter, r *http.Request) {
	var req SimilarBRDRequest
	if !s.decode(w, r, &req) {
		return
	}

	threshold := 0.0
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	matches, err := s.brds.Similar(ctx, req.SelectedKeyPoints, threshold)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SimilarBRD, len(matches))
	for i := range matches {
		items[i] = SimilarBRD{BRD: brdToAPI(&matches[i].BRD), Score: matches[i].Score}
	}
	writeJSON(w, http.StatusOK, SimilarBRDListResponse{Items: items})
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	report := s.usage.GetReport(r.Context())
	writeJSON(w, http.StatusOK, UsageResponse{
		Provider:        report.Provider(),
		PeriodStartMs:   report.PeriodStart(),
		PeriodEndMs:     report.PeriodEnd(),
		TokensUsed:      report.TokensUsed(),
		TokensLimit:     report.TokensLimit(),
		TokensRemaining: report.TokensRemaining(),
		Unlimited:       report.Unlimited(),
		Exhausted:       report.IsExhausted(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads a JSON body into v, writing a 400 or 413 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorResponseCodePayloadTooLarge,
			"request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
	return false
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set("X-Embedding-Calls", strconv.Itoa(usage.Calls))
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation messages are written for clients and pass through unchanged.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrEmbeddingUnavailable,
		domain.ErrClusteringFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

// keyPointsToAPI never emits null: embedding and similar_points are at least [].
func keyPointsToAPI(points []keypoint.KeyPoint, excludeEmbeddings bool) []KeyPoint {
	out := make([]KeyPoint, len(points))
	for i := range points {
		kp := &points[i]
		similar := kp.SimilarPoints()
		if similar == nil {
			similar = []string{}
		}
		embedding := kp.Embedding()
		if excludeEmbeddings || embedding == nil {
			embedding = []float32{}
		}
		out[i] = KeyPoint{
			Text:          kp.Text(),
			ClusterID:     kp.ClusterID(),
			Embedding:     embedding,
			SimilarPoints: similar,
			SourceOffset:  kp.SourceOffset(),
		}
	}
	return out
}

func transcriptionToAPI(t *domtr.Transcription, excludeEmbeddings bool) TranscriptionResponse {
	return TranscriptionResponse{
		ID:        t.ID(),
		Source:    t.Source(),
		Text:      t.Text(),
		KeyPoints: keyPointsToAPI(t.KeyPoints(), excludeEmbeddings),
		CreatedAt: t.CreatedAt(),
	}
}

func brdToAPI(b *dombrd.BRD) BRDResponse {
	return BRDResponse{
		ID:                b.ID(),
		TranscriptionID:   b.TranscriptionID(),
		SelectedKeyPoints: b.SelectedKeyPoints(),
		Content:           b.Content(),
		CreatedAt:         b.CreatedAt(),
	}
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
