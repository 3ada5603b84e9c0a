package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes returned in ErrorResponse.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInvalidInput           ErrorResponseCode = "invalid_input"
	ErrorResponseCodeNotFound               ErrorResponseCode = "not_found"
	ErrorResponseCodePayloadTooLarge        ErrorResponseCode = "payload_too_large"
	ErrorResponseCodeEmbeddingQuotaExceeded ErrorResponseCode = "embedding_quota_exceeded"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeClusteringFailed       ErrorResponseCode = "clustering_failed"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// ExtractRequest is the body of POST /v1/key-points.
type ExtractRequest struct {
	Text string `json:"text"`
}

// CreateTranscriptionRequest is the body of POST /v1/transcriptions.
type CreateTranscriptionRequest struct {
	Text   string  `json:"text"`
	Source *string `json:"source,omitempty"`
}

// CreateBRDRequest is the body of POST /v1/brds.
type CreateBRDRequest struct {
	TranscriptionID   string   `json:"transcription_id"`
	SelectedKeyPoints []string `json:"selected_key_points"`
}

// SimilarBRDRequest is the body of POST /v1/brds/similar.
type SimilarBRDRequest struct {
	SelectedKeyPoints []string `json:"selected_key_points"`
	Threshold         *float64 `json:"threshold,omitempty"`
}

// KeyPoint is a representative sentence of one cluster.
type KeyPoint struct {
	Text          string    `json:"text"`
	ClusterID     int       `json:"cluster_id"`
	SimilarPoints []string  `json:"similar_points"`
	SourceOffset  int       `json:"source_offset"`
	Embedding     []float32 `json:"embedding"`
}

// KeyPointListResponse wraps extracted key points.
type KeyPointListResponse struct {
	Items []KeyPoint `json:"items"`
}

// TranscriptionResponse is a stored transcription.
type TranscriptionResponse struct {
	ID        string     `json:"id"`
	Source    string     `json:"source,omitempty"`
	Text      string     `json:"text"`
	KeyPoints []KeyPoint `json:"key_points"`
	CreatedAt int64      `json:"created_at"`
}

// BRDResponse is a stored business requirements document.
type BRDResponse struct {
	ID                string   `json:"id"`
	TranscriptionID   string   `json:"transcription_id"`
	SelectedKeyPoints []string `json:"selected_key_points"`
	Content           string   `json:"content"`
	CreatedAt         int64    `json:"created_at"`
}

// SimilarBRD is a stored BRD with its similarity score.
type SimilarBRD struct {
	BRD   BRDResponse `json:"brd"`
	Score float64     `json:"score"`
}

// SimilarBRDListResponse wraps similar BRDs, best first.
type SimilarBRDListResponse struct {
	Items []SimilarBRD `json:"items"`
}

// UsageResponse reports today's embedding token usage.
type UsageResponse struct {
	Provider        string `json:"provider"`
	PeriodStartMs   int64  `json:"period_start_ms"`
	PeriodEndMs     int64  `json:"period_end_ms"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Unlimited       bool   `json:"unlimited"`
	Exhausted       bool   `json:"exhausted"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// KeyPointParams are the query parameters shared by endpoints returning key points.
type KeyPointParams struct {
	// ExcludeEmbeddings sends every key point embedding as an empty array.
	ExcludeEmbeddings *bool `form:"exclude_embeddings,omitempty" json:"exclude_embeddings,omitempty"`
}

// ServerInterface lists the HTTP operations.
type ServerInterface interface {
	// (POST /v1/key-points)
	ExtractKeyPoints(w http.ResponseWriter, r *http.Request, params KeyPointParams)
	// (POST /v1/transcriptions)
	CreateTranscription(w http.ResponseWriter, r *http.Request, params KeyPointParams)
	// (GET /v1/transcriptions/{id})
	GetTranscription(w http.ResponseWriter, r *http.Request, id string, params KeyPointParams)
	// (POST /v1/brds)
	CreateBRD(w http.ResponseWriter, r *http.Request)
	// (POST /v1/brds/similar)
	SimilarBRDs(w http.ResponseWriter, r *http.Request)
	// (GET /v1/brds/{id})
	GetBRD(w http.ResponseWriter, r *http.Request, id string)
	// (GET /v1/usage)
	GetUsage(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

type wrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (wr *wrapper) keyPointParams(w http.ResponseWriter, r *http.Request) (KeyPointParams, bool) {
	var params KeyPointParams
	err := runtime.BindQueryParameter("form", true, false, "exclude_embeddings", r.URL.Query(), &params.ExcludeEmbeddings)
	if err != nil {
		wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: "exclude_embeddings", Err: err})
		return params, false
	}
	return params, true
}

func (wr *wrapper) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (wr *wrapper) ExtractKeyPoints(w http.ResponseWriter, r *http.Request) {
	if params, ok := wr.keyPointParams(w, r); ok {
		wr.handler.ExtractKeyPoints(w, r, params)
	}
}

func (wr *wrapper) CreateTranscription(w http.ResponseWriter, r *http.Request) {
	if params, ok := wr.keyPointParams(w, r); ok {
		wr.handler.CreateTranscription(w, r, params)
	}
}

func (wr *wrapper) GetTranscription(w http.ResponseWriter, r *http.Request) {
	id, ok := wr.pathID(w, r)
	if !ok {
		return
	}
	if params, ok := wr.keyPointParams(w, r); ok {
		wr.handler.GetTranscription(w, r, id, params)
	}
}

func (wr *wrapper) GetBRD(w http.ResponseWriter, r *http.Request) {
	if id, ok := wr.pathID(w, r); ok {
		wr.handler.GetBRD(w, r, id)
	}
}

// HandlerWithOptions registers every operation of si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wr := &wrapper{handler: si, errorHandler: options.ErrorHandlerFunc}

	r.Group(func(r chi.Router) {
		r.Post("/v1/key-points", wr.ExtractKeyPoints)
		r.Post("/v1/transcriptions", wr.CreateTranscription)
		r.Get("/v1/transcriptions/{id}", wr.GetTranscription)
		r.Post("/v1/brds", si.CreateBRD)
		r.Post("/v1/brds/similar", si.SimilarBRDs)
		r.Get("/v1/brds/{id}", wr.GetBRD)
		r.Get("/v1/usage", si.GetUsage)
		r.Get("/health", si.HealthCheck)
		r.Get("/metrics", si.Metrics)
	})
	return r
}
