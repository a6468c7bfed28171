// Package chi implements the HTTP API over the chi router.
package chi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
	healthuc "github.com/bluestone/imagetag/internal/usecase/health"
	imageuc "github.com/bluestone/imagetag/internal/usecase/image"
	labeluc "github.com/bluestone/imagetag/internal/usecase/label"
	suggestuc "github.com/bluestone/imagetag/internal/usecase/suggest"
	"github.com/bluestone/imagetag/internal/usecase/suggestbuild"
)

// Error codes returned to clients.
const (
	CodeBadRequest          = "bad_request"
	CodeValidationFailed    = "validation_failed"
	CodeImageNotFound       = "image_not_found"
	CodeLabelsNotFound      = "labels_not_found"
	CodeImageTooLarge       = "image_too_large"
	CodeVisionProviderError = "vision_provider_error"
	CodeBuildInProgress     = "build_in_progress"
	CodeInternalError       = "internal_error"
)

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UploadRequest is the JSON body of POST /images. Data is base64.
type UploadRequest struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// UploadResponse is the JSON body returned for a stored image.
type UploadResponse struct {
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	Size        int            `json:"size"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	Labels      []domain.Label `json:"labels"`
}

// ImageListResponse is the JSON body of GET /images.
type ImageListResponse struct {
	Items      []string `json:"items"`
	HasMore    bool     `json:"has_more"`
	NextCursor *string  `json:"next_cursor,omitempty"`
}

// SuggestionsResponse is the JSON body of GET /suggestions.
type SuggestionsResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers over the use case services.
type Server struct {
	images        *imageuc.Service
	labels        *labeluc.Service
	suggestions   *suggestuc.Service
	builder       *suggestbuild.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	images *imageuc.Service,
	labels *labeluc.Service,
	suggestions *suggestuc.Service,
	builder *suggestbuild.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		images:      images,
		labels:      labels,
		suggestions: suggestions,
		builder:     builder,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrImageNotFound, http.StatusNotFound, CodeImageNotFound),
		sentinelHandler(domain.ErrLabelsNotFound, http.StatusNotFound, CodeLabelsNotFound),
		sentinelHandler(domain.ErrInvalidImage, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidPrefix, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrImageTooLarge, http.StatusRequestEntityTooLarge, CodeImageTooLarge),
		sentinelHandler(domain.ErrVisionProviderError, http.StatusBadGateway, CodeVisionProviderError),
		sentinelHandler(domain.ErrBuildInProgress, http.StatusConflict, CodeBuildInProgress),
	}
	return s
}

// Register mounts all handlers on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/images", func(r chi.Router) {
		r.Post("/", s.UploadImage)
		r.Get("/", s.ListImages)
		r.Get("/{filename}", s.GetImage)
		r.Delete("/{filename}", s.DeleteImage)
		r.Get("/{filename}/labels", s.GetImageLabels)
	})

	r.Get("/suggestions", s.GetSuggestions)
	r.Post("/suggestions/rebuild", s.RebuildSuggestions)
}

// UploadImage handles POST /images.
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "filename is required")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "data must be valid base64")
		return
	}

	img, doc, err := s.images.Upload(r.Context(), req.Filename, data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	labels := doc.Labels
	if labels == nil {
		labels = []domain.Label{}
	}
	w.Header().Set("Location", "/images/"+img.Name)
	writeJSON(w, http.StatusCreated, UploadResponse{
		Filename:    img.Name,
		ContentType: img.ContentType,
		Size:        len(img.Data),
		UploadedAt:  img.UploadedAt,
		Labels:      labels,
	})
}

// ListImages handles GET /images.
func (s *Server) ListImages(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	names, nextCursor, err := s.images.List(r.Context(), cursor, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	resp := ImageListResponse{
		Items:   names,
		HasMore: nextCursor != "",
	}
	if nextCursor != "" {
		resp.NextCursor = &nextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetImage handles GET /images/{filename}. Responds with the raw bytes.
func (s *Server) GetImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	img, err := s.images.Get(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// DeleteImage handles DELETE /images/{filename}.
func (s *Server) DeleteImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	if err := s.images.Delete(r.Context(), name); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetImageLabels handles GET /images/{filename}/labels.
func (s *Server) GetImageLabels(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	doc, err := s.labels.Get(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetSuggestions handles GET /suggestions.
func (s *Server) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "prefix query parameter is required")
		return
	}

	suggestions, err := s.suggestions.Lookup(r.Context(), prefix)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{
		Prefix:      prefix,
		Suggestions: suggestions,
	})
}

// RebuildSuggestions handles POST /suggestions/rebuild. Runs the builder
// synchronously and returns its report.
func (s *Server) RebuildSuggestions(w http.ResponseWriter, r *http.Request) {
	report, err := s.builder.Run(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrImageNotFound,
		domain.ErrLabelsNotFound,
		domain.ErrInvalidImage,
		domain.ErrInvalidPrefix,
		domain.ErrImageTooLarge,
		domain.ErrVisionProviderError,
		domain.ErrBuildInProgress,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
