package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
	"github.com/Brownie44l1/plant-disease-api/internal/diagnosis"
	"github.com/Brownie44l1/plant-disease-api/internal/domain"
	"github.com/Brownie44l1/plant-disease-api/internal/imaging"
	"github.com/Brownie44l1/plant-disease-api/internal/logging"
	"github.com/Brownie44l1/plant-disease-api/internal/records"
)

type Diagnoser interface {
	Diagnose(ctx context.Context, raw []byte) (diagnosis.Record, error)
	DiagnoseTensor(ctx context.Context, tensor imaging.Tensor) (diagnosis.Record, error)
	Catalog() *catalog.Catalog
}

type ModelStatus interface {
	Ready() bool
}

type RecordStore interface {
	AddFeedback(f records.Feedback) records.Feedback
	AddContact(c records.Contact) records.Contact
	Feedback() []records.Feedback
	Contacts() []records.Contact
}

type RecordObserver interface {
	RecordAppended(kind string)
}

type Options struct {
	MaxUploadBytes     int64
	EnableRawTensorAPI bool
}

type Handler struct {
	diagnoser Diagnoser
	model     ModelStatus
	store     RecordStore
	observer  RecordObserver
	opts      Options
	logger    *slog.Logger
}

func NewHandler(diagnoser Diagnoser, model ModelStatus, store RecordStore, observer RecordObserver, opts Options, logger *slog.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		diagnoser: diagnoser,
		model:     model,
		store:     store,
		observer:  observer,
		opts:      opts,
		logger:    logger,
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

type predictionRequest struct {
	Image []float32 `json:"image"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	ready := h.model.Ready()
	if !ready {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"model_loaded": ready,
		"classes":      h.diagnoser.Catalog().Len(),
		"timestamp":    time.Now().UTC(),
	})
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"classes": h.diagnoser.Catalog().Entries(),
	})
}

// Predict accepts an already normalized [1,224,224,3] tensor as JSON.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(w, r, "Tensor is too large.")
			return
		}
		h.badRequest(w, r, "Invalid JSON")
		return
	}

	tensor, err := imaging.TensorFromValues(req.Image)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	record, err := h.diagnoser.DiagnoseTensor(r.Context(), tensor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(w, r, "Image is too large.")
			return
		}
		h.badRequest(w, r, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.badRequest(w, r, "No image file provided. Use 'image' as the form field name")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.badRequest(w, r, "Failed to read image")
		return
	}

	h.logger.Debug("upload_received",
		"request_id", logging.RequestIDFromContext(r.Context()),
		"filename", header.Filename,
		"bytes", len(raw),
	)

	record, err := h.diagnoser.Diagnose(r.Context(), raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error:     "Method not allowed",
		Kind:      "method_not_allowed",
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

func (h *Handler) tooLarge(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
		Error:     msg,
		Kind:      "too_large",
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     msg,
		Kind:      "bad_request",
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{
		Error:     domain.UserMessage(err),
		Kind:      domain.KindName(err),
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidImage), domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
