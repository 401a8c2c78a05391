package composition

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
)

// Handler handles HTTP requests for compositions
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new composition handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the composition routes
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /compositions", h.Create)
	mux.HandleFunc("GET /compositions/{id}", h.Get)
}

type createRequest struct {
	BaseType      string  `json:"base_type"`
	Name          string  `json:"name"`
	ProductIDs    []int64 `json:"product_ids"`
	PriceOverride *string `json:"price_override,omitempty"`
}

// Create handles POST /compositions
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	var req createRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	baseType, err := models.ParseBaseType(req.BaseType)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	var override *decimal.Decimal
	if req.PriceOverride != nil {
		parsed, err := decimal.NewFromString(*req.PriceOverride)
		if err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, "Invalid price_override", requestID)
			return
		}
		override = &parsed
	}

	composition, err := h.service.Create(r.Context(), userID, baseType, req.Name, req.ProductIDs, override, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusCreated, composition)
}

// Get handles GET /compositions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid composition id", requestID)
		return
	}

	composition, err := h.service.CompositionByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, composition)
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error, requestID string) {
	var validationErr *models.ValidationError
	var notFoundErr *models.NotFoundError
	var stateErr *models.StateError

	switch {
	case errors.As(err, &validationErr):
		h.writeErrorResponse(w, http.StatusBadRequest, validationErr.Error(), requestID)
	case errors.As(err, &notFoundErr):
		h.writeErrorResponse(w, http.StatusNotFound, notFoundErr.Error(), requestID)
	case errors.As(err, &stateErr):
		h.writeErrorResponse(w, http.StatusConflict, stateErr.Error(), requestID)
	default:
		h.logger.Error("request_failed", "Unhandled error", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

// writeJSON writes a successful JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// userIDFromRequest reads the authenticated user id set by the auth layer
func userIDFromRequest(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, errors.New("missing X-User-ID header")
	}
	return strconv.ParseInt(raw, 10, 64)
}
