package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
)

// Handler handles HTTP requests for checkout
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new checkout handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the checkout route
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /checkout", h.Checkout)
}

type checkoutRequest struct {
	CardID          int64  `json:"card_id"`
	Note            string `json:"note,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
}

// Checkout handles POST /checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	var req checkoutRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	order, err := h.service.Checkout(r.Context(), userID, req.CardID, req.Note, req.DeliveryAddress, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusCreated, order)
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
