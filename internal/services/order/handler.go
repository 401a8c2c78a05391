package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
)

// Handler handles HTTP requests for orders
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the order routes
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders", h.List)
	mux.HandleFunc("GET /orders/{orderID}", h.Get)
	mux.HandleFunc("GET /orders/{orderID}/history", h.History)
	mux.HandleFunc("POST /orders/{orderID}/status", h.UpdateStatus)
}

type updateStatusRequest struct {
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by,omitempty"`
}

// List handles GET /orders. With ?status= it lists across users for staff
// views; otherwise it lists the caller's own orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
			return
		}
		orders, err := h.service.ListByStatus(r.Context(), status)
		if err != nil {
			h.writeError(w, err, requestID)
			return
		}
		h.writeJSON(w, http.StatusOK, orders)
		return
	}

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	orders, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /orders/{orderID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, orderID, ok := h.pathIDs(w, r, requestID)
	if !ok {
		return
	}

	order, err := h.service.GetForUser(r.Context(), userID, orderID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// History handles GET /orders/{orderID}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, orderID, ok := h.pathIDs(w, r, requestID)
	if !ok {
		return
	}

	history, err := h.service.History(r.Context(), userID, orderID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

// UpdateStatus handles POST /orders/{orderID}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	orderID, err := strconv.ParseInt(r.PathValue("orderID"), 10, 64)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	var req updateStatusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	target, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	changedBy := req.ChangedBy
	if changedBy == "" {
		changedBy = "staff"
	}

	order, err := h.service.Transition(r.Context(), orderID, target, changedBy, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) pathIDs(w http.ResponseWriter, r *http.Request, requestID string) (userID, orderID int64, ok bool) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return 0, 0, false
	}

	orderID, err = strconv.ParseInt(r.PathValue("orderID"), 10, 64)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order id", requestID)
		return 0, 0, false
	}

	return userID, orderID, true
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
