package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
)

// Handler handles HTTP requests for the cart
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new cart handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the cart routes
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /cart", h.Get)
	mux.HandleFunc("POST /cart/products", h.AddProduct)
	mux.HandleFunc("POST /cart/compositions", h.AddComposition)
	mux.HandleFunc("PATCH /cart/lines/{lineID}", h.UpdateQuantity)
	mux.HandleFunc("DELETE /cart/lines/{lineID}", h.RemoveLine)
}

type addRequest struct {
	ProductID     int64 `json:"product_id,omitempty"`
	CompositionID int64 `json:"composition_id,omitempty"`
	Quantity      int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// Get handles GET /cart
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	cart, err := h.service.GetOrCreate(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

// AddProduct handles POST /cart/products
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, req, ok := h.decodeAdd(w, r, requestID)
	if !ok {
		return
	}

	cart, err := h.service.AddProduct(r.Context(), userID, req.ProductID, req.Quantity, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

// AddComposition handles POST /cart/compositions
func (h *Handler) AddComposition(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, req, ok := h.decodeAdd(w, r, requestID)
	if !ok {
		return
	}

	cart, err := h.service.AddComposition(r.Context(), userID, req.CompositionID, req.Quantity, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

// UpdateQuantity handles PATCH /cart/lines/{lineID}
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	lineID, err := strconv.ParseInt(r.PathValue("lineID"), 10, 64)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid line id", requestID)
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	cart, err := h.service.UpdateQuantity(r.Context(), userID, lineID, req.Quantity, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

// RemoveLine handles DELETE /cart/lines/{lineID}
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	lineID, err := strconv.ParseInt(r.PathValue("lineID"), 10, 64)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid line id", requestID)
		return
	}

	cart, err := h.service.RemoveLine(r.Context(), userID, lineID, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) decodeAdd(w http.ResponseWriter, r *http.Request, requestID string) (int64, *addRequest, bool) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return 0, nil, false
	}

	var req addRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return 0, nil, false
	}

	return userID, &req, true
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
