package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bento-order/internal/logger"
	"bento-order/internal/models"
)

const (
	maxBodyBytes   = 1 << 20
	requestTimeout = 30 * time.Second
)

// Handler serves the order sink HTTP API
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.withLogging)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.HealthCheck)
	r.Get("/menu", h.GetMenu)
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/{orderID}", h.GetOrder)
	return r
}

// CreateOrder handles POST /orders.
// Processed requests always answer 200 with the status envelope, rejections included.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		h.writeErrorResponse(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req models.OrderRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		h.logger.Warn("validation_failed", "Failed to parse request body", requestID, map[string]interface{}{
			"error": err.Error(),
		})
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" && key != req.OrderID {
		h.writeErrorResponse(w, http.StatusBadRequest, "Idempotency-Key does not match orderId")
		return
	}

	result, err := h.service.RecordOrder(r.Context(), &req, requestID)
	if err != nil {
		var validationErr *models.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.logger.Warn("validation_failed", "Order rejected", requestID, map[string]interface{}{
				"order_id": req.OrderID,
				"field":    validationErr.Field,
			})
			h.writeJSON(w, http.StatusOK, &models.OrderResult{Status: models.StatusError, Message: validationErr.Error(), OrderID: req.OrderID})
		case errors.Is(err, ErrBusy):
			h.writeErrorResponse(w, http.StatusServiceUnavailable, "Order sink is busy, try again")
		default:
			h.logger.Error("order_record_failed", "Failed to record order", requestID, err, map[string]interface{}{
				"order_id": req.OrderID,
			})
			h.writeJSON(w, http.StatusOK, &models.OrderResult{Status: models.StatusError, Message: "order could not be recorded", OrderID: req.OrderID})
		}
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetOrder handles GET /orders/{orderID}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID)
	if errors.Is(err, ErrOrderNotFound) {
		h.writeErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.Error("db_query_failed", "Failed to get order", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// GetMenu handles GET /menu. Failures use the catalog error envelope.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	items, err := h.service.Menu(r.Context())
	if err != nil {
		h.logger.Error("db_query_failed", "Failed to load menu", requestID, err, nil)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "menu unavailable",
			"details": err.Error(),
		})
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	h.writeJSON(w, http.StatusOK, items)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.service.HealthCheck(ctx)
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-sink",
		"healthy":   healthy,
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}
	h.writeJSON(w, status, response)
}

// writeErrorResponse writes the status envelope with an error
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, &models.OrderResult{Status: models.StatusError, Message: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

// withLogging logs each request with its status and duration
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, ww.Status()),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			})
	})
}
