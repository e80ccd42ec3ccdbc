package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/internal/service"
	"currency-rates-service/pkg/logger"
)

// RatesResponse is the wire form of a successful rates response. Stale and
// Error appear only when the response was served from the degraded tier.
type RatesResponse struct {
	Base      model.Currency             `json:"base"`
	Date      string                     `json:"date"`
	Rates     map[model.Currency]float64 `json:"rates"`
	Timestamp int64                      `json:"timestamp"`
	Stale     bool                       `json:"stale,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

type Handler struct {
	service ports.RatesService
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewHandler(service ports.RatesService, log *logger.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		log:     log,
		metrics: metrics,
	}
}

func (h *Handler) GetRatesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.RatesRequestsTotal.Inc()

	requestedDate := r.URL.Query().Get("date")

	result, err := h.service.GetRates(r.Context(), requestedDate)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if result.Stale {
		h.metrics.StaleResponsesTotal.Inc()
	}

	h.writeJSON(w, http.StatusOK, RatesResponse{
		Base:      result.Snapshot.Base,
		Date:      result.Snapshot.Date,
		Rates:     result.Snapshot.Rates,
		Timestamp: result.Timestamp,
		Stale:     result.Stale,
		Error:     result.StaleReason,
	})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: nowMillis(),
	})
}

func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "Route not found"})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrFutureDate):
		h.metrics.RatesErrorsTotal.WithLabelValues("invalid_request").Inc()
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrFeedUnavailable):
		h.metrics.RatesErrorsTotal.WithLabelValues("upstream_unavailable").Inc()
		h.log.Error("Rates unavailable", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Message: "Failed to fetch rates from external API",
			Details: err.Error(),
		})
	default:
		h.metrics.RatesErrorsTotal.WithLabelValues("internal").Inc()
		h.log.Error("Unhandled service error", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Details: err.Error(),
		})
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}
