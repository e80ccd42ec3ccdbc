package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"currency-rates-service/internal/metrics"
	"currency-rates-service/pkg/logger"
)

type Router struct {
	handler        *Handler
	log            *logger.Logger
	metrics        *metrics.Metrics
	allowedOrigins []string
}

func NewRouter(handler *Handler, log *logger.Logger, metrics *metrics.Metrics, allowedOrigins []string) *Router {
	return &Router{
		handler:        handler,
		log:            log,
		metrics:        metrics,
		allowedOrigins: allowedOrigins,
	}
}

func (r *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		crw := &customResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(crw, req)

		duration := time.Since(start)
		r.metrics.HTTPRequestDuration.WithLabelValues(req.URL.Path, req.Method).Observe(duration.Seconds())
		r.metrics.HTTPRequestsTotal.WithLabelValues(req.URL.Path, req.Method, fmt.Sprintf("%dxx", crw.statusCode/100)).Inc()

		r.log.Info("HTTP request",
			"method", req.Method,
			"path", req.URL.Path,
			"query", req.URL.RawQuery,
			"status", crw.statusCode,
			"duration", duration,
			"remote_addr", req.RemoteAddr,
		)
	})
}

// recoveryMiddleware converts an escaped panic into the JSON 500 envelope.
func (r *Router) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				r.log.Error("Unhandled server panic", "panic", recovered, "path", req.URL.Path)
				r.handler.writeJSON(w, http.StatusInternalServerError, ErrorResponse{
					Message: "Internal server error",
					Details: fmt.Sprint(recovered),
				})
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func (r *Router) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin != "" {
			for _, allowed := range r.allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					break
				}
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, req)
	})
}

type customResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (crw *customResponseWriter) WriteHeader(code int) {
	crw.statusCode = code
	crw.ResponseWriter.WriteHeader(code)
}

func (r *Router) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/rates", r.handler.GetRatesHandler)
	mux.HandleFunc("/api/health", r.handler.HealthHandler)
	mux.HandleFunc("/", r.handler.NotFoundHandler)

	apiWithMiddleware := r.recoveryMiddleware(r.corsMiddleware(r.loggingMiddleware(mux)))

	rootMux := http.NewServeMux()
	rootMux.Handle("/", apiWithMiddleware)
	rootMux.Handle("/metrics", promhttp.Handler())

	return rootMux
}
