package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/georepute/backend/internal/api/handlers"
	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/metrics"
	"github.com/wonny/georepute/backend/pkg/database"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// HealthChecker is satisfied by *database.DB
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// Routes bundles everything the router mounts. DB and Metrics may be nil.
type Routes struct {
	Quotes  *handlers.QuoteHandler
	Engines *handlers.EngineHandler
	Events  http.Handler
	DB      HealthChecker
	Metrics *metrics.Metrics
}

// Header names set by the authenticating proxy
const (
	HeaderUserID         = "X-User-ID"
	HeaderOrganizationID = "X-Organization-ID"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(routes.DB)).Methods("GET")
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics.Handler()).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(requestContextMiddleware)
	api.Use(metricsMiddleware(routes.Metrics))

	// Quote endpoints
	api.HandleFunc("/quotes", routes.Quotes.Create).Methods("POST")
	api.HandleFunc("/quotes", routes.Quotes.List).Methods("GET")
	api.HandleFunc("/quotes/{id}", routes.Quotes.Get).Methods("GET")
	api.HandleFunc("/quotes/{id}", routes.Quotes.Update).Methods("PATCH")
	api.HandleFunc("/quotes/{id}", routes.Quotes.Delete).Methods("DELETE")
	api.HandleFunc("/quotes/{id}/activity", routes.Quotes.Activity).Methods("GET")

	// Engine previews
	api.HandleFunc("/engines/{stage}", routes.Engines.Preview).Methods("POST")

	// Live quote events
	if routes.Events != nil {
		r.Handle("/ws/quotes", requestContextMiddleware(routes.Events)).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "quote-builder-api",
		}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			health, err := db.HealthCheck(ctx)
			body["database"] = health
			if err != nil {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

// requestContextMiddleware turns the proxy's identity headers into a RequestContext
func requestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(handlers.ErrorResponse{
				Error: "missing " + HeaderUserID + " header",
				Kind:  "unauthorized",
			})
			return
		}

		rc := contracts.RequestContext{UserID: userID}
		if org := r.Header.Get(HeaderOrganizationID); org != "" {
			rc.OrganizationID = &org
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithRequestContext(r.Context(), rc)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request latency by route template
func metricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"user_id":  r.Header.Get(HeaderUserID),
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(handlers.ErrorResponse{
						Error: "Internal server error",
						Kind:  "internal",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
