// Package handler exposes assistant sessions over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ppiankov/saferstep/internal/model"
	"github.com/ppiankov/saferstep/internal/session"
)

// SessionStore is the subset of session.Manager the API needs.
type SessionStore interface {
	Create(loc *model.Location) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Delete(id string) error
	Count() int
}

// NewRouter wires HTTP routes to the session store.
func NewRouter(store SessionStore, logger zerolog.Logger) http.Handler {
	logger = logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	h := New(store, logger)

	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})

	return r
}

// requestLogger logs one line per request with its route pattern and status.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			evt := logger.Debug()
			if status >= http.StatusInternalServerError {
				evt = logger.Error()
			}
			evt.Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
