// Package api implements the Forge REST API using chi.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/visionforge/forge-core/internal/application/handlers"
)

// NewRouter creates a chi router with all API routes mounted under /api,
// plus unauthenticated health probes at /health/live and /health/ready.
func NewRouter(characters *handlers.CharacterHandler, continuity *handlers.ContinuityHandler) chi.Router {
	h := NewHandler(characters, continuity)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Route("/api", func(r chi.Router) {
		// Character lifecycle.
		r.Post("/characters", h.SaveCharacter)
		r.Get("/characters", h.ListCharacters)
		r.Get("/characters/current", h.CurrentCharacter)
		r.Patch("/characters/current", h.UpdateCharacter)
		r.Get("/characters/{id}/history", h.CharacterHistory)
		r.Get("/characters/{id}/diff", h.CharacterDiff)
		r.Post("/characters/{id}/rollback", h.RollbackCharacter)
		r.Post("/characters/{id}/archive", h.ArchiveCharacter)

		// Continuity.
		r.Post("/continuity/check", h.CheckContinuity)
		r.Post("/continuity/register", h.RegisterCharacter)
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// requestLogger logs one line per request through the default slog logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}
