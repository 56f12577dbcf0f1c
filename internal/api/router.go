// Package api assembles the gateway's HTTP router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appMiddleware "github.com/outfoxxed/seashare/internal/middleware"
	"github.com/outfoxxed/seashare/internal/raw"
	"github.com/outfoxxed/seashare/internal/upload"
)

// libraryPattern constrains the upload route's library segment to a UUID.
const libraryPattern = "{library:[0-9a-f]{8}-[0-9a-f]{4}-[0-5][0-9a-f]{3}-[089ab][0-9a-f]{3}-[0-9a-f]{12}}"

// NewRouter wires middleware and routes for the gateway surface.
func NewRouter(log *logrus.Logger, uploadHandler *upload.Handler, rawHandler *raw.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", appMiddleware.TokenHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/upload", func(r chi.Router) {
		r.Use(appMiddleware.SeafileToken)
		r.Post("/"+libraryPattern, uploadHandler.Upload)
	})

	r.Get("/raw/{share}/{filename}", rawHandler.Get)

	return r
}
