package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the REST surface. The per-handler timeouts are shorter than
// the middleware timeout so handlers fail before chi cuts the connection.
func NewRouter(products *ProductHandler, checks *CheckHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Post("/", products.Track)
			r.Get("/", products.List)
			r.Delete("/", products.Remove)
			r.Get("/latest", products.Latest)
			r.Get("/details", products.Details)
			r.Get("/price-history", products.History)
			r.Post("/check-prices", checks.Run)
		})
	})

	return r
}
