package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the full chi router: request ID and access-log
// middleware, the /eoss/v1 object and stats routes, and a /metrics
// endpoint for the domain's Prometheus wiring (SPEC_FULL.md §3 — not part
// of the distilled spec's interface, additive ambient observability in
// the teacher's own idiom).
func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(accessLog(s.accessLog))
	r.Use(middleware.Recoverer)

	r.NotFound(s.handleUnknownRoute)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Route("/eoss/v1", func(r chi.Router) {
		r.Route("/object/{filename}", func(r chi.Router) {
			r.Put("/", s.handlePut)
			r.Get("/", s.handleGet)
			r.Head("/", s.handleHead)
			r.Delete("/", s.handleDelete)
		})
		r.Get("/stats", s.handleStats)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
