package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"routekit/internal/metrics"
)

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	metrics.RegisterDefault()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/healthz", s.HealthHandler)
	r.Get("/readyz", s.ReadyHandler)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/debug/info", s.DebugJSON)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.withPrincipal)
		r.Use(s.rateLimit)

		r.Route("/datasets", func(r chi.Router) {
			r.Post("/", s.CreateDatasetHandler)
			r.Get("/", s.ListDatasetsHandler)
			r.Get("/{id}", s.GetDatasetHandler)
		})
		r.Post("/tsp/euclidean", s.TSPHandler)
		r.Post("/fleet/evaluate", s.FleetEvaluateHandler)
		r.Post("/fleet/compare", s.FleetCompareHandler)
		r.Post("/pickdeliver", s.PickDeliverHandler)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.ListRunsHandler)
			r.Get("/events", s.RunEventsHandler)
			r.Get("/ws", s.RunEventsWSHandler)
			r.Get("/{id}", s.GetRunHandler)
		})

		r.Get("/admin/solver/config", s.SolverConfigHandler)
		r.Put("/admin/solver/config", s.SolverConfigHandler)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method, r.URL.Path)
	})
	return r
}
