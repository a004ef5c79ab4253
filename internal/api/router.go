package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/research-bridge/engine/internal/api/handlers"
	mw "github.com/research-bridge/engine/internal/api/middleware"
)

type Dependencies struct {
	HMACSecret        []byte
	RateLimitRPS      float64
	RateLimitBurst    int
	HealthHandler     *handlers.HealthHandler
	ProjectsHandler   *handlers.ProjectsHandler
	MilestonesHandler *handlers.MilestonesHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(dep.RateLimitRPS, dep.RateLimitBurst))
	r.Use(chimid.Compress(5))

	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))

			protected.Route("/projects", func(pr chi.Router) {
				pr.Get("/", dep.ProjectsHandler.List)
				pr.Post("/", dep.ProjectsHandler.Create)

				pr.Route("/{projectID}", func(one chi.Router) {
					one.Get("/", dep.ProjectsHandler.Get)
					one.Put("/", dep.ProjectsHandler.Update)
					one.Delete("/", dep.ProjectsHandler.Delete)

					one.Post("/submit", dep.ProjectsHandler.Submit)
					one.Post("/review", dep.ProjectsHandler.Review)
					one.Get("/reviews", dep.ProjectsHandler.ListReviews)

					one.Route("/milestones", func(ms chi.Router) {
						ms.Get("/", dep.MilestonesHandler.List)
						ms.Post("/", dep.MilestonesHandler.Create)
						ms.Get("/stats", dep.MilestonesHandler.Stats)
						ms.Get("/{milestoneID}", dep.MilestonesHandler.Get)
						ms.Put("/{milestoneID}", dep.MilestonesHandler.Update)
						ms.Delete("/{milestoneID}", dep.MilestonesHandler.Delete)
					})
				})
			})
		})
	})

	return r
}
