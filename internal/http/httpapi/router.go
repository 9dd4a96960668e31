package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"deckserver/internal/http/handlers"
	"deckserver/internal/infra"
	"deckserver/internal/middleware"
)

// NewRouter assembles the control plane API. The callback route is mounted
// outside the JWT group: the compute unit authenticates at the network
// level, not with user tokens.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, country middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.I18N("en", country),
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Post("/v1/generate/callback", app.GenerationCallback)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Route("/v1/generate", func(r chi.Router) {
			r.Post("/start", app.GenerationStart)
			r.Get("/jobs/{job_id}", app.GenerationStatus)
			r.Post("/jobs/{job_id}/cancel", app.GenerationCancel)
			r.Get("/projects/{project_id}/jobs", app.GenerationJobsByProject)
		})

		r.Route("/v1/projects/{project_id}/decks", func(r chi.Router) {
			r.Get("/", app.DecksList)
			r.Get("/current", app.DecksCurrent)
			r.Get("/export", app.DecksExport)
		})
		r.Get("/v1/decks/{deck_id}", app.DeckGet)

		r.Get("/v1/stats/jobs", app.JobStats)
	})

	return r
}
