package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cjrunixx/VeloVoice/backend/internal/handler/copilot"
	"github.com/cjrunixx/VeloVoice/backend/internal/handler/persona"
	"github.com/cjrunixx/VeloVoice/backend/internal/handler/system"
	"github.com/cjrunixx/VeloVoice/backend/internal/metrics"
	middlewarePkg "github.com/cjrunixx/VeloVoice/backend/internal/middleware"
	personaModel "github.com/cjrunixx/VeloVoice/backend/internal/model/persona"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, copilotHandler *copilot.Handler, systemHandler *system.Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	personaHandler := persona.New(personas)

	systemHandler.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Dashboards connect to the bare host, so the root path upgrades too.
	copilotHandler.RegisterWebSocketRoutes(r)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		systemHandler.RegisterAPIRoutes(api)
		copilotHandler.RegisterRoutes(api)
	})

	return r
}
