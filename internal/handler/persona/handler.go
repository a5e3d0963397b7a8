package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/persona"
	"github.com/cjrunixx/VeloVoice/backend/pkg/utils"
)

// Handler serves the persona catalog so the dashboard can tune its voices.
type Handler struct {
	personas persona.Store
}

func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/personas/{personaID}", h.handleGetPersona)
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

// Persona IDs are case-sensitive, matching what clients send in persona_sync.
func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	p, ok := h.personas.FindByID(chi.URLParam(r, "personaID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}
