package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
	"github.com/cjrunixx/VeloVoice/backend/pkg/utils"
)

// HealthMessage is returned by the liveness check.
const HealthMessage = "VeloVoice Co-Pilot Brain is alive."

// Status describes what the process started with.
type Status struct {
	LLMEnabled bool
	Provider   string
}

// SessionCounter reports how many co-pilot sessions are live.
type SessionCounter interface {
	Len() int
}

// Handler serves liveness and capability endpoints.
type Handler struct {
	status   Status
	sessions SessionCounter
}

func New(status Status, sessions SessionCounter) *Handler {
	return &Handler{status: status, sessions: sessions}
}

// RegisterRoutes mounts /health at the router root.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

// RegisterAPIRoutes mounts the capability listing under /api.
func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Get("/tools", h.handleTools)
}

type healthResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	LLM      string `json:"llm"`
	Provider string `json:"provider,omitempty"`
	Sessions int    `json:"sessions"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Message: HealthMessage,
		LLM:     "degraded",
	}
	if h.status.LLMEnabled {
		resp.LLM = "enabled"
		resp.Provider = h.status.Provider
	}
	if h.sessions != nil {
		resp.Sessions = h.sessions.Len()
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTools(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, tool.Definitions())
}
