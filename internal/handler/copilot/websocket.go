package copilot

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/cjrunixx/VeloVoice/backend/internal/clock"
	"github.com/cjrunixx/VeloVoice/backend/internal/config"
	"github.com/cjrunixx/VeloVoice/backend/internal/metrics"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/events"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/session"
	"github.com/cjrunixx/VeloVoice/backend/pkg/utils"
)

const maxFrameBytes = 64 << 10

// Options carries the collaborators shared by every session.
type Options struct {
	Registry  *session.Registry
	Assistant session.Assistant
	Formatter session.Formatter
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Clock     clock.Clock
	Session   config.SessionConfig
}

// Handler upgrades co-pilot connections and exposes the live session list.
type Handler struct {
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func New(opts Options) *Handler {
	if opts.Registry == nil {
		opts.Registry = session.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		opts:   opts,
		logger: opts.Logger.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes accepts upgrades on /ws and on the root path, which
// is where existing dashboards connect.
func (h *Handler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
	r.Get("/", h.handleRoot)
}

// RegisterRoutes mounts the session listing under the API prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"service":   "VeloVoice Co-Pilot Brain",
			"websocket": "/ws",
			"health":    "/health",
		})
		return
	}
	h.handleWebSocket(w, r)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	sess := session.New(session.Dependencies{
		Conn:      conn,
		Clock:     h.opts.Clock,
		Assistant: h.opts.Assistant,
		Formatter: h.opts.Formatter,
		Events:    h.opts.Events,
		Metrics:   h.opts.Metrics,
		Logger:    h.opts.Logger,
		Config:    h.opts.Session,
	})
	if err := h.opts.Registry.Add(sess); err != nil {
		h.logger.Error("register session", "session", sess.ID(), "error", err)
		_ = conn.Close()
		return
	}
	defer h.opts.Registry.Remove(sess.ID())

	h.logger.Info("new connection", "session", sess.ID(), "remote", r.RemoteAddr)
	if err := sess.Run(r.Context()); err != nil {
		h.logger.Warn("session ended with error", "session", sess.ID(), "error", err)
	}
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.opts.Registry.List())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.opts.Registry.Get(chi.URLParam(r, "sessionID"))
	if errors.Is(err, session.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, info)
}
