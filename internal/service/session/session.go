// Package session runs the per-connection co-pilot state machine: OBD
// polling, proactive alerts, simulated navigation and voice commands, all
// multiplexed onto one WebSocket.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cjrunixx/VeloVoice/backend/internal/clock"
	"github.com/cjrunixx/VeloVoice/backend/internal/config"
	"github.com/cjrunixx/VeloVoice/backend/internal/metrics"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/copilot"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/persona"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/vehicle"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/ai"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/events"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/health"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/navigation"
	"github.com/cjrunixx/VeloVoice/backend/internal/service/obd"
)

// Greeting is the first frame of every connection.
const Greeting = "Connected to Co-Pilot Brain"

// TirePressureAlert is the scripted proactive alert sent once per connection.
const TirePressureAlert = "your rear left tire pressure is reading lower than optimal. I recommend a quick inspection at the nearest station."

const writeWait = 10 * time.Second

// Conn is the subset of *websocket.Conn a session needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Assistant answers voice commands. It must not fail; errors surface as a
// fallback Result.
type Assistant interface {
	ProcessVoiceCommand(ctx context.Context, text, personaID, language string) ai.Result
}

// Formatter decorates proactive alert text for a persona.
type Formatter interface {
	Format(personaID, text string) string
}

// Dependencies wires a Session. Conn, Assistant and Formatter are required.
type Dependencies struct {
	ID        string
	Conn      Conn
	Clock     clock.Clock
	Assistant Assistant
	Formatter Formatter
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Config    config.SessionConfig
}

// Info is a point-in-time view of a session for the admin API.
type Info struct {
	ID          string    `json:"id"`
	Persona     string    `json:"persona"`
	Language    string    `json:"language"`
	ConnectedAt time.Time `json:"connectedAt"`
	Navigating  bool      `json:"navigating"`
	Destination string    `json:"destination,omitempty"`
}

type commandResult struct {
	persona string
	result  ai.Result
}

// Session owns one connection. Every timer, state change and write happens on
// the goroutine executing Run.
type Session struct {
	id        string
	conn      Conn
	clock     clock.Clock
	assistant Assistant
	formatter Formatter
	events    events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       config.SessionConfig

	poller *obd.Poller
	nav    *navigation.Engine
	alert  clock.Timer
	ping   clock.Ticker

	inbound    chan []byte
	readErr    error
	readerDone chan struct{}
	results    chan commandResult
	inflight   sync.WaitGroup

	cancel   context.CancelFunc
	stopped  chan struct{}
	stopOnce sync.Once
	dead     bool

	mu   sync.RWMutex
	info Info
}

// New prepares a session; nothing runs until Run is called.
func New(deps Dependencies) *Session {
	if deps.ID == "" {
		deps.ID = uuid.NewString()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	cfg := withDefaults(deps.Config)

	return &Session{
		id:         deps.ID,
		conn:       deps.Conn,
		clock:      deps.Clock,
		assistant:  deps.Assistant,
		formatter:  deps.Formatter,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With("component", "session", "session", deps.ID),
		cfg:        cfg,
		poller:     obd.NewPoller(deps.Clock, cfg.PollInterval),
		nav:        navigation.NewEngine(deps.Clock, cfg.NavStepInterval),
		inbound:    make(chan []byte),
		readerDone: make(chan struct{}),
		results:    make(chan commandResult),
		stopped:    make(chan struct{}),
		info: Info{
			ID:          deps.ID,
			Persona:     persona.Default,
			Language:    ai.DefaultLanguage,
			ConnectedAt: deps.Clock.Now().UTC(),
		},
	}
}

func withDefaults(cfg config.SessionConfig) config.SessionConfig {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = obd.DefaultInterval
	}
	if cfg.NavStepInterval <= 0 {
		cfg.NavStepInterval = navigation.DefaultStepInterval
	}
	if cfg.ProactiveAlertDelay <= 0 {
		cfg.ProactiveAlertDelay = 15 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return cfg
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Info returns a snapshot of the session state. Safe for concurrent use.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Stop asks Run to tear the session down. Safe for concurrent use.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// Run drives the session until the client disconnects, ctx is cancelled or
// Stop is called. All timers are cancelled and the connection is closed
// before Run returns.
func (s *Session) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.close()

	readTimeout := 2 * s.cfg.PingInterval
	_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go s.readLoop(ctx, readTimeout)
	s.open(ctx)

	for !s.dead {
		var alertC <-chan time.Time
		if s.alert != nil {
			alertC = s.alert.C()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.stopped:
			return nil
		case data, ok := <-s.inbound:
			if !ok {
				return s.readResult()
			}
			s.handleFrame(ctx, data)
		case <-s.poller.C():
			s.send(s.poller.Request())
		case <-s.nav.C():
			s.navigationTick(ctx)
		case <-alertC:
			s.alert = nil
			s.proactiveAlert(ctx)
		case <-s.ping.C():
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug("ping failed", "error", err)
				return nil
			}
		case res := <-s.results:
			s.commandDone(ctx, res)
		}
	}
	return nil
}

func (s *Session) open(ctx context.Context) {
	s.metrics.SessionOpened()
	s.logger.Info("co-pilot connected")

	s.poller.Start()
	s.alert = s.clock.NewTimer(s.cfg.ProactiveAlertDelay)
	s.ping = s.clock.NewTicker(s.cfg.PingInterval)
	s.send(copilot.NewSystem(Greeting))

	s.publish(ctx, events.KindSessionOpened, nil)
}

// close cancels every activity. It runs exactly once, on the Run goroutine.
func (s *Session) close() {
	s.dead = true
	s.cancel()

	s.poller.Stop()
	s.nav.Stop()
	if s.alert != nil {
		s.alert.Stop()
		s.alert = nil
	}
	if s.ping != nil {
		s.ping.Stop()
	}

	_ = s.conn.Close()
	<-s.readerDone
	s.inflight.Wait()

	s.mu.Lock()
	s.info.Navigating = false
	s.mu.Unlock()

	s.metrics.SessionClosed()
	s.publish(context.Background(), events.KindSessionClosed, nil)
	s.logger.Info("co-pilot disconnected")
}

func (s *Session) readLoop(ctx context.Context, readTimeout time.Duration) {
	defer close(s.readerDone)
	defer close(s.inbound)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = err
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))

		select {
		case s.inbound <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) readResult() error {
	err := s.readErr
	if err == nil || s.dead {
		return nil
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return nil
	}
	if websocket.IsUnexpectedCloseError(err) {
		return fmt.Errorf("read: %w", err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("client stopped answering pings: %w", err)
	}
	return fmt.Errorf("read: %w", err)
}

func (s *Session) handleFrame(ctx context.Context, data []byte) {
	var msg copilot.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		s.metrics.MalformedFrame()
		s.logger.Warn("error parsing message", "error", err, "bytes", len(data))
		return
	}

	switch msg.Type {
	case copilot.TypePersonaSync:
		s.metrics.Inbound(msg.Type)
		s.update(msg.Persona, msg.Language)
		info := s.Info()
		s.logger.Info("persona synced", "persona", info.Persona, "language", info.Language)
	case copilot.TypeTranscript:
		s.metrics.Inbound(msg.Type)
		s.update(msg.Persona, msg.Language)
		s.transcript(ctx, msg.Text)
	case copilot.TypeTelemetry:
		s.metrics.Inbound(msg.Type)
		s.telemetry(ctx, msg.Data)
	default:
		s.metrics.Inbound("other")
		s.logger.Debug("ignoring message", "type", msg.Type)
	}
}

// update overwrites persona and language with the non-empty values given.
func (s *Session) update(personaID, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if personaID != "" {
		s.info.Persona = personaID
	}
	if language != "" {
		s.info.Language = language
	}
}

func (s *Session) transcript(ctx context.Context, text string) {
	info := s.Info()
	s.logger.Info("voice command", "language", info.Language, "text", text)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		res := s.assistant.ProcessVoiceCommand(ctx, text, info.Persona, info.Language)
		select {
		case s.results <- commandResult{persona: info.Persona, result: res}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) commandDone(ctx context.Context, res commandResult) {
	actions := res.result.Actions
	if call, ok := tool.Find(actions, tool.Navigate); ok {
		if dest, ok := call.StringArg("destination"); ok && dest != "" {
			s.startNavigation(ctx, dest)
		} else {
			s.logger.Warn("navigate call without destination", "args", call.Args)
		}
	}

	s.send(copilot.NewAIResponse(res.result.Text, actions...))
	s.publish(ctx, events.KindCommandProcessed, map[string]any{
		"persona": res.persona,
		"actions": len(actions),
	})
}

func (s *Session) startNavigation(ctx context.Context, destination string) {
	s.nav.Start(destination)
	s.metrics.NavigationStarted()
	s.logger.Info("starting navigation", "destination", destination)

	s.mu.Lock()
	s.info.Navigating = true
	s.info.Destination = destination
	s.mu.Unlock()

	s.publish(ctx, events.KindNavigationStarted, map[string]any{"destination": destination})
}

func (s *Session) navigationTick(ctx context.Context) {
	step := s.nav.Step()
	m, ok := s.nav.Tick()
	if !ok {
		s.mu.Lock()
		s.info.Navigating = false
		s.mu.Unlock()
		return
	}
	s.send(m.Response())
	s.publish(ctx, events.KindNavigationMilestone, map[string]any{
		"destination": s.nav.Destination(),
		"step":        step,
		"type":        m.Type,
	})
}

func (s *Session) telemetry(ctx context.Context, raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		s.logger.Warn("telemetry frame without data")
		return
	}
	var snapshot vehicle.Telemetry
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		s.metrics.MalformedFrame()
		s.logger.Warn("error parsing telemetry", "error", err)
		return
	}

	personaID := s.Info().Persona
	for _, alert := range health.Evaluate(snapshot) {
		s.metrics.HealthAlert(string(alert.Kind))
		s.logger.Info("health alert", "kind", alert.Kind)
		s.send(copilot.NewAIResponse(s.formatter.Format(personaID, alert.Text), alert.Actions...))
		s.publish(ctx, events.KindHealthAlert, map[string]any{"kind": alert.Kind})
	}
}

func (s *Session) proactiveAlert(ctx context.Context) {
	s.logger.Info("sending proactive alert", "kind", "tire_pressure")
	personaID := s.Info().Persona
	s.send(copilot.NewAIResponse(
		s.formatter.Format(personaID, TirePressureAlert),
		tool.NewCall(tool.GetVehicleStatus, nil),
	))
	s.publish(ctx, events.KindHealthAlert, map[string]any{"kind": "tire_pressure"})
}

// send writes msg if the connection is still usable and silently drops it
// otherwise.
func (s *Session) send(msg copilot.Outbound) {
	if s.dead {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode frame", "type", msg.MessageType(), "error", err)
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("dropping frame, connection is gone", "type", msg.MessageType(), "error", err)
		s.dead = true
		return
	}
	s.metrics.Outbound(msg.MessageType())
}

func (s *Session) publish(ctx context.Context, kind string, payload any) {
	evt := events.Event{
		Kind:      kind,
		SessionID: s.id,
		Persona:   s.Info().Persona,
		At:        s.clock.Now().UTC(),
		Payload:   payload,
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Debug("publish event failed", "kind", kind, "error", err)
	}
}
