package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cjrunixx/VeloVoice/backend/internal/config"
	"github.com/cjrunixx/VeloVoice/backend/internal/metrics"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/persona"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
)

// Reply texts used when the model cannot produce one.
const (
	FallbackText    = "I'm sorry, I'm having trouble connecting to my central network right now."
	AcknowledgeText = "Right away."
	UnsureText      = "I'm not sure how to help with that."
)

// ErrDisabled is returned by the disabled backend.
var ErrDisabled = errors.New("ai: language model is not configured")

// Result is the outcome of one voice command.
type Result struct {
	Text    string      `json:"text"`
	Actions []tool.Call `json:"actions"`
}

// Reply is the raw model output before fallbacks are applied.
type Reply struct {
	Text  string
	Calls []tool.Call
}

// Backend performs one model round trip.
type Backend interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userText string) (Reply, error)
}

// Service turns a driver utterance into co-pilot text plus tool calls.
type Service struct {
	backend Backend
	prompts *PromptBuilder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService builds the backend selected by cfg.Provider.
func NewService(ctx context.Context, personas persona.Store, cfg config.AIConfig, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Provider {
	case config.ProviderArk:
		backend, err = newArkBackend(ctx, cfg)
	default:
		backend, err = newGeminiBackend(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", cfg.Provider, err)
	}
	return New(backend, personas, m, logger), nil
}

// NewDisabled returns a Service that answers every command with FallbackText.
func NewDisabled(personas persona.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	return New(disabledBackend{}, personas, m, logger)
}

// New wires a Service around an existing backend.
func New(backend Backend, personas persona.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend: backend,
		prompts: NewPromptBuilder(personas),
		metrics: m,
		logger:  logger.With("component", "ai", "provider", backend.Name()),
	}
}

// Provider names the active backend.
func (s *Service) Provider() string {
	return s.backend.Name()
}

// ProcessVoiceCommand never fails: upstream errors become FallbackText with no
// actions.
func (s *Service) ProcessVoiceCommand(ctx context.Context, text, personaID, language string) Result {
	system := s.prompts.BuildSystemPrompt(personaID, language)

	start := time.Now()
	reply, err := s.backend.Generate(ctx, system, text)
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrDisabled) {
			outcome = "disabled"
		} else {
			s.logger.Error("model call failed", "persona", personaID, "error", err)
		}
		s.metrics.LLMRequest(s.backend.Name(), outcome, elapsed)
		return Result{Text: FallbackText, Actions: []tool.Call{}}
	}
	s.metrics.LLMRequest(s.backend.Name(), "ok", elapsed)

	result := finalize(reply)
	for _, call := range result.Actions {
		if !tool.Known(call.Tool) {
			s.logger.Warn("model returned unknown tool", "tool", call.Tool)
			continue
		}
		s.logger.Info("model called tool", "tool", call.Tool, "args", call.Args)
	}
	return result
}

func finalize(reply Reply) Result {
	text := strings.TrimSpace(reply.Text)
	calls := reply.Calls

	// Models occasionally answer with the {"text","actions"} envelope as
	// plain content instead of using tool calls.
	if embedded, ok := parseEnvelope(text); ok {
		text = strings.TrimSpace(embedded.Text)
		calls = append(calls, embedded.Actions...)
	}

	actions := make([]tool.Call, 0, len(calls))
	for _, call := range calls {
		actions = append(actions, tool.NewCall(call.Tool, call.Args))
	}

	if text == "" {
		if len(actions) > 0 {
			text = AcknowledgeText
		} else {
			text = UnsureText
		}
	}
	return Result{Text: text, Actions: actions}
}

func parseEnvelope(content string) (Result, bool) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if !strings.HasPrefix(trimmed, "{") {
		return Result{}, false
	}
	end := strings.LastIndex(trimmed, "}")
	if end < 0 {
		return Result{}, false
	}

	var raw struct {
		Text    *string     `json:"text"`
		Actions []tool.Call `json:"actions"`
	}
	if err := json.Unmarshal([]byte(trimmed[:end+1]), &raw); err != nil || raw.Text == nil {
		return Result{}, false
	}
	return Result{Text: *raw.Text, Actions: raw.Actions}, true
}

type disabledBackend struct{}

func (disabledBackend) Name() string { return "disabled" }

func (disabledBackend) Generate(context.Context, string, string) (Reply, error) {
	return Reply{}, ErrDisabled
}
