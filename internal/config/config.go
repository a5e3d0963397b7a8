package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Config aggregates every setting of the service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Session SessionConfig
	Events  EventsConfig
	Log     LogConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Session: session,
		Events:  loadEventsConfig(),
		Log:     loadLogConfig(),
	}, nil
}

// InitResult reports what the process can do with the loaded configuration.
// It replaces a one-off console warning so callers can pick degraded mode
// deterministically.
type InitResult struct {
	LLMEnabled bool
	Provider   string
	Warnings   []string
}

// Init validates the configuration once at startup.
func (c *Config) Init() InitResult {
	res := InitResult{Provider: c.AI.Provider}
	if c.AI.Enabled() {
		res.LLMEnabled = true
	} else {
		switch c.AI.Provider {
		case ProviderArk:
			res.Warnings = append(res.Warnings, "Ark credentials are not set (ARK_API_KEY + Model, or ARK_ACCESS_KEY/ARK_SECRET_KEY). LLM calls will fail.")
		default:
			res.Warnings = append(res.Warnings, "GEMINI_API_KEY is not set. LLM calls will fail.")
		}
	}
	if c.Events.NATSURL == "" {
		res.Warnings = append(res.Warnings, "NATS_URL is not set, session events are not published.")
	}
	return res
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3001"
	}

	if strings.Contains(port, ":") {
		// Accept ":3001" or "127.0.0.1:3001" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the language model backend.
type AIConfig struct {
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string

	Temperature *float64
	TopP        *float64
	MaxTokens   int
}

// Enabled reports whether the selected provider has the credentials it needs.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	default:
		return c.GeminiAPIKey != ""
	}
}

// NewChatModel creates the Ark chat model. Tools are bound by the caller.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk || !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens > 0 {
		val := c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGemini))
	if provider != ProviderGemini && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q: want %s or %s", provider, ProviderGemini, ProviderArk)
	}

	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens := 1000
	if override, err := parseOptionalIntEnv("LLM_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		maxTokens = *override
	}

	return AIConfig{
		Provider:     provider,
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("Model")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
	}, nil
}

// SessionConfig holds the pacing of the per-connection activities.
type SessionConfig struct {
	PollInterval        time.Duration
	NavStepInterval     time.Duration
	ProactiveAlertDelay time.Duration
	PingInterval        time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	poll, err := parseDurationEnv("OBD_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}
	nav, err := parseDurationEnv("NAV_STEP_INTERVAL", 12*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}
	alert, err := parseDurationEnv("PROACTIVE_ALERT_DELAY", 15*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}
	ping, err := parseDurationEnv("WS_PING_INTERVAL", 30*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}
	return SessionConfig{
		PollInterval:        poll,
		NavStepInterval:     nav,
		ProactiveAlertDelay: alert,
		PingInterval:        ping,
	}, nil
}

// EventsConfig describes the optional NATS event bus.
type EventsConfig struct {
	NATSURL       string
	SubjectPrefix string
}

func loadEventsConfig() EventsConfig {
	return EventsConfig{
		NATSURL:       strings.TrimSpace(os.Getenv("NATS_URL")),
		SubjectPrefix: getEnvOrDefault("NATS_SUBJECT_PREFIX", "velovoice"),
	}
}

// LogConfig selects the log level.
type LogConfig struct {
	Level slog.Level
}

func loadLogConfig() LogConfig {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return LogConfig{Level: level}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
