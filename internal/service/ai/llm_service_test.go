package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjrunixx/VeloVoice/backend/internal/config"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/persona"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
)

type stubBackend struct {
	reply Reply
	err   error

	system string
	user   string
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Generate(_ context.Context, systemPrompt, userText string) (Reply, error) {
	s.system = systemPrompt
	s.user = userText
	return s.reply, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(b Backend) *Service {
	return New(b, persona.NewMemoryStore(persona.Seed()), nil, quietLogger())
}

func TestProcessVoiceCommandPassesToolCalls(t *testing.T) {
	backend := &stubBackend{reply: Reply{
		Text:  "Route confirmed.",
		Calls: []tool.Call{{Tool: tool.Navigate, Args: map[string]any{"destination": "Airport"}}},
	}}
	svc := newTestService(backend)

	res := svc.ProcessVoiceCommand(context.Background(), "take me to the airport", "Jarvis", "en-US")

	assert.Equal(t, "Route confirmed.", res.Text)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, tool.Navigate, res.Actions[0].Tool)
	assert.Equal(t, "Airport", res.Actions[0].Args["destination"])
	assert.Equal(t, "take me to the airport", backend.user)
	assert.Contains(t, backend.system, "You are Jarvis")
}

func TestProcessVoiceCommandFallbacks(t *testing.T) {
	cases := []struct {
		name    string
		backend *stubBackend
		text    string
		actions int
	}{
		{"upstream error", &stubBackend{err: errors.New("quota exceeded")}, FallbackText, 0},
		{"empty reply", &stubBackend{}, UnsureText, 0},
		{"tool call without text", &stubBackend{reply: Reply{Calls: []tool.Call{tool.NewCall(tool.ControlCar, map[string]any{"feature": "ac", "action": "on"})}}}, AcknowledgeText, 1},
		{"whitespace text", &stubBackend{reply: Reply{Text: "  \n"}}, UnsureText, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := newTestService(tc.backend).ProcessVoiceCommand(context.Background(), "hello", "Samantha", "en-US")
			assert.Equal(t, tc.text, res.Text)
			require.NotNil(t, res.Actions)
			assert.Len(t, res.Actions, tc.actions)
		})
	}
}

func TestDisabledServiceApologises(t *testing.T) {
	svc := NewDisabled(persona.NewMemoryStore(persona.Seed()), nil, quietLogger())

	res := svc.ProcessVoiceCommand(context.Background(), "play jazz", "KITT", "en-US")

	assert.Equal(t, FallbackText, res.Text)
	assert.Empty(t, res.Actions)
	assert.Equal(t, "disabled", svc.Provider())
}

func TestUnknownToolIsForwarded(t *testing.T) {
	backend := &stubBackend{reply: Reply{Calls: []tool.Call{{Tool: "open_trunk"}}}}

	res := newTestService(backend).ProcessVoiceCommand(context.Background(), "open the trunk", "", "")

	require.Len(t, res.Actions, 1)
	assert.Equal(t, "open_trunk", res.Actions[0].Tool)
	assert.NotNil(t, res.Actions[0].Args)
}

func TestEnvelopeInContentIsUnwrapped(t *testing.T) {
	backend := &stubBackend{reply: Reply{
		Text: "```json\n{\"text\":\"Playing jazz.\",\"actions\":[{\"tool\":\"play_media\",\"args\":{\"query\":\"jazz\"}}]}\n```",
	}}

	res := newTestService(backend).ProcessVoiceCommand(context.Background(), "play jazz", "Samantha", "en-US")

	assert.Equal(t, "Playing jazz.", res.Text)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, tool.PlayMedia, res.Actions[0].Tool)
}

func TestPlainBracesAreNotAnEnvelope(t *testing.T) {
	_, ok := parseEnvelope("{not json}")
	assert.False(t, ok)

	_, ok = parseEnvelope(`{"actions":[]}`)
	assert.False(t, ok, "envelope without text must be ignored")
}

type fakeChatModel struct {
	reply *schema.Message
	err   error

	tools []*schema.ToolInfo
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) BindTools(tools []*schema.ToolInfo) error {
	f.tools = tools
	return nil
}

func TestChainBackendDecodesToolCalls(t *testing.T) {
	fake := &fakeChatModel{reply: &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "1", Function: schema.FunctionCall{Name: tool.Navigate, Arguments: `{"destination":"Downtown"}`}},
			{ID: "2", Function: schema.FunctionCall{Name: tool.GetVehicleStatus, Arguments: ``}},
		},
	}}

	backend, err := newChainBackend(context.Background(), fake)
	require.NoError(t, err)
	require.Len(t, fake.tools, len(tool.Definitions()))

	reply, err := backend.Generate(context.Background(), "system {not a placeholder}", "go downtown")
	require.NoError(t, err)

	require.Len(t, fake.input, 2)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.True(t, strings.HasPrefix(fake.input[0].Content, "system"))
	assert.Equal(t, "go downtown", fake.input[1].Content)

	require.Len(t, reply.Calls, 2)
	assert.Equal(t, "Downtown", reply.Calls[0].Args["destination"])
	assert.Empty(t, reply.Calls[1].Args)
}

func TestChainBackendWrapsModelErrors(t *testing.T) {
	backend, err := newChainBackend(context.Background(), &fakeChatModel{err: errors.New("401")})
	require.NoError(t, err)

	_, err = backend.Generate(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestDecodeArgumentsRejectsGarbage(t *testing.T) {
	assert.Nil(t, decodeArguments("{destination"))
	assert.Equal(t, map[string]any{"query": "jazz"}, decodeArguments(` {"query":"jazz"} `))
}

func TestNewServiceBuildsArkBackend(t *testing.T) {
	cfg := config.AIConfig{
		Provider: config.ProviderArk,
		APIKey:   "test-key",
		Model:    "ep-test",
		BaseURL:  "https://ark.cn-beijing.volces.com/api/v3",
		Region:   "cn-beijing",
	}

	svc, err := NewService(context.Background(), persona.NewMemoryStore(persona.Seed()), cfg, nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, config.ProviderArk, svc.Provider())
}
