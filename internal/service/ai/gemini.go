package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/cjrunixx/VeloVoice/backend/internal/config"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
)

type geminiBackend struct {
	client    *genai.Client
	model     string
	maxTokens int32
	temp      *float32
	tools     []*genai.Tool
}

func newGeminiBackend(ctx context.Context, cfg config.AIConfig) (*geminiBackend, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	b := &geminiBackend{
		client:    client,
		model:     cfg.GeminiModel,
		maxTokens: int32(cfg.MaxTokens),
		tools:     geminiTools(tool.Definitions()),
	}
	if cfg.Temperature != nil {
		b.temp = genai.Ptr(float32(*cfg.Temperature))
	}
	return b, nil
}

func (b *geminiBackend) Name() string { return config.ProviderGemini }

func (b *geminiBackend) Generate(ctx context.Context, systemPrompt, userText string) (Reply, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(userText), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Tools:             b.tools,
		MaxOutputTokens:   b.maxTokens,
		Temperature:       b.temp,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("gemini generate content: %w", err)
	}

	var reply Reply
	for _, fc := range resp.FunctionCalls() {
		if fc == nil {
			continue
		}
		reply.Calls = append(reply.Calls, tool.NewCall(fc.Name, fc.Args))
	}
	reply.Text = resp.Text()
	return reply, nil
}

func geminiTools(defs []tool.Definition) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{},
		}
		for _, p := range def.Params {
			schema.Properties[p.Name] = &genai.Schema{
				Type:        geminiType(p.Type),
				Description: p.Description,
				Enum:        p.Enum,
			}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  schema,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func geminiType(t tool.ParamType) genai.Type {
	switch t {
	case tool.TypeString:
		return genai.TypeString
	default:
		return genai.TypeUnspecified
	}
}
