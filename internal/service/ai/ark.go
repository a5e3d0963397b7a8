package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/cjrunixx/VeloVoice/backend/internal/config"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
)

type arkBackend struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

func newArkBackend(ctx context.Context, cfg config.AIConfig) (*arkBackend, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newChainBackend(ctx, chatModel)
}

// newChainBackend binds the co-pilot tools to chatModel and compiles the
// prompt + model chain around it.
func newChainBackend(ctx context.Context, chatModel model.ChatModel) (*arkBackend, error) {
	if err := chatModel.BindTools(einoTools(tool.Definitions())); err != nil {
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return &arkBackend{chain: runnable}, nil
}

func (b *arkBackend) Name() string { return config.ProviderArk }

func (b *arkBackend) Generate(ctx context.Context, systemPrompt, userText string) (Reply, error) {
	msg, err := b.chain.Invoke(ctx, map[string]any{
		"system": systemPrompt,
		"query":  userText,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to run AI chain: %w", err)
	}
	return replyFromMessage(msg), nil
}

func replyFromMessage(msg *schema.Message) Reply {
	if msg == nil {
		return Reply{}
	}
	reply := Reply{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.Calls = append(reply.Calls, tool.NewCall(tc.Function.Name, decodeArguments(tc.Function.Arguments)))
	}
	return reply
}

func decodeArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		slog.Warn("discarding malformed tool arguments", "component", "ai", "arguments", raw, "error", err)
		return nil
	}
	return args
}

func einoTools(defs []tool.Definition) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(defs))
	for _, def := range defs {
		info := &schema.ToolInfo{Name: def.Name, Desc: def.Description}
		if len(def.Params) > 0 {
			params := make(map[string]*schema.ParameterInfo, len(def.Params))
			for _, p := range def.Params {
				params[p.Name] = &schema.ParameterInfo{
					Type:     schema.DataType(p.Type),
					Desc:     p.Description,
					Enum:     p.Enum,
					Required: p.Required,
				}
			}
			info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
		}
		infos = append(infos, info)
	}
	return infos
}
