package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/relie-app/relie/backend/internal/config"
	"github.com/relie-app/relie/backend/internal/model/chat"
	"github.com/relie-app/relie/backend/internal/model/persona"
)

// guidancePrefix marks the synthetic turn carrying topic guidance.
const guidancePrefix = "[Guidance for the assistant, not written by the user]"

// Service encapsulates the LLM call: prompt assembly plus the provider chat model.
type Service struct {
	chatModel model.BaseChatModel
	persona   persona.Persona
	prompts   *PromptBuilder
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the provider chat model from cfg and wires the chain.
func NewService(ctx context.Context, personas persona.Store, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, personas, cfg)
}

// NewServiceWithModel wires the chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, personas persona.Store, cfg config.AIConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.MessagesPlaceholder("guidance", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		persona:   personas.Resolve(cfg.PersonaID),
		prompts:   NewPromptBuilder(cfg.PromptStyle),
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// Provider names the configured LLM vendor.
func (s *Service) Provider() string {
	return s.cfg.Provider
}

// StreamingEnabled 指示是否开启 SSE 流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// SystemPrompt returns the rendered system prompt.
func (s *Service) SystemPrompt() string {
	return s.prompts.BuildSystemPrompt(s.persona)
}

// GenerateResponse asks the provider for a reply to userMessage given the prior turns and topic guidance.
func (s *Service) GenerateResponse(ctx context.Context, userID string, history []chat.Turn, guidance []string, userMessage string) (*schema.Message, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(history, guidance, userMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] generated response for user=%s, provider=%s, length=%d", userID, s.cfg.Provider, len(response.Content))
	return response, nil
}

// StreamResponse streams reply chunks via the configured chain.
func (s *Service) StreamResponse(ctx context.Context, userID string, history []chat.Turn, guidance []string, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(history, guidance, userMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}

	log.Printf("[ai] streaming response for user=%s, provider=%s", userID, s.cfg.Provider)
	return stream, nil
}

func (s *Service) buildChainInput(history []chat.Turn, guidance []string, userMessage string) map[string]any {
	return map[string]any{
		"system":   s.SystemPrompt(),
		"history":  buildHistoryMessages(history),
		"guidance": buildGuidanceMessages(guidance),
		"query":    userMessage,
	}
}

func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return history
}

// buildGuidanceMessages folds all matched guidance into one synthetic user turn.
func buildGuidanceMessages(guidance []string) []*schema.Message {
	if len(guidance) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(guidancePrefix)
	for _, g := range guidance {
		b.WriteString("\n- ")
		b.WriteString(g)
	}
	return []*schema.Message{schema.UserMessage(b.String())}
}
