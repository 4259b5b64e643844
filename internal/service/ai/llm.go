package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/sameearif/JourneyLens/internal/config"
	"github.com/sameearif/JourneyLens/internal/model/chat"
)

// TextGenerator produces one completion for a system prompt, prior
// conversation and latest query. Implemented by Service; tests substitute
// their own.
type TextGenerator interface {
	Generate(ctx context.Context, system string, history []chat.Message, query string) (string, error)
}

// Service wraps the compiled chat chain used by every text-generation stage.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the AI service and compiles its chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// Generate runs one completion and returns the trimmed assistant text.
func (s *Service) Generate(ctx context.Context, system string, history []chat.Message, query string) (string, error) {
	input := map[string]any{
		"system":  system,
		"history": buildHistoryMessages(history),
		"query":   query,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Debug().Int("length", len(response.Content)).Msg("generated completion")
	return strings.TrimSpace(response.Content), nil
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.SenderAI:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}

	return history
}
