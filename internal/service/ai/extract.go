package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sameearif/JourneyLens/internal/model/chat"
	"github.com/sameearif/JourneyLens/internal/model/vision"
)

// VisionSummary is the structured extraction of a calibration conversation.
type VisionSummary struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	CharacterDescription string `json:"characterDescription"`
}

// SummarizeVision distills the conversation into a vision summary. A model
// failure or undecodable output is fatal for the calibration pipeline, so
// both surface as errors. Models occasionally emit snake_case keys; both
// spellings are accepted.
func SummarizeVision(ctx context.Context, gen TextGenerator, history []chat.Message) (*VisionSummary, error) {
	raw, err := gen.Generate(ctx, systemPrompt, history, summaryPrompt)
	if err != nil {
		return nil, fmt.Errorf("summarize vision: %w", err)
	}

	var payload struct {
		Title                     string `json:"title"`
		Description               string `json:"description"`
		CharacterDescription      string `json:"characterDescription"`
		CharacterDescriptionSnake string `json:"character_description"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("summarize vision: %w", err)
	}

	summary := VisionSummary{
		Title:                payload.Title,
		Description:          payload.Description,
		CharacterDescription: payload.CharacterDescription,
	}
	if summary.CharacterDescription == "" {
		summary.CharacterDescription = payload.CharacterDescriptionSnake
	}
	return &summary, nil
}

// LongTermTodos extracts milestone-scale to-dos from the conversation.
func LongTermTodos(ctx context.Context, gen TextGenerator, history []chat.Message) ([]vision.TodoItem, error) {
	raw, err := gen.Generate(ctx, systemPrompt, history, longTermTodosPrompt)
	if err != nil {
		return nil, fmt.Errorf("long-term todos: %w", err)
	}

	var payload struct {
		LongTermTodos json.RawMessage `json:"longTermTodos"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("long-term todos: %w", err)
	}
	return decodeTodoList(payload.LongTermTodos), nil
}

// ShortTermTodos extracts next-days-and-weeks to-dos from the conversation.
func ShortTermTodos(ctx context.Context, gen TextGenerator, history []chat.Message) ([]vision.TodoItem, error) {
	raw, err := gen.Generate(ctx, systemPrompt, history, shortTermTodosPrompt)
	if err != nil {
		return nil, fmt.Errorf("short-term todos: %w", err)
	}

	var payload struct {
		ShortTermTodos json.RawMessage `json:"shortTermTodos"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("short-term todos: %w", err)
	}
	return decodeTodoList(payload.ShortTermTodos), nil
}
