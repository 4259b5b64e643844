package ai

import (
	"context"
	"strings"

	"github.com/sameearif/JourneyLens/internal/model/chat"
)

// IntroMessage opens every calibration session before the model is involved.
const IntroMessage = "Hi! I'd love to help you craft your vision. What would you like this vision to be about?"

const (
	fallbackReply      = "I'm not sure how to respond to that yet."
	nextQuestionSuffix = "\n\nNext question: "
)

// NextReply asks the intake persona for its next question. The latest user
// text carries a steering suffix so the model keeps interviewing instead of
// drifting into advice. An empty completion degrades to a canned reply.
func NextReply(ctx context.Context, gen TextGenerator, history []chat.Message, userText string) (string, error) {
	reply, err := gen.Generate(ctx, systemPrompt, history, userText+nextQuestionSuffix)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return fallbackReply, nil
	}
	return reply, nil
}
