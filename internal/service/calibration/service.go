package calibration

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sameearif/JourneyLens/internal/model/chat"
	"github.com/sameearif/JourneyLens/internal/model/story"
	"github.com/sameearif/JourneyLens/internal/model/vision"
	"github.com/sameearif/JourneyLens/internal/service/ai"
	"github.com/sameearif/JourneyLens/internal/service/image"
)

// SummaryThreshold is the number of user answers that completes the intake
// conversation and fires the vision pipeline.
const SummaryThreshold = 10

// User-facing notices appended to the transcript when a stage fails.
const (
	noticeVisionFailed = "I had trouble generating your vision. Please try again."
	noticeSaveFailed   = "Could not save vision. Please try again."
	noticeSessionLost  = "Session lost. Please log in again."
)

// VisionStore is the slice of persistence the pipeline needs for visions.
type VisionStore interface {
	Create(ctx context.Context, userID string, d *vision.Draft) (*vision.Vision, error)
}

// StoryStore is the slice of persistence the pipeline needs for chapters.
type StoryStore interface {
	Create(ctx context.Context, visionID string, ch story.Chapter, images []story.ChapterImage, descriptions []story.ImageDescription) (*story.Story, error)
}

// Service runs calibration conversations and, once enough answers are
// collected, the pipeline that turns them into a persisted vision.
type Service struct {
	store     *Store
	gen       ai.TextGenerator
	images    image.Generator
	visions   VisionStore
	stories   StoryStore
	threshold int
}

// NewService wires the calibration service.
func NewService(store *Store, gen ai.TextGenerator, images image.Generator, visions VisionStore, stories StoryStore) *Service {
	return &Service{
		store:     store,
		gen:       gen,
		images:    images,
		visions:   visions,
		stories:   stories,
		threshold: SummaryThreshold,
	}
}

// Store exposes the session store for handlers that only read state.
func (s *Service) Store() *Store { return s.store }

// TurnResult is the outcome of one conversation turn, including any pipeline
// run the turn triggered.
type TurnResult struct {
	Reply          chat.Message   `json:"reply"`
	Messages       []chat.Message `json:"messages"`
	VisionID       string         `json:"vision_id,omitempty"`
	Notice         string         `json:"notice,omitempty"`
	SessionInvalid bool           `json:"session_invalid,omitempty"`
}

// StartSession opens a new calibration conversation for the user.
func (s *Service) StartSession(userID, fullName string) Snapshot {
	return s.store.Create(userID, fullName)
}

// HandleTurn records a user answer, asks the intake persona for its next
// question and runs the vision pipeline when the answer threshold is hit. The
// threshold turn goes straight to the pipeline without a conversational
// reply, so the transcript ends on the user's final answer.
func (s *Service) HandleTurn(ctx context.Context, sessionID, userID, text string) (*TurnResult, error) {
	snap, err := s.store.Get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	history := snap.Messages

	if _, err := s.store.appendMessage(sessionID, userID, chat.SenderUser, text); err != nil {
		return nil, err
	}

	result := &TurnResult{}
	if !s.maybeRunPipeline(ctx, sessionID, userID, result) {
		reply, err := ai.NextReply(ctx, s.gen, history, text)
		if err != nil {
			return nil, err
		}
		replyMsg, err := s.store.appendMessage(sessionID, userID, chat.SenderAI, reply)
		if err != nil {
			return nil, err
		}
		result.Reply = replyMsg
	}

	final, err := s.store.Get(sessionID, userID)
	if err == nil {
		result.Messages = final.Messages
		if result.VisionID == "" {
			result.VisionID = final.VisionID
		}
	}
	return result, nil
}

// EditMessage rewinds the conversation to an earlier user answer, replaces
// its text and replays the turn from there. The rewind can re-arm the
// pipeline threshold.
func (s *Service) EditMessage(ctx context.Context, sessionID, userID string, messageID int, newText string) (*TurnResult, error) {
	if err := s.store.truncateThrough(sessionID, userID, messageID, newText); err != nil {
		return nil, err
	}

	snap, err := s.store.Get(sessionID, userID)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{}
	if !s.maybeRunPipeline(ctx, sessionID, userID, result) {
		// The edited message is the newest entry; everything before it is
		// the history the persona replies to.
		history := snap.Messages[:len(snap.Messages)-1]

		reply, err := ai.NextReply(ctx, s.gen, history, newText)
		if err != nil {
			return nil, err
		}
		replyMsg, err := s.store.appendMessage(sessionID, userID, chat.SenderAI, reply)
		if err != nil {
			return nil, err
		}
		result.Reply = replyMsg
	}

	final, err := s.store.Get(sessionID, userID)
	if err == nil {
		result.Messages = final.Messages
		if result.VisionID == "" {
			result.VisionID = final.VisionID
		}
	}
	return result, nil
}

// maybeRunPipeline fires the vision pipeline when the threshold latch trips.
// It reports whether this turn won the latch, so the caller knows the turn
// was consumed by the pipeline rather than the conversation.
func (s *Service) maybeRunPipeline(ctx context.Context, sessionID, userID string, result *TurnResult) bool {
	fired, err := s.store.tryFirePipeline(sessionID, userID, s.threshold)
	if err != nil || !fired {
		return false
	}

	snap, err := s.store.Get(sessionID, userID)
	if err != nil {
		return true
	}

	v, failure := s.runPipeline(ctx, snap)
	if failure == nil {
		s.store.setVision(sessionID, v.ID)
		result.VisionID = v.ID
		return true
	}

	log.Error().Err(failure.Err).Str("stage", string(failure.Stage)).Str("session", sessionID).Msg("vision pipeline failed")

	if failure.SessionLost {
		s.store.Delete(sessionID)
		result.Notice = noticeSessionLost
		result.SessionInvalid = true
		return true
	}

	s.store.resetPipeline(sessionID)
	notice := noticeVisionFailed
	if failure.Stage == StagePersist {
		notice = noticeSaveFailed
	}
	if msg, err := s.store.appendMessage(sessionID, userID, chat.SenderAI, notice); err == nil {
		result.Reply = msg
	}
	result.Notice = notice
	return true
}
