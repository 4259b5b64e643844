package calibration

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sameearif/JourneyLens/internal/model/chat"
	"github.com/sameearif/JourneyLens/internal/model/story"
	"github.com/sameearif/JourneyLens/internal/model/vision"
	"github.com/sameearif/JourneyLens/internal/repository"
	"github.com/sameearif/JourneyLens/internal/service/ai"
)

const (
	defaultTitle       = "Untitled Vision"
	transcriptKeepLast = 50
)

// PipelineFailure describes the stage that aborted the pipeline.
type PipelineFailure struct {
	Stage       Stage
	SessionLost bool
	Err         error
}

// runPipeline turns a finished conversation into a persisted vision. Stages
// run strictly in order; generation stages degrade to empty artifacts while
// extraction and persistence abort the run.
func (s *Service) runPipeline(ctx context.Context, snap Snapshot) (*vision.Vision, *PipelineFailure) {
	sessionID := snap.ID
	history := snap.Messages

	s.store.Publish(sessionID, ProgressEvent{Stage: StageExtraction, Status: StatusStarted})
	summary, err := ai.SummarizeVision(ctx, s.gen, history)
	if err != nil {
		s.store.Publish(sessionID, ProgressEvent{Stage: StageExtraction, Status: StatusFatal})
		return nil, &PipelineFailure{Stage: StageExtraction, Err: err}
	}
	s.store.Publish(sessionID, ProgressEvent{Stage: StageExtraction, Status: StatusOK})

	s.store.Publish(sessionID, ProgressEvent{Stage: StageTodos, Status: StatusStarted})
	todosStatus := StatusOK
	longTodos, err := ai.LongTermTodos(ctx, s.gen, history)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("long-term todos degraded")
		longTodos = []vision.TodoItem{}
		todosStatus = StatusDegraded
	}
	shortTodos, err := ai.ShortTermTodos(ctx, s.gen, history)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("short-term todos degraded")
		shortTodos = []vision.TodoItem{}
		todosStatus = StatusDegraded
	}
	s.store.Publish(sessionID, ProgressEvent{Stage: StageTodos, Status: todosStatus})

	s.store.Publish(sessionID, ProgressEvent{Stage: StageImage, Status: StatusStarted})
	mainImage := ""
	imagePrompt := firstNonEmpty(summary.CharacterDescription, summary.Description, summary.Title)
	if imagePrompt != "" {
		mainImage, err = s.images.Generate(ctx, imagePrompt, "")
		if err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("vision image degraded")
			mainImage = ""
		}
	}
	if mainImage == "" {
		s.store.Publish(sessionID, ProgressEvent{Stage: StageImage, Status: StatusDegraded})
	} else {
		s.store.Publish(sessionID, ProgressEvent{Stage: StageImage, Status: StatusOK})
	}

	s.store.Publish(sessionID, ProgressEvent{Stage: StageStory, Status: StatusStarted})
	storyText, err := ai.FirstChapter(ctx, s.gen, snap.FullName, summary.Title, summary.Description)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("first chapter degraded")
		storyText = ""
		s.store.Publish(sessionID, ProgressEvent{Stage: StageStory, Status: StatusDegraded})
	} else {
		s.store.Publish(sessionID, ProgressEvent{Stage: StageStory, Status: StatusOK})
	}

	chapterPrompt := ""
	chapterImage := ""
	if storyText != "" {
		s.store.Publish(sessionID, ProgressEvent{Stage: StageChapterImage, Status: StatusStarted})
		chapterPrompt, err = ai.ChapterImagePrompt(ctx, s.gen, summary.Description, summary.CharacterDescription, storyText)
		if err != nil || chapterPrompt == "" {
			chapterPrompt = ai.FallbackImagePrompt(storyText, summary.CharacterDescription)
		}

		combined := fmt.Sprintf("%s Character style: %s Keep the character consistent with the existing vision image.",
			chapterPrompt, summary.CharacterDescription)
		chapterImage, err = s.images.Generate(ctx, combined, mainImage)
		if err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("chapter image degraded")
			chapterImage = ""
			s.store.Publish(sessionID, ProgressEvent{Stage: StageChapterImage, Status: StatusDegraded})
		} else {
			s.store.Publish(sessionID, ProgressEvent{Stage: StageChapterImage, Status: StatusOK})
		}
	}

	s.store.Publish(sessionID, ProgressEvent{Stage: StagePersist, Status: StatusStarted})
	draft := &vision.Draft{
		Title:                firstNonEmpty(summary.Title, defaultTitle),
		Description:          summary.Description,
		CharacterDescription: summary.CharacterDescription,
		ImageURL:             mainImage,
		StoryRunningSummary:  storyText,
		ChatHistory:          compactTranscript(history),
		LongTermTodos:        longTodos,
		ShortTermTodos:       shortTodos,
	}

	v, err := s.visions.Create(ctx, snap.UserID, draft)
	if err != nil {
		s.store.Publish(sessionID, ProgressEvent{Stage: StagePersist, Status: StatusFatal})
		if errors.Is(err, repository.ErrUserMissing) {
			return nil, &PipelineFailure{Stage: StagePersist, SessionLost: true, Err: err}
		}
		return nil, &PipelineFailure{Stage: StagePersist, Err: err}
	}

	if storyText != "" {
		ch := story.Chapter{Chapter: 1, Text: storyText}
		var images []story.ChapterImage
		var descriptions []story.ImageDescription
		if chapterPrompt != "" {
			// The prompt is kept even when generation failed, so the image
			// can be regenerated later.
			images = []story.ChapterImage{{Chapter: 1, Prompt: chapterPrompt, Image: chapterImage}}
			descriptions = []story.ImageDescription{{Chapter: 1, Prompt: chapterPrompt}}
		}
		if _, err := s.stories.Create(ctx, v.ID, ch, images, descriptions); err != nil {
			// The vision is already saved; the opening chapter can be
			// regenerated later, so this is not rolled back.
			log.Error().Err(err).Str("vision", v.ID).Msg("failed to save opening chapter")
		}
	}
	s.store.Publish(sessionID, ProgressEvent{Stage: StagePersist, Status: StatusOK, Detail: v.ID})

	return v, nil
}

// compactTranscript keeps the newest entries of the conversation in the
// compact sender/text form stored on the vision.
func compactTranscript(messages []chat.Message) []vision.ChatTurn {
	start := 0
	if len(messages) > transcriptKeepLast {
		start = len(messages) - transcriptKeepLast
	}

	turns := make([]vision.ChatTurn, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		turns = append(turns, vision.ChatTurn{Sender: msg.Sender, Text: msg.Text})
	}
	return turns
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
