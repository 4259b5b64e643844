package chapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sameearif/JourneyLens/internal/model/journal"
	"github.com/sameearif/JourneyLens/internal/model/story"
	"github.com/sameearif/JourneyLens/internal/model/vision"
	"github.com/sameearif/JourneyLens/internal/repository"
	"github.com/sameearif/JourneyLens/internal/service/ai"
	"github.com/sameearif/JourneyLens/internal/service/image"
)

// VisionStore is the slice of persistence the chapter flow reads and writes.
type VisionStore interface {
	Get(ctx context.Context, id, userID string) (*vision.Vision, error)
	UpdateSummaries(ctx context.Context, id, userID, journalSummary, storySummary string) error
}

// JournalStore persists diary entries.
type JournalStore interface {
	Create(ctx context.Context, visionID, text string, entryDate time.Time) (*journal.Journal, error)
}

// StoryStore reads the latest chapter and appends new ones.
type StoryStore interface {
	Latest(ctx context.Context, visionID string) (*story.Story, error)
	Create(ctx context.Context, visionID string, ch story.Chapter, images []story.ChapterImage, descriptions []story.ImageDescription) (*story.Story, error)
}

// Service advances a vision's story whenever the user journals. The journal
// entry itself always persists; the narrative artifacts degrade
// independently.
type Service struct {
	gen      ai.TextGenerator
	images   image.Generator
	visions  VisionStore
	journals JournalStore
	stories  StoryStore
}

// NewService wires the chapter service.
func NewService(gen ai.TextGenerator, images image.Generator, visions VisionStore, journals JournalStore, stories StoryStore) *Service {
	return &Service{
		gen:      gen,
		images:   images,
		visions:  visions,
		journals: journals,
		stories:  stories,
	}
}

// Result is the outcome of one journal submission.
type Result struct {
	Journal        *journal.Journal `json:"journal"`
	Story          *story.Story     `json:"story,omitempty"`
	JournalSummary string           `json:"journal_running_summary"`
	StorySummary   string           `json:"story_running_summary"`
}

// AddEntry records a journal entry against a vision and generates the next
// story chapter from it. Only a missing vision or a failed journal insert
// abort the flow.
func (s *Service) AddEntry(ctx context.Context, userID, visionID, text string, entryDate time.Time) (*Result, error) {
	v, err := s.visions.Get(ctx, visionID, userID)
	if err != nil {
		return nil, err
	}

	lastChapter := story.Chapter{}
	if last, err := s.stories.Latest(ctx, visionID); err == nil {
		lastChapter = last.DecodeChapter()
	} else if !errors.Is(err, repository.ErrStoryNotFound) {
		log.Warn().Err(err).Str("vision", visionID).Msg("could not load latest chapter")
	}

	journalSummary, err := ai.UpdateJournalSummary(ctx, s.gen, v.JournalRunningSummary, text)
	if err != nil {
		log.Warn().Err(err).Str("vision", visionID).Msg("journal summary degraded")
		journalSummary = v.JournalRunningSummary
	}

	chapterText, err := ai.NextChapter(ctx, s.gen, v.Title, v.Description, v.StoryRunningSummary, lastChapter.Text, text)
	if err != nil {
		log.Warn().Err(err).Str("vision", visionID).Msg("next chapter degraded")
		chapterText = ""
	}

	chapterPrompt := ""
	chapterImage := ""
	if chapterText != "" {
		chapterPrompt, err = ai.ChapterImagePrompt(ctx, s.gen, v.Description, v.CharacterDescription, chapterText)
		if err != nil || chapterPrompt == "" {
			chapterPrompt = ai.FallbackImagePrompt(chapterText, v.CharacterDescription)
		}

		combined := fmt.Sprintf("%s Keep the established character style: %s", chapterPrompt, v.CharacterDescription)
		chapterImage, err = s.images.Generate(ctx, combined, v.ImageURL)
		if err != nil {
			log.Warn().Err(err).Str("vision", visionID).Msg("chapter image degraded")
			chapterImage = ""
		}
	}

	j, err := s.journals.Create(ctx, visionID, text, entryDate)
	if err != nil {
		return nil, fmt.Errorf("save journal: %w", err)
	}

	storySummary := v.StoryRunningSummary
	if chapterText != "" {
		if storySummary != "" {
			storySummary += "\n\n"
		}
		storySummary += chapterText
	}

	// The journal is saved; summary and chapter writes are best-effort from
	// here and are not rolled back.
	if err := s.visions.UpdateSummaries(ctx, visionID, userID, journalSummary, storySummary); err != nil {
		log.Error().Err(err).Str("vision", visionID).Msg("failed to update running summaries")
	}

	result := &Result{Journal: j, JournalSummary: journalSummary, StorySummary: storySummary}

	if chapterText != "" {
		ch := story.Chapter{Chapter: lastChapter.Chapter + 1, Text: chapterText}
		var images []story.ChapterImage
		var descriptions []story.ImageDescription
		if chapterPrompt != "" {
			// The prompt is kept even when generation failed, so the image
			// can be regenerated later.
			images = []story.ChapterImage{{Chapter: ch.Chapter, Prompt: chapterPrompt, Image: chapterImage}}
			descriptions = []story.ImageDescription{{Chapter: ch.Chapter, Prompt: chapterPrompt}}
		}
		created, err := s.stories.Create(ctx, visionID, ch, images, descriptions)
		if err != nil {
			log.Error().Err(err).Str("vision", visionID).Msg("failed to save chapter")
		} else {
			result.Story = created
		}
	}

	return result, nil
}
