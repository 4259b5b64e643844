package ai

import (
	"context"
	"fmt"
	"strings"
)

// FirstChapter writes the opening chapter of a vision's story. The user's
// full name is passed so the narrative can address its protagonist. An empty
// completion is an error: a story cannot start from nothing.
func FirstChapter(ctx context.Context, gen TextGenerator, fullName, title, description string) (string, error) {
	query := fmt.Sprintf("The protagonist is %s.\nVision title: %s\nVision description: %s", fullName, title, description)
	text, err := gen.Generate(ctx, storySystemPrompt, nil, query)
	if err != nil {
		return "", fmt.Errorf("first chapter: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("first chapter: model returned empty text")
	}
	return text, nil
}

// NextChapter continues the story from the running summary, the previous
// chapter and the newest journal entry.
func NextChapter(ctx context.Context, gen TextGenerator, title, description, runningSummary, lastChapter, latestJournal string) (string, error) {
	query := fmt.Sprintf("visionTitle: %s\nvisionDescription: %s\nstoryRunningSummary: %s\nlastChapter: %s\nlatestJournal: %s",
		title, description, runningSummary, lastChapter, latestJournal)
	text, err := gen.Generate(ctx, nextChapterPrompt, nil, query)
	if err != nil {
		return "", fmt.Errorf("next chapter: %w", err)
	}
	return text, nil
}

// ChapterImagePrompt asks the model for a short illustration prompt covering
// the given chapter. The character description keeps the protagonist
// recognizable across chapters.
func ChapterImagePrompt(ctx context.Context, gen TextGenerator, visionDescription, characterDescription, chapterText string) (string, error) {
	query := fmt.Sprintf("Vision description: %s\nCharacter description: %s\nChapter text: %s", visionDescription, characterDescription, chapterText)
	text, err := gen.Generate(ctx, storyImagePrompt, nil, query)
	if err != nil {
		return "", fmt.Errorf("chapter image prompt: %w", err)
	}
	return text, nil
}

// FallbackImagePrompt builds a deterministic illustration prompt from the
// chapter text when the model cannot supply one.
func FallbackImagePrompt(chapterText, characterDescription string) string {
	excerpt := chapterText
	if len(excerpt) > 400 {
		excerpt = excerpt[:400]
	}
	return fmt.Sprintf("Illustrate this chapter: %s Keep the character consistent: %s", excerpt, characterDescription)
}

// UpdateJournalSummary folds the newest journal entry into the running
// summary.
func UpdateJournalSummary(ctx context.Context, gen TextGenerator, previousSummary, newEntry string) (string, error) {
	query := fmt.Sprintf("previousSummary: %s\nnewEntry: %s", previousSummary, newEntry)
	text, err := gen.Generate(ctx, journalSummaryPrompt, nil, query)
	if err != nil {
		return "", fmt.Errorf("journal summary: %w", err)
	}
	return text, nil
}
