package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sameearif/JourneyLens/internal/model/story"
)

// StoryRepository persists narrative chapters and their illustrations.
type StoryRepository struct {
	pool *pgxpool.Pool
}

// NewStoryRepository creates a StoryRepository backed by the given pool.
func NewStoryRepository(pool *pgxpool.Pool) *StoryRepository {
	return &StoryRepository{pool: pool}
}

// Create inserts a new chapter row.
func (r *StoryRepository) Create(ctx context.Context, visionID string, ch story.Chapter, images []story.ChapterImage, descriptions []story.ImageDescription) (*story.Story, error) {
	if images == nil {
		images = []story.ChapterImage{}
	}
	if descriptions == nil {
		descriptions = []story.ImageDescription{}
	}

	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encode story images: %w", err)
	}
	descJSON, err := json.Marshal(descriptions)
	if err != nil {
		return nil, fmt.Errorf("encode image descriptions: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO stories (vision_id, story_text, story_images, chapter_image_description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING story_id, vision_id, story_text, story_images, chapter_image_description, created_at`,
		visionID, story.EncodeChapter(ch), imagesJSON, descJSON)

	s, err := scanStory(row)
	if err != nil {
		return nil, fmt.Errorf("insert story: %w", err)
	}
	return s, nil
}

// List returns a vision's chapters in reading order.
func (r *StoryRepository) List(ctx context.Context, visionID string) ([]*story.Story, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT story_id, vision_id, story_text, story_images, chapter_image_description, created_at
		 FROM stories WHERE vision_id = $1 ORDER BY created_at ASC`,
		visionID)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	stories := []*story.Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

// Get fetches one chapter row belonging to a vision.
func (r *StoryRepository) Get(ctx context.Context, storyID, visionID string) (*story.Story, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT story_id, vision_id, story_text, story_images, chapter_image_description, created_at
		 FROM stories WHERE story_id = $1 AND vision_id = $2`,
		storyID, visionID)

	s, err := scanStory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("select story: %w", err)
	}
	return s, nil
}

// Latest returns the most recently created chapter, or ErrStoryNotFound when
// the vision has none yet.
func (r *StoryRepository) Latest(ctx context.Context, visionID string) (*story.Story, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT story_id, vision_id, story_text, story_images, chapter_image_description, created_at
		 FROM stories WHERE vision_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		visionID)

	s, err := scanStory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("select latest story: %w", err)
	}
	return s, nil
}

// UpdateImage replaces the first illustration of a chapter while keeping the
// chapter number and any field the caller left empty.
func (r *StoryRepository) UpdateImage(ctx context.Context, storyID, visionID, prompt, image string) (*story.Story, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT story_id, vision_id, story_text, story_images, chapter_image_description, created_at
		 FROM stories WHERE story_id = $1 AND vision_id = $2`,
		storyID, visionID)

	s, err := scanStory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("select story: %w", err)
	}

	chapter := s.DecodeChapter().Chapter

	img := story.ChapterImage{Chapter: chapter, Prompt: prompt, Image: image}
	if len(s.Images) > 0 {
		img.Chapter = s.Images[0].Chapter
		if prompt == "" {
			img.Prompt = s.Images[0].Prompt
		}
		if image == "" {
			img.Image = s.Images[0].Image
		}
		s.Images[0] = img
	} else {
		s.Images = []story.ChapterImage{img}
	}

	desc := story.ImageDescription{Chapter: img.Chapter, Prompt: img.Prompt}
	if len(s.ImageDescriptions) > 0 {
		s.ImageDescriptions[0] = desc
	} else {
		s.ImageDescriptions = []story.ImageDescription{desc}
	}

	imagesJSON, err := json.Marshal(s.Images)
	if err != nil {
		return nil, fmt.Errorf("encode story images: %w", err)
	}
	descJSON, err := json.Marshal(s.ImageDescriptions)
	if err != nil {
		return nil, fmt.Errorf("encode image descriptions: %w", err)
	}

	updated := r.pool.QueryRow(ctx,
		`UPDATE stories
		 SET story_images = $3, chapter_image_description = $4
		 WHERE story_id = $1 AND vision_id = $2
		 RETURNING story_id, vision_id, story_text, story_images, chapter_image_description, created_at`,
		storyID, visionID, imagesJSON, descJSON)

	out, err := scanStory(updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("update story images: %w", err)
	}
	return out, nil
}

func scanStory(row pgx.Row) (*story.Story, error) {
	var (
		s          story.Story
		textJSON   []byte
		imagesJSON []byte
		descJSON   []byte
	)
	if err := row.Scan(&s.ID, &s.VisionID, &textJSON, &imagesJSON, &descJSON, &s.CreatedAt); err != nil {
		return nil, err
	}

	s.Text = json.RawMessage(textJSON)
	if err := json.Unmarshal(imagesJSON, &s.Images); err != nil {
		s.Images = []story.ChapterImage{}
	}
	if err := json.Unmarshal(descJSON, &s.ImageDescriptions); err != nil {
		s.ImageDescriptions = []story.ImageDescription{}
	}
	return &s, nil
}
