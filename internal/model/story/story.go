package story

import (
	"encoding/json"
	"strings"
	"time"
)

// Chapter is the decoded form of the story_text JSON column.
type Chapter struct {
	Chapter int    `json:"chapter"`
	Text    string `json:"text"`
}

// ChapterImage carries one illustration of a chapter.
type ChapterImage struct {
	Chapter int    `json:"chapter"`
	Prompt  string `json:"prompt"`
	Image   string `json:"image"`
}

// ImageDescription records the prompt used for a chapter illustration.
type ImageDescription struct {
	Chapter int    `json:"chapter"`
	Prompt  string `json:"prompt"`
}

// Story is one installment of the motivational narrative attached to a
// vision. The chapter payload is stored as JSON and decoded defensively.
type Story struct {
	ID                string             `json:"story_id"`
	VisionID          string             `json:"vision_id"`
	Text              json.RawMessage    `json:"story_text"`
	Images            []ChapterImage     `json:"story_images"`
	ImageDescriptions []ImageDescription `json:"chapter_image_description"`
	CreatedAt         time.Time          `json:"created_at"`
}

// DecodeChapter parses the stored chapter payload. Any malformed payload
// yields chapter 0 with empty text rather than an error, so a corrupt row
// never blocks the chapter pipeline.
func (s *Story) DecodeChapter() Chapter {
	return DecodeChapter(s.Text)
}

// DecodeChapter parses a story_text payload, tolerating legacy rows that
// stored the chapter as a JSON-encoded string.
func DecodeChapter(raw json.RawMessage) Chapter {
	if len(raw) == 0 {
		return Chapter{}
	}

	var ch Chapter
	if err := json.Unmarshal(raw, &ch); err == nil {
		return ch
	}

	// Legacy rows double-encode the payload as a string.
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil && strings.TrimSpace(nested) != "" {
		if err := json.Unmarshal([]byte(nested), &ch); err == nil {
			return ch
		}
	}

	return Chapter{}
}

// EncodeChapter serializes a chapter payload for storage.
func EncodeChapter(ch Chapter) json.RawMessage {
	data, _ := json.Marshal(ch)
	return data
}
