package journal

import "time"

// Journal is a write-once diary entry tied to a vision.
type Journal struct {
	ID        string    `json:"journal_id"`
	VisionID  string    `json:"vision_id"`
	EntryDate time.Time `json:"entry_date"`
	Text      string    `json:"journal_text"`
	CreatedAt time.Time `json:"created_at"`
}
