package vision

import "time"

// TodoItem is one entry of a long-term or short-term to-do list.
type TodoItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// ChatTurn is one compacted calibration transcript entry attached to a vision.
type ChatTurn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Vision is the central aggregate: a declared personal goal plus the
// generated narrative, to-do and image artifacts attached to it.
type Vision struct {
	ID                    string     `json:"vision_id"`
	UserID                string     `json:"user_id,omitempty"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	CharacterDescription  string     `json:"character_description"`
	ImageURL              string     `json:"image_url"`
	StoryRunningSummary   string     `json:"story_running_summary"`
	JournalRunningSummary string     `json:"journal_running_summary"`
	ChatHistory           []ChatTurn `json:"chat_history"`
	LongTermTodos         []TodoItem `json:"long_term_todos"`
	ShortTermTodos        []TodoItem `json:"short_term_todos"`
	CreatedAt             time.Time  `json:"created_at"`
}

// Draft holds the artifacts gathered by the calibration pipeline before the
// vision row exists.
type Draft struct {
	Title                 string
	Description           string
	CharacterDescription  string
	ImageURL              string
	StoryRunningSummary   string
	JournalRunningSummary string
	ChatHistory           []ChatTurn
	LongTermTodos         []TodoItem
	ShortTermTodos        []TodoItem
}

// Update carries the user-editable fields for a direct vision edit.
type Update struct {
	Title                 string
	Description           string
	CharacterDescription  string
	ImageURL              string
	StoryRunningSummary   string
	JournalRunningSummary string
	ChatHistory           []ChatTurn
	LongTermTodos         []TodoItem
	ShortTermTodos        []TodoItem
}
