package chat

// Senders of calibration messages.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Message is one turn of a calibration conversation. IDs are monotonic per
// session and only reused when the user rewinds via an edit.
type Message struct {
	ID     int    `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}
