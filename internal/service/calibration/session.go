package calibration

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sameearif/JourneyLens/internal/model/chat"
	"github.com/sameearif/JourneyLens/internal/service/ai"
)

var ErrSessionNotFound = errors.New("session not found")

// Stage identifies one step of the vision pipeline.
type Stage string

const (
	StageExtraction   Stage = "extraction"
	StageTodos        Stage = "todos"
	StageImage        Stage = "image"
	StageStory        Stage = "story"
	StageChapterImage Stage = "chapter_image"
	StagePersist      Stage = "persist"
)

// Status is the outcome of a pipeline stage.
type Status string

const (
	StatusStarted  Status = "started"
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFatal    Status = "fatal"
)

// ProgressEvent is broadcast to stream subscribers as the pipeline advances.
type ProgressEvent struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// session is the per-conversation state. All mutation happens under the
// store mutex; snapshots are handed out as copies.
type session struct {
	id        string
	userID    string
	fullName  string
	createdAt time.Time

	messages []chat.Message
	nextID   int

	// pipelineFired latches once the threshold triggers the pipeline. It is
	// cleared only when a fatal stage asks the user to retry.
	pipelineFired bool
	visionID      string
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID        string         `json:"session_id"`
	UserID    string         `json:"-"`
	FullName  string         `json:"-"`
	Messages  []chat.Message `json:"messages"`
	VisionID  string         `json:"vision_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store keeps calibration sessions in memory, one per running conversation.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	subscribers map[string][]chan ProgressEvent
}

// NewStore bootstraps the in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions:    make(map[string]*session),
		subscribers: make(map[string][]chan ProgressEvent),
	}
}

// Create provisions a session for the given user and seeds the opening
// assistant message.
func (st *Store) Create(userID, fullName string) Snapshot {
	sess := &session{
		id:        uuid.NewString(),
		userID:    userID,
		fullName:  fullName,
		createdAt: time.Now().UTC(),
		messages:  make([]chat.Message, 0, 24),
		nextID:    1,
	}
	sess.append(chat.SenderAI, ai.IntroMessage)

	st.mu.Lock()
	st.sessions[sess.id] = sess
	st.mu.Unlock()

	return sess.snapshot()
}

// Get returns a snapshot of a session owned by the given user.
func (st *Store) Get(sessionID, userID string) (Snapshot, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sess, ok := st.sessions[sessionID]
	if !ok || sess.userID != userID {
		return Snapshot{}, ErrSessionNotFound
	}
	return sess.snapshot(), nil
}

// Delete removes a session, closing any progress subscribers. The close
// happens under the write lock so it serializes against in-flight sends.
func (st *Store) Delete(sessionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, sessionID)
	for _, ch := range st.subscribers[sessionID] {
		close(ch)
	}
	delete(st.subscribers, sessionID)
}

// Subscribe registers a progress listener for a session. The returned cancel
// function must be called when the listener goes away.
func (st *Store) Subscribe(sessionID string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 16)

	st.mu.Lock()
	st.subscribers[sessionID] = append(st.subscribers[sessionID], ch)
	st.mu.Unlock()

	cancel := func() {
		st.mu.Lock()
		subs := st.subscribers[sessionID]
		for i, sub := range subs {
			if sub == ch {
				st.subscribers[sessionID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		st.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans a progress event out to every subscriber. Slow listeners drop
// events instead of blocking the pipeline. The read lock is held across the
// sends: channels are only closed under the write lock, so a send can never
// hit a closed channel.
func (st *Store) Publish(sessionID string, event ProgressEvent) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	for _, ch := range st.subscribers[sessionID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// appendMessage adds one message to a session and returns it.
func (st *Store) appendMessage(sessionID, userID, sender, text string) (chat.Message, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[sessionID]
	if !ok || sess.userID != userID {
		return chat.Message{}, ErrSessionNotFound
	}
	return sess.append(sender, text), nil
}

// truncateThrough rewinds the transcript so the edited user message becomes
// the newest entry, carrying its replacement text. Message IDs after the cut
// are reused by later turns.
func (st *Store) truncateThrough(sessionID, userID string, messageID int, newText string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[sessionID]
	if !ok || sess.userID != userID {
		return ErrSessionNotFound
	}

	for i, msg := range sess.messages {
		if msg.ID == messageID && msg.Sender == chat.SenderUser {
			sess.messages = sess.messages[:i+1]
			sess.messages[i].Text = newText
			sess.nextID = messageID + 1
			return nil
		}
	}
	return errors.New("message not found")
}

// tryFirePipeline latches the pipeline trigger when the user-message count
// has reached the threshold. It reports whether this call won the latch.
func (st *Store) tryFirePipeline(sessionID, userID string, threshold int) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[sessionID]
	if !ok || sess.userID != userID {
		return false, ErrSessionNotFound
	}
	if sess.pipelineFired || sess.userMessageCount() < threshold {
		return false, nil
	}
	sess.pipelineFired = true
	return true, nil
}

// resetPipeline clears the latch after a fatal stage so the user can retry.
func (st *Store) resetPipeline(sessionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.sessions[sessionID]; ok {
		sess.pipelineFired = false
	}
}

// setVision records the persisted vision on the session.
func (st *Store) setVision(sessionID, visionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.sessions[sessionID]; ok {
		sess.visionID = visionID
	}
}

func (s *session) append(sender, text string) chat.Message {
	msg := chat.Message{ID: s.nextID, Sender: sender, Text: text}
	s.nextID++
	s.messages = append(s.messages, msg)
	return msg
}

func (s *session) userMessageCount() int {
	count := 0
	for _, msg := range s.messages {
		if msg.Sender == chat.SenderUser {
			count++
		}
	}
	return count
}

func (s *session) snapshot() Snapshot {
	messages := make([]chat.Message, len(s.messages))
	copy(messages, s.messages)
	return Snapshot{
		ID:        s.id,
		UserID:    s.userID,
		FullName:  s.fullName,
		Messages:  messages,
		VisionID:  s.visionID,
		CreatedAt: s.createdAt,
	}
}
