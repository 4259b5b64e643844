package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sameearif/JourneyLens/internal/model/vision"
)

// VisionRepository persists vision aggregates. The list-valued columns
// (chat history, to-do lists) are stored as JSONB.
type VisionRepository struct {
	pool *pgxpool.Pool
}

// NewVisionRepository creates a VisionRepository backed by the given pool.
func NewVisionRepository(pool *pgxpool.Pool) *VisionRepository {
	return &VisionRepository{pool: pool}
}

// Create inserts a vision for the given user. A dangling user reference
// yields ErrUserMissing so callers can invalidate the stale session.
func (r *VisionRepository) Create(ctx context.Context, userID string, d *vision.Draft) (*vision.Vision, error) {
	chatJSON, err := json.Marshal(emptyTurns(d.ChatHistory))
	if err != nil {
		return nil, fmt.Errorf("encode chat history: %w", err)
	}
	longJSON, err := json.Marshal(emptyTodos(d.LongTermTodos))
	if err != nil {
		return nil, fmt.Errorf("encode long-term todos: %w", err)
	}
	shortJSON, err := json.Marshal(emptyTodos(d.ShortTermTodos))
	if err != nil {
		return nil, fmt.Errorf("encode short-term todos: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO visions (user_id, title, description, character_description, image_url,
		                      story_running_summary, journal_running_summary,
		                      chat_history, long_term_todos, short_term_todos)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING vision_id, user_id, title, description, character_description, image_url,
		           story_running_summary, journal_running_summary,
		           chat_history, long_term_todos, short_term_todos, created_at`,
		userID, d.Title, d.Description, d.CharacterDescription, d.ImageURL,
		d.StoryRunningSummary, d.JournalRunningSummary,
		chatJSON, longJSON, shortJSON)

	v, err := scanVision(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrUserMissing
		}
		return nil, fmt.Errorf("insert vision: %w", err)
	}
	return v, nil
}

// Get fetches one vision owned by the given user.
func (r *VisionRepository) Get(ctx context.Context, id, userID string) (*vision.Vision, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT vision_id, user_id, title, description, character_description, image_url,
		        story_running_summary, journal_running_summary,
		        chat_history, long_term_todos, short_term_todos, created_at
		 FROM visions WHERE vision_id = $1 AND user_id = $2`,
		id, userID)

	v, err := scanVision(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVisionNotFound
		}
		return nil, fmt.Errorf("select vision: %w", err)
	}
	return v, nil
}

// List returns all visions of a user, newest first.
func (r *VisionRepository) List(ctx context.Context, userID string) ([]*vision.Vision, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT vision_id, user_id, title, description, character_description, image_url,
		        story_running_summary, journal_running_summary,
		        chat_history, long_term_todos, short_term_todos, created_at
		 FROM visions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list visions: %w", err)
	}
	defer rows.Close()

	visions := []*vision.Vision{}
	for rows.Next() {
		v, err := scanVision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vision: %w", err)
		}
		visions = append(visions, v)
	}
	return visions, rows.Err()
}

// Update overwrites the editable fields of a vision.
func (r *VisionRepository) Update(ctx context.Context, id, userID string, u *vision.Update) (*vision.Vision, error) {
	chatJSON, err := json.Marshal(emptyTurns(u.ChatHistory))
	if err != nil {
		return nil, fmt.Errorf("encode chat history: %w", err)
	}
	longJSON, err := json.Marshal(emptyTodos(u.LongTermTodos))
	if err != nil {
		return nil, fmt.Errorf("encode long-term todos: %w", err)
	}
	shortJSON, err := json.Marshal(emptyTodos(u.ShortTermTodos))
	if err != nil {
		return nil, fmt.Errorf("encode short-term todos: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE visions
		 SET title = $3, description = $4, character_description = $5, image_url = $6,
		     story_running_summary = $7, journal_running_summary = $8,
		     chat_history = $9, long_term_todos = $10, short_term_todos = $11
		 WHERE vision_id = $1 AND user_id = $2
		 RETURNING vision_id, user_id, title, description, character_description, image_url,
		           story_running_summary, journal_running_summary,
		           chat_history, long_term_todos, short_term_todos, created_at`,
		id, userID,
		u.Title, u.Description, u.CharacterDescription, u.ImageURL,
		u.StoryRunningSummary, u.JournalRunningSummary,
		chatJSON, longJSON, shortJSON)

	v, err := scanVision(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVisionNotFound
		}
		return nil, fmt.Errorf("update vision: %w", err)
	}
	return v, nil
}

// UpdateSummaries rewrites only the running summaries after a chapter run.
func (r *VisionRepository) UpdateSummaries(ctx context.Context, id, userID, journalSummary, storySummary string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE visions
		 SET journal_running_summary = $3, story_running_summary = $4
		 WHERE vision_id = $1 AND user_id = $2`,
		id, userID, journalSummary, storySummary)
	if err != nil {
		return fmt.Errorf("update vision summaries: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVisionNotFound
	}
	return nil
}

// Delete removes a vision and, via cascade, its journals and stories.
func (r *VisionRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM visions WHERE vision_id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete vision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVisionNotFound
	}
	return nil
}

func scanVision(row pgx.Row) (*vision.Vision, error) {
	var (
		v         vision.Vision
		chatJSON  []byte
		longJSON  []byte
		shortJSON []byte
	)
	if err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.Description, &v.CharacterDescription,
		&v.ImageURL, &v.StoryRunningSummary, &v.JournalRunningSummary,
		&chatJSON, &longJSON, &shortJSON, &v.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(chatJSON, &v.ChatHistory); err != nil {
		v.ChatHistory = []vision.ChatTurn{}
	}
	if err := json.Unmarshal(longJSON, &v.LongTermTodos); err != nil {
		v.LongTermTodos = []vision.TodoItem{}
	}
	if err := json.Unmarshal(shortJSON, &v.ShortTermTodos); err != nil {
		v.ShortTermTodos = []vision.TodoItem{}
	}
	return &v, nil
}

func emptyTurns(turns []vision.ChatTurn) []vision.ChatTurn {
	if turns == nil {
		return []vision.ChatTurn{}
	}
	return turns
}

func emptyTodos(todos []vision.TodoItem) []vision.TodoItem {
	if todos == nil {
		return []vision.TodoItem{}
	}
	return todos
}
