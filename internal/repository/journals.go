package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sameearif/JourneyLens/internal/model/journal"
)

// JournalRepository persists write-once diary entries.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a JournalRepository backed by the given pool.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// Create inserts a journal entry. A zero entry date falls back to the
// database's current date.
func (r *JournalRepository) Create(ctx context.Context, visionID, text string, entryDate time.Time) (*journal.Journal, error) {
	var entry interface{}
	if !entryDate.IsZero() {
		entry = entryDate
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO journals (vision_id, journal_text, entry_date)
		 VALUES ($1, $2, COALESCE($3::date, CURRENT_DATE))
		 RETURNING journal_id, vision_id, entry_date, journal_text, created_at`,
		visionID, text, entry)

	j, err := scanJournal(row)
	if err != nil {
		return nil, fmt.Errorf("insert journal: %w", err)
	}
	return j, nil
}

// List returns a vision's journal entries, newest entry date first with the
// most recent insert breaking ties.
func (r *JournalRepository) List(ctx context.Context, visionID string) ([]*journal.Journal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT journal_id, vision_id, entry_date, journal_text, created_at
		 FROM journals WHERE vision_id = $1
		 ORDER BY entry_date DESC, created_at DESC`,
		visionID)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	defer rows.Close()

	journals := []*journal.Journal{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		journals = append(journals, j)
	}
	return journals, rows.Err()
}

func scanJournal(row pgx.Row) (*journal.Journal, error) {
	var j journal.Journal
	if err := row.Scan(&j.ID, &j.VisionID, &j.EntryDate, &j.Text, &j.CreatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}
