package repository

import (
	"context"
	"fmt"
	"time"

	"nextgenschool/internal/database"
	"nextgenschool/internal/models"
)

// CompletionRepository stores chapter completions, one per
// (learner, course, chapter)
type CompletionRepository struct {
	db *database.DB
}

// NewCompletionRepository creates a new completion repository
func NewCompletionRepository(db *database.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// UpsertCompletion records a completion unless one exists already, and
// returns the stored record. The first completion time always wins.
func (r *CompletionRepository) UpsertCompletion(ctx context.Context, learnerID, courseID string, chapterIndex int) (*models.CompletionRecord, error) {
	insert := r.db.Dialect.InsertIgnore(
		"INSERT INTO completions (learner_id, course_id, chapter_index, completed_at) VALUES (?, ?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, insert, learnerID, courseID, chapterIndex, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to upsert completion: %w", err)
	}

	rec := &models.CompletionRecord{LearnerID: learnerID, CourseID: courseID, ChapterIndex: chapterIndex}
	query := `
		SELECT completed_at FROM completions
		WHERE learner_id = ? AND course_id = ? AND chapter_index = ?
	`
	if err := r.db.QueryRowContext(ctx, query, learnerID, courseID, chapterIndex).Scan(&rec.CompletedAt); err != nil {
		return nil, fmt.Errorf("failed to read completion: %w", err)
	}
	return rec, nil
}

// GetLearnerCompletions returns a learner's completions in completion order
func (r *CompletionRepository) GetLearnerCompletions(ctx context.Context, learnerID string) ([]models.CompletionRecord, error) {
	query := `
		SELECT learner_id, course_id, chapter_index, completed_at
		FROM completions
		WHERE learner_id = ?
		ORDER BY completed_at ASC, course_id ASC, chapter_index ASC
	`
	rows, err := r.db.QueryContext(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var recs []models.CompletionRecord
	for rows.Next() {
		var rec models.CompletionRecord
		if err := rows.Scan(&rec.LearnerID, &rec.CourseID, &rec.ChapterIndex, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
