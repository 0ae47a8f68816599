package repository

import (
	"context"
	"fmt"

	"nextgenschool/internal/database"
	"nextgenschool/internal/models"
)

// PointsRepository stores bonus point awards
type PointsRepository struct {
	db *database.DB
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(db *database.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// RecordAward stores an award. Replaying an award id is a no-op.
func (r *PointsRepository) RecordAward(ctx context.Context, award models.PointAward) error {
	insert := r.db.Dialect.InsertIgnore(
		"INSERT INTO point_awards (id, learner_id, amount, reason, awarded_at) VALUES (?, ?, ?, ?, ?)")
	_, err := r.db.ExecContext(ctx, insert, award.ID, award.LearnerID, award.Amount, award.Reason, award.AwardedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record point award: %w", err)
	}
	return nil
}

// GetLearnerAwards returns a learner's awards oldest first
func (r *PointsRepository) GetLearnerAwards(ctx context.Context, learnerID string) ([]models.PointAward, error) {
	query := `
		SELECT id, learner_id, amount, reason, awarded_at
		FROM point_awards
		WHERE learner_id = ?
		ORDER BY awarded_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query point awards: %w", err)
	}
	defer rows.Close()

	var awards []models.PointAward
	for rows.Next() {
		var a models.PointAward
		if err := rows.Scan(&a.ID, &a.LearnerID, &a.Amount, &a.Reason, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan point award: %w", err)
		}
		awards = append(awards, a)
	}
	return awards, rows.Err()
}
