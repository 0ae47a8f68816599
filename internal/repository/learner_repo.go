package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nextgenschool/internal/database"
	"nextgenschool/internal/models"
)

// LearnerRepository handles database operations for learner profiles
type LearnerRepository struct {
	db *database.DB
}

// NewLearnerRepository creates a new learner repository
func NewLearnerRepository(db *database.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

const learnerColumns = "id, parent_id, name, age, pin, created_at, updated_at"

// CreateLearner creates a learner profile. A PIN already held by another
// learner yields ErrDuplicatePIN.
func (r *LearnerRepository) CreateLearner(ctx context.Context, parentID, name string, age int, pin string) (*models.Learner, error) {
	now := time.Now().UTC()
	learner := &models.Learner{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		Name:      name,
		Age:       age,
		PIN:       pin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := "INSERT INTO learners (" + learnerColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		learner.ID, learner.ParentID, learner.Name, learner.Age, learner.PIN, learner.CreatedAt, learner.UpdatedAt)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, ErrDuplicatePIN
		}
		return nil, fmt.Errorf("failed to create learner: %w", err)
	}

	return learner, nil
}

// GetLearnerByID retrieves a learner by ID
func (r *LearnerRepository) GetLearnerByID(ctx context.Context, id string) (*models.Learner, error) {
	query := "SELECT " + learnerColumns + " FROM learners WHERE id = ?"
	return r.getOne(ctx, query, id)
}

// GetLearnerByPIN retrieves the learner holding a PIN
func (r *LearnerRepository) GetLearnerByPIN(ctx context.Context, pin string) (*models.Learner, error) {
	query := "SELECT " + learnerColumns + " FROM learners WHERE pin = ?"
	return r.getOne(ctx, query, pin)
}

func (r *LearnerRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Learner, error) {
	l := &models.Learner{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&l.ID,
		&l.ParentID,
		&l.Name,
		&l.Age,
		&l.PIN,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}

	return l, nil
}

// GetParentLearners retrieves all learners of a parent, oldest first
func (r *LearnerRepository) GetParentLearners(ctx context.Context, parentID string) ([]models.Learner, error) {
	query := `
		SELECT ` + learnerColumns + `
		FROM learners
		WHERE parent_id = ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query learners: %w", err)
	}
	defer rows.Close()

	var learners []models.Learner
	for rows.Next() {
		var l models.Learner
		if err := rows.Scan(
			&l.ID,
			&l.ParentID,
			&l.Name,
			&l.Age,
			&l.PIN,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan learner: %w", err)
		}
		learners = append(learners, l)
	}

	return learners, rows.Err()
}

// UpdatePIN replaces a learner's PIN
func (r *LearnerRepository) UpdatePIN(ctx context.Context, learnerID, pin string) error {
	query := "UPDATE learners SET pin = ?, updated_at = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query, pin, time.Now().UTC(), learnerID)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return ErrDuplicatePIN
		}
		return fmt.Errorf("failed to update pin: %w", err)
	}
	return expectAffected(res)
}

// DeleteLearner deletes a learner together with their progress
func (r *LearnerRepository) DeleteLearner(ctx context.Context, learnerID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM learners WHERE id = ?", learnerID)
	if err != nil {
		return fmt.Errorf("failed to delete learner: %w", err)
	}
	return expectAffected(res)
}
