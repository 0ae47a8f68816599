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

// PurchaseRepository reads and records parent purchases. Payment
// processing happens elsewhere; rows arrive here already settled or pending.
type PurchaseRepository struct {
	db *database.DB
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *database.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// CreatePurchase records a purchase for a parent
func (r *PurchaseRepository) CreatePurchase(ctx context.Context, userID string, plan models.Plan, courseID *string, amount int64, status models.PurchaseStatus) (*models.PurchaseRecord, error) {
	p := &models.PurchaseRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Plan:      plan,
		CourseID:  courseID,
		Amount:    amount,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	var course sql.NullString
	if courseID != nil {
		course = sql.NullString{String: *courseID, Valid: true}
	}

	query := `
		INSERT INTO purchases (id, user_id, plan, course_id, amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, string(p.Plan), course, p.Amount, string(p.Status), p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	return p, nil
}

// UpdateStatus moves a purchase through its lifecycle
func (r *PurchaseRepository) UpdateStatus(ctx context.Context, id string, status models.PurchaseStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE purchases SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	return expectAffected(res)
}

// GetUserPurchases returns every purchase of a parent, newest first
func (r *PurchaseRepository) GetUserPurchases(ctx context.Context, userID string) ([]models.PurchaseRecord, error) {
	query := `
		SELECT id, user_id, plan, course_id, amount, status, created_at
		FROM purchases
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []models.PurchaseRecord
	for rows.Next() {
		var (
			p      models.PurchaseRecord
			plan   string
			status string
			course sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.UserID, &plan, &course, &p.Amount, &status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		p.Plan = models.Plan(plan)
		p.Status = models.PurchaseStatus(status)
		if course.Valid {
			c := course.String
			p.CourseID = &c
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
