package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nextgenschool/internal/database"
	"nextgenschool/internal/models"
)

// ParentRepository handles database operations for parent accounts
type ParentRepository struct {
	db *database.DB
}

// NewParentRepository creates a new parent repository
func NewParentRepository(db *database.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

const parentColumns = "id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at"

// CreateParent inserts a new parent. Emails are stored lower-cased.
func (r *ParentRepository) CreateParent(ctx context.Context, email, passwordHash, name string) (*models.Parent, error) {
	return r.insert(ctx, &models.Parent{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
	})
}

// CreateOAuthParent inserts a parent that signs in through an identity provider
func (r *ParentRepository) CreateOAuthParent(ctx context.Context, email, name, provider, subject string) (*models.Parent, error) {
	return r.insert(ctx, &models.Parent{
		Email:         email,
		Name:          name,
		OAuthProvider: provider,
		OAuthSubject:  subject,
	})
}

func (r *ParentRepository) insert(ctx context.Context, p *models.Parent) (*models.Parent, error) {
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO parents (id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Email, p.PasswordHash, p.Name, p.OAuthProvider, p.OAuthSubject, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}
	return p, nil
}

// GetParentByEmail retrieves a parent by email address
func (r *ParentRepository) GetParentByEmail(ctx context.Context, email string) (*models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents WHERE email = ?"
	return r.getOne(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

// GetParentByID retrieves a parent by ID
func (r *ParentRepository) GetParentByID(ctx context.Context, id string) (*models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents WHERE id = ?"
	return r.getOne(ctx, query, id)
}

// GetParentByOAuth retrieves a parent by provider subject
func (r *ParentRepository) GetParentByOAuth(ctx context.Context, provider, subject string) (*models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents WHERE oauth_provider = ? AND oauth_subject = ?"
	return r.getOne(ctx, query, provider, subject)
}

func (r *ParentRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Parent, error) {
	p := &models.Parent{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.Email,
		&p.PasswordHash,
		&p.Name,
		&p.OAuthProvider,
		&p.OAuthSubject,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}

	return p, nil
}

// LinkOAuth attaches an identity provider subject to an existing parent
func (r *ParentRepository) LinkOAuth(ctx context.Context, parentID, provider, subject string) error {
	query := "UPDATE parents SET oauth_provider = ?, oauth_subject = ?, updated_at = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query, provider, subject, time.Now().UTC(), parentID)
	if err != nil {
		return fmt.Errorf("failed to link oauth account: %w", err)
	}
	return expectAffected(res)
}

// ListParents returns every parent ordered by email
func (r *ParentRepository) ListParents(ctx context.Context) ([]models.Parent, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+parentColumns+" FROM parents ORDER BY email ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query parents: %w", err)
	}
	defer rows.Close()

	var parents []models.Parent
	for rows.Next() {
		var p models.Parent
		if err := rows.Scan(
			&p.ID,
			&p.Email,
			&p.PasswordHash,
			&p.Name,
			&p.OAuthProvider,
			&p.OAuthSubject,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

// expectAffected turns a zero-row update or delete into ErrNotFound
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
