package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"nextgenschool/internal/database"
	"nextgenschool/internal/models"
	"nextgenschool/internal/repository"
)

const backupVersion = "1"

// ErrBackupConflict is returned when a backup row shares a unique email or
// PIN with a different row already in the database
var ErrBackupConflict = errors.New("backup conflicts with existing data")

// BackupData is the complete export document
type BackupData struct {
	Version      string          `json:"version"`
	ExportedAt   time.Time       `json:"exported_at"`
	DatabaseType string          `json:"database_type"`
	Parents      []ParentBackup  `json:"parents"`
	Learners     []LearnerBackup `json:"learners"`
}

// ParentBackup is a parent account plus its purchases
type ParentBackup struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	PasswordHash  string           `json:"password_hash"`
	Name          string           `json:"name"`
	OAuthProvider string           `json:"oauth_provider"`
	OAuthSubject  string           `json:"oauth_subject"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Purchases     []PurchaseBackup `json:"purchases"`
}

// PurchaseBackup is one purchase row
type PurchaseBackup struct {
	ID        string    `json:"id"`
	Plan      string    `json:"plan"`
	CourseID  *string   `json:"course_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// LearnerBackup is a learner with every progress record they own
type LearnerBackup struct {
	ID          string                    `json:"id"`
	ParentID    string                    `json:"parent_id"`
	Name        string                    `json:"name"`
	Age         int                       `json:"age"`
	PIN         string                    `json:"pin"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
	Completions []models.CompletionRecord `json:"completions"`
	Awards      []models.PointAward       `json:"awards"`
}

// BackupService exports and imports the whole progress database
type BackupService struct {
	db    *database.DB
	store *repository.Store
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db, store: repository.NewStore(db)}
}

// Export writes every parent, learner and progress record to w as JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	data := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	parents, err := s.store.Parents.ListParents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list parents: %w", err)
	}

	for _, p := range parents {
		pb, err := s.exportParent(ctx, p)
		if err != nil {
			return nil, err
		}
		data.Parents = append(data.Parents, *pb)

		learners, err := s.store.Learners.GetParentLearners(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list learners for %s: %w", p.ID, err)
		}
		for _, l := range learners {
			lb, err := s.exportLearner(ctx, l)
			if err != nil {
				return nil, err
			}
			data.Learners = append(data.Learners, *lb)
		}
	}

	if err := encode(w, data); err != nil {
		return nil, err
	}
	return data, nil
}

// ExportLearner writes a single learner's records to w as JSON
func (s *BackupService) ExportLearner(ctx context.Context, learnerID string, w io.Writer) error {
	learner, err := s.store.Learners.GetLearnerByID(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("failed to get learner: %w", err)
	}
	if learner == nil {
		return ErrLearnerNotFound
	}
	lb, err := s.exportLearner(ctx, *learner)
	if err != nil {
		return err
	}
	return encode(w, lb)
}

func (s *BackupService) exportParent(ctx context.Context, p models.Parent) (*ParentBackup, error) {
	purchases, err := s.store.Purchases.GetUserPurchases(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases for %s: %w", p.ID, err)
	}
	pb := &ParentBackup{
		ID:            p.ID,
		Email:         p.Email,
		PasswordHash:  p.PasswordHash,
		Name:          p.Name,
		OAuthProvider: p.OAuthProvider,
		OAuthSubject:  p.OAuthSubject,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, pr := range purchases {
		pb.Purchases = append(pb.Purchases, PurchaseBackup{
			ID:        pr.ID,
			Plan:      string(pr.Plan),
			CourseID:  pr.CourseID,
			Amount:    pr.Amount,
			Status:    string(pr.Status),
			CreatedAt: pr.CreatedAt,
		})
	}
	return pb, nil
}

func (s *BackupService) exportLearner(ctx context.Context, l models.Learner) (*LearnerBackup, error) {
	completions, err := s.store.Completions.GetLearnerCompletions(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions for %s: %w", l.ID, err)
	}
	awards, err := s.store.Points.GetLearnerAwards(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list awards for %s: %w", l.ID, err)
	}
	return &LearnerBackup{
		ID:          l.ID,
		ParentID:    l.ParentID,
		Name:        l.Name,
		Age:         l.Age,
		PIN:         l.PIN,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
		Completions: completions,
		Awards:      awards,
	}, nil
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Import reads a backup document and inserts every record in one
// transaction. Rows that already exist are left untouched.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*BackupData, error) {
	var data BackupData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if data.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", data.Version)
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, p := range data.Parents {
			if err := importParent(ctx, tx, p); err != nil {
				return err
			}
		}
		for _, l := range data.Learners {
			if err := importLearner(ctx, tx, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func importParent(ctx context.Context, tx database.DBTX, p ParentBackup) error {
	if err := checkUnique(ctx, tx, "parents", "email", p.Email, p.ID); err != nil {
		return err
	}
	d := tx.GetDialect()
	_, err := tx.ExecContext(ctx, d.InsertIgnore(`INSERT INTO parents
		(id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Email, p.PasswordHash, p.Name, p.OAuthProvider, p.OAuthSubject, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to import parent %s: %w", p.ID, err)
	}

	for _, pr := range p.Purchases {
		var course sql.NullString
		if pr.CourseID != nil {
			course = sql.NullString{String: *pr.CourseID, Valid: true}
		}
		_, err := tx.ExecContext(ctx, d.InsertIgnore(`INSERT INTO purchases
			(id, user_id, plan, course_id, amount, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			pr.ID, p.ID, pr.Plan, course, pr.Amount, pr.Status, pr.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import purchase %s: %w", pr.ID, err)
		}
	}
	return nil
}

func importLearner(ctx context.Context, tx database.DBTX, l LearnerBackup) error {
	if err := checkUnique(ctx, tx, "learners", "pin", l.PIN, l.ID); err != nil {
		return err
	}
	d := tx.GetDialect()
	_, err := tx.ExecContext(ctx, d.InsertIgnore(`INSERT INTO learners
		(id, parent_id, name, age, pin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		l.ID, l.ParentID, l.Name, l.Age, l.PIN, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to import learner %s: %w", l.ID, err)
	}

	for _, c := range l.Completions {
		_, err := tx.ExecContext(ctx, d.InsertIgnore(`INSERT INTO completions
			(learner_id, course_id, chapter_index, completed_at)
			VALUES (?, ?, ?, ?)`),
			l.ID, c.CourseID, c.ChapterIndex, c.CompletedAt)
		if err != nil {
			return fmt.Errorf("failed to import completion %s: %w", c.Key(), err)
		}
	}
	for _, a := range l.Awards {
		_, err := tx.ExecContext(ctx, d.InsertIgnore(`INSERT INTO point_awards
			(id, learner_id, amount, reason, awarded_at)
			VALUES (?, ?, ?, ?, ?)`),
			a.ID, l.ID, a.Amount, a.Reason, a.AwardedAt)
		if err != nil {
			return fmt.Errorf("failed to import award %s: %w", a.ID, err)
		}
	}
	return nil
}

// checkUnique fails when value of a unique column is already held by a row
// other than id. InsertIgnore would otherwise skip the row silently.
func checkUnique(ctx context.Context, tx database.DBTX, table, column, value, id string) error {
	var existing string
	err := tx.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE "+column+" = ?", value).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check %s %s: %w", table, column, err)
	case existing != id:
		return fmt.Errorf("%w: %s %s %q is held by %s, not %s", ErrBackupConflict, table, column, value, existing, id)
	}
	return nil
}
