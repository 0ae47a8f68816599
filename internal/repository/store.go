package repository

import (
	"context"

	"nextgenschool/internal/database"
	"nextgenschool/internal/models"
)

// Store is the remote record store progress is synchronized with. It
// exposes the narrow set of reads and writes the synchronization policy and
// the PIN login need.
type Store struct {
	Parents     *ParentRepository
	Learners    *LearnerRepository
	Completions *CompletionRepository
	Points      *PointsRepository
	Purchases   *PurchaseRepository
}

// NewStore builds every repository over db
func NewStore(db *database.DB) *Store {
	return &Store{
		Parents:     NewParentRepository(db),
		Learners:    NewLearnerRepository(db),
		Completions: NewCompletionRepository(db),
		Points:      NewPointsRepository(db),
		Purchases:   NewPurchaseRepository(db),
	}
}

func (s *Store) FetchLearnersByParent(ctx context.Context, parentID string) ([]models.Learner, error) {
	return s.Learners.GetParentLearners(ctx, parentID)
}

func (s *Store) FetchCompletions(ctx context.Context, learnerID string) ([]models.CompletionRecord, error) {
	return s.Completions.GetLearnerCompletions(ctx, learnerID)
}

func (s *Store) UpsertCompletion(ctx context.Context, learnerID, courseID string, chapterIndex int) (*models.CompletionRecord, error) {
	return s.Completions.UpsertCompletion(ctx, learnerID, courseID, chapterIndex)
}

func (s *Store) FetchPurchases(ctx context.Context, userID string) ([]models.PurchaseRecord, error) {
	return s.Purchases.GetUserPurchases(ctx, userID)
}

// LookupLearnerByPin returns nil, nil when no learner holds pin
func (s *Store) LookupLearnerByPin(ctx context.Context, pin string) (*models.Learner, error) {
	return s.Learners.GetLearnerByPIN(ctx, pin)
}

func (s *Store) RecordPointAward(ctx context.Context, award models.PointAward) error {
	return s.Points.RecordAward(ctx, award)
}

func (s *Store) FetchPointAwards(ctx context.Context, learnerID string) ([]models.PointAward, error) {
	return s.Points.GetLearnerAwards(ctx, learnerID)
}
