package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nextgenschool/internal/credentials"
	"nextgenschool/internal/models"
	"nextgenschool/internal/repository"
	"nextgenschool/internal/validation"
)

var (
	ErrLearnerNotFound = errors.New("learner not found")
	ErrNotYourLearner  = errors.New("learner belongs to another parent")
	ErrPINSpaceBusy    = errors.New("could not find a free pin")
)

// maxPINAttempts bounds the retries when a generated PIN is taken
const maxPINAttempts = 20

// LearnerService handles learner profile business logic
type LearnerService struct {
	learnerRepo *repository.LearnerRepository
	generatePIN func() (string, error)
}

// NewLearnerService creates a new learner service
func NewLearnerService(learnerRepo *repository.LearnerRepository) *LearnerService {
	return &LearnerService{
		learnerRepo: learnerRepo,
		generatePIN: credentials.GeneratePIN,
	}
}

// CreateLearner creates a learner for a parent with a freshly generated,
// system-wide unique PIN
func (s *LearnerService) CreateLearner(ctx context.Context, parentID, name string, age int) (*models.Learner, error) {
	if err := validation.ValidateLearnerProfile(name, age); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	for attempt := 0; attempt < maxPINAttempts; attempt++ {
		pin, err := s.generatePIN()
		if err != nil {
			return nil, fmt.Errorf("failed to generate pin: %w", err)
		}
		learner, err := s.learnerRepo.CreateLearner(ctx, parentID, name, age, pin)
		if errors.Is(err, repository.ErrDuplicatePIN) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create learner: %w", err)
		}
		return learner, nil
	}
	return nil, ErrPINSpaceBusy
}

// GetParentLearners lists a parent's learners
func (s *LearnerService) GetParentLearners(ctx context.Context, parentID string) ([]models.Learner, error) {
	learners, err := s.learnerRepo.GetParentLearners(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get learners: %w", err)
	}
	return learners, nil
}

// GetLearner returns a learner after checking it belongs to parentID
func (s *LearnerService) GetLearner(ctx context.Context, parentID, learnerID string) (*models.Learner, error) {
	learner, err := s.learnerRepo.GetLearnerByID(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	if learner == nil {
		return nil, ErrLearnerNotFound
	}
	if learner.ParentID != parentID {
		return nil, ErrNotYourLearner
	}
	return learner, nil
}

// DeleteLearner removes a learner and all of their progress
func (s *LearnerService) DeleteLearner(ctx context.Context, parentID, learnerID string) error {
	if _, err := s.GetLearner(ctx, parentID, learnerID); err != nil {
		return err
	}
	if err := s.learnerRepo.DeleteLearner(ctx, learnerID); err != nil {
		return fmt.Errorf("failed to delete learner: %w", err)
	}
	return nil
}

// RegeneratePIN gives a learner a new unique PIN
func (s *LearnerService) RegeneratePIN(ctx context.Context, parentID, learnerID string) (*models.Learner, error) {
	learner, err := s.GetLearner(ctx, parentID, learnerID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxPINAttempts; attempt++ {
		pin, err := s.generatePIN()
		if err != nil {
			return nil, fmt.Errorf("failed to generate pin: %w", err)
		}
		if pin == learner.PIN {
			continue
		}
		err = s.learnerRepo.UpdatePIN(ctx, learnerID, pin)
		if errors.Is(err, repository.ErrDuplicatePIN) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update pin: %w", err)
		}
		learner.PIN = pin
		return learner, nil
	}
	return nil, ErrPINSpaceBusy
}
