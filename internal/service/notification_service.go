package service

import (
	"context"
	"fmt"

	"nextgenschool/internal/catalog"
	"nextgenschool/internal/repository"
)

// NotificationService turns progress milestones into parent emails
type NotificationService struct {
	email    *EmailService
	parents  *repository.ParentRepository
	learners *repository.LearnerRepository
	catalog  *catalog.Catalog
}

// NewNotificationService creates a new notification service
func NewNotificationService(email *EmailService, parents *repository.ParentRepository, learners *repository.LearnerRepository, cat *catalog.Catalog) *NotificationService {
	return &NotificationService{email: email, parents: parents, learners: learners, catalog: cat}
}

// CourseCompleted emails the parent that a learner finished every chapter
// of a course
func (s *NotificationService) CourseCompleted(ctx context.Context, learnerID, parentID, courseID string) error {
	if !s.email.IsEnabled() {
		return nil
	}

	parent, err := s.parents.GetParentByID(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to get parent: %w", err)
	}
	learner, err := s.learners.GetLearnerByID(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("failed to get learner: %w", err)
	}
	if parent == nil || learner == nil {
		return ErrLearnerNotFound
	}

	title := courseID
	if course, ok := s.catalog.Course(courseID); ok {
		title = course.Title
	}
	return s.email.SendCourseCompletedEmail(ctx, parent.Email, parent.Name, learner.Name, title)
}
