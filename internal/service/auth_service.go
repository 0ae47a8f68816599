package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nextgenschool/internal/identity"
	"nextgenschool/internal/models"
	"nextgenschool/internal/repository"
	"nextgenschool/internal/security"
	"nextgenschool/internal/validation"
)

var (
	ErrEmailTaken = errors.New("email already taken")
	ErrOAuthInfo  = errors.New("missing oauth provider information")
)

// AuthService handles parent account business logic
type AuthService struct {
	parentRepo *repository.ParentRepository
}

// NewAuthService creates a new auth service
func NewAuthService(parentRepo *repository.ParentRepository) *AuthService {
	return &AuthService{parentRepo: parentRepo}
}

// Register creates a new parent account
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.Parent, error) {
	if err := validation.ValidateParentRegistration(email, password, name); err != nil {
		return nil, err
	}

	// Hash password
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	parent, err := s.parentRepo.CreateParent(ctx, email, passwordHash, strings.TrimSpace(name))
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}

	return parent, nil
}

// AuthenticateParent checks an email and password. Unknown emails and wrong
// passwords both yield identity.ErrInvalidCredentials.
func (s *AuthService) AuthenticateParent(ctx context.Context, email, password string) (*models.Parent, error) {
	parent, err := s.parentRepo.GetParentByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil || !security.CheckPassword(password, parent.PasswordHash) {
		return nil, identity.ErrInvalidCredentials
	}
	return parent, nil
}

// OAuthLogin finds the parent linked to a provider subject, links an
// existing account with the same email, or creates a new one
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*models.Parent, error) {
	if provider == "" || subject == "" {
		return nil, ErrOAuthInfo
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	parent, err := s.parentRepo.GetParentByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup oauth parent: %w", err)
	}
	if parent != nil {
		return parent, nil
	}

	existing, err := s.parentRepo.GetParentByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing parent: %w", err)
	}
	if existing != nil {
		if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
			return nil, ErrEmailTaken
		}
		if err := s.parentRepo.LinkOAuth(ctx, existing.ID, provider, subject); err != nil {
			return nil, fmt.Errorf("failed to link oauth provider: %w", err)
		}
		existing.OAuthProvider = provider
		existing.OAuthSubject = subject
		return existing, nil
	}

	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	parent, err = s.parentRepo.CreateOAuthParent(ctx, email, name, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth parent: %w", err)
	}
	return parent, nil
}
