package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"nextgenschool/internal/models"
	"nextgenschool/internal/validation"
)

// ParentAuthenticator checks parent credentials. It returns
// ErrInvalidCredentials (possibly wrapped) for a wrong email or password.
type ParentAuthenticator interface {
	AuthenticateParent(ctx context.Context, email, password string) (*models.Parent, error)
}

// PINLookup finds the learner owning a PIN, or nil when none does
type PINLookup interface {
	LookupLearnerByPin(ctx context.Context, pin string) (*models.Learner, error)
}

// Transition describes one identity change. Generation is the resolver
// generation after the change.
type Transition struct {
	From       Identity
	To         Identity
	Generation uint64
}

// Tag stamps work issued under a particular identity
type Tag struct {
	Identity   Identity
	Generation uint64
}

// Resolver is the identity state machine of one session. It starts as
// Guest; every transition bumps the generation.
type Resolver struct {
	mu         sync.Mutex
	current    Identity
	generation uint64
	parents    ParentAuthenticator
	pins       PINLookup
}

// NewResolver creates a resolver in the Guest state
func NewResolver(parents ParentAuthenticator, pins PINLookup) *Resolver {
	return &Resolver{current: Guest(), parents: parents, pins: pins}
}

// Current returns the active identity
func (r *Resolver) Current() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Tag returns the identity and generation new work should be stamped with
func (r *Resolver) Tag() Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Tag{Identity: r.current, Generation: r.generation}
}

// IsCurrent reports whether no transition happened since tag was taken
func (r *Resolver) IsCurrent(tag Tag) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return tag.Generation == r.generation && tag.Identity == r.current
}

// LoginParent authenticates parent credentials
func (r *Resolver) LoginParent(ctx context.Context, email, password string) (Transition, error) {
	parent, err := r.parents.AuthenticateParent(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return Transition{}, &AuthError{Err: ErrInvalidCredentials}
		}
		return Transition{}, fmt.Errorf("failed to authenticate parent: %w", err)
	}
	return r.transition(Parent(parent.ID)), nil
}

// AcceptParent switches to a parent already authenticated elsewhere (OAuth)
func (r *Resolver) AcceptParent(parent *models.Parent) Transition {
	return r.transition(Parent(parent.ID))
}

// LoginWithPIN authenticates a learner by PIN. A malformed PIN is a
// validation error; an unknown PIN is an AuthError. Either way the current
// identity is kept.
func (r *Resolver) LoginWithPIN(ctx context.Context, pin string) (Transition, error) {
	if err := validation.ValidatePIN(pin); err != nil {
		return Transition{}, err
	}
	learner, err := r.pins.LookupLearnerByPin(ctx, pin)
	if err != nil {
		return Transition{}, fmt.Errorf("failed to look up pin: %w", err)
	}
	if learner == nil {
		return Transition{}, &AuthError{Err: ErrPINNotFound}
	}
	return r.transition(Child(learner.ID, learner.ParentID)), nil
}

// EnterDemo switches to demo mode, dropping any authenticated identity
func (r *Resolver) EnterDemo() Transition {
	return r.transition(Demo())
}

// Logout returns to Guest
func (r *Resolver) Logout() Transition {
	return r.transition(Guest())
}

func (r *Resolver) transition(to Identity) Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := r.current
	r.current = to
	r.generation++
	return Transition{From: from, To: to, Generation: r.generation}
}
