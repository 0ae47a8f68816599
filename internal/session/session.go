// Package session ties one browser session's identity, progress model and
// synchronization together.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"nextgenschool/internal/identity"
	"nextgenschool/internal/logger"
	"nextgenschool/internal/metrics"
	"nextgenschool/internal/models"
	"nextgenschool/internal/progress"
	"nextgenschool/internal/syncer"
	"nextgenschool/internal/validation"
)

// ErrChapterLocked is returned when completing a chapter the active
// identity has not unlocked
var ErrChapterLocked = errors.New("chapter is locked")

// CompletionNotifier is told when a learner finishes every chapter of a
// course
type CompletionNotifier interface {
	CourseCompleted(ctx context.Context, learnerID, parentID, courseID string) error
}

// Session is the progress state of one browser session
type Session struct {
	ID string

	// transitions take mu exclusively; mutations take it shared so the tag
	// they are stamped with always matches the model they mutated
	mu       sync.RWMutex
	resolver *identity.Resolver
	model    *progress.Model
	syncer   *syncer.Syncer
	notifier CompletionNotifier
	log      *logger.Logger
	metrics  *metrics.Metrics

	seenMu   sync.Mutex
	lastSeen time.Time
}

// Identity returns the active identity
func (s *Session) Identity() identity.Identity {
	return s.resolver.Current()
}

// Snapshot returns the current progress snapshot
func (s *Session) Snapshot() progress.Snapshot {
	return s.model.Snapshot()
}

// Model exposes the read-only rules of the session (catalog, unlock, streak)
func (s *Session) Model() *progress.Model {
	return s.model
}

// CompleteChapter applies the completion in memory, then persists it
// through the store of the identity it was issued under. Locked chapters
// are refused with ErrChapterLocked. Persistence is not cancelled with ctx.
// The returned snapshot reflects the write outcome.
func (s *Session) CompleteChapter(ctx context.Context, courseID string, chapter int) (progress.Snapshot, error) {
	s.mu.RLock()
	tag := s.resolver.Tag()
	snap, ev, err := s.completeUnlocked(courseID, chapter)
	s.mu.RUnlock()
	if err != nil {
		return progress.Snapshot{}, err
	}
	if ev == nil {
		return snap, nil
	}

	s.metrics.ChapterCompleted(courseID, tag.Identity.Kind.String())
	outcome := s.syncer.Persist(context.WithoutCancel(ctx), tag, *ev)

	if outcome == syncer.OutcomeSynced && tag.Identity.Kind == identity.KindChild &&
		snap.CompletedInCourse(courseID) == s.model.Catalog().ChapterCount(courseID) {
		s.notifyCourseCompleted(ctx, tag.Identity, courseID)
	}
	return s.model.Snapshot(), nil
}

// completeUnlocked runs under s.mu so the lock check and the completion see
// the same identity
func (s *Session) completeUnlocked(courseID string, chapter int) (progress.Snapshot, *progress.Event, error) {
	unlocked, err := s.model.IsChapterUnlocked(courseID, chapter)
	if err != nil {
		return progress.Snapshot{}, nil, err
	}
	if !unlocked {
		return progress.Snapshot{}, nil, ErrChapterLocked
	}
	return s.model.CompleteChapter(courseID, chapter)
}

func (s *Session) notifyCourseCompleted(ctx context.Context, id identity.Identity, courseID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CourseCompleted(context.WithoutCancel(ctx), id.LearnerID, id.ParentID, courseID); err != nil {
		s.log.Warn("failed to send course completion notice", "learner", id.LearnerID, "course", courseID, "error", err)
	}
}

// AddPoints applies a point delta and persists the award
func (s *Session) AddPoints(ctx context.Context, amount int, reason string) progress.Snapshot {
	s.mu.RLock()
	tag := s.resolver.Tag()
	_, ev := s.model.AddPoints(amount, reason)
	s.mu.RUnlock()

	s.syncer.Persist(context.WithoutCancel(ctx), tag, ev)
	return s.model.Snapshot()
}

// IsChapterUnlocked reports whether a chapter may be played
func (s *Session) IsChapterUnlocked(courseID string, chapter int) (bool, error) {
	return s.model.IsChapterUnlocked(courseID, chapter)
}

// SetCursor selects a course and chapter
func (s *Session) SetCursor(courseID string, chapter int) error {
	return s.model.SetCursor(courseID, chapter)
}

// LoginParent authenticates parent credentials and rebuilds the snapshot as
// the parent's aggregate dashboard
func (s *Session) LoginParent(ctx context.Context, email, password string) (progress.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.resolver.Current()
	if _, err := s.resolver.LoginParent(ctx, email, password); err != nil {
		return progress.Snapshot{}, err
	}
	return s.enter(ctx, from), nil
}

// AcceptParent switches to a parent authenticated by an external provider
func (s *Session) AcceptParent(ctx context.Context, parent *models.Parent) progress.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.resolver.Current()
	s.resolver.AcceptParent(parent)
	return s.enter(ctx, from)
}

// LoginWithPIN authenticates a learner. On failure the previous identity
// and snapshot are kept.
func (s *Session) LoginWithPIN(ctx context.Context, pin string) (progress.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.resolver.Current()
	if _, err := s.resolver.LoginWithPIN(ctx, pin); err != nil {
		switch {
		case validation.IsValidationError(err):
			s.metrics.PINLogin("malformed")
		case identity.IsAuthError(err):
			s.metrics.PINLogin("not_found")
		default:
			s.metrics.PINLogin("error")
		}
		return progress.Snapshot{}, err
	}
	s.metrics.PINLogin("ok")
	return s.enter(ctx, from), nil
}

// EnterDemo switches to demo mode with every chapter unlocked
func (s *Session) EnterDemo(ctx context.Context) progress.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.resolver.Current()
	s.resolver.EnterDemo()
	return s.enter(ctx, from)
}

// Logout returns to Guest with an empty snapshot
func (s *Session) Logout(ctx context.Context) progress.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.resolver.Current()
	s.resolver.Logout()
	s.reset(ctx, from)
	if err := s.syncer.Reset(ctx, identity.Guest(), true); err != nil {
		s.log.Warn("failed to clear guest progress", "error", err)
	}
	s.model.Clear()
	return s.model.Snapshot()
}

// Reload rebuilds the snapshot of the current identity, typically after a
// failed load
func (s *Session) Reload(ctx context.Context) progress.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, _ := s.syncer.Rebuild(ctx, s.resolver.Tag())
	return snap
}

// enter finishes a transition away from `from`: drops what the previous
// identity leaves behind and rebuilds from the new identity's store.
// Callers hold mu.
func (s *Session) enter(ctx context.Context, from identity.Identity) progress.Snapshot {
	s.reset(ctx, from)
	tag := s.resolver.Tag()
	s.log.Info("identity changed", "from", from.String(), "to", tag.Identity.String())
	snap, _ := s.syncer.Rebuild(ctx, tag)
	return snap
}

func (s *Session) reset(ctx context.Context, from identity.Identity) {
	if err := s.syncer.Reset(ctx, from, false); err != nil {
		s.log.Warn("failed to drop local progress", "identity", from.String(), "error", err)
	}
}

func (s *Session) touch(now time.Time) {
	s.seenMu.Lock()
	s.lastSeen = now
	s.seenMu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return now.Sub(s.lastSeen)
}
