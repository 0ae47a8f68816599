// Package progress implements the chapter-progress and gamification rules:
// completion set, points, levels, unlock gating and streaks. It performs no
// I/O; persistence is driven by the events its mutations return.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nextgenschool/internal/catalog"
	"nextgenschool/internal/models"
)

// PointsPerChapter is awarded once per newly completed chapter
const PointsPerChapter = 25

// EventKind distinguishes the mutations that need persisting
type EventKind int

const (
	EventCompletion EventKind = iota + 1
	EventPoints
)

// Event describes one in-memory mutation for the synchronization layer.
// Generation is the model generation the mutation was applied under.
type Event struct {
	Kind       EventKind
	Completion models.CompletionRecord
	Award      models.PointAward
	Generation uint64
}

// Key identifies the mutation in the snapshot's unsynced set
func (e Event) Key() string {
	if e.Kind == EventPoints {
		return "award:" + e.Award.ID
	}
	return e.Completion.Key().String()
}

// State is the raw material a snapshot is rebuilt from
type State struct {
	Completions []models.CompletionRecord
	Awards      []models.PointAward
	Purchases   []models.PurchaseRecord
	Learners    []LearnerSummary
	Demo        bool
	LoadFailed  bool
}

// Model owns the snapshot of one session. All methods are safe for
// concurrent use and apply their mutation before returning.
type Model struct {
	mu         sync.Mutex
	catalog    *catalog.Catalog
	snap       Snapshot
	purchases  []models.PurchaseRecord
	generation uint64
	now        func() time.Time
	newID      func() string
}

// Option configures a Model
type Option func(*Model)

// WithClock overrides the time source used to stamp completions
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithIDGenerator overrides the point-award id generator
func WithIDGenerator(newID func() string) Option {
	return func(m *Model) { m.newID = newID }
}

// NewModel creates an empty model validating against cat
func NewModel(cat *catalog.Catalog, opts ...Option) *Model {
	m := &Model{
		catalog: cat,
		snap:    newSnapshot(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Catalog returns the catalog the model validates against
func (m *Model) Catalog() *catalog.Catalog {
	return m.catalog
}

// Snapshot returns a copy of the current snapshot
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone()
}

// Generation changes every time the snapshot is rebuilt or cleared
func (m *Model) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// CompleteChapter adds the chapter to the completed set and awards
// PointsPerChapter. Completing an already completed chapter changes nothing
// and returns a nil event.
func (m *Model) CompleteChapter(courseID string, chapter int) (Snapshot, *Event, error) {
	if err := m.catalog.Validate(courseID, chapter); err != nil {
		return Snapshot{}, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := models.ChapterKey{CourseID: courseID, Chapter: chapter}
	if _, done := m.snap.Completed[key]; done {
		return m.snap.Clone(), nil, nil
	}

	at := m.now()
	m.snap.Completed[key] = at
	m.snap.Points += PointsPerChapter

	ev := &Event{
		Kind: EventCompletion,
		Completion: models.CompletionRecord{
			CourseID:     courseID,
			ChapterIndex: chapter,
			CompletedAt:  at,
		},
		Generation: m.generation,
	}
	return m.snap.Clone(), ev, nil
}

// AddPoints applies an arbitrary point delta. Negative amounts are accepted
// though no current caller produces them.
func (m *Model) AddPoints(amount int, reason string) (Snapshot, Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap.Points += amount
	ev := Event{
		Kind: EventPoints,
		Award: models.PointAward{
			ID:        m.newID(),
			Amount:    amount,
			Reason:    reason,
			AwardedAt: m.now(),
		},
		Generation: m.generation,
	}
	return m.snap.Clone(), ev
}

// IsChapterUnlocked reports whether the chapter may be played. Chapter 0 is
// always open; later chapters need demo mode or a qualifying purchase.
func (m *Model) IsChapterUnlocked(courseID string, chapter int) (bool, error) {
	if err := m.catalog.Validate(courseID, chapter); err != nil {
		return false, err
	}
	if chapter == 0 {
		return true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap.Demo {
		return true, nil
	}
	for _, p := range m.purchases {
		if p.Unlocks(courseID) {
			return true, nil
		}
	}
	return false, nil
}

// SetCursor moves the selected course/chapter
func (m *Model) SetCursor(courseID string, chapter int) error {
	if err := m.catalog.Validate(courseID, chapter); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Cursor = Cursor{CourseID: courseID, Chapter: chapter}
	return nil
}

// Streak is GetStreak over the snapshot's active days
func (m *Model) Streak(today time.Time) int {
	snap := m.Snapshot()
	return GetStreak(snap.ActiveDays(today.Location()), today)
}

// Rebuild replaces the snapshot wholesale from st. Nothing of the previous
// snapshot survives, and events issued before the rebuild become stale.
func (m *Model) Rebuild(st State) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := newSnapshot()
	snap.Demo = st.Demo
	snap.LoadFailed = st.LoadFailed
	snap.Learners = append([]LearnerSummary(nil), st.Learners...)

	type triple struct {
		learner string
		key     models.ChapterKey
	}
	counted := make(map[triple]bool, len(st.Completions))
	for _, rec := range st.Completions {
		if m.catalog.Validate(rec.CourseID, rec.ChapterIndex) != nil {
			continue
		}
		t := triple{learner: rec.LearnerID, key: rec.Key()}
		if counted[t] {
			continue
		}
		counted[t] = true
		snap.Points += PointsPerChapter

		if prev, ok := snap.Completed[t.key]; !ok || rec.CompletedAt.Before(prev) {
			snap.Completed[t.key] = rec.CompletedAt
		}
	}

	awarded := make(map[string]bool, len(st.Awards))
	for _, a := range st.Awards {
		if a.ID != "" && awarded[a.ID] {
			continue
		}
		awarded[a.ID] = true
		snap.Points += a.Amount
	}

	m.snap = snap
	m.purchases = append([]models.PurchaseRecord(nil), st.Purchases...)
	m.generation++
	return m.snap.Clone()
}

// Clear drops all state, as on logout
func (m *Model) Clear() {
	m.Rebuild(State{})
}

// MarkUnsynced flags a mutation whose persistence failed. Events from an
// earlier generation are ignored.
func (m *Model) MarkUnsynced(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.Generation != m.generation {
		return false
	}
	m.snap.Unsynced[ev.Key()] = true
	return true
}

// MarkSynced clears an unsynced flag
func (m *Model) MarkSynced(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.Generation == m.generation {
		delete(m.snap.Unsynced, ev.Key())
	}
}
