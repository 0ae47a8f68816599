package progress

import (
	"sort"
	"time"

	"nextgenschool/internal/models"
)

// Cursor is the currently selected course and chapter
type Cursor struct {
	CourseID string `json:"courseId"`
	Chapter  int    `json:"chapter"`
}

// LearnerSummary is one row of the parent dashboard breakdown
type LearnerSummary struct {
	LearnerID string `json:"learnerId"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Level     Level  `json:"level"`
	Completed int    `json:"completed"`
}

// Snapshot is the derived, in-memory progress view of the active identity.
// It is never persisted directly.
type Snapshot struct {
	Completed  map[models.ChapterKey]time.Time
	Points     int
	Cursor     Cursor
	Demo       bool
	LoadFailed bool
	Unsynced   map[string]bool
	Learners   []LearnerSummary
}

func newSnapshot() Snapshot {
	return Snapshot{
		Completed: make(map[models.ChapterKey]time.Time),
		Unsynced:  make(map[string]bool),
	}
}

// Clone returns a deep copy safe to hand to callers
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Completed = make(map[models.ChapterKey]time.Time, len(s.Completed))
	for k, v := range s.Completed {
		out.Completed[k] = v
	}
	out.Unsynced = make(map[string]bool, len(s.Unsynced))
	for k, v := range s.Unsynced {
		out.Unsynced[k] = v
	}
	out.Learners = append([]LearnerSummary(nil), s.Learners...)
	return out
}

// IsCompleted reports whether a chapter is in the completed set
func (s Snapshot) IsCompleted(courseID string, chapter int) bool {
	_, ok := s.Completed[models.ChapterKey{CourseID: courseID, Chapter: chapter}]
	return ok
}

// CompletedKeys returns the completed set ordered by course then chapter
func (s Snapshot) CompletedKeys() []models.ChapterKey {
	keys := make([]models.ChapterKey, 0, len(s.Completed))
	for k := range s.Completed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CourseID != keys[j].CourseID {
			return keys[i].CourseID < keys[j].CourseID
		}
		return keys[i].Chapter < keys[j].Chapter
	})
	return keys
}

// CompletedInCourse counts completed chapters of one course
func (s Snapshot) CompletedInCourse(courseID string) int {
	n := 0
	for k := range s.Completed {
		if k.CourseID == courseID {
			n++
		}
	}
	return n
}

// Level is the tier for the current point total
func (s Snapshot) Level() Level {
	return GetLevel(s.Points)
}

// ActiveDays lists the distinct days (in loc) with at least one completion
func (s Snapshot) ActiveDays(loc *time.Location) []string {
	seen := make(map[string]bool)
	var days []string
	for _, at := range s.Completed {
		if at.IsZero() {
			continue
		}
		day := at.In(loc).Format(DayLayout)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}

// UnsyncedKeys returns the keys of mutations that could not be persisted
func (s Snapshot) UnsyncedKeys() []string {
	keys := make([]string, 0, len(s.Unsynced))
	for k := range s.Unsynced {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
