package models

import (
	"fmt"
	"time"
)

// ChapterKey identifies one chapter of one course
type ChapterKey struct {
	CourseID string `json:"courseId"`
	Chapter  int    `json:"chapter"`
}

func (k ChapterKey) String() string {
	return fmt.Sprintf("%s#%d", k.CourseID, k.Chapter)
}

// CompletionRecord is the durable fact that a learner finished a chapter.
// At most one exists per (LearnerID, CourseID, ChapterIndex).
type CompletionRecord struct {
	LearnerID    string    `json:"learnerId"`
	CourseID     string    `json:"courseId"`
	ChapterIndex int       `json:"chapterIndex"`
	CompletedAt  time.Time `json:"completedAt"`
}

// Key returns the chapter this record completes
func (r CompletionRecord) Key() ChapterKey {
	return ChapterKey{CourseID: r.CourseID, Chapter: r.ChapterIndex}
}

// PointAward is a bonus point grant outside chapter completion (mini-games,
// partial credit). ID is generated by the issuer so replays are idempotent.
type PointAward struct {
	ID        string    `json:"id"`
	LearnerID string    `json:"learnerId"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	AwardedAt time.Time `json:"awardedAt"`
}
