package models

import "time"

// Learner represents a child profile. PIN is unique across all learners.
type Learner struct {
	ID        string
	ParentID  string
	Name      string
	Age       int
	PIN       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
