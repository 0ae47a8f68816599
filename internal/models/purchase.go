package models

import "time"

// Plan is the product a purchase was made for
type Plan string

const (
	PlanFullAccess   Plan = "fullAccess"
	PlanFamilyPlan   Plan = "familyPlan"
	PlanSingleCourse Plan = "singleCourse"
)

// PurchaseStatus tracks the payment lifecycle
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// PurchaseRecord represents a payment made by a parent account
type PurchaseRecord struct {
	ID        string
	UserID    string
	Plan      Plan
	CourseID  *string // set only for PlanSingleCourse
	Amount    int64   // minor currency units
	Status    PurchaseStatus
	CreatedAt time.Time
}

// Unlocks reports whether this purchase grants access beyond the first
// chapter of the given course
func (p PurchaseRecord) Unlocks(courseID string) bool {
	if p.Status != PurchaseCompleted {
		return false
	}
	switch p.Plan {
	case PlanFullAccess, PlanFamilyPlan:
		return true
	case PlanSingleCourse:
		return p.CourseID != nil && *p.CourseID == courseID
	}
	return false
}
