package models

import "testing"

func TestChapterKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  ChapterKey
		want string
	}{
		{name: "first chapter", key: ChapterKey{CourseID: "ai", Chapter: 0}, want: "ai#0"},
		{name: "last chapter", key: ChapterKey{CourseID: "robotics", Chapter: 7}, want: "robotics#7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("ChapterKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompletionRecordKey(t *testing.T) {
	rec := CompletionRecord{LearnerID: "l1", CourseID: "space", ChapterIndex: 4}
	want := ChapterKey{CourseID: "space", Chapter: 4}
	if rec.Key() != want {
		t.Errorf("Key() = %v, want %v", rec.Key(), want)
	}
}

func TestPurchaseUnlocks(t *testing.T) {
	ai := "ai"
	tests := []struct {
		name     string
		purchase PurchaseRecord
		course   string
		want     bool
	}{
		{
			name:     "completed full access",
			purchase: PurchaseRecord{Plan: PlanFullAccess, Status: PurchaseCompleted},
			course:   "space",
			want:     true,
		},
		{
			name:     "completed family plan",
			purchase: PurchaseRecord{Plan: PlanFamilyPlan, Status: PurchaseCompleted},
			course:   "robotics",
			want:     true,
		},
		{
			name:     "pending full access",
			purchase: PurchaseRecord{Plan: PlanFullAccess, Status: PurchasePending},
			course:   "ai",
			want:     false,
		},
		{
			name:     "failed family plan",
			purchase: PurchaseRecord{Plan: PlanFamilyPlan, Status: PurchaseFailed},
			course:   "ai",
			want:     false,
		},
		{
			name:     "single course matching",
			purchase: PurchaseRecord{Plan: PlanSingleCourse, CourseID: &ai, Status: PurchaseCompleted},
			course:   "ai",
			want:     true,
		},
		{
			name:     "single course other course",
			purchase: PurchaseRecord{Plan: PlanSingleCourse, CourseID: &ai, Status: PurchaseCompleted},
			course:   "space",
			want:     false,
		},
		{
			name:     "single course without course id",
			purchase: PurchaseRecord{Plan: PlanSingleCourse, Status: PurchaseCompleted},
			course:   "ai",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.purchase.Unlocks(tt.course); got != tt.want {
				t.Errorf("Unlocks(%q) = %v, want %v", tt.course, got, tt.want)
			}
		})
	}
}
