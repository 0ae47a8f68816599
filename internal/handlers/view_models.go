package handlers

import (
	"time"

	"nextgenschool/internal/identity"
	"nextgenschool/internal/models"
	"nextgenschool/internal/progress"
	"nextgenschool/internal/session"
)

type IdentityView struct {
	Kind      string `json:"kind"`
	ParentID  string `json:"parentId,omitempty"`
	LearnerID string `json:"learnerId,omitempty"`
}

type CompletionView struct {
	CourseID    string    `json:"courseId"`
	Chapter     int       `json:"chapter"`
	CompletedAt time.Time `json:"completedAt"`
}

type CourseProgressView struct {
	CourseID  string `json:"courseId"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

type ProgressView struct {
	Points       int                       `json:"points"`
	Level        progress.Level            `json:"level"`
	NextLevel    *progress.Level           `json:"nextLevel,omitempty"`
	PointsToNext int                       `json:"pointsToNext"`
	Streak       int                       `json:"streak"`
	Completed    []CompletionView          `json:"completed"`
	Courses      []CourseProgressView      `json:"courses"`
	CoursesDone  int                       `json:"coursesCompleted"`
	Cursor       progress.Cursor           `json:"cursor"`
	Demo         bool                      `json:"demo"`
	LoadFailed   bool                      `json:"loadFailed"`
	Unsynced     []string                  `json:"unsynced"`
	Learners     []progress.LearnerSummary `json:"learners,omitempty"`
}

// StateView is the body of every session and progress response
type StateView struct {
	Identity IdentityView `json:"identity"`
	Progress ProgressView `json:"progress"`
}

type SessionView struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	StateView
}

type ChapterView struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
	Unlocked  bool   `json:"unlocked"`
	Completed bool   `json:"completed"`
}

type CourseView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Icon     string        `json:"icon"`
	Chapters []ChapterView `json:"chapters"`
}

type LearnerView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	PIN       string    `json:"pin"`
	CreatedAt time.Time `json:"createdAt"`
}

func newIdentityView(id identity.Identity) IdentityView {
	return IdentityView{Kind: id.Kind.String(), ParentID: id.ParentID, LearnerID: id.LearnerID}
}

func newStateView(s *session.Session, snap progress.Snapshot, now time.Time) StateView {
	return StateView{
		Identity: newIdentityView(s.Identity()),
		Progress: newProgressView(s.Model(), snap, now),
	}
}

func newProgressView(model *progress.Model, snap progress.Snapshot, now time.Time) ProgressView {
	view := ProgressView{
		Points:     snap.Points,
		Level:      snap.Level(),
		Streak:     progress.GetStreak(snap.ActiveDays(now.Location()), now),
		Cursor:     snap.Cursor,
		Demo:       snap.Demo,
		LoadFailed: snap.LoadFailed,
		Unsynced:   snap.UnsyncedKeys(),
		Learners:   snap.Learners,
		Completed:  []CompletionView{},
	}
	if next, remaining, ok := progress.NextLevel(snap.Points); ok {
		view.NextLevel = &next
		view.PointsToNext = remaining
	}
	for _, key := range snap.CompletedKeys() {
		view.Completed = append(view.Completed, CompletionView{
			CourseID:    key.CourseID,
			Chapter:     key.Chapter,
			CompletedAt: snap.Completed[key],
		})
	}
	cat := model.Catalog()
	for _, course := range cat.Courses() {
		cp := CourseProgressView{
			CourseID:  course.ID,
			Completed: snap.CompletedInCourse(course.ID),
			Total:     len(course.Chapters),
		}
		cp.Percent = cp.Completed * 100 / cp.Total
		if cp.Completed == cp.Total {
			view.CoursesDone++
		}
		view.Courses = append(view.Courses, cp)
	}
	return view
}

func newCourseViews(s *session.Session) []CourseView {
	snap := s.Snapshot()
	var views []CourseView
	for _, course := range s.Model().Catalog().Courses() {
		cv := CourseView{ID: course.ID, Title: course.Title, Icon: course.Icon}
		for i, ch := range course.Chapters {
			unlocked, _ := s.IsChapterUnlocked(course.ID, i)
			cv.Chapters = append(cv.Chapters, ChapterView{
				Index:     i,
				Title:     ch.Title,
				Icon:      ch.Icon,
				Unlocked:  unlocked,
				Completed: snap.IsCompleted(course.ID, i),
			})
		}
		views = append(views, cv)
	}
	return views
}

func newLearnerView(l models.Learner) LearnerView {
	return LearnerView{ID: l.ID, Name: l.Name, Age: l.Age, PIN: l.PIN, CreatedAt: l.CreatedAt}
}
