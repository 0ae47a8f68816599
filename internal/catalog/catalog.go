// Package catalog holds the static, build-time course catalog.
package catalog

import (
	"fmt"
	"sort"

	"nextgenschool/internal/models"
	"nextgenschool/internal/validation"
)

// Catalog is an immutable courseID -> course mapping
type Catalog struct {
	courses map[string]models.Course
	order   []string
}

// New builds a catalog. Every course must have a unique id and exactly
// models.ChaptersPerCourse chapters.
func New(courses ...models.Course) (*Catalog, error) {
	c := &Catalog{courses: make(map[string]models.Course, len(courses))}
	for _, course := range courses {
		if course.ID == "" {
			return nil, fmt.Errorf("course %q has no id", course.Title)
		}
		if _, dup := c.courses[course.ID]; dup {
			return nil, fmt.Errorf("duplicate course id %q", course.ID)
		}
		if len(course.Chapters) != models.ChaptersPerCourse {
			return nil, fmt.Errorf("course %q has %d chapters, want %d", course.ID, len(course.Chapters), models.ChaptersPerCourse)
		}
		chapters := make([]models.Chapter, len(course.Chapters))
		copy(chapters, course.Chapters)
		course.Chapters = chapters
		c.courses[course.ID] = course
		c.order = append(c.order, course.ID)
	}
	return c, nil
}

// Validate rejects course ids not in the catalog and chapter indexes
// outside [0, chapterCount-1].
func (c *Catalog) Validate(courseID string, chapter int) error {
	course, ok := c.courses[courseID]
	if !ok {
		return validation.ValidationError{Field: "courseId", Message: fmt.Sprintf("unknown course %q", courseID)}
	}
	if chapter < 0 || chapter >= len(course.Chapters) {
		return validation.ValidationError{
			Field:   "chapterIndex",
			Message: fmt.Sprintf("chapter %d out of range [0, %d]", chapter, len(course.Chapters)-1),
		}
	}
	return nil
}

// Course looks up a course by id
func (c *Catalog) Course(courseID string) (models.Course, bool) {
	course, ok := c.courses[courseID]
	return course, ok
}

// ChapterCount returns the number of chapters in a course, 0 if unknown
func (c *Catalog) ChapterCount(courseID string) int {
	return len(c.courses[courseID].Chapters)
}

// Courses returns all courses in declaration order
func (c *Catalog) Courses() []models.Course {
	out := make([]models.Course, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.courses[id])
	}
	return out
}

// IDs returns the sorted course ids
func (c *Catalog) IDs() []string {
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	return ids
}
