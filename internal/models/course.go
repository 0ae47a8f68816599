package models

// ChaptersPerCourse is fixed for every catalog course
const ChaptersPerCourse = 8

// Course is a static catalog entry
type Course struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Icon     string    `json:"icon"`
	Chapters []Chapter `json:"chapters"`
}

// Chapter is one lesson of a course
type Chapter struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
}
