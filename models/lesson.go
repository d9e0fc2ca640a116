package models

import (
	"encoding/json"

	"eduverse_backend/quiz"
)

type LessonKind string

const (
	LessonVideo LessonKind = "video"
	LessonQuiz  LessonKind = "quiz"
)

type CreateLessonRequest struct {
	CourseID int        `json:"course_id" binding:"required"`
	Title    string     `json:"title" binding:"required"`
	Kind     LessonKind `json:"kind" binding:"required,oneof=video quiz"`
	Position int        `json:"position"`
	// Video lessons carry a URL string; quiz lessons a question list or
	// its JSON encoding.
	Content json.RawMessage `json:"content" binding:"required"`
}

// LessonRecord is a lesson row as stored.
type LessonRecord struct {
	ID       int
	CourseID int
	Title    string
	Position int
	Kind     LessonKind
	Content  string
}

// Lesson is a lesson ready for delivery. Exactly one of VideoURL and
// Questions is meaningful, depending on Kind.
type Lesson struct {
	ID        int             `json:"id"`
	CourseID  int             `json:"course_id"`
	Title     string          `json:"title"`
	Position  int             `json:"position"`
	Kind      LessonKind      `json:"kind"`
	VideoURL  string          `json:"video_url,omitempty"`
	Questions []quiz.Question `json:"questions,omitempty"`
	Malformed bool            `json:"malformed,omitempty"`
}
