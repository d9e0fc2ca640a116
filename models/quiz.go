package models

import (
	"encoding/json"

	"eduverse_backend/quiz"
)

type QuizResponse struct {
	LessonID  int             `json:"lesson_id"`
	Title     string          `json:"title"`
	Questions []quiz.Question `json:"questions"`
}

// SubmitQuizRequest carries one entry per question; null marks a
// question left unanswered.
type SubmitQuizRequest struct {
	Answers []*int `json:"answers" binding:"required"`
}

// GradeQuizRequest grades a caller-supplied quiz payload in the stored
// (raw) question format.
type GradeQuizRequest struct {
	Questions json.RawMessage `json:"questions" binding:"required"`
	Answers   []*int          `json:"answers" binding:"required"`
}

type QuizResultResponse struct {
	LessonID int         `json:"lesson_id,omitempty"`
	Summary  string      `json:"summary"`
	Report   quiz.Report `json:"report"`
}
