package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"eduverse_backend/db"
	"eduverse_backend/models"
	"eduverse_backend/quiz"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	db *sql.DB
}

func NewQuizHandler(db *sql.DB) *QuizHandler {
	return &QuizHandler{db: db}
}

// loadQuiz fetches a quiz lesson and writes the error response itself when
// it cannot be served.
func (h *QuizHandler) loadQuiz(c *gin.Context) (models.Lesson, bool) {
	lessonID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lesson ID"})
		return models.Lesson{}, false
	}

	lesson, err := db.GetQuizLesson(c.Request.Context(), h.db, lessonID)
	switch {
	case err == nil && len(lesson.Questions) > 0:
		return lesson, true
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrNotQuiz):
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
	case err == nil, errors.Is(err, quiz.ErrMalformedContent):
		if err != nil {
			log.Printf("Lesson %d: %v", lessonID, err)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not load quiz"})
	default:
		log.Printf("Error fetching quiz: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quiz"})
	}
	return models.Lesson{}, false
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	lesson, ok := h.loadQuiz(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.QuizResponse{
		LessonID:  lesson.ID,
		Title:     lesson.Title,
		Questions: lesson.Questions,
	})
}

// SubmitQuiz plays one attempt with the submitted selections and grades
// it. Nothing about the attempt is stored.
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	var req models.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, ok := h.loadQuiz(c)
	if !ok {
		return
	}

	report, err := playAttempt(lesson.Questions, req.Answers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.QuizResultResponse{
		LessonID: lesson.ID,
		Summary:  report.Summary(),
		Report:   report,
	})
}

func playAttempt(questions []quiz.Question, answers []*int) (quiz.Report, error) {
	if len(answers) != len(questions) {
		return quiz.Report{}, fmt.Errorf("%w: got %d answers for %d questions",
			quiz.ErrAnswerCountMismatch, len(answers), len(questions))
	}

	player := quiz.NewPlayer()
	if err := player.Load(questions); err != nil {
		return quiz.Report{}, err
	}
	for i, answer := range answers {
		if answer == nil {
			continue
		}
		if err := player.Select(i, *answer); err != nil {
			return quiz.Report{}, err
		}
	}
	return player.Submit()
}

// GradeQuiz grades a quiz payload supplied by the caller, in any of the
// stored question formats.
func (h *QuizHandler) GradeQuiz(c *gin.Context) {
	var req models.GradeQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questions, err := quiz.NormalizeJSON(req.Questions)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not load quiz"})
		return
	}

	report, err := quiz.Grade(questions, req.Answers)
	if errors.Is(err, quiz.ErrAnswerCountMismatch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error grading quiz: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grade quiz"})
		return
	}

	c.JSON(http.StatusOK, models.QuizResultResponse{
		Summary: report.Summary(),
		Report:  report,
	})
}
