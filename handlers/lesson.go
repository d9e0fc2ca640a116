package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"eduverse_backend/db"
	"eduverse_backend/models"
	"eduverse_backend/quiz"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type LessonHandler struct {
	db *sql.DB
}

func NewLessonHandler(db *sql.DB) *LessonHandler {
	return &LessonHandler{db: db}
}

func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var req models.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, err := lessonContent(req)
	if errors.Is(err, quiz.ErrMalformedContent) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not load quiz"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, err := db.CreateLesson(c.Request.Context(), h.db, models.LessonRecord{
		CourseID: req.CourseID,
		Title:    req.Title,
		Position: req.Position,
		Kind:     req.Kind,
		Content:  content,
	})
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	if err != nil {
		log.Printf("Error creating lesson: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lesson"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        lesson.ID,
		"course_id": lesson.CourseID,
		"title":     lesson.Title,
		"position":  lesson.Position,
		"kind":      lesson.Kind,
	})
}

// lessonContent returns the text to store for a lesson. Video content must
// be a URL string. Quiz content may be a question list or a string holding
// its JSON; either way it must normalize, and it is kept in the shape it
// was sent.
func lessonContent(req models.CreateLessonRequest) (string, error) {
	var asString string
	isString := json.Unmarshal(req.Content, &asString) == nil

	if req.Kind == models.LessonVideo {
		if !isString || asString == "" {
			return "", errors.New("video content must be a non-empty URL string")
		}
		return asString, nil
	}

	questions, err := quiz.NormalizeJSON(req.Content)
	if err != nil {
		return "", err
	}
	if len(questions) == 0 {
		return "", errors.New("quiz content has no questions")
	}
	if isString {
		return asString, nil
	}
	return string(req.Content), nil
}

// GetCourseLessons returns a course with its lessons in order. A quiz
// lesson whose content cannot be read comes back flagged as malformed
// instead of failing the whole course.
func (h *LessonHandler) GetCourseLessons(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	resp, err := db.GetCourseWithLessons(c.Request.Context(), h.db, courseID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching lessons: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lessons"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
