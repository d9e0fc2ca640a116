package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"eduverse_backend/db"
	"eduverse_backend/models"

	"github.com/gin-gonic/gin"
)

type EnrollmentHandler struct {
	db *sql.DB
}

func NewEnrollmentHandler(db *sql.DB) *EnrollmentHandler {
	return &EnrollmentHandler{db: db}
}

// ToggleEnrollment enrolls the caller in a course, or unenrolls them if
// they were already enrolled.
func (h *EnrollmentHandler) ToggleEnrollment(c *gin.Context) {
	var req models.ToggleEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enrolled, err := db.ToggleEnrollment(c.Request.Context(), h.db, c.GetInt("userID"), req.CourseID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	if err != nil {
		log.Printf("Error toggling enrollment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update enrollment"})
		return
	}

	message := "Unenrolled successfully"
	if enrolled {
		message = "Enrolled successfully"
	}
	c.JSON(http.StatusOK, gin.H{"enrolled": enrolled, "message": message})
}

func (h *EnrollmentHandler) GetEnrollments(c *gin.Context) {
	enrollments, err := db.ListEnrollments(c.Request.Context(), h.db)
	if err != nil {
		log.Printf("Error fetching enrollments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch enrollments"})
		return
	}

	c.JSON(http.StatusOK, enrollments)
}
