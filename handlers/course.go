package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"eduverse_backend/db"
	"eduverse_backend/models"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	db *sql.DB
}

func NewCourseHandler(db *sql.DB) *CourseHandler {
	return &CourseHandler{db: db}
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := db.CreateCourse(c.Request.Context(), h.db, req)
	if err != nil {
		log.Printf("Error creating course: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create course"})
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourses lists the catalog for the calling student. enrolledOnly=true
// narrows it to the caller's own courses.
func (h *CourseHandler) GetCourses(c *gin.Context) {
	enrolledOnly, _ := strconv.ParseBool(c.Query("enrolledOnly"))

	courses, err := db.ListCourses(c.Request.Context(), h.db, c.GetInt("userID"), c.Query("search"), enrolledOnly)
	if err != nil {
		log.Printf("Error fetching courses: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch courses"})
		return
	}

	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) GetAdminCourses(c *gin.Context) {
	courses, err := db.ListCoursesForAdmin(c.Request.Context(), h.db, c.Query("search"))
	if err != nil {
		log.Printf("Error fetching courses: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch courses"})
		return
	}

	c.JSON(http.StatusOK, courses)
}
