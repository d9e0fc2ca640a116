package models

type CreateCourseRequest struct {
	Title      string  `json:"title" binding:"required"`
	Category   string  `json:"category" binding:"required"`
	Image      string  `json:"image"`
	Rating     float64 `json:"rating" binding:"gte=0,lte=5"`
	Instructor string  `json:"instructor" binding:"required"`
}

type Course struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Category   string  `json:"category"`
	Image      string  `json:"image"`
	Rating     float64 `json:"rating"`
	Instructor string  `json:"instructor"`
}

// CourseListing is a course as seen in the student catalog.
type CourseListing struct {
	Course
	Students   int  `json:"students"`
	IsEnrolled bool `json:"is_enrolled"`
}

// AdminCourseListing is a course as seen in the admin catalog.
type AdminCourseListing struct {
	Course
	Enrollments int `json:"enrollments"`
}

type CourseWithLessonsResponse struct {
	Course  Course   `json:"course"`
	Lessons []Lesson `json:"lessons"`
}
