package models

type ToggleEnrollmentRequest struct {
	CourseID int `json:"course_id" binding:"required"`
}

type Enrollment struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	CourseID    int    `json:"course_id"`
	UserName    string `json:"user_name"`
	CourseTitle string `json:"course_title"`
}

type AdminStats struct {
	TotalUsers       int `json:"total_users"`
	TotalCourses     int `json:"total_courses"`
	TotalEnrollments int `json:"total_enrollments"`
}

type CourseEnrollmentCount struct {
	CourseTitle string `json:"course_title"`
	EnrollCount int    `json:"enroll_count"`
}

type AdminStatsResponse struct {
	Stats     AdminStats              `json:"stats"`
	ChartData []CourseEnrollmentCount `json:"chart_data"`
}
