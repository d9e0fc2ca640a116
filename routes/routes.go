package routes

import (
	"database/sql"
	"time"

	"eduverse_backend/handlers"
	"eduverse_backend/mailer"
	"eduverse_backend/middleware"
	"eduverse_backend/models"

	"github.com/gin-gonic/gin"
)

type Options struct {
	JWTSecret []byte
	Mailer    mailer.Mailer
	OTPTTL    time.Duration
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, db *sql.DB, opts Options) {
	authHandler := handlers.NewAuthHandler(db, opts.JWTSecret, opts.Mailer, opts.OTPTTL)
	courseHandler := handlers.NewCourseHandler(db)
	lessonHandler := handlers.NewLessonHandler(db)
	quizHandler := handlers.NewQuizHandler(db)
	enrollmentHandler := handlers.NewEnrollmentHandler(db)
	adminHandler := handlers.NewAdminHandler(db)
	healthHandler := handlers.NewHealthHandler(db)

	// Public routes
	r.GET("/health", healthHandler.HealthCheck)
	r.POST("/register", authHandler.Register)
	r.POST("/verify-otp", authHandler.VerifyOTP)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)

	// Stateless grading of a caller-supplied quiz
	r.POST("/quiz/grade", quizHandler.GradeQuiz)

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/userinfo", authHandler.GetUserInfo)
		protected.PUT("/account/password", authHandler.ChangePassword)
		protected.DELETE("/account", authHandler.DeleteAccount)

		// Course routes
		protected.GET("/courses", courseHandler.GetCourses)
		protected.GET("/courses/:id/lessons", lessonHandler.GetCourseLessons)

		// Quiz routes
		protected.GET("/lessons/:id/quiz", quizHandler.GetQuiz)
		protected.POST("/lessons/:id/quiz/submit", quizHandler.SubmitQuiz)

		// Enrollment routes
		protected.POST("/enrollments", enrollmentHandler.ToggleEnrollment)
	}

	admin := protected.Group("/")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/courses", courseHandler.CreateCourse)
		admin.POST("/lessons", lessonHandler.CreateLesson)

		admin.GET("/admin/courses", courseHandler.GetAdminCourses)
		admin.GET("/admin/enrollments", enrollmentHandler.GetEnrollments)
		admin.GET("/admin/stats", adminHandler.GetStats)
		admin.GET("/admin/users", adminHandler.GetUsers)
		admin.POST("/admin/users/:id/password", adminHandler.ResetPassword)
	}
}
