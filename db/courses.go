package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"eduverse_backend/models"
	"eduverse_backend/quiz"
)

var ErrNotQuiz = errors.New("lesson is not a quiz")

// GetCourse fetches a single course.
func GetCourse(ctx context.Context, conn *sql.DB, courseID int) (models.Course, error) {
	var course models.Course
	err := conn.QueryRowContext(ctx, `
		SELECT id, title, category, image, rating, instructor
		FROM courses
		WHERE id = $1
	`, courseID).Scan(&course.ID, &course.Title, &course.Category, &course.Image, &course.Rating, &course.Instructor)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Course{}, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
	}
	if err != nil {
		return models.Course{}, fmt.Errorf("failed to fetch course %d: %w", courseID, err)
	}
	return course, nil
}

// GetCourseWithLessons returns a course and its lessons in delivery order.
// Quiz lessons come back normalized; one whose content cannot be read is
// returned with no questions and Malformed set, without affecting the
// other lessons.
func GetCourseWithLessons(ctx context.Context, conn *sql.DB, courseID int) (*models.CourseWithLessonsResponse, error) {
	course, err := GetCourse(ctx, conn, courseID)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT id, course_id, title, position, kind, content
		FROM lessons
		WHERE course_id = $1
		ORDER BY position ASC, id ASC
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		var rec models.LessonRecord
		if err := rows.Scan(&rec.ID, &rec.CourseID, &rec.Title, &rec.Position, &rec.Kind, &rec.Content); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lesson, err := deliverLesson(rec)
		if err != nil {
			log.Printf("Lesson %d of course %d: %v", rec.ID, courseID, err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lessons: %w", err)
	}

	return &models.CourseWithLessonsResponse{Course: course, Lessons: lessons}, nil
}

// GetQuizLesson loads one quiz lesson. Besides ErrNotFound and ErrNotQuiz,
// it returns the lesson together with quiz.ErrMalformedContent when the
// stored questions cannot be read.
func GetQuizLesson(ctx context.Context, conn *sql.DB, lessonID int) (models.Lesson, error) {
	var rec models.LessonRecord
	err := conn.QueryRowContext(ctx, `
		SELECT id, course_id, title, position, kind, content
		FROM lessons
		WHERE id = $1
	`, lessonID).Scan(&rec.ID, &rec.CourseID, &rec.Title, &rec.Position, &rec.Kind, &rec.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Lesson{}, fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
	}
	if err != nil {
		return models.Lesson{}, fmt.Errorf("failed to fetch lesson %d: %w", lessonID, err)
	}
	if rec.Kind != models.LessonQuiz {
		return models.Lesson{}, fmt.Errorf("lesson %d: %w", lessonID, ErrNotQuiz)
	}
	return deliverLesson(rec)
}

func deliverLesson(rec models.LessonRecord) (models.Lesson, error) {
	lesson := models.Lesson{
		ID:       rec.ID,
		CourseID: rec.CourseID,
		Title:    rec.Title,
		Position: rec.Position,
		Kind:     rec.Kind,
	}
	if rec.Kind != models.LessonQuiz {
		lesson.VideoURL = rec.Content
		return lesson, nil
	}

	questions, err := quiz.NormalizeJSON([]byte(rec.Content))
	if err != nil {
		lesson.Questions = []quiz.Question{}
		lesson.Malformed = true
		return lesson, err
	}
	lesson.Questions = questions
	return lesson, nil
}

// CreateCourse inserts a course and returns it with its new ID.
func CreateCourse(ctx context.Context, conn *sql.DB, req models.CreateCourseRequest) (models.Course, error) {
	course := models.Course{
		Title:      req.Title,
		Category:   req.Category,
		Image:      req.Image,
		Rating:     req.Rating,
		Instructor: req.Instructor,
	}
	err := conn.QueryRowContext(ctx, `
		INSERT INTO courses (title, category, image, rating, instructor)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, course.Title, course.Category, course.Image, course.Rating, course.Instructor).Scan(&course.ID)
	if err != nil {
		return models.Course{}, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

// CreateLesson stores a lesson. Quiz content must already be encoded as a
// JSON string.
func CreateLesson(ctx context.Context, conn *sql.DB, rec models.LessonRecord) (models.LessonRecord, error) {
	if _, err := GetCourse(ctx, conn, rec.CourseID); err != nil {
		return models.LessonRecord{}, err
	}
	err := conn.QueryRowContext(ctx, `
		INSERT INTO lessons (course_id, title, position, kind, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, rec.CourseID, rec.Title, rec.Position, rec.Kind, rec.Content).Scan(&rec.ID)
	if err != nil {
		return models.LessonRecord{}, fmt.Errorf("failed to create lesson: %w", err)
	}
	return rec, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// searchPattern builds a substring LIKE pattern. Queries using it must
// declare ESCAPE '\'.
func searchPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

// ListCourses returns the student catalog with enrollment counts and the
// caller's own enrollment flag. With enrolledOnly the search is ignored
// and only the caller's courses are returned.
func ListCourses(ctx context.Context, conn *sql.DB, userID int, search string, enrolledOnly bool) ([]models.CourseListing, error) {
	query := `
		SELECT
			c.id, c.title, c.category, c.image, c.rating, c.instructor,
			(SELECT COUNT(*) FROM enrollments e2 WHERE e2.course_id = c.id) AS students,
			CASE WHEN e1.id IS NULL THEN 0 ELSE 1 END AS is_enrolled
		FROM courses c
		LEFT JOIN enrollments e1 ON e1.course_id = c.id AND e1.user_id = $1
	`
	args := []interface{}{userID}
	if enrolledOnly {
		query += " WHERE e1.id IS NOT NULL"
	} else {
		query += ` WHERE (LOWER(c.title) LIKE $2 ESCAPE '\' OR LOWER(c.category) LIKE $2 ESCAPE '\' OR LOWER(c.instructor) LIKE $2 ESCAPE '\')`
		args = append(args, searchPattern(search))
	}
	query += " ORDER BY c.id ASC"

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.CourseListing, 0)
	for rows.Next() {
		var c models.CourseListing
		var enrolled int
		if err := rows.Scan(&c.ID, &c.Title, &c.Category, &c.Image, &c.Rating, &c.Instructor, &c.Students, &enrolled); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		c.IsEnrolled = enrolled == 1
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// ListCoursesForAdmin returns every matching course with its enrollment count.
func ListCoursesForAdmin(ctx context.Context, conn *sql.DB, search string) ([]models.AdminCourseListing, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT
			c.id, c.title, c.category, c.image, c.rating, c.instructor,
			COUNT(e.id) AS enrollments
		FROM courses c
		LEFT JOIN enrollments e ON e.course_id = c.id
		WHERE (LOWER(c.title) LIKE $1 ESCAPE '\' OR LOWER(c.category) LIKE $1 ESCAPE '\' OR LOWER(c.instructor) LIKE $1 ESCAPE '\')
		GROUP BY c.id, c.title, c.category, c.image, c.rating, c.instructor
		ORDER BY c.id ASC
	`, searchPattern(search))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.AdminCourseListing, 0)
	for rows.Next() {
		var c models.AdminCourseListing
		if err := rows.Scan(&c.ID, &c.Title, &c.Category, &c.Image, &c.Rating, &c.Instructor, &c.Enrollments); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
