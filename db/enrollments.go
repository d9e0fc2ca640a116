package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eduverse_backend/models"
)

// ToggleEnrollment enrolls the user in the course, or unenrolls them if
// they already were. It reports whether the user is enrolled afterwards.
func ToggleEnrollment(ctx context.Context, conn *sql.DB, userID, courseID int) (bool, error) {
	if _, err := GetCourse(ctx, conn, courseID); err != nil {
		return false, err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var enrollmentID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM enrollments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&enrollmentID)

	enrolled := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2)`,
			userID, courseID,
		); err != nil {
			return false, fmt.Errorf("failed to enroll: %w", err)
		}
		enrolled = true
	case err != nil:
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, enrollmentID); err != nil {
			return false, fmt.Errorf("failed to unenroll: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit enrollment: %w", err)
	}
	return enrolled, nil
}

func ListEnrollments(ctx context.Context, conn *sql.DB) ([]models.Enrollment, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT e.id, e.user_id, e.course_id, u.name, c.title
		FROM enrollments e
		JOIN users u ON e.user_id = u.id
		JOIN courses c ON e.course_id = c.id
		ORDER BY e.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]models.Enrollment, 0)
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.UserName, &e.CourseTitle); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// GetAdminStats counts users, courses and enrollments and breaks the
// enrollments down per course, busiest first.
func GetAdminStats(ctx context.Context, conn *sql.DB) (models.AdminStatsResponse, error) {
	var resp models.AdminStatsResponse
	err := conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM enrollments)
	`).Scan(&resp.Stats.TotalUsers, &resp.Stats.TotalCourses, &resp.Stats.TotalEnrollments)
	if err != nil {
		return resp, fmt.Errorf("failed to count totals: %w", err)
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT c.title, COUNT(e.id) AS enroll_count
		FROM courses c
		LEFT JOIN enrollments e ON e.course_id = c.id
		GROUP BY c.id, c.title
		ORDER BY enroll_count DESC, c.id ASC
	`)
	if err != nil {
		return resp, fmt.Errorf("failed to fetch chart data: %w", err)
	}
	defer rows.Close()

	resp.ChartData = make([]models.CourseEnrollmentCount, 0)
	for rows.Next() {
		var row models.CourseEnrollmentCount
		if err := rows.Scan(&row.CourseTitle, &row.EnrollCount); err != nil {
			return resp, fmt.Errorf("failed to scan chart data: %w", err)
		}
		resp.ChartData = append(resp.ChartData, row)
	}
	return resp, rows.Err()
}
