package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"eduverse_backend/models"
	"eduverse_backend/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		DSN:    "file::memory:?_pragma=foreign_keys(1)",
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func mustCourse(t *testing.T, conn *sql.DB, title, category, instructor string) models.Course {
	t.Helper()
	course, err := CreateCourse(context.Background(), conn, models.CreateCourseRequest{
		Title:      title,
		Category:   category,
		Instructor: instructor,
		Rating:     4.5,
	})
	require.NoError(t, err)
	return course
}

func mustLesson(t *testing.T, conn *sql.DB, courseID, position int, kind models.LessonKind, title, content string) models.LessonRecord {
	t.Helper()
	rec, err := CreateLesson(context.Background(), conn, models.LessonRecord{
		CourseID: courseID,
		Title:    title,
		Position: position,
		Kind:     kind,
		Content:  content,
	})
	require.NoError(t, err)
	return rec
}

func mustStudent(t *testing.T, conn *sql.DB, name, email string) int {
	t.Helper()
	id, err := CreateUser(context.Background(), conn, name, email, "hash", models.RoleStudent)
	require.NoError(t, err)
	return id
}

func TestConnString(t *testing.T) {
	assert.Equal(t, "custom", Config{Driver: DriverPgx, DSN: "custom"}.ConnString())
	assert.Equal(t,
		"postgresql://u:p@h:5432/app?sslmode=disable",
		Config{Driver: DriverPostgres, Host: "h", Port: 5432, User: "u", Password: "p", DBName: "app"}.ConnString())
	assert.Equal(t,
		"file:app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		Config{Driver: DriverSQLite, DBName: "app"}.ConnString())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	assert.Error(t, err)
}

func TestGetCourseWithLessons(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	course := mustCourse(t, conn, "Go", "Development", "Rob")
	mustLesson(t, conn, course.ID, 2, models.LessonVideo, "Intro video", "https://example.com/v")
	mustLesson(t, conn, course.ID, 1, models.LessonQuiz, "Warm-up", `[{"q":"X","opts":["a","b"],"ans":0}]`)
	mustLesson(t, conn, course.ID, 3, models.LessonQuiz, "Broken", `{not json`)
	mustLesson(t, conn, course.ID, 4, models.LessonQuiz, "Not a list", `{"q":"X"}`)

	resp, err := GetCourseWithLessons(ctx, conn, course.ID)
	require.NoError(t, err)
	assert.Equal(t, course, resp.Course)
	require.Len(t, resp.Lessons, 4)

	warmUp := resp.Lessons[0]
	assert.Equal(t, "Warm-up", warmUp.Title)
	assert.False(t, warmUp.Malformed)
	require.Len(t, warmUp.Questions, 1)
	assert.Equal(t, "X", warmUp.Questions[0].Prompt)
	require.NotNil(t, warmUp.Questions[0].CorrectIndex)
	assert.Equal(t, 0, *warmUp.Questions[0].CorrectIndex)

	video := resp.Lessons[1]
	assert.Equal(t, models.LessonVideo, video.Kind)
	assert.Equal(t, "https://example.com/v", video.VideoURL)
	assert.Nil(t, video.Questions)

	for _, broken := range resp.Lessons[2:] {
		assert.True(t, broken.Malformed, broken.Title)
		assert.Empty(t, broken.Questions, broken.Title)
	}
}

func TestGetCourseWithLessonsOrdersTiesByID(t *testing.T) {
	conn := openTestDB(t)
	course := mustCourse(t, conn, "Go", "Development", "Rob")
	first := mustLesson(t, conn, course.ID, 1, models.LessonVideo, "A", "a")
	second := mustLesson(t, conn, course.ID, 1, models.LessonVideo, "B", "b")

	resp, err := GetCourseWithLessons(context.Background(), conn, course.ID)
	require.NoError(t, err)
	require.Len(t, resp.Lessons, 2)
	assert.Equal(t, first.ID, resp.Lessons[0].ID)
	assert.Equal(t, second.ID, resp.Lessons[1].ID)
}

func TestGetCourseWithLessonsNotFound(t *testing.T) {
	conn := openTestDB(t)
	_, err := GetCourseWithLessons(context.Background(), conn, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, quiz.ErrMalformedContent)
}

func TestGetQuizLesson(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	course := mustCourse(t, conn, "Go", "Development", "Rob")
	video := mustLesson(t, conn, course.ID, 1, models.LessonVideo, "Video", "https://example.com/v")
	good := mustLesson(t, conn, course.ID, 2, models.LessonQuiz, "Quiz", `"[{\"q\":\"X\",\"opts\":[\"a\"],\"answer\":0}]"`)
	bad := mustLesson(t, conn, course.ID, 3, models.LessonQuiz, "Bad", `{not json`)

	lesson, err := GetQuizLesson(ctx, conn, good.ID)
	require.NoError(t, err)
	assert.Len(t, lesson.Questions, 1)

	_, err = GetQuizLesson(ctx, conn, video.ID)
	assert.ErrorIs(t, err, ErrNotQuiz)

	_, err = GetQuizLesson(ctx, conn, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	lesson, err = GetQuizLesson(ctx, conn, bad.ID)
	assert.ErrorIs(t, err, quiz.ErrMalformedContent)
	assert.True(t, lesson.Malformed)
	assert.Equal(t, bad.ID, lesson.ID)
}

func TestCreateLessonUnknownCourse(t *testing.T) {
	conn := openTestDB(t)
	_, err := CreateLesson(context.Background(), conn, models.LessonRecord{
		CourseID: 7, Title: "Orphan", Kind: models.LessonVideo, Content: "x",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleEnrollment(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	course := mustCourse(t, conn, "Go", "Development", "Rob")
	userID := mustStudent(t, conn, "Ada", "ada@example.com")

	enrolled, err := ToggleEnrollment(ctx, conn, userID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	enrollments, err := ListEnrollments(ctx, conn)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "Ada", enrollments[0].UserName)
	assert.Equal(t, "Go", enrollments[0].CourseTitle)

	enrolled, err = ToggleEnrollment(ctx, conn, userID, course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	enrollments, err = ListEnrollments(ctx, conn)
	require.NoError(t, err)
	assert.Empty(t, enrollments)

	_, err = ToggleEnrollment(ctx, conn, userID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCourses(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	goCourse := mustCourse(t, conn, "Go Basics", "Development", "Rob Pike")
	pyCourse := mustCourse(t, conn, "Pandas", "Data Science", "Wes")
	ada := mustStudent(t, conn, "Ada", "ada@example.com")
	bob := mustStudent(t, conn, "Bob", "bob@example.com")

	_, err := ToggleEnrollment(ctx, conn, ada, goCourse.ID)
	require.NoError(t, err)
	_, err = ToggleEnrollment(ctx, conn, bob, goCourse.ID)
	require.NoError(t, err)

	all, err := ListCourses(ctx, conn, ada, "", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[0].Students)
	assert.True(t, all[0].IsEnrolled)
	assert.Equal(t, 0, all[1].Students)
	assert.False(t, all[1].IsEnrolled)

	byInstructor, err := ListCourses(ctx, conn, ada, "  PIKE ", false)
	require.NoError(t, err)
	require.Len(t, byInstructor, 1)
	assert.Equal(t, goCourse.ID, byInstructor[0].ID)

	byCategory, err := ListCourses(ctx, conn, ada, "science", false)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, pyCourse.ID, byCategory[0].ID)

	mine, err := ListCourses(ctx, conn, ada, "pandas", true)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, goCourse.ID, mine[0].ID)

	admin, err := ListCoursesForAdmin(ctx, conn, "")
	require.NoError(t, err)
	require.Len(t, admin, 2)
	assert.Equal(t, 2, admin[0].Enrollments)
	assert.Equal(t, 0, admin[1].Enrollments)
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	percent := mustCourse(t, conn, "100% Go", "Development", "Rob")
	snake := mustCourse(t, conn, "snake_case naming", "Style", "Ken")
	mustCourse(t, conn, "Go Basics", "Development", "Rob")
	ada := mustStudent(t, conn, "Ada", "a_b@example.com")
	mustStudent(t, conn, "Bob", "axb@example.com")

	courses, err := ListCourses(ctx, conn, ada, "%", false)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, percent.ID, courses[0].ID)

	admin, err := ListCoursesForAdmin(ctx, conn, "_")
	require.NoError(t, err)
	require.Len(t, admin, 1)
	assert.Equal(t, snake.ID, admin[0].ID)

	users, err := ListUsers(ctx, conn, "a_b")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ada, users[0].ID)

	users, err = ListUsers(ctx, conn, `\`)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestGetAdminStats(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	quiet := mustCourse(t, conn, "Quiet", "Misc", "X")
	busy := mustCourse(t, conn, "Busy", "Misc", "Y")
	ada := mustStudent(t, conn, "Ada", "ada@example.com")
	bob := mustStudent(t, conn, "Bob", "bob@example.com")
	for _, id := range []int{ada, bob} {
		_, err := ToggleEnrollment(ctx, conn, id, busy.ID)
		require.NoError(t, err)
	}
	_, err := ToggleEnrollment(ctx, conn, ada, quiet.ID)
	require.NoError(t, err)

	stats, err := GetAdminStats(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, models.AdminStats{TotalUsers: 2, TotalCourses: 2, TotalEnrollments: 3}, stats.Stats)
	assert.Equal(t, []models.CourseEnrollmentCount{
		{CourseTitle: "Busy", EnrollCount: 2},
		{CourseTitle: "Quiet", EnrollCount: 1},
	}, stats.ChartData)
}

func TestPendingUserLifecycle(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	expiry := time.Date(2024, 5, 1, 12, 10, 0, 0, time.UTC)

	id, err := CreatePendingUser(ctx, conn, "Ada", "ada@example.com", "hash", "123456", expiry)
	require.NoError(t, err)

	_, err = CreatePendingUser(ctx, conn, "Ada again", "ada@example.com", "hash", "654321", expiry)
	assert.ErrorIs(t, err, ErrConflict)

	user, err := GetUserByEmail(ctx, conn, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.OTP)
	assert.Equal(t, "123456", *user.OTP)
	require.NotNil(t, user.OTPExpiry)
	assert.True(t, expiry.Equal(*user.OTPExpiry))

	require.NoError(t, MarkVerified(ctx, conn, id))
	user, err = GetUserByID(ctx, conn, id)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Nil(t, user.OTP)
	assert.Nil(t, user.OTPExpiry)

	n, err := DeleteExpiredPendingUsers(ctx, conn, expiry.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "verified users are never purged")
}

func TestCreatePendingUserConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	expiry := time.Now().Add(10 * time.Minute)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = CreatePendingUser(ctx, conn, fmt.Sprintf("Ada %d", i), "ada@example.com", "hash", "123456", expiry)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, created)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	course := mustCourse(t, conn, "Go", "Development", "Rob")
	id := mustStudent(t, conn, "Ada", "ada@example.com")
	_, err := ToggleEnrollment(ctx, conn, id, course.ID)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(ctx, conn, id, "tok", time.Now().Add(time.Hour)))

	require.NoError(t, DeleteUser(ctx, conn, id))

	_, err = GetUserByID(ctx, conn, id)
	assert.ErrorIs(t, err, ErrNotFound)
	enrollments, err := ListEnrollments(ctx, conn)
	require.NoError(t, err)
	assert.Empty(t, enrollments)

	assert.ErrorIs(t, DeleteUser(ctx, conn, id), ErrNotFound)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	id := mustStudent(t, conn, "Ada", "ada@example.com")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, SaveRefreshToken(ctx, conn, id, "live", now.Add(time.Hour)))
	require.NoError(t, SaveRefreshToken(ctx, conn, id, "stale", now.Add(-time.Hour)))

	userID, err := ValidRefreshToken(ctx, conn, "live", now)
	require.NoError(t, err)
	assert.Equal(t, id, userID)

	_, err = ValidRefreshToken(ctx, conn, "stale", now)
	assert.ErrorIs(t, err, ErrNotFound)

	other := mustStudent(t, conn, "Bob", "bob@example.com")
	require.NoError(t, DeleteUserRefreshToken(ctx, conn, other, "live"))
	userID, err = ValidRefreshToken(ctx, conn, "live", now)
	require.NoError(t, err, "another user cannot revoke the token")
	assert.Equal(t, id, userID)

	require.NoError(t, DeleteUserRefreshToken(ctx, conn, id, "live"))
	_, err = ValidRefreshToken(ctx, conn, "live", now)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SaveRefreshToken(ctx, conn, id, "again", now.Add(time.Hour)))
	require.NoError(t, DeleteRefreshToken(ctx, conn, "again"))
	_, err = ValidRefreshToken(ctx, conn, "again", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsersAndUpdatePassword(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	ada := mustStudent(t, conn, "Ada Lovelace", "ada@example.com")
	mustStudent(t, conn, "Bob", "bob@example.org")

	users, err := ListUsers(ctx, conn, "LOVELACE")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ada, users[0].ID)

	users, err = ListUsers(ctx, conn, "example")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, UpdatePassword(ctx, conn, ada, "new-hash"))
	user, err := GetUserByID(ctx, conn, ada)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", user.PasswordHash)

	assert.ErrorIs(t, UpdatePassword(ctx, conn, 999, "x"), ErrNotFound)
}
