package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"eduverse_backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedFromCatalog(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	require.NoError(t, SeedFromFile(ctx, conn, filepath.Join("..", "seed", "catalog.yaml")))

	admin, err := GetUserByEmail(ctx, conn, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsVerified)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin")))

	courses, err := ListCoursesForAdmin(ctx, conn, "")
	require.NoError(t, err)
	require.Len(t, courses, 2)

	resp, err := GetCourseWithLessons(ctx, conn, courses[0].ID)
	require.NoError(t, err)
	require.Len(t, resp.Lessons, 3)

	quizLesson := resp.Lessons[1]
	assert.Equal(t, models.LessonQuiz, quizLesson.Kind)
	assert.False(t, quizLesson.Malformed)
	require.Len(t, quizLesson.Questions, 2)
	assert.Equal(t, "What does HTML stand for?", quizLesson.Questions[0].Prompt)
	require.NotNil(t, quizLesson.Questions[0].CorrectIndex)
	assert.Equal(t, 1, *quizLesson.Questions[0].CorrectIndex)
	assert.Equal(t, "HTML is the HyperText Markup Language.", quizLesson.Questions[0].Explanation)

	// Seeding again must not duplicate anything.
	require.NoError(t, SeedFromFile(ctx, conn, filepath.Join("..", "seed", "catalog.yaml")))
	courses, err = ListCoursesForAdmin(ctx, conn, "")
	require.NoError(t, err)
	assert.Len(t, courses, 2)
	users, err := ListUsers(ctx, conn, "")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSeedKeepsVerbatimQuizContent(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
courses:
  - title: Legacy
    category: Misc
    instructor: Someone
    lessons:
      - title: Old quiz
        kind: quiz
        content: '[{"q":"X","opts":["a","b"],"correctAnswer":1}]'
`), 0o600))

	require.NoError(t, SeedFromFile(ctx, conn, path))

	courses, err := ListCoursesForAdmin(ctx, conn, "legacy")
	require.NoError(t, err)
	require.Len(t, courses, 1)

	resp, err := GetCourseWithLessons(ctx, conn, courses[0].ID)
	require.NoError(t, err)
	require.Len(t, resp.Lessons, 1)
	require.Len(t, resp.Lessons[0].Questions, 1)
	assert.Equal(t, 1, *resp.Lessons[0].Questions[0].CorrectIndex)
}

func TestSeedFromFileMissing(t *testing.T) {
	conn := openTestDB(t)
	assert.Error(t, SeedFromFile(context.Background(), conn, filepath.Join(t.TempDir(), "nope.yaml")))
}
