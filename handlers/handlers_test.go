package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"eduverse_backend/db"
	"eduverse_backend/models"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.Config{
		Driver: db.DriverSQLite,
		DSN:    "file::memory:?_pragma=foreign_keys(1)",
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// asUser stands in for AuthMiddleware.
func asUser(userID int, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

// newJSONRequest encodes body unless it is already a string.
func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(r, newJSONRequest(t, method, path, body))
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func seedCourse(t *testing.T, conn *sql.DB) models.Course {
	t.Helper()
	course, err := db.CreateCourse(context.Background(), conn, models.CreateCourseRequest{
		Title: "Arithmetic", Category: "Math", Instructor: "Euclid",
	})
	require.NoError(t, err)
	return course
}

func seedLesson(t *testing.T, conn *sql.DB, courseID, position int, kind models.LessonKind, content string) int {
	t.Helper()
	rec, err := db.CreateLesson(context.Background(), conn, models.LessonRecord{
		CourseID: courseID, Title: string(kind), Position: position, Kind: kind, Content: content,
	})
	require.NoError(t, err)
	return rec.ID
}
