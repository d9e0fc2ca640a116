package jobs

import (
	"context"
	"testing"
	"time"

	"eduverse_backend/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeExpiredRegistrations(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{Driver: db.DriverSQLite, DSN: "file::memory:?_pragma=foreign_keys(1)"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_, err = db.CreatePendingUser(ctx, conn, "Stale", "stale@example.com", "hash", "111111", now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = db.CreatePendingUser(ctx, conn, "Fresh", "fresh@example.com", "hash", "222222", now.Add(5*time.Minute))
	require.NoError(t, err)

	s := NewScheduler(conn)
	s.now = func() time.Time { return now }

	n, err := s.PurgeExpiredRegistrations(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = db.GetUserByEmail(ctx, conn, "stale@example.com")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = db.GetUserByEmail(ctx, conn, "fresh@example.com")
	assert.NoError(t, err)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(nil)
	assert.Error(t, s.Start("not a schedule"))
}
