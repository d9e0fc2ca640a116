package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eduverse_backend/models"
)

const userColumns = `id, name, email, password_hash, role, is_verified, otp, otp_expiry`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	var otp sql.NullString
	var expiry sql.NullTime
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsVerified, &otp, &expiry); err != nil {
		return models.User{}, err
	}
	if otp.Valid {
		u.OTP = &otp.String
	}
	if expiry.Valid {
		u.OTPExpiry = &expiry.Time
	}
	return u, nil
}

func GetUserByEmail(ctx context.Context, conn *sql.DB, email string) (models.User, error) {
	u, err := scanUser(conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

func GetUserByID(ctx context.Context, conn *sql.DB, id int) (models.User, error) {
	u, err := scanUser(conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

// CreatePendingUser inserts an unverified student holding a fresh OTP. A
// taken email, including one claimed by a concurrent insert, yields
// ErrConflict.
func CreatePendingUser(ctx context.Context, conn *sql.DB, name, email, passwordHash, otp string, expiry time.Time) (int, error) {
	var id int
	err := conn.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, is_verified, otp, otp_expiry)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`, name, email, passwordHash, models.RoleStudent, otp, expiry.UTC()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("email %q: %w", email, ErrConflict)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// CreateUser inserts an already verified user with the given role.
func CreateUser(ctx context.Context, conn *sql.DB, name, email, passwordHash, role string) (int, error) {
	var id int
	err := conn.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, is_verified)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`, name, email, passwordHash, role).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// MarkVerified sets the verified flag and clears the OTP fields.
func MarkVerified(ctx context.Context, conn *sql.DB, userID int) error {
	_, err := conn.ExecContext(ctx, `
		UPDATE users SET is_verified = TRUE, otp = NULL, otp_expiry = NULL WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}
	return nil
}

func UpdatePassword(ctx context.Context, conn *sql.DB, userID int, passwordHash string) error {
	result, err := conn.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectRow(result, fmt.Sprintf("user %d", userID))
}

// DeleteUser removes a user's enrollments and then the user.
func DeleteUser(ctx context.Context, conn *sql.DB, userID int) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete enrollments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := expectRow(result, fmt.Sprintf("user %d", userID)); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteExpiredPendingUsers removes unverified accounts whose OTP expired
// before now, freeing their email for a new registration.
func DeleteExpiredPendingUsers(ctx context.Context, conn *sql.DB, now time.Time) (int64, error) {
	result, err := conn.ExecContext(ctx, `
		DELETE FROM users WHERE is_verified = FALSE AND otp_expiry IS NOT NULL AND otp_expiry < $1
	`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired registrations: %w", err)
	}
	return result.RowsAffected()
}

// ListUsers returns users whose name or email contains search.
func ListUsers(ctx context.Context, conn *sql.DB, search string) ([]models.UserProfile, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT id, name, email, role
		FROM users
		WHERE LOWER(name) LIKE $1 ESCAPE '\' OR LOWER(email) LIKE $1 ESCAPE '\'
		ORDER BY id ASC
	`, searchPattern(search))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer rows.Close()

	users := make([]models.UserProfile, 0)
	for rows.Next() {
		var u models.UserProfile
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveRefreshToken, ValidRefreshToken and the delete helpers back the token service.

func SaveRefreshToken(ctx context.Context, conn *sql.DB, userID int, token string, expiresAt time.Time) error {
	_, err := conn.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		userID, token, expiresAt.UTC(),
	)
	return err
}

func ValidRefreshToken(ctx context.Context, conn *sql.DB, token string, now time.Time) (int, error) {
	var userID int
	err := conn.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens WHERE token = $1 AND expires_at > $2`,
		token, now.UTC(),
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return userID, err
}

func DeleteRefreshToken(ctx context.Context, conn *sql.DB, token string) error {
	_, err := conn.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}

// DeleteUserRefreshToken removes token only if it belongs to userID.
func DeleteUserRefreshToken(ctx context.Context, conn *sql.DB, userID int, token string) error {
	_, err := conn.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1 AND user_id = $2`, token, userID)
	return err
}

func DeleteRefreshTokensForUser(ctx context.Context, conn *sql.DB, userID int) error {
	_, err := conn.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

func expectRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to verify update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
