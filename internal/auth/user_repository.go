package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBTX is the subset of database/sql methods the repositories need.
// Both *sql.DB and *sql.Tx satisfy it, so registration can run the
// user, device and schedule inserts inside a single transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, db DBTX, user *User) error
	GetByID(ctx context.Context, db DBTX, id string) (*User, error)
	GetByEmail(ctx context.Context, db DBTX, email string) (*User, error)
	ListByRole(ctx context.Context, db DBTX, role Role) ([]User, error)
	SetDevice(ctx context.Context, db DBTX, userID, deviceRef string) error
	UpdateProfile(ctx context.Context, db DBTX, user *User) error
	UpdatePassword(ctx context.Context, db DBTX, id, passwordHash string) error
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct{}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository() *SQLiteUserRepository {
	return &SQLiteUserRepository{}
}

const userColumns = "id, name, email, password_hash, role, device_ref, created_at, updated_at"

// Create inserts a new user account. The ID is generated if empty.
// Emails are stored lowercased and must be unique.
func (r *SQLiteUserRepository) Create(ctx context.Context, db DBTX, user *User) error {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()[:8]
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	now := time.Now().UTC().Format(time.RFC3339)
	user.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	user.UpdatedAt = user.CreatedAt

	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, device_ref, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash,
		string(user.Role), nullString(user.DeviceRef), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, db DBTX, id string) (*User, error) {
	return r.getUser(ctx, db, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a user by their email address (case-insensitive).
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, db DBTX, email string) (*User, error) {
	return r.getUser(ctx, db, "SELECT "+userColumns+" FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)))
}

// ListByRole returns all users with the given role, ordered by creation date.
func (r *SQLiteUserRepository) ListByRole(ctx context.Context, db DBTX, role Role) ([]User, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = ? ORDER BY created_at ASC", string(role))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUserFrom(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

// SetDevice links a user account to its device record.
func (r *SQLiteUserRepository) SetDevice(ctx context.Context, db DBTX, userID, deviceRef string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := db.ExecContext(ctx,
		`UPDATE users SET device_ref = ?, updated_at = ? WHERE id = ?`,
		deviceRef, now, userID,
	)
	if err != nil {
		return fmt.Errorf("linking device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile modifies a user's mutable fields (name, email).
func (r *SQLiteUserRepository) UpdateProfile(ctx context.Context, db DBTX, user *User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	now := time.Now().UTC().Format(time.RFC3339)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		user.Name, user.Email, now, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("updating user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword changes a user's password hash.
func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, db DBTX, id, passwordHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// getUser executes a query and scans a single user result.
func (r *SQLiteUserRepository) getUser(ctx context.Context, db DBTX, query string, args ...any) (*User, error) {
	row := db.QueryRowContext(ctx, query, args...)
	return scanUserFrom(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanUserFrom scans a user from any scanner (Row or Rows).
func scanUserFrom(s scanner) (*User, error) {
	var u User
	var deviceRef sql.NullString
	var role string
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&role, &deviceRef, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = Role(role)
	if deviceRef.Valid {
		u.DeviceRef = deviceRef.String
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
