// Package sqlite is the embedded store used for local runs and tests. It
// mirrors the Postgres store method for method; dates are kept as
// YYYY-MM-DD text and timestamps as fixed-width UTC text.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/query"
)

//go:embed schema.sql
var schema string

type Store struct {
	db  *sql.DB
	Now func() time.Time
}

// Open opens (or creates) the database at dsn and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db, Now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) timestamp() string {
	return formatTimestamp(s.Now())
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(query.TimestampLayout)
}

func parseTimestamp(v string) (time.Time, error) {
	t, err := time.Parse(query.TimestampLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return progress.Day(t).Format(progress.DateLayout)
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(progress.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", v, err)
	}
	return t, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, what)
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %s already exists", models.ErrConflict, what)
	}
	return err
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, email, passwordHash, s.timestamp())
	if err != nil {
		return "", translate(err, "user")
	}
	return id, nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (models.User, error) {
	var u models.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if err != nil {
		return models.User{}, translate(err, "user")
	}
	u.CreatedAt, err = parseTimestamp(createdAt)
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	return s.getUser(ctx, "id = ?", userID)
}

func (s *Store) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, token, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, token, formatTimestamp(expiresAt), s.timestamp())
	return translate(err, "session")
}
