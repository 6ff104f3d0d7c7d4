package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/buildmart/haggle/internal/domain"
)

// SessionStore persists the single active session across process restarts.
// Presence of a stored session is the sole source of truth for "logged in".
type SessionStore interface {
	// Save persists the session atomically, replacing any previous one.
	Save(sess domain.Session) error

	// Load returns the active session, or nil if none is stored.
	// An absent session is not an error.
	Load() (*domain.Session, error)

	// Clear removes the active session. Clearing an empty store is a no-op.
	Clear() error
}

// SQLiteSessionStore implements SessionStore backed by SQLite.
// The session lives in a single fixed row, so a save either fully
// replaces the slot or leaves it untouched.
type SQLiteSessionStore struct {
	db *DB
}

// NewSQLiteSessionStore creates a session store using the given database.
func NewSQLiteSessionStore(db *DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Save persists the session, replacing any previous one.
func (s *SQLiteSessionStore) Save(sess domain.Session) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO active_session (id, session_token, builder_name, saved_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   session_token = excluded.session_token,
		   builder_name = excluded.builder_name,
		   saved_at = excluded.saved_at`,
		sess.Token, sess.BuilderName, time.Now().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	s.db.log.Info().Str("builder", sess.BuilderName).Msg("session saved")
	return nil
}

// Load returns the active session, or nil if none is stored.
func (s *SQLiteSessionStore) Load() (*domain.Session, error) {
	var sess domain.Session
	err := s.db.sql.QueryRow(
		`SELECT session_token, builder_name FROM active_session WHERE id = 1`,
	).Scan(&sess.Token, &sess.BuilderName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return &sess, nil
}

// Clear removes the active session.
func (s *SQLiteSessionStore) Clear() error {
	_, err := s.db.sql.Exec(`DELETE FROM active_session`)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	s.db.log.Info().Msg("session cleared")
	return nil
}
