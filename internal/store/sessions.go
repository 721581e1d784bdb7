package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sessionColumns = "id, user_id, expires_at, created_at"

func scanSession(row rowScanner) (*Session, error) {
	var session Session
	if err := row.Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (*Session, error) {
	now := s.now()
	query := "INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?) RETURNING " + sessionColumns
	session, err := scanSession(s.db.QueryRowContext(ctx, s.rebind(query),
		uuid.NewString(), userID, now.Add(ttl), now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return session, nil
}

// GetSession returns nil, nil for unknown and for expired sessions.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE id = ? AND expires_at > ?"
	session, err := scanSession(s.db.QueryRowContext(ctx, s.rebind(query), id, s.now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM sessions WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PruneSessions removes expired sessions and reports how many were deleted.
func (s *Store) PruneSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM sessions WHERE expires_at <= ?"), s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected, nil
}
