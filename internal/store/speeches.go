package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const speechColumns = "id, user_id, title, content, committee, type, created_at, updated_at"

func scanSpeech(row rowScanner) (*Speech, error) {
	var speech Speech
	var committee, speechType sql.NullString
	if err := row.Scan(&speech.ID, &speech.UserID, &speech.Title, &speech.Content,
		&committee, &speechType, &speech.CreatedAt, &speech.UpdatedAt); err != nil {
		return nil, err
	}
	speech.Committee = nullableString(committee)
	speech.Type = nullableString(speechType)
	return &speech, nil
}

func (s *Store) GetSpeech(ctx context.Context, id int64) (*Speech, error) {
	query := "SELECT " + speechColumns + " FROM speeches WHERE id = ?"
	speech, err := scanSpeech(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get speech: %w", err)
	}
	return speech, nil
}

func (s *Store) ListSpeechesByUser(ctx context.Context, userID int64) ([]Speech, error) {
	query := "SELECT " + speechColumns + " FROM speeches WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query speeches: %w", err)
	}
	defer rows.Close()

	speeches := []Speech{}
	for rows.Next() {
		speech, err := scanSpeech(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan speech row: %w", err)
		}
		speeches = append(speeches, *speech)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate speeches: %w", err)
	}
	return speeches, nil
}

func (s *Store) CreateSpeech(ctx context.Context, in *NewSpeech) (*Speech, error) {
	now := s.now()
	query := "INSERT INTO speeches (user_id, title, content, committee, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING " + speechColumns
	speech, err := scanSpeech(s.db.QueryRowContext(ctx, s.rebind(query),
		in.UserID, in.Title, in.Content, in.Committee, in.Type, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert speech: %w", err)
	}
	return speech, nil
}

// UpdateSpeech always refreshes updated_at. It returns nil, nil when no
// row matched.
func (s *Store) UpdateSpeech(ctx context.Context, id int64, patch *SpeechPatch) (*Speech, error) {
	var a assignments
	a.setString("title", patch.Title)
	a.setString("content", patch.Content)
	a.setString("committee", patch.Committee)
	a.setString("type", patch.Type)
	a.set("updated_at", s.now())

	speech, err := scanSpeech(s.updateReturning(ctx, "speeches", id, &a, speechColumns))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update speech: %w", err)
	}
	return speech, nil
}

func (s *Store) DeleteSpeech(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "speeches", id)
}
