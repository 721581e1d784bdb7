package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const researchNoteColumns = "id, user_id, title, content, country, topic, tags, created_at, updated_at"

func scanResearchNote(row rowScanner) (*ResearchNote, error) {
	var note ResearchNote
	var country, topic sql.NullString
	var tags []byte
	if err := row.Scan(&note.ID, &note.UserID, &note.Title, &note.Content,
		&country, &topic, &tags, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return nil, err
	}
	note.Country = nullableString(country)
	note.Topic = nullableString(topic)

	decoded, err := decodeTags(tags)
	if err != nil {
		return nil, err
	}
	note.Tags = decoded
	return &note, nil
}

func (s *Store) GetResearchNote(ctx context.Context, id int64) (*ResearchNote, error) {
	query := "SELECT " + researchNoteColumns + " FROM research_notes WHERE id = ?"
	note, err := scanResearchNote(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get research note: %w", err)
	}
	return note, nil
}

func (s *Store) ListResearchNotesByUser(ctx context.Context, userID int64) ([]ResearchNote, error) {
	query := "SELECT " + researchNoteColumns + " FROM research_notes WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query research notes: %w", err)
	}
	defer rows.Close()

	notes := []ResearchNote{}
	for rows.Next() {
		note, err := scanResearchNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan research note row: %w", err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate research notes: %w", err)
	}
	return notes, nil
}

func (s *Store) CreateResearchNote(ctx context.Context, in *NewResearchNote) (*ResearchNote, error) {
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	now := s.now()
	query := "INSERT INTO research_notes (user_id, title, content, country, topic, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING " + researchNoteColumns
	note, err := scanResearchNote(s.db.QueryRowContext(ctx, s.rebind(query),
		in.UserID, in.Title, in.Content, in.Country, in.Topic, tags, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert research note: %w", err)
	}
	return note, nil
}

func (s *Store) UpdateResearchNote(ctx context.Context, id int64, patch *ResearchNotePatch) (*ResearchNote, error) {
	var a assignments
	a.setString("title", patch.Title)
	a.setString("content", patch.Content)
	a.setString("country", patch.Country)
	a.setString("topic", patch.Topic)
	if patch.Tags != nil {
		tags, err := encodeTags(patch.Tags)
		if err != nil {
			return nil, err
		}
		a.set("tags", tags)
	}
	a.set("updated_at", s.now())

	note, err := scanResearchNote(s.updateReturning(ctx, "research_notes", id, &a, researchNoteColumns))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update research note: %w", err)
	}
	return note, nil
}

func (s *Store) DeleteResearchNote(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "research_notes", id)
}
