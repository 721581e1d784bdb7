package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const resolutionColumns = "id, user_id, title, content, committee, created_at, updated_at"

func scanResolution(row rowScanner) (*Resolution, error) {
	var resolution Resolution
	var committee sql.NullString
	if err := row.Scan(&resolution.ID, &resolution.UserID, &resolution.Title, &resolution.Content,
		&committee, &resolution.CreatedAt, &resolution.UpdatedAt); err != nil {
		return nil, err
	}
	resolution.Committee = nullableString(committee)
	return &resolution, nil
}

func (s *Store) GetResolution(ctx context.Context, id int64) (*Resolution, error) {
	query := "SELECT " + resolutionColumns + " FROM resolutions WHERE id = ?"
	resolution, err := scanResolution(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resolution: %w", err)
	}
	return resolution, nil
}

func (s *Store) ListResolutionsByUser(ctx context.Context, userID int64) ([]Resolution, error) {
	query := "SELECT " + resolutionColumns + " FROM resolutions WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := []Resolution{}
	for rows.Next() {
		resolution, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution row: %w", err)
		}
		resolutions = append(resolutions, *resolution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolutions: %w", err)
	}
	return resolutions, nil
}

func (s *Store) CreateResolution(ctx context.Context, in *NewResolution) (*Resolution, error) {
	now := s.now()
	query := "INSERT INTO resolutions (user_id, title, content, committee, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING " + resolutionColumns
	resolution, err := scanResolution(s.db.QueryRowContext(ctx, s.rebind(query),
		in.UserID, in.Title, in.Content, in.Committee, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert resolution: %w", err)
	}
	return resolution, nil
}

func (s *Store) UpdateResolution(ctx context.Context, id int64, patch *ResolutionPatch) (*Resolution, error) {
	var a assignments
	a.setString("title", patch.Title)
	a.setString("content", patch.Content)
	a.setString("committee", patch.Committee)
	a.set("updated_at", s.now())

	resolution, err := scanResolution(s.updateReturning(ctx, "resolutions", id, &a, resolutionColumns))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update resolution: %w", err)
	}
	return resolution, nil
}

func (s *Store) DeleteResolution(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "resolutions", id)
}
