package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = "id, username, email, password, name, google_id, created_at"

func scanUser(row rowScanner) (*User, error) {
	var user User
	var name, googleID sql.NullString
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &name, &googleID, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Name = nullableString(name)
	user.GoogleID = nullableString(googleID)
	return &user, nil
}

func (s *Store) getUserBy(ctx context.Context, column string, value any) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s = ?", userColumns, column)
	user, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(query), value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user by %s: %w", column, err)
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUserBy(ctx, "username", username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUserBy(ctx, "email", email)
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*User, error) {
	return s.getUserBy(ctx, "google_id", googleID)
}

func (s *Store) CreateUser(ctx context.Context, in *NewUser) (*User, error) {
	query := "INSERT INTO users (username, email, password, name, google_id, created_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING " + userColumns
	user, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(query),
		in.Username, in.Email, in.PasswordHash, in.Name, in.GoogleID, s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// UpdateUser returns nil, nil when no user has the given id.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch *UserPatch) (*User, error) {
	var a assignments
	a.setString("username", patch.Username)
	a.setString("email", patch.Email)
	a.setString("password", patch.PasswordHash)
	a.setString("name", patch.Name)
	a.setString("google_id", patch.GoogleID)
	if a.empty() {
		return s.GetUser(ctx, id)
	}

	user, err := scanUser(s.updateReturning(ctx, "users", id, &a, userColumns))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
