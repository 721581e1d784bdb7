package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const conversationColumns = "id, user_id, title, messages, created_at, updated_at"

func scanConversation(row rowScanner) (*Conversation, error) {
	var conv Conversation
	var messages []byte
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &messages, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	decoded, err := decodeMessages(messages)
	if err != nil {
		return nil, err
	}
	conv.Messages = decoded
	return &conv, nil
}

func (s *Store) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	query := "SELECT " + conversationColumns + " FROM conversations WHERE id = ?"
	conv, err := scanConversation(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

func (s *Store) ListConversationsByUser(ctx context.Context, userID int64) ([]Conversation, error) {
	query := "SELECT " + conversationColumns + " FROM conversations WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := []Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conversations = append(conversations, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return conversations, nil
}

func (s *Store) CreateConversation(ctx context.Context, in *NewConversation) (*Conversation, error) {
	messages, err := encodeMessages(in.Messages)
	if err != nil {
		return nil, err
	}

	now := s.now()
	query := "INSERT INTO conversations (user_id, title, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING " + conversationColumns
	conv, err := scanConversation(s.db.QueryRowContext(ctx, s.rebind(query),
		in.UserID, in.Title, messages, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return conv, nil
}

// UpdateConversation replaces the stored message sequence wholesale when
// patch.Messages is set; concurrent writers to one row are last-write-wins.
func (s *Store) UpdateConversation(ctx context.Context, id int64, patch *ConversationPatch) (*Conversation, error) {
	var a assignments
	a.set("updated_at", s.now())
	a.setString("title", patch.Title)
	if patch.Messages != nil {
		messages, err := encodeMessages(patch.Messages)
		if err != nil {
			return nil, err
		}
		a.set("messages", messages)
	}

	conv, err := scanConversation(s.updateReturning(ctx, "conversations", id, &a, conversationColumns))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return conv, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "conversations", id)
}
