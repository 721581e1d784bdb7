package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/unova-mun/unova-server/internal/logger"
	"github.com/unova-mun/unova-server/internal/store"
	"github.com/unova-mun/unova-server/internal/utils"
)

const (
	conversationSystemPrompt = "You are UNova, a helpful assistant for Model UN delegates."
	titleLength              = 50
	previewLength            = 100
)

// Completer produces the assistant's reply for a conversation so far.
type Completer interface {
	GenerateReply(ctx context.Context, history []store.Message, assistanceType string) (string, error)
}

type ConversationStore interface {
	GetConversation(ctx context.Context, id int64) (*store.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID int64) ([]store.Conversation, error)
	CreateConversation(ctx context.Context, in *store.NewConversation) (*store.Conversation, error)
	UpdateConversation(ctx context.Context, id int64, patch *store.ConversationPatch) (*store.Conversation, error)
	DeleteConversation(ctx context.Context, id int64) (bool, error)
}

type ChatService struct {
	store     ConversationStore
	completer Completer
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

func NewChatService(db ConversationStore, completer Completer, log *logger.Logger) *ChatService {
	return &ChatService{
		store:     db,
		completer: completer,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     shortuuid.New,
	}
}

type ChatTurn struct {
	UserID         int64
	Message        string
	AssistanceType string
	ConversationID *int64 // nil starts a new conversation
}

type ChatTurnResult struct {
	ConversationID int64           `json:"conversationId"`
	Messages       []store.Message `json:"messages"`
}

type ConversationSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Preview   string    `json:"preview"`
}

func (s *ChatService) newMessage(role store.Role, content string) store.Message {
	return store.Message{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
}

// HandleChatTurn appends the user's message, asks the completer for a
// reply and stores both. If generation fails nothing is written: a new
// conversation is not created and an existing one keeps its pre-turn
// messages.
func (s *ChatService) HandleChatTurn(ctx context.Context, turn ChatTurn) (*ChatTurnResult, error) {
	if strings.TrimSpace(turn.Message) == "" {
		return nil, invalid("Message is required")
	}

	userMsg := s.newMessage(store.RoleUser, turn.Message)

	var existing *store.Conversation
	var messages []store.Message
	if turn.ConversationID != nil {
		conv, err := s.ownedConversation(ctx, turn.UserID, *turn.ConversationID)
		if err != nil {
			return nil, err
		}
		existing = conv
		messages = make([]store.Message, 0, len(conv.Messages)+2)
		messages = append(messages, conv.Messages...)
		messages = append(messages, userMsg)
	} else {
		messages = []store.Message{
			s.newMessage(store.RoleSystem, conversationSystemPrompt),
			userMsg,
		}
	}

	reply, err := s.completer.GenerateReply(ctx, messages, turn.AssistanceType)
	if err != nil {
		return nil, err
	}
	messages = append(messages, s.newMessage(store.RoleAssistant, reply))

	if existing == nil {
		conv, err := s.store.CreateConversation(ctx, &store.NewConversation{
			UserID:   turn.UserID,
			Title:    utils.TruncateWithEllipsis(turn.Message, titleLength),
			Messages: messages,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		s.log.Info("Conversation created", "conversation_id", conv.ID, "user_id", turn.UserID)
		return &ChatTurnResult{ConversationID: conv.ID, Messages: conv.Messages}, nil
	}

	conv, err := s.store.UpdateConversation(ctx, existing.ID, &store.ConversationPatch{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	if conv == nil {
		// Deleted while the reply was being generated.
		return nil, notFound("Conversation")
	}
	return &ChatTurnResult{ConversationID: conv.ID, Messages: conv.Messages}, nil
}

func (s *ChatService) ownedConversation(ctx context.Context, userID, id int64) (*store.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil || conv.UserID != userID {
		return nil, notFound("Conversation")
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID int64) ([]ConversationSummary, error) {
	conversations, err := s.store.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summaries = append(summaries, ConversationSummary{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
			Preview:   preview(conv.Messages),
		})
	}
	return summaries, nil
}

// preview is the second-to-last message, normally the latest user turn.
func preview(messages []store.Message) string {
	if len(messages) < 2 {
		return ""
	}
	return utils.Truncate(messages[len(messages)-2].Content, previewLength)
}

func (s *ChatService) GetConversation(ctx context.Context, userID, id int64) (*store.Conversation, error) {
	return s.ownedConversation(ctx, userID, id)
}

func (s *ChatService) RenameConversation(ctx context.Context, userID, id int64, title string) (*store.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("Title is required")
	}
	if _, err := s.ownedConversation(ctx, userID, id); err != nil {
		return nil, err
	}

	conv, err := s.store.UpdateConversation(ctx, id, &store.ConversationPatch{Title: &title})
	if err != nil {
		return nil, fmt.Errorf("failed to rename conversation: %w", err)
	}
	if conv == nil {
		return nil, notFound("Conversation")
	}
	return conv, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedConversation(ctx, userID, id); err != nil {
		return err
	}
	deleted, err := s.store.DeleteConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if !deleted {
		return notFound("Conversation")
	}
	return nil
}
