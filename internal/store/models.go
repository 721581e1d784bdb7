package store

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	Name         *string   `json:"name"`
	GoogleID     *string   `json:"googleId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	Name         *string
	GoogleID     *string
}

// UserPatch holds the columns to change; nil fields are left untouched.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Name         *string
	GoogleID     *string
}

type Speech struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Committee *string   `json:"committee"`
	Type      *string   `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewSpeech struct {
	UserID    int64
	Title     string
	Content   string
	Committee *string
	Type      *string
}

type SpeechPatch struct {
	Title     *string
	Content   *string
	Committee *string
	Type      *string
}

type Resolution struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Committee *string   `json:"committee"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewResolution struct {
	UserID    int64
	Title     string
	Content   string
	Committee *string
}

type ResolutionPatch struct {
	Title     *string
	Content   *string
	Committee *string
}

type ResearchNote struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Country   *string   `json:"country"`
	Topic     *string   `json:"topic"`
	Tags      []string  `json:"tags"` // Never nil once read from the store
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewResearchNote struct {
	UserID  int64
	Title   string
	Content string
	Country *string
	Topic   *string
	Tags    []string
}

// ResearchNotePatch replaces Tags when it is non-nil.
type ResearchNotePatch struct {
	Title   *string
	Content *string
	Country *string
	Topic   *string
	Tags    []string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is embedded in a conversation's JSON column, not a table row.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewConversation struct {
	UserID   int64
	Title    string
	Messages []Message
}

// ConversationPatch replaces Messages when it is non-nil.
type ConversationPatch struct {
	Title    *string
	Messages []Message
}

type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
