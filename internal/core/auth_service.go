package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unova-mun/unova-server/internal/auth"
	"github.com/unova-mun/unova-server/internal/logger"
	"github.com/unova-mun/unova-server/internal/store"
)

const minPasswordLength = 6

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	CreateUser(ctx context.Context, in *store.NewUser) (*store.User, error)
	UpdateUser(ctx context.Context, id int64, patch *store.UserPatch) (*store.User, error)

	CreateSession(ctx context.Context, userID int64, ttl time.Duration) (*store.Session, error)
	GetSession(ctx context.Context, id string) (*store.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type AuthService struct {
	store  UserStore
	tokens *auth.TokenIssuer
	log    *logger.Logger
}

func NewAuthService(db UserStore, tokens *auth.TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{store: db, tokens: tokens, log: log}
}

type RegisterInput struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type ProfilePatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
}

// LoginResult carries the signed token to hand back as a cookie.
type LoginResult struct {
	User      *store.User
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, invalid("Username, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, invalid("Invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("Password must be at least %d characters", minPasswordLength)
	}

	if err := s.ensureAvailable(ctx, 0, &username, &email); err != nil {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &store.NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         in.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("User registered", "user_id", user.ID)
	return s.openSession(ctx, user)
}

// Login accepts either an email address or a username as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalid("Email and password are required")
	}

	var user *store.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.store.GetUserByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.store.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, &AuthenticationError{Message: "Invalid credentials"}
	}
	return s.openSession(ctx, user)
}

func (s *AuthService) openSession(ctx context.Context, user *store.User) (*LoginResult, error) {
	session, err := s.store.CreateSession(ctx, user.ID, s.tokens.TTL())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	token, err := s.tokens.GenerateJWT(user.ID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Authenticate resolves a session token to its user. A token whose
// session row was deleted or expired is rejected even if its signature
// and expiry are still valid.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, &AuthenticationError{Message: "Unauthorized"}
	}
	claims, err := s.tokens.ValidateJWT(token)
	if err != nil {
		return nil, &AuthenticationError{Message: "Unauthorized"}
	}

	session, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.UserID != claims.UserID {
		return nil, &AuthenticationError{Message: "Unauthorized"}
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &AuthenticationError{Message: "Unauthorized"}
	}
	return user, nil
}

// Logout is idempotent; an unknown or invalid token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ValidateJWT(token)
	if err != nil {
		return nil
	}
	return s.store.DeleteSession(ctx, claims.SessionID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, patch ProfilePatch) (*store.User, error) {
	update := &store.UserPatch{Name: patch.Name}
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return nil, invalid("Username cannot be empty")
		}
		update.Username = &username
	}
	if patch.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*patch.Email))
		if !strings.Contains(email, "@") {
			return nil, invalid("Invalid email address")
		}
		update.Email = &email
	}
	if err := s.ensureAvailable(ctx, userID, update.Username, update.Email); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUser(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if user == nil {
		return nil, notFound("User")
	}
	return user, nil
}

// ensureAvailable checks the unique columns up front so the caller gets a
// readable message instead of a constraint violation. selfID is skipped.
func (s *AuthService) ensureAvailable(ctx context.Context, selfID int64, username, email *string) error {
	if username != nil {
		existing, err := s.store.GetUserByUsername(ctx, *username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if existing != nil && existing.ID != selfID {
			return invalid("Username already exists")
		}
	}
	if email != nil {
		existing, err := s.store.GetUserByEmail(ctx, *email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil && existing.ID != selfID {
			return invalid("Email already in use")
		}
	}
	return nil
}
