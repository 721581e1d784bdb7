package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unova-mun/unova-server/internal/auth"
	"github.com/unova-mun/unova-server/internal/core"
	"github.com/unova-mun/unova-server/internal/logger"
	"github.com/unova-mun/unova-server/internal/store"
)

type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (f *fakeCompleter) GenerateReply(_ context.Context, _ []store.Message, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type testServer struct {
	handler   http.Handler
	completer *fakeCompleter
	db        *store.Store
}

func newTestServer(t *testing.T, chatRatePerMinute int) *testServer {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNop()
	completer := &fakeCompleter{reply: "Honourable chair, the delegation of Kenya..."}
	handler := NewAPIHandler(Services{
		Chat:      core.NewChatService(db, completer, log),
		Documents: core.NewDocumentService(db),
		Auth:      core.NewAuthService(db, auth.NewTokenIssuer("test-secret", time.Hour), log),
		DB:        db,
	}, log, false)

	return &testServer{
		handler:   NewRouter(handler, NewChatRateLimiter(chatRatePerMinute)),
		completer: completer,
		db:        db,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its session token.
func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.org",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			assert.True(t, c.HttpOnly)
			return c.Value
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookieName)
	return ""
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)
	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestsWithoutSessionAreRejected(t *testing.T) {
	s := newTestServer(t, 0)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/user"},
		{http.MethodPost, "/api/chat"},
		{http.MethodGet, "/api/conversations"},
		{http.MethodGet, "/api/conversations/1"},
		{http.MethodGet, "/api/speeches"},
		{http.MethodPost, "/api/resolutions"},
		{http.MethodGet, "/api/research-notes"},
	} {
		rec := s.do(t, tc.method, tc.path, "", map[string]string{"message": "hi"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		assert.NotEmpty(t, decodeBody[errorResponse](t, rec).Message)
	}

	rec := s.do(t, http.MethodGet, "/api/speeches", "forged-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccountFlow(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "amina")

	rec := s.do(t, http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "amina", body["username"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "PasswordHash")

	rec = s.do(t, http.MethodPatch, "/api/user", token, map[string]string{"name": "Amina K."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Amina K.", decodeBody[map[string]any](t, rec)["name"])

	rec = s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "amina", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "amina@example.org", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := sessionCookie(t, rec)

	rec = s.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decodeBody[errorResponse](t, rec).Message)

	// The logged-out token is dead even though it has not expired; the
	// other session is unaffected.
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/user", token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/user", second, nil).Code)
}

func TestBearerTokenIsAccepted(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "amina")

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, 0)
	s.register(t, "amina")

	rec := s.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "amina", "email": "new@example.org", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", decodeBody[errorResponse](t, rec).Message)

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpeechesRoundTrip(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "amina")

	rec := s.do(t, http.MethodPost, "/api/speeches", token, map[string]string{"title": "Opening"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title and content are required", decodeBody[errorResponse](t, rec).Message)

	rec = s.do(t, http.MethodPost, "/api/speeches", token, map[string]string{
		"title":     "Opening",
		"content":   "Honourable chair",
		"committee": "DISEC",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[store.Speech](t, rec)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "DISEC", *created.Committee)
	assert.Nil(t, created.Type)

	rec = s.do(t, http.MethodGet, "/api/speeches", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody[[]store.Speech](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	path := "/api/speeches/" + itoa(created.ID)
	rec = s.do(t, http.MethodPatch, path, token, map[string]string{"content": "Honourable chair, delegates"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[store.Speech](t, rec)
	assert.Equal(t, "Opening", updated.Title)
	assert.Equal(t, "Honourable chair, delegates", updated.Content)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	rec = s.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, token, nil).Code)
}

func TestResearchNotesDefaultTags(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "amina")

	rec := s.do(t, http.MethodPost, "/api/research-notes", token, map[string]string{
		"title":   "Kenya",
		"content": "Water security",
		"country": "Kenya",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, []any{}, body["tags"])
	assert.Nil(t, body["topic"])
}

func TestResourcesAreScopedToOwner(t *testing.T) {
	s := newTestServer(t, 0)
	owner := s.register(t, "amina")
	other := s.register(t, "bruno")

	rec := s.do(t, http.MethodPost, "/api/resolutions", owner, map[string]string{"title": "Draft", "content": "The General Assembly,"})
	require.Equal(t, http.StatusCreated, rec.Code)
	resolution := decodeBody[store.Resolution](t, rec)

	rec = s.do(t, http.MethodPost, "/api/chat", owner, map[string]string{"message": "mine"})
	require.Equal(t, http.StatusOK, rec.Code)
	turn := decodeBody[core.ChatTurnResult](t, rec)

	for _, path := range []string{
		"/api/resolutions/" + itoa(resolution.ID),
		"/api/conversations/" + itoa(turn.ConversationID),
	} {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, other, nil).Code, path)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, path, other, map[string]string{"title": "x"}).Code, path)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, other, nil).Code, path)
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, owner, nil).Code, path)
	}

	rec = s.do(t, http.MethodPost, "/api/chat", other, map[string]any{"message": "intrude", "conversationId": turn.ConversationID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Conversation not found", decodeBody[errorResponse](t, rec).Message)

	rec = s.do(t, http.MethodGet, "/api/resolutions", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/speeches/abc", owner, nil).Code)
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "amina")

	rec := s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message is required", decodeBody[errorResponse](t, rec).Message)

	rec = s.do(t, http.MethodPost, "/api/chat", token, map[string]string{
		"message":        "What is the G77?",
		"assistanceType": "RESEARCH",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeBody[core.ChatTurnResult](t, rec)
	require.Len(t, first.Messages, 3)
	assert.Equal(t, store.RoleSystem, first.Messages[0].Role)
	assert.Equal(t, s.completer.reply, first.Messages[2].Content)

	// The id may arrive as a numeric string.
	rec = s.do(t, http.MethodPost, "/api/chat", token, map[string]string{
		"message":        "Which countries lead it?",
		"conversationId": itoa(first.ConversationID),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[core.ChatTurnResult](t, rec)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	require.Len(t, second.Messages, 5)

	rec = s.do(t, http.MethodGet, "/api/conversations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summaries := decodeBody[[]core.ConversationSummary](t, rec)
	require.Len(t, summaries, 1)
	assert.Equal(t, "What is the G77?", summaries[0].Title)
	assert.Equal(t, "Which countries lead it?", summaries[0].Preview)

	path := "/api/conversations/" + itoa(first.ConversationID)
	rec = s.do(t, http.MethodPatch, path, token, map[string]string{"title": "G77 research"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "G77 research", decodeBody[store.Conversation](t, rec).Title)

	rec = s.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[store.Conversation](t, rec).Messages, 5)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, token, nil).Code)
}

func TestChatUpstreamFailure(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "amina")
	s.completer.fail(&core.UpstreamError{Err: errors.New("503 from upstream: secret detail")})

	rec := s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg := decodeBody[errorResponse](t, rec).Message
	assert.Equal(t, "Failed to generate a response", msg)
	assert.NotContains(t, rec.Body.String(), "secret detail")

	rec = s.do(t, http.MethodGet, "/api/conversations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestChatWithoutAPIKey(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "amina")
	s.completer.fail(&core.ConfigurationError{Message: "Gemini API key not configured"})

	rec := s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decodeBody[errorResponse](t, rec).Message)
}

func TestChatRateLimit(t *testing.T) {
	s := newTestServer(t, 1)
	amina := s.register(t, "amina")
	bruno := s.register(t, "bruno")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/chat", amina, map[string]string{"message": "one"}).Code)
	rec := s.do(t, http.MethodPost, "/api/chat", amina, map[string]string{"message": "two"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Limits are per user.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/chat", bruno, map[string]string{"message": "one"}).Code)
}

func TestConversationRefUnmarshal(t *testing.T) {
	cases := map[string]struct {
		input   string
		want    conversationRef
		wantErr bool
	}{
		"number":         {input: `{"conversationId": 42}`, want: 42},
		"numeric string": {input: `{"conversationId": "42"}`, want: 42},
		"empty string":   {input: `{"conversationId": ""}`, want: 0},
		"null":           {input: `{"conversationId": null}`, want: 0},
		"absent":         {input: `{}`, want: 0},
		"garbage":        {input: `{"conversationId": "abc"}`, wantErr: true},
		"object":         {input: `{"conversationId": {}}`, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var req ChatRequest
			err := json.Unmarshal([]byte(tc.input), &req)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, req.ConversationID)
		})
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
