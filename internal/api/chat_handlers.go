package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/unova-mun/unova-server/internal/core"
)

// conversationRef accepts a conversation id sent either as a JSON number
// or as a numeric string. Zero and the empty string mean "start a new
// conversation".
type conversationRef int64

func (c *conversationRef) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*c = conversationRef(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("conversationId must be a number or a numeric string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*c = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid conversationId %q", s)
	}
	*c = conversationRef(n)
	return nil
}

type ChatRequest struct {
	Message        string          `json:"message"`
	AssistanceType string          `json:"assistanceType"`
	ConversationID conversationRef `json:"conversationId"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	turn := core.ChatTurn{
		UserID:         currentUser(r.Context()).ID,
		Message:        req.Message,
		AssistanceType: req.AssistanceType,
	}
	if req.ConversationID != 0 {
		id := int64(req.ConversationID)
		turn.ConversationID = &id
	}

	result, err := h.chat.HandleChatTurn(r.Context(), turn)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chat.ListConversations(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Conversation")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conv, err := h.chat.GetConversation(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type RenameConversationRequest struct {
	Title string `json:"title"`
}

func (h *APIHandler) RenameConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Conversation")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req RenameConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	conv, err := h.chat.RenameConversation(r.Context(), currentUser(r.Context()).ID, id, req.Title)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Conversation")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.chat.DeleteConversation(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Conversation deleted")
}
