package api

import (
	"net/http"

	"github.com/unova-mun/unova-server/internal/core"
)

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req core.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, result.Token, result.ExpiresAt)
	writeJSON(w, http.StatusCreated, result.User)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	result, err := h.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, result.Token, result.ExpiresAt)
	writeJSON(w, http.StatusOK, result.User)
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *APIHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r.Context()))
}

func (h *APIHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ProfilePatch
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), currentUser(r.Context()).ID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
