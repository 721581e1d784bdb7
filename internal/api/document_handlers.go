package api

import (
	"net/http"

	"github.com/unova-mun/unova-server/internal/store"
)

type SpeechRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Committee *string `json:"committee"`
	Type      *string `json:"type"`
}

type ResolutionRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Committee *string `json:"committee"`
}

type ResearchNoteRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Country *string  `json:"country"`
	Topic   *string  `json:"topic"`
	Tags    []string `json:"tags"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Speeches

func (h *APIHandler) ListSpeechesHandler(w http.ResponseWriter, r *http.Request) {
	speeches, err := h.docs.ListSpeeches(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, speeches)
}

func (h *APIHandler) CreateSpeechHandler(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	speech, err := h.docs.CreateSpeech(r.Context(), &store.NewSpeech{
		UserID:    currentUser(r.Context()).ID,
		Title:     deref(req.Title),
		Content:   deref(req.Content),
		Committee: req.Committee,
		Type:      req.Type,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, speech)
}

func (h *APIHandler) GetSpeechHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Speech")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	speech, err := h.docs.GetSpeech(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, speech)
}

func (h *APIHandler) UpdateSpeechHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Speech")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req SpeechRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	speech, err := h.docs.UpdateSpeech(r.Context(), currentUser(r.Context()).ID, id, &store.SpeechPatch{
		Title:     req.Title,
		Content:   req.Content,
		Committee: req.Committee,
		Type:      req.Type,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, speech)
}

func (h *APIHandler) DeleteSpeechHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Speech")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.docs.DeleteSpeech(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Speech deleted")
}

// Resolutions

func (h *APIHandler) ListResolutionsHandler(w http.ResponseWriter, r *http.Request) {
	resolutions, err := h.docs.ListResolutions(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutions)
}

func (h *APIHandler) CreateResolutionHandler(w http.ResponseWriter, r *http.Request) {
	var req ResolutionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resolution, err := h.docs.CreateResolution(r.Context(), &store.NewResolution{
		UserID:    currentUser(r.Context()).ID,
		Title:     deref(req.Title),
		Content:   deref(req.Content),
		Committee: req.Committee,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resolution)
}

func (h *APIHandler) GetResolutionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Resolution")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resolution, err := h.docs.GetResolution(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolution)
}

func (h *APIHandler) UpdateResolutionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Resolution")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req ResolutionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resolution, err := h.docs.UpdateResolution(r.Context(), currentUser(r.Context()).ID, id, &store.ResolutionPatch{
		Title:     req.Title,
		Content:   req.Content,
		Committee: req.Committee,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolution)
}

func (h *APIHandler) DeleteResolutionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Resolution")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.docs.DeleteResolution(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Resolution deleted")
}

// Research notes

func (h *APIHandler) ListResearchNotesHandler(w http.ResponseWriter, r *http.Request) {
	notes, err := h.docs.ListResearchNotes(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *APIHandler) CreateResearchNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req ResearchNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	note, err := h.docs.CreateResearchNote(r.Context(), &store.NewResearchNote{
		UserID:  currentUser(r.Context()).ID,
		Title:   deref(req.Title),
		Content: deref(req.Content),
		Country: req.Country,
		Topic:   req.Topic,
		Tags:    req.Tags,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *APIHandler) GetResearchNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Research note")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	note, err := h.docs.GetResearchNote(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *APIHandler) UpdateResearchNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Research note")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req ResearchNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	note, err := h.docs.UpdateResearchNote(r.Context(), currentUser(r.Context()).ID, id, &store.ResearchNotePatch{
		Title:   req.Title,
		Content: req.Content,
		Country: req.Country,
		Topic:   req.Topic,
		Tags:    req.Tags,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *APIHandler) DeleteResearchNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Research note")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.docs.DeleteResearchNote(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Research note deleted")
}
