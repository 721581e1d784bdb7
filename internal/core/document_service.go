package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/unova-mun/unova-server/internal/store"
)

type DocumentStore interface {
	GetSpeech(ctx context.Context, id int64) (*store.Speech, error)
	ListSpeechesByUser(ctx context.Context, userID int64) ([]store.Speech, error)
	CreateSpeech(ctx context.Context, in *store.NewSpeech) (*store.Speech, error)
	UpdateSpeech(ctx context.Context, id int64, patch *store.SpeechPatch) (*store.Speech, error)
	DeleteSpeech(ctx context.Context, id int64) (bool, error)

	GetResolution(ctx context.Context, id int64) (*store.Resolution, error)
	ListResolutionsByUser(ctx context.Context, userID int64) ([]store.Resolution, error)
	CreateResolution(ctx context.Context, in *store.NewResolution) (*store.Resolution, error)
	UpdateResolution(ctx context.Context, id int64, patch *store.ResolutionPatch) (*store.Resolution, error)
	DeleteResolution(ctx context.Context, id int64) (bool, error)

	GetResearchNote(ctx context.Context, id int64) (*store.ResearchNote, error)
	ListResearchNotesByUser(ctx context.Context, userID int64) ([]store.ResearchNote, error)
	CreateResearchNote(ctx context.Context, in *store.NewResearchNote) (*store.ResearchNote, error)
	UpdateResearchNote(ctx context.Context, id int64, patch *store.ResearchNotePatch) (*store.ResearchNote, error)
	DeleteResearchNote(ctx context.Context, id int64) (bool, error)
}

// DocumentService manages the speeches, resolutions and research notes a
// user saves. Every read or write by id checks ownership first.
type DocumentService struct {
	store DocumentStore
}

func NewDocumentService(db DocumentStore) *DocumentService {
	return &DocumentService{store: db}
}

// owned returns the record only when it exists and belongs to userID.
func owned[T any](rec *T, err error, ownerOf func(*T) int64, userID int64, resource string) (*T, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", strings.ToLower(resource), err)
	}
	if rec == nil || ownerOf(rec) != userID {
		return nil, notFound(resource)
	}
	return rec, nil
}

func requireTitleAndContent(title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return invalid("Title and content are required")
	}
	return nil
}

// validatePatch rejects an explicit blank title or content; nil means
// the field is not being changed.
func validatePatch(title, content *string) error {
	if title != nil && strings.TrimSpace(*title) == "" {
		return invalid("Title cannot be empty")
	}
	if content != nil && strings.TrimSpace(*content) == "" {
		return invalid("Content cannot be empty")
	}
	return nil
}

func deleted(ok bool, err error, resource string) error {
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", strings.ToLower(resource), err)
	}
	if !ok {
		return notFound(resource)
	}
	return nil
}

// Speeches

func speechOwner(s *store.Speech) int64 { return s.UserID }

func (s *DocumentService) ListSpeeches(ctx context.Context, userID int64) ([]store.Speech, error) {
	return s.store.ListSpeechesByUser(ctx, userID)
}

func (s *DocumentService) CreateSpeech(ctx context.Context, in *store.NewSpeech) (*store.Speech, error) {
	if err := requireTitleAndContent(in.Title, in.Content); err != nil {
		return nil, err
	}
	return s.store.CreateSpeech(ctx, in)
}

func (s *DocumentService) GetSpeech(ctx context.Context, userID, id int64) (*store.Speech, error) {
	rec, err := s.store.GetSpeech(ctx, id)
	return owned(rec, err, speechOwner, userID, "Speech")
}

func (s *DocumentService) UpdateSpeech(ctx context.Context, userID, id int64, patch *store.SpeechPatch) (*store.Speech, error) {
	if err := validatePatch(patch.Title, patch.Content); err != nil {
		return nil, err
	}
	if _, err := s.GetSpeech(ctx, userID, id); err != nil {
		return nil, err
	}
	rec, err := s.store.UpdateSpeech(ctx, id, patch)
	return owned(rec, err, speechOwner, userID, "Speech")
}

func (s *DocumentService) DeleteSpeech(ctx context.Context, userID, id int64) error {
	if _, err := s.GetSpeech(ctx, userID, id); err != nil {
		return err
	}
	ok, err := s.store.DeleteSpeech(ctx, id)
	return deleted(ok, err, "Speech")
}

// Resolutions

func resolutionOwner(r *store.Resolution) int64 { return r.UserID }

func (s *DocumentService) ListResolutions(ctx context.Context, userID int64) ([]store.Resolution, error) {
	return s.store.ListResolutionsByUser(ctx, userID)
}

func (s *DocumentService) CreateResolution(ctx context.Context, in *store.NewResolution) (*store.Resolution, error) {
	if err := requireTitleAndContent(in.Title, in.Content); err != nil {
		return nil, err
	}
	return s.store.CreateResolution(ctx, in)
}

func (s *DocumentService) GetResolution(ctx context.Context, userID, id int64) (*store.Resolution, error) {
	rec, err := s.store.GetResolution(ctx, id)
	return owned(rec, err, resolutionOwner, userID, "Resolution")
}

func (s *DocumentService) UpdateResolution(ctx context.Context, userID, id int64, patch *store.ResolutionPatch) (*store.Resolution, error) {
	if err := validatePatch(patch.Title, patch.Content); err != nil {
		return nil, err
	}
	if _, err := s.GetResolution(ctx, userID, id); err != nil {
		return nil, err
	}
	rec, err := s.store.UpdateResolution(ctx, id, patch)
	return owned(rec, err, resolutionOwner, userID, "Resolution")
}

func (s *DocumentService) DeleteResolution(ctx context.Context, userID, id int64) error {
	if _, err := s.GetResolution(ctx, userID, id); err != nil {
		return err
	}
	ok, err := s.store.DeleteResolution(ctx, id)
	return deleted(ok, err, "Resolution")
}

// Research notes

func researchNoteOwner(n *store.ResearchNote) int64 { return n.UserID }

func (s *DocumentService) ListResearchNotes(ctx context.Context, userID int64) ([]store.ResearchNote, error) {
	return s.store.ListResearchNotesByUser(ctx, userID)
}

func (s *DocumentService) CreateResearchNote(ctx context.Context, in *store.NewResearchNote) (*store.ResearchNote, error) {
	if err := requireTitleAndContent(in.Title, in.Content); err != nil {
		return nil, err
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return s.store.CreateResearchNote(ctx, in)
}

func (s *DocumentService) GetResearchNote(ctx context.Context, userID, id int64) (*store.ResearchNote, error) {
	rec, err := s.store.GetResearchNote(ctx, id)
	return owned(rec, err, researchNoteOwner, userID, "Research note")
}

func (s *DocumentService) UpdateResearchNote(ctx context.Context, userID, id int64, patch *store.ResearchNotePatch) (*store.ResearchNote, error) {
	if err := validatePatch(patch.Title, patch.Content); err != nil {
		return nil, err
	}
	if _, err := s.GetResearchNote(ctx, userID, id); err != nil {
		return nil, err
	}
	rec, err := s.store.UpdateResearchNote(ctx, id, patch)
	return owned(rec, err, researchNoteOwner, userID, "Research note")
}

func (s *DocumentService) DeleteResearchNote(ctx context.Context, userID, id int64) error {
	if _, err := s.GetResearchNote(ctx, userID, id); err != nil {
		return err
	}
	ok, err := s.store.DeleteResearchNote(ctx, id)
	return deleted(ok, err, "Research note")
}
