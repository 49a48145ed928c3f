package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/VoiceNotes/internal/middleware"
	"github.com/atinyakov/VoiceNotes/internal/models"
	"github.com/atinyakov/VoiceNotes/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NoteService defines the note operations required by the NotesHandler.
type NoteService interface {
	List(ctx context.Context, userID string, p service.ListParams) (*models.NoteList, error)
	Create(ctx context.Context, userID string, payload models.Note) (*models.Note, error)
	Update(ctx context.Context, id, userID string, patch models.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, id, userID string) (*models.DeleteResponse, error)
}

// NotesHandler serves the authenticated /api/notes endpoints.
type NotesHandler struct {
	NoteService NoteService
	// Log receives unexpected failures. May be nil.
	Log *zap.Logger
}

// List handles GET /api/notes?page&limit&sort&search.
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.NoteService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()), service.ListParams{
		Page:   q.Get("page"),
		Limit:  q.Get("limit"),
		Sort:   q.Get("sort"),
		Search: q.Get("search"),
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Create handles POST /api/notes.
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.Note
	if !decodeBody(w, r, &payload) {
		return
	}
	n, err := h.NoteService.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), payload)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// Update handles PUT /api/notes/{id}. Absent fields keep their stored values.
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.NotePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	n, err := h.NoteService.Update(r.Context(), chi.URLParam(r, "id"), middleware.GetUserIDFromContext(r.Context()), patch)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Delete handles DELETE /api/notes/{id}.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.NoteService.Delete(r.Context(), chi.URLParam(r, "id"), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
