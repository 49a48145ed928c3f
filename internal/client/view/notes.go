// Package view holds the screen state of the client: the notes list with its
// paging, sorting and search, and the quick-note composer.
package view

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/VoiceNotes/internal/client/api"
	"github.com/atinyakov/VoiceNotes/internal/models"
)

// NotesAPI is the part of the API client the notes screen needs.
type NotesAPI interface {
	ListNotes(ctx context.Context, opts api.ListOptions) (*models.NoteList, error)
	UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// State is a snapshot of the notes screen.
type State struct {
	Notes      []models.Note
	Total      int
	TotalPages int
	Page       int
	Limit      int
	Sort       string
	Search     string
	Loading    bool
	Err        error
}

// NotesView is the notes list screen. Every mutation re-fetches the current page.
type NotesView struct {
	api NotesAPI

	mu    sync.Mutex
	state State
}

// NewNotesView starts on page 1 with the server's default order.
func NewNotesView(client NotesAPI, limit int) *NotesView {
	if limit <= 0 {
		limit = 10
	}
	return &NotesView{
		api:   client,
		state: State{Page: 1, Limit: limit, Sort: models.DefaultSort},
	}
}

// State returns a copy of the current state.
func (v *NotesView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Notes = append([]models.Note(nil), v.state.Notes...)
	return s
}

// Load fetches the current page.
func (v *NotesView) Load(ctx context.Context) error {
	v.mu.Lock()
	v.state.Loading = true
	opts := api.ListOptions{Page: v.state.Page, Limit: v.state.Limit, Sort: v.state.Sort, Search: v.state.Search}
	v.mu.Unlock()

	res, err := v.api.ListNotes(ctx, opts)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Loading = false
	v.state.Err = err
	if err != nil {
		return err
	}
	v.state.Notes = res.Notes
	v.state.Total = res.Total
	v.state.TotalPages = res.TotalPages
	v.state.Page = res.CurrentPage
	return nil
}

// Open sets page, sort and search together and loads once. Zero values
// select page 1 and the default order.
func (v *NotesView) Open(ctx context.Context, page int, sort, search string) error {
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return fmt.Errorf("%w: page must be positive", models.ErrValidation)
	}
	if sort == "" {
		sort = models.DefaultSort
	}
	if _, err := models.ParseSort(sort); err != nil {
		return err
	}
	v.mu.Lock()
	v.state.Page = page
	v.state.Sort = sort
	v.state.Search = strings.TrimSpace(search)
	v.mu.Unlock()
	return v.Load(ctx)
}

// Locate pages forward from page 1 until the note with id is on the
// current page, so that actions needing its current fields can run.
func (v *NotesView) Locate(ctx context.Context, id string) (models.Note, error) {
	for page := 1; ; page++ {
		if err := v.SetPage(ctx, page); err != nil {
			return models.Note{}, err
		}
		if n, err := v.find(id); err == nil {
			return n, nil
		}
		if page >= v.State().TotalPages {
			return models.Note{}, models.ErrNotFound
		}
	}
}

// SetSearch changes the filter and returns to the first page.
func (v *NotesView) SetSearch(ctx context.Context, search string) error {
	v.mu.Lock()
	v.state.Search = strings.TrimSpace(search)
	v.state.Page = 1
	v.mu.Unlock()
	return v.Load(ctx)
}

// SetSort changes the order, e.g. "-date" or "title".
func (v *NotesView) SetSort(ctx context.Context, sort string) error {
	if _, err := models.ParseSort(sort); err != nil {
		return err
	}
	v.mu.Lock()
	v.state.Sort = sort
	v.mu.Unlock()
	return v.Load(ctx)
}

// SetPage jumps to page.
func (v *NotesView) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be positive", models.ErrValidation)
	}
	v.mu.Lock()
	v.state.Page = page
	v.mu.Unlock()
	return v.Load(ctx)
}

// Rename changes a note's title.
func (v *NotesView) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	return v.update(ctx, id, models.NotePatch{Title: &title})
}

// Edit replaces a note's title and content.
func (v *NotesView) Edit(ctx context.Context, id, title, content string) error {
	return v.update(ctx, id, models.NotePatch{Title: &title, Content: &content})
}

// ToggleFavorite flips the favorite flag of a note on the current page.
func (v *NotesView) ToggleFavorite(ctx context.Context, id string) error {
	n, err := v.find(id)
	if err != nil {
		return err
	}
	fav := !n.IsFavorite
	return v.update(ctx, id, models.NotePatch{IsFavorite: &fav})
}

// AppendImage adds an encoded image to the end of a note's image list.
func (v *NotesView) AppendImage(ctx context.Context, id, dataURL string) error {
	n, err := v.find(id)
	if err != nil {
		return err
	}
	images := append([]string(nil), n.Images...)
	images = append(images, dataURL)
	return v.update(ctx, id, models.NotePatch{Images: &images})
}

// Delete removes a note.
func (v *NotesView) Delete(ctx context.Context, id string) error {
	if err := v.api.DeleteNote(ctx, id); err != nil {
		return err
	}
	return v.Load(ctx)
}

func (v *NotesView) update(ctx context.Context, id string, patch models.NotePatch) error {
	if _, err := v.api.UpdateNote(ctx, id, patch); err != nil {
		return err
	}
	return v.Load(ctx)
}

func (v *NotesView) find(id string) (models.Note, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, n := range v.state.Notes {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Note{}, models.ErrNotFound
}

// ComposeTextNote builds the payload of the quick-note form.
func ComposeTextNote(now time.Time, title, content string) (models.Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return models.Note{}, fmt.Errorf("%w: title and content are required", models.ErrValidation)
	}
	return models.Note{
		Title:   title,
		Content: content,
		Type:    models.TextNote,
		Time:    models.TimeLabel(now),
		Images:  models.ImageList{},
	}, nil
}
