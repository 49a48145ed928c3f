package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/VoiceNotes/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultPage is used when the caller omits the page.
	DefaultPage = 1
	// DefaultLimit is used when the caller omits the page size.
	DefaultLimit = 10
	// MaxLimit bounds the page size.
	MaxLimit = 100
)

// NoteRepository defines the persistence operations needed by the NoteService.
type NoteRepository interface {
	List(ctx context.Context, userID string, q models.NoteQuery) ([]models.Note, int, error)
	Create(ctx context.Context, n models.Note) error
	Get(ctx context.Context, id, userID string) (*models.Note, error)
	Update(ctx context.Context, n models.Note) error
	Delete(ctx context.Context, id, userID string) error
}

// ListParams are the raw list parameters as received from a request.
// Empty strings select the defaults.
type ListParams struct {
	Page   string
	Limit  string
	Sort   string
	Search string
}

// NoteService implements ownership-scoped note operations.
type NoteService struct {
	repo NoteRepository
	now  func() time.Time
}

// NewNoteService constructs a NoteService with the provided repository.
func NewNoteService(repo NoteRepository) *NoteService {
	return &NoteService{repo: repo, now: time.Now}
}

// ParseQuery validates p and fills in defaults.
func ParseQuery(p ListParams) (models.NoteQuery, error) {
	q := models.NoteQuery{Page: DefaultPage, Limit: DefaultLimit, Search: strings.TrimSpace(p.Search)}

	if p.Page != "" {
		page, err := strconv.Atoi(p.Page)
		if err != nil || page < 1 {
			return q, fmt.Errorf("%w: page must be a positive integer", models.ErrValidation)
		}
		q.Page = page
	}
	if p.Limit != "" {
		limit, err := strconv.Atoi(p.Limit)
		if err != nil || limit < 1 || limit > MaxLimit {
			return q, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrValidation, MaxLimit)
		}
		q.Limit = limit
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return q, fmt.Errorf("%w: page is out of range", models.ErrValidation)
	}

	sort, err := models.ParseSort(p.Sort)
	if err != nil {
		return q, err
	}
	q.Sort = sort
	return q, nil
}

// List returns one page of the user's notes. A page past the end is empty, not an error.
func (s *NoteService) List(ctx context.Context, userID string, p ListParams) (*models.NoteList, error) {
	q, err := ParseQuery(p)
	if err != nil {
		return nil, err
	}
	notes, total, err := s.repo.List(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return &models.NoteList{
		Notes:       notes,
		Total:       total,
		TotalPages:  models.TotalPages(total, q.Limit),
		CurrentPage: q.Page,
	}, nil
}

// Create stores a new note owned by userID. Ownership, id and timestamps in
// the payload are ignored.
func (s *NoteService) Create(ctx context.Context, userID string, payload models.Note) (*models.Note, error) {
	n := payload
	if n.Type == "" {
		n.Type = models.TextNote
	}
	if !n.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown note type %q", models.ErrValidation, n.Type)
	}
	if n.Images == nil {
		n.Images = models.ImageList{}
	}
	now := s.now().UTC()
	n.ID = uuid.NewString()
	n.UserID = userID
	n.Date = now
	n.LastModified = now

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Update merges patch over the user's note id and persists it.
func (s *NoteService) Update(ctx context.Context, id, userID string, patch models.NotePatch) (*models.Note, error) {
	n, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(n)
	if !n.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown note type %q", models.ErrValidation, n.Type)
	}
	if n.Images == nil {
		n.Images = models.ImageList{}
	}
	n.LastModified = s.now().UTC()

	if err := s.repo.Update(ctx, *n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes the user's note id.
func (s *NoteService) Delete(ctx context.Context, id, userID string) (*models.DeleteResponse, error) {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return nil, err
	}
	return &models.DeleteResponse{Message: "Note deleted successfully"}, nil
}
