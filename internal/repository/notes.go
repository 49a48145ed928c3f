package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/VoiceNotes/internal/models"
	"github.com/atinyakov/VoiceNotes/internal/textutil"
	"github.com/jmoiron/sqlx"
)

// NoteRepository implements the note store. Every lookup is scoped by owner.
type NoteRepository struct {
	// DB is the database handle for executing queries.
	DB *sqlx.DB
}

// NewNoteRepository creates a NoteRepository over db.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

const noteColumns = `id, user_id, title, content, type, time_label, duration, audio_data, images, is_favorite, created_at, updated_at`

// sortKeys maps a sort field to its ORDER BY expressions. Durations are
// "m:ss" labels with a fixed two-digit seconds part, so ordering by length
// first makes "10:00" follow "9:59".
var sortKeys = map[models.SortField][]string{
	models.SortByDate:         {"created_at"},
	models.SortByLastModified: {"updated_at"},
	models.SortByTitle:        {"title"},
	models.SortByType:         {"type"},
	models.SortByFavorite:     {"is_favorite"},
	models.SortByDuration:     {"LENGTH(duration)", "duration"},
}

func orderBy(keys []string, direction string) string {
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, k+" "+direction)
	}
	parts = append(parts, "id "+direction)
	return strings.Join(parts, ", ")
}

// List returns one page of the user's notes and the number of notes matching
// the filter across all pages.
func (r *NoteRepository) List(ctx context.Context, userID string, q models.NoteQuery) ([]models.Note, int, error) {
	keys, ok := sortKeys[q.Sort.Field]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown sort field %q", models.ErrValidation, q.Sort.Field)
	}
	direction := "ASC"
	if q.Sort.Desc {
		direction = "DESC"
	}

	where := `user_id = ?`
	args := []any{userID}
	if q.Search != "" {
		pattern := textutil.LikePattern(q.Search)
		where += ` AND (LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, r.DB.Rebind(`SELECT COUNT(*) FROM notes WHERE `+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w: %w", models.ErrPersistence, err)
	}

	query := `SELECT ` + noteColumns + ` FROM notes WHERE ` + where +
		` ORDER BY ` + orderBy(keys, direction) + ` LIMIT ? OFFSET ?`
	notes := []models.Note{}
	if err := r.DB.SelectContext(ctx, &notes, r.DB.Rebind(query), append(args, q.Limit, q.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list notes: %w: %w", models.ErrPersistence, err)
	}
	return notes, total, nil
}

// Create inserts n as given; identifiers and timestamps are set by the caller.
func (r *NoteRepository) Create(ctx context.Context, n models.Note) error {
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (:id, :user_id, :title, :content, :type, :time_label, :duration, :audio_data, :images, :is_favorite, :created_at, :updated_at)
	`, n)
	if err != nil {
		return fmt.Errorf("create note: %w: %w", models.ErrPersistence, err)
	}
	return nil
}

// Get fetches the note id owned by userID.
func (r *NoteRepository) Get(ctx context.Context, id, userID string) (*models.Note, error) {
	var n models.Note
	err := r.DB.GetContext(ctx, &n,
		r.DB.Rebind(`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get note: %w: %w", models.ErrPersistence, err)
	}
	return &n, nil
}

// Update overwrites the mutable fields of n, matched by id and owner.
func (r *NoteRepository) Update(ctx context.Context, n models.Note) error {
	res, err := r.DB.NamedExecContext(ctx, `
		UPDATE notes SET
			title = :title, content = :content, type = :type, time_label = :time_label,
			duration = :duration, audio_data = :audio_data, images = :images,
			is_favorite = :is_favorite, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id
	`, n)
	if err != nil {
		return fmt.Errorf("update note: %w: %w", models.ErrPersistence, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes the note id owned by userID.
func (r *NoteRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w: %w", models.ErrPersistence, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w: %w", models.ErrPersistence, err)
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
