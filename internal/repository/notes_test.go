package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/VoiceNotes/internal/models"
	"github.com/jmoiron/sqlx"
)

var noteRowColumns = []string{
	"id", "user_id", "title", "content", "type", "time_label", "duration",
	"audio_data", "images", "is_favorite", "created_at", "updated_at",
}

func setupNoteMock(t *testing.T) (*NoteRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewNoteRepository(sqlx.NewDb(db, "postgres"))
	return repo, mock, func() { db.Close() }
}

func TestNoteList_QueryShape(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM notes WHERE user_id = $1 AND (LOWER(title) LIKE $2`)).
		WithArgs("u1", "%50\\%%", "%50\\%%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY title ASC, id ASC LIMIT $4 OFFSET $5`)).
		WithArgs("u1", "%50\\%%", "%50\\%%", 10, 10).
		WillReturnRows(sqlmock.NewRows(noteRowColumns).
			AddRow("n1", "u1", "50% off", "", "text", "", "", "", `["data:image/png;base64,AA=="]`, true, now, now))

	q := models.NoteQuery{Page: 2, Limit: 10, Sort: models.Sort{Field: models.SortByTitle}, Search: "50%"}
	notes, total, err := repo.List(context.Background(), "u1", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 11 {
		t.Errorf("total = %d, want 11", total)
	}
	if len(notes) != 1 || notes[0].Title != "50% off" || !notes[0].IsFavorite || len(notes[0].Images) != 1 {
		t.Errorf("unexpected notes: %+v", notes)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNoteList_UnknownSort(t *testing.T) {
	repo, _, cleanup := setupNoteMock(t)
	defer cleanup()

	_, _, err := repo.List(context.Background(), "u1", models.NoteQuery{Page: 1, Limit: 10, Sort: models.Sort{Field: "password"}})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestNoteList_CountError(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM notes`)).
		WillReturnError(errors.New("boom"))

	_, _, err := repo.List(context.Background(), "u1", models.NoteQuery{Page: 1, Limit: 10, Sort: models.Sort{Field: models.SortByDate, Desc: true}})
	if !errors.Is(err, models.ErrPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
}

func TestNoteUpdate_NotFound(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notes SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), models.Note{ID: "n1", UserID: "other"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNoteDelete(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM notes WHERE id = $1 AND user_id = $2`)).
		WithArgs("n1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM notes WHERE id = $1 AND user_id = $2`)).
		WithArgs("n1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "n1", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), "n1", "u1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNoteGet_NotFound(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM notes WHERE id = $1 AND user_id = $2`)).
		WithArgs("n1", "u2").
		WillReturnRows(sqlmock.NewRows(noteRowColumns))

	_, err := repo.Get(context.Background(), "n1", "u2")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
