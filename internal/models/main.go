// Package models defines the core data structures for users and notes.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `db:"id"`
	// Email is the login name chosen by the user, stored lower-cased.
	Email string `db:"email"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `db:"password_hash"`
	// Name is the display name.
	Name string `db:"name"`
	// CreatedAt is the registration time.
	CreatedAt time.Time `db:"created_at"`
}

// Public returns the fields of u that may leave the server.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// PublicUser is the user projection returned by the API. It never carries the hash.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// NoteType identifies how a note was captured.
type NoteType string

const (
	// TextNote is a note typed in by the user.
	TextNote NoteType = "text"
	// RecordingNote is a note produced by the voice capture pipeline.
	RecordingNote NoteType = "recording"
)

// Valid reports whether t is one of the known note variants.
func (t NoteType) Valid() bool {
	return t == TextNote || t == RecordingNote
}

// Note is a persisted text or voice record owned by exactly one user.
type Note struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"userId" db:"user_id"`
	Title        string    `json:"title" db:"title"`
	Content      string    `json:"content" db:"content"`
	Type         NoteType  `json:"type" db:"type"`
	Time         string    `json:"time" db:"time_label"`
	Duration     string    `json:"duration" db:"duration"`
	AudioData    string    `json:"audioData,omitempty" db:"audio_data"`
	Images       ImageList `json:"images" db:"images"`
	IsFavorite   bool      `json:"isFavorite" db:"is_favorite"`
	Date         time.Time `json:"date" db:"created_at"`
	LastModified time.Time `json:"lastModified" db:"updated_at"`
}

// NotePatch carries the fields of an update request. Nil fields are left untouched.
type NotePatch struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Type       *NoteType `json:"type,omitempty"`
	Time       *string   `json:"time,omitempty"`
	Duration   *string   `json:"duration,omitempty"`
	AudioData  *string   `json:"audioData,omitempty"`
	Images     *[]string `json:"images,omitempty"`
	IsFavorite *bool     `json:"isFavorite,omitempty"`
}

// Apply merges the patch over n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Type != nil {
		n.Type = *p.Type
	}
	if p.Time != nil {
		n.Time = *p.Time
	}
	if p.Duration != nil {
		n.Duration = *p.Duration
	}
	if p.AudioData != nil {
		n.AudioData = *p.AudioData
	}
	if p.Images != nil {
		n.Images = ImageList(*p.Images)
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
}

// ImageList is an ordered list of inline-encoded images stored as a JSON array column.
type ImageList []string

// Value implements driver.Valuer.
func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. NULL and empty values decode to an empty list.
func (l *ImageList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("images: unsupported column type %T", src)
	}
	if len(raw) == 0 {
		*l = ImageList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// NoteList is one page of a user's notes.
type NoteList struct {
	Notes       []Note `json:"notes"`
	Total       int    `json:"total"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}

// DeleteResponse confirms a removed note.
type DeleteResponse struct {
	Message string `json:"message"`
}
