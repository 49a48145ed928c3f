// Package repository provides SQL persistence for users and notes.
// Queries are written with '?' placeholders and rebound for the active driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/VoiceNotes/internal/models"
	"github.com/jmoiron/sqlx"
)

// UserRepository implements the credential store.
type UserRepository struct {
	// DB is the database handle for executing queries.
	DB *sqlx.DB
}

// NewUserRepository creates a UserRepository over db.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, password_hash, name, created_at`

// UserExists checks whether a user with the specified email exists.
func (r *UserRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		r.DB.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`),
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists: %w: %w", models.ErrPersistence, err)
	}
	return exists, nil
}

// CreateUser inserts u. A duplicate email or id yields models.ErrConflict.
func (r *UserRepository) CreateUser(ctx context.Context, u models.User) error {
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, created_at)
		VALUES (:id, :email, :password_hash, :name, :created_at)
	`, u)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("create user: %w: %w", models.ErrPersistence, err)
	}
	return nil
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetUserByID fetches a user by identifier.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	if err := r.DB.GetContext(ctx, &u, r.DB.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w: %w", models.ErrPersistence, err)
	}
	return &u, nil
}
