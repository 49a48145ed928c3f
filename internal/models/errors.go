package models

import "errors"

// Error taxonomy shared by the server and the client. Layers wrap these with %w
// and callers match them with errors.Is.
var (
	// ErrValidation marks malformed or missing request fields.
	ErrValidation = errors.New("validation error")
	// ErrAuthRequired is returned by the client when no session is present.
	ErrAuthRequired = errors.New("authentication required")
	// ErrUnauthorized marks a missing, invalid or expired bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned for both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConflict marks a duplicate email at registration.
	ErrConflict = errors.New("user already exists")
	// ErrNotFound marks a note that does not exist or is owned by somebody else.
	ErrNotFound = errors.New("note not found")
	// ErrDevice marks an unavailable microphone.
	ErrDevice = errors.New("audio device unavailable")
	// ErrPersistence marks an underlying store failure.
	ErrPersistence = errors.New("persistence error")
)
