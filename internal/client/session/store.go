package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileStore persists the session as JSON. Reads and writes hold an
// advisory lock on a sibling ".lock" file so that concurrent CLI
// invocations never see a half-written session.
type FileStore struct {
	path string
	lock *flock.Flock
}

// DefaultPath returns ~/.voicenotes/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".voicenotes", "session.json"), nil
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the session file location.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads the session. A missing file yields an empty session.
func (fs *FileStore) Load() (Session, error) {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return Session{}, err
	}
	if err := fs.lock.RLock(); err != nil {
		return Session{}, fmt.Errorf("lock session: %w", err)
	}
	defer fs.lock.Unlock()

	f, err := os.Open(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, err
	}
	defer f.Close()

	var s Session
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// Save writes s with owner-only permissions.
func (fs *FileStore) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return err
	}
	if err := fs.lock.Lock(); err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	defer fs.lock.Unlock()

	tmp := fs.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}

// Clear removes the session file.
func (fs *FileStore) Clear() error {
	if err := fs.lock.Lock(); err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	defer fs.lock.Unlock()

	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
