package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gideon/internal/gateway"
)

// ErrNoSession is returned by a TokenStore holding no session.
var ErrNoSession = errors.New("no stored session")

// TokenStore persists the signed-in token pair between runs.
type TokenStore interface {
	Load() (*gateway.Session, error)
	Save(s *gateway.Session) error
	Clear() error
}

// FileTokenStore keeps the session as a JSON file readable only by its owner.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a FileTokenStore at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the stored session. It returns ErrNoSession if none was saved.
func (f *FileTokenStore) Load() (*gateway.Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var s gateway.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}
	if s.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes s, replacing any previous session.
func (f *FileTokenStore) Save(s *gateway.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (f *FileTokenStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
