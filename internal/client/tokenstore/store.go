// Package tokenstore persists the access/refresh token pair between
// runs of the terminal client.
package tokenstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

const credentialsFile = "credentials.json"

// TokenPair holds the access and refresh tokens. Both fields are
// opaque strings; the store never writes one without the other.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store persists a TokenPair as a JSON file under dir.
// Writes go to a temp file first and are renamed into place, so a
// reader never observes a half-written pair.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a store rooted at dir, creating it if needed
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{path: filepath.Join(dir, credentialsFile)}, nil
}

// DefaultDir returns the per-user credentials directory
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "framecraft"), nil
}

// Save persists the pair atomically
func (s *Store) Save(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(pair)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load returns the stored pair; ok is false when nothing is stored
func (s *Store) Load() (pair TokenPair, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TokenPair{}, false, nil
		}
		return TokenPair{}, false, err
	}

	if err := json.Unmarshal(data, &pair); err != nil {
		// A corrupt file is treated as absent; the next Save rewrites it.
		return TokenPair{}, false, nil
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return TokenPair{}, false, nil
	}
	return pair, true, nil
}

// Clear removes the stored pair. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
