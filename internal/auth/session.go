// Package auth persists the operator's login session and keeps its access
// token fresh. It implements the token source the API client consumes, with
// a single shared refresh even under concurrent callers.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
)

// Session is everything persisted between invocations of the CLI.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userID,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	Server       string `json:"server,omitempty"`
	// ExpiresAt is extracted from the access token's exp claim. Zero means
	// the token carried no parseable expiry and is used until rejected.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	SavedAt   time.Time `json:"savedAt"`
}

// Store reads and writes the session file. The file holds a refresh token,
// so it is always written 0600.
type Store struct {
	path string
}

// NewStore returns a store rooted at the config directory, normally
// ~/.energygrid.
func NewStore(configDir string) *Store {
	return &Store{path: filepath.Join(configDir, "session.json")}
}

// Path returns the session file location.
func (s *Store) Path() string { return s.path }

// Load reads the persisted session. A missing file returns ErrNoSession.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", s.path, err)
	}
	if sess.AccessToken == "" && sess.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Save writes the session to disk, creating the config directory if needed.
func (s *Store) Save(sess *Session) error {
	sess.SavedAt = time.Now()
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	logging.Auth("session saved for %s", sess.Email)
	return nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
