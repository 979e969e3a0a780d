// Package authstate holds the current user identity and bearer token,
// persisted across process restarts. One instance is wired at startup and
// shared by reference (no package-level singleton).
package authstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// persisted mirrors the on-disk layout.
type persisted struct {
	User            *User  `json:"user"`
	AccessToken     string `json:"accessToken"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

type Store struct {
	mu sync.RWMutex

	path          string
	user          *User
	accessToken   string
	authenticated bool
	hydrated      bool
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load hydrates the store from disk. A missing file is not an error; the
// store simply comes up logged-out. Callers gate auth-dependent decisions
// on Hydrated() to avoid acting on pre-load state.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.hydrated = true
			return nil
		}
		return err
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		// Corrupt state file: start logged-out rather than failing startup.
		s.hydrated = true
		return nil
	}

	s.user = p.User
	s.accessToken = p.AccessToken
	s.authenticated = p.IsAuthenticated && p.User != nil
	s.hydrated = true
	return nil
}

func (s *Store) SetAuth(user User, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := user
	s.user = &u
	s.accessToken = accessToken
	s.authenticated = true
	return s.persistLocked()
}

func (s *Store) SetAccessToken(accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = accessToken
	return s.persistLocked()
}

func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.accessToken = ""
	s.authenticated = false
	return s.persistLocked()
}

func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(persisted{
		User:            s.user,
		AccessToken:     s.accessToken,
		IsAuthenticated: s.authenticated,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
