package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

// TokenStore holds the bearer credentials the Task API client sends.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(access, refresh string) error
	User() *model.User
	SetUser(user *model.User) error
	Clear() error
}

// Credentials is the persisted form of a login
type Credentials struct {
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *model.User `json:"user,omitempty"`
}

// MemoryStore keeps credentials in memory only
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.RefreshToken
}

// SetTokens stores the pair. An empty value keeps the existing token,
// matching refresh responses that omit the refresh token.
func (s *MemoryStore) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if access != "" {
		s.creds.AccessToken = access
	}
	if refresh != "" {
		s.creds.RefreshToken = refresh
	}
	return nil
}

func (s *MemoryStore) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds.User == nil {
		return nil
	}
	u := *s.creds.User
	return &u
}

func (s *MemoryStore) SetUser(user *model.User) error {
	if user == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.creds.User = &u
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}

// FileStore persists credentials as JSON so a login survives restarts
type FileStore struct {
	MemoryStore
	path string
}

// OpenFileStore loads credentials from path. A missing file yields an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	if err := json.Unmarshal(data, &s.creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return s, nil
}

// Path returns the backing file location
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) SetTokens(access, refresh string) error {
	_ = s.MemoryStore.SetTokens(access, refresh)
	return s.save()
}

func (s *FileStore) SetUser(user *model.User) error {
	if user == nil {
		return nil
	}
	_ = s.MemoryStore.SetUser(user)
	return s.save()
}

// Clear forgets the credentials and removes the file
func (s *FileStore) Clear() error {
	_ = s.MemoryStore.Clear()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether both an access token and a user are stored
func IsAuthenticated(s TokenStore) bool {
	return s.AccessToken() != "" && s.User() != nil
}

func (s *FileStore) save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.creds, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}
