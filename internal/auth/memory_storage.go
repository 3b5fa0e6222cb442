package auth

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// MemoryStorage keeps the token in process memory. It lets several clients
// in one process share a token without touching disk.
type MemoryStorage struct {
	mutex sync.RWMutex
	token *oauth2.Token
}

// NewMemoryStorage creates an empty in-memory token storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load returns a copy of the stored token, or (nil, nil) when empty.
func (s *MemoryStorage) Load(_ context.Context) (*oauth2.Token, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.token == nil {
		return nil, nil //nolint:nilnil // sentinel for "nothing stored"
	}

	token := *s.token

	return &token, nil
}

// Save stores a copy of token.
func (s *MemoryStorage) Save(_ context.Context, token *oauth2.Token) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := *token
	s.token = &stored

	return nil
}

// Clear empties the storage.
func (s *MemoryStorage) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = nil

	return nil
}
