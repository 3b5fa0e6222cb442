package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/minthcm-client/internal/constants"
)

// FileStorage persists the token as a JSON file.
type FileStorage struct {
	path  string
	mutex sync.Mutex
}

// NewFileStorage creates a file-backed token storage.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the token file location.
func (s *FileStorage) Path() string {
	return s.path
}

// Load reads the token file. A missing or empty file yields (nil, nil).
func (s *FileStorage) Load(_ context.Context) (*oauth2.Token, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("token file: reading %s: %w", s.path, err)
	}

	token, err := decodeToken(data)
	if err != nil {
		return nil, fmt.Errorf("token file: %s: %w", s.path, err)
	}

	return token, nil
}

// Save writes the token file atomically (write-to-temp + rename) with 0600
// permissions.
func (s *FileStorage) Save(_ context.Context, token *oauth2.Token) error {
	data, err := encodeToken(token)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir := filepath.Dir(s.path)

	err = os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("token file: creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("token file: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	err = tmp.Chmod(constants.ConfigFilePerm)
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("token file: setting permissions: %w", err)
	}

	_, err = tmp.Write(data)
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("token file: writing: %w", err)
	}

	err = tmp.Sync()
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("token file: syncing: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("token file: closing: %w", err)
	}

	err = os.Rename(tmpPath, s.path)
	if err != nil {
		return fmt.Errorf("token file: renaming: %w", err)
	}

	success = true

	return nil
}

// Clear truncates the token file to empty, creating it if needed.
func (s *FileStorage) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("token file: truncating %s: %w", s.path, err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("token file: closing %s: %w", s.path, err)
	}

	return nil
}
