package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type fileSession struct {
	Token string `json:"token"`
}

// FileTokenStore keeps the session token in a JSON file readable only by
// the current user.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load returns "" with no error when there is no saved session.
func (s *FileTokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var fs fileSession
	if err := json.Unmarshal(b, &fs); err != nil {
		return "", err
	}
	return fs.Token, nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(fileSession{Token: token})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
