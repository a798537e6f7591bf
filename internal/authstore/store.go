// Package authstore keeps session tokens per API base URL.
package authstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Record struct {
	Token     string     `json:"token"`
	Email     string     `json:"email,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Expired reports whether the record carries an expiry before now.
func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

type Store struct {
	Tokens map[string]Record `json:"tokens"`
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		h, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.New("cannot determine config dir")
		}
		dir = filepath.Join(h, ".config")
	}
	return filepath.Join(dir, "prisme", "auth.json"), nil
}

func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Store
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Tokens == nil {
		s.Tokens = map[string]Record{}
	}
	return &s, nil
}

// LoadOrEmpty is Load with a missing file treated as an empty store.
func LoadOrEmpty(path string) (*Store, error) {
	s, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Store{Tokens: map[string]Record{}}, nil
	}
	return s, err
}

func SaveAtomic(path string, s *Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if s.Tokens == nil {
		s.Tokens = map[string]Record{}
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func normalizeURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

// Get returns the record stored for baseURL when it holds a token.
func (s *Store) Get(baseURL string) (Record, bool) {
	if s == nil || s.Tokens == nil {
		return Record{}, false
	}
	baseURL = normalizeURL(baseURL)
	if baseURL == "" {
		return Record{}, false
	}
	rec, ok := s.Tokens[baseURL]
	if !ok {
		return Record{}, false
	}
	rec.Token = strings.TrimSpace(rec.Token)
	if rec.Token == "" {
		return Record{}, false
	}
	return rec, true
}

func (s *Store) Set(baseURL string, rec Record) {
	if s.Tokens == nil {
		s.Tokens = map[string]Record{}
	}
	baseURL = normalizeURL(baseURL)
	rec.Token = strings.TrimSpace(rec.Token)
	if baseURL == "" || rec.Token == "" {
		return
	}
	rec.UpdatedAt = time.Now().UTC()
	s.Tokens[baseURL] = rec
}

func (s *Store) Delete(baseURL string) {
	if s == nil || s.Tokens == nil {
		return
	}
	baseURL = normalizeURL(baseURL)
	if baseURL == "" {
		return
	}
	delete(s.Tokens, baseURL)
}
