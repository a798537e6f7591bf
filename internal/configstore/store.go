// Package configstore persists CLI settings and console UI preferences.
package configstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

const (
	DefaultAPIURL      = "https://api.studio.prisme.ai/v2"
	DefaultLocalAPIURL = "http://localhost:3001/v2"

	// SidebarMinimizedPref holds "1" when the workspace sidebar is collapsed.
	SidebarMinimizedPref = "__workpaceSidebarMinimized"
)

type Store struct {
	APIURL      string            `json:"apiUrl,omitempty"`
	ConsoleURL  string            `json:"consoleUrl,omitempty"`
	WorkspaceID string            `json:"workspaceId,omitempty"`
	Lang        string            `json:"lang,omitempty"`
	Prefs       map[string]string `json:"prefs,omitempty"`
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("cannot determine user config dir")
	}
	return filepath.Join(dir, "prisme", "config.json"), nil
}

// Load reads a config file. Comments and trailing commas are allowed.
func Load(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("missing path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st Store
	if err := json.Unmarshal(jsonc.ToJSON(b), &st); err != nil {
		return nil, err
	}
	st.APIURL = strings.TrimSpace(st.APIURL)
	st.ConsoleURL = strings.TrimSpace(st.ConsoleURL)
	st.WorkspaceID = strings.TrimSpace(st.WorkspaceID)
	st.Lang = strings.TrimSpace(st.Lang)
	return &st, nil
}

// LoadOrEmpty is Load with a missing file treated as an empty config.
func LoadOrEmpty(path string) (*Store, error) {
	st, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Store{}, nil
	}
	return st, err
}

func SaveAtomic(path string, st *Store) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("missing path")
	}
	if st == nil {
		return errors.New("missing store")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) Pref(key string) (string, bool) {
	if s == nil || s.Prefs == nil {
		return "", false
	}
	v, ok := s.Prefs[key]
	return v, ok
}

// SetPref stores a preference; an empty value removes it.
func (s *Store) SetPref(key, value string) {
	if value == "" {
		delete(s.Prefs, key)
		return
	}
	if s.Prefs == nil {
		s.Prefs = map[string]string{}
	}
	s.Prefs[key] = value
}

func (s *Store) SidebarMinimized() bool {
	v, _ := s.Pref(SidebarMinimizedPref)
	return v == "1"
}

func (s *Store) SetSidebarMinimized(minimized bool) {
	v := "0"
	if minimized {
		v = "1"
	}
	s.SetPref(SidebarMinimizedPref, v)
}
