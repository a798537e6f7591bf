package state

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prismeai/prisme-cli/internal/model"
)

const (
	DemoUserID    = "user-demo"
	DemoEmail     = "dev@prisme.test"
	DemoPassword  = "prisme"
	DemoToken     = "mock-token-demo"
	DemoWorkspace = "ws-demo"
)

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		h, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.New("cannot determine config dir")
		}
		dir = filepath.Join(h, ".config")
	}
	return filepath.Join(dir, "prisme", "mock", "state.json"), nil
}

func EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func Load(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	s.init()
	return &s, nil
}

func SaveAtomic(path string, s *State) error {
	if err := EnsureParentDir(path); err != nil {
		return err
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

func (s *State) init() {
	if s.Users == nil {
		s.Users = map[string]*User{}
	}
	if s.Sessions == nil {
		s.Sessions = map[string]*Session{}
	}
	if s.Workspaces == nil {
		s.Workspaces = map[string]*model.Workspace{}
	}
	if s.Events == nil {
		s.Events = map[string][]model.Event{}
	}
	if s.Permissions == nil {
		s.Permissions = map[string][]model.Permission{}
	}
	if s.Store == nil {
		s.Store = map[string]*App{}
	}
}

// Empty returns a state with every map allocated and nothing in it.
func Empty() *State {
	s := &State{Version: 1}
	s.init()
	return s
}

// SeedDefault returns a state with a demo user signed in (DemoToken), one
// workspace holding an automation and a page, and two apps in the store.
func SeedDefault() *State {
	now := time.Now().UTC()
	s := Empty()

	s.Users[DemoUserID] = &User{
		User: model.User{
			ID:        DemoUserID,
			Email:     DemoEmail,
			FirstName: "Dev",
			LastName:  "Prisme",
			Language:  "en",
		},
		Password: DemoPassword,
	}
	s.Sessions[DemoToken] = &Session{UserID: DemoUserID, Expires: now.Add(30 * 24 * time.Hour)}

	created := now.Add(-72 * time.Hour)
	updated := now.Add(-2 * time.Hour)
	ws := &model.Workspace{
		ID:          DemoWorkspace,
		Name:        "Demo Workspace",
		Description: model.LocalizedText{Translations: map[string]string{"en": "A workspace to play with", "fr": "Un espace pour jouer"}},
		Automations: map[string]*model.Automation{},
		Pages:       map[string]*model.Page{},
		Blocks:      map[string]*model.Block{},
		Imports:     map[string]*model.AppInstance{},
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}

	ws.Automations["hello"] = &model.Automation{
		Slug: "hello",
		Name: model.LocalizedText{Translations: map[string]string{"en": "Hello", "fr": "Bonjour"}},
		When: &model.When{Events: []string{"hello"}},
		Do: []model.Instruction{
			{Kind: model.KindSet, Set: &model.Set{Name: "greeting", Value: "Hello {{payload.name}}"}},
			{Kind: model.KindEmit, Emit: &model.Emit{Event: "greeted", Payload: map[string]any{"text": "{{greeting}}"}}},
		},
	}
	ws.Pages["home"] = &model.Page{
		ID:          "page-home",
		WorkspaceID: DemoWorkspace,
		Slug:        "home",
		Name:        model.LocalizedText{Translations: map[string]string{"en": "Home", "fr": "Accueil"}},
		Blocks: []model.BlockConfig{
			{Slug: "Header", Config: map[string]any{"title": "Welcome"}},
			{Slug: "RichText", Config: map[string]any{"content": "<p>Hello</p>"}},
		},
	}
	ws.Blocks["counter"] = &model.Block{
		Slug: "counter",
		Name: model.Text("Counter"),
		URL:  "https://cdn.example.test/blocks/counter.js",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start": map[string]any{"type": "number", "title": "Start"},
			},
		},
	}
	s.Workspaces[ws.ID] = ws

	s.Store["slack"] = &App{
		Slug:    "slack",
		Name:    model.Text("Slack"),
		Version: "1.2.0",
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"token":   map[string]any{"type": "string", "title": "Bot token", "ui:widget": "password"},
				"channel": map[string]any{"type": "string", "title": "Default channel"},
			},
		},
	}
	s.Store["charts"] = &App{
		Slug:    "charts",
		Name:    model.Text("Charts"),
		Version: "0.4.1",
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"theme": map[string]any{"type": "string", "title": "Theme", "enum": []any{"light", "dark"}},
			},
		},
		Blocks: []model.BlockInCatalog{
			{Slug: "BarChart", Name: model.Text("Bar chart"), URL: "https://cdn.example.test/charts/bar.js"},
			{Slug: "PieChart", Name: model.Text("Pie chart"), URL: "https://cdn.example.test/charts/pie.js"},
		},
	}

	s.Permissions[PermissionKey("workspaces", ws.ID)] = []model.Permission{
		{Target: model.PermissionTarget{ID: DemoUserID, Email: DemoEmail}, Role: "owner"},
	}

	s.Events[ws.ID] = []model.Event{
		{
			ID:        "evt-seed-1",
			Type:      "workspaces.created",
			CreatedAt: created,
			Source:    model.EventSource{WorkspaceID: ws.ID, UserID: DemoUserID},
			Payload:   map[string]any{"workspace": map[string]any{"id": ws.ID, "name": ws.Name}},
		},
		{
			ID:        "evt-seed-2",
			Type:      "workspaces.automations.created",
			CreatedAt: updated,
			Source:    model.EventSource{WorkspaceID: ws.ID, UserID: DemoUserID},
			Payload:   map[string]any{"automation": map[string]any{"slug": "hello"}},
		},
	}
	return s
}
