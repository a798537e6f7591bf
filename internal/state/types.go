package state

import (
	"time"

	"github.com/prismeai/prisme-cli/internal/model"
)

// State is everything the mock backend persists between runs.
type State struct {
	Version     int                           `json:"version"`
	Users       map[string]*User              `json:"users"`
	Sessions    map[string]*Session           `json:"sessions"`
	Workspaces  map[string]*model.Workspace   `json:"workspaces"`
	Events      map[string][]model.Event      `json:"events"`
	Permissions map[string][]model.Permission `json:"permissions"`
	// Store lists the apps available for installation, by app slug.
	Store map[string]*App `json:"store"`
}

type User struct {
	model.User
	Password  string `json:"password,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

type Session struct {
	UserID  string    `json:"userId"`
	Expires time.Time `json:"expires"`
}

// App is a published app: its config schema and the blocks it contributes.
type App struct {
	Slug         string                 `json:"slug"`
	Name         model.LocalizedText    `json:"name"`
	Version      string                 `json:"version"`
	ConfigSchema map[string]any         `json:"configSchema,omitempty"`
	Blocks       []model.BlockInCatalog `json:"blocks,omitempty"`
}

// PermissionKey indexes State.Permissions.
func PermissionKey(subjectType, id string) string {
	return subjectType + "/" + id
}
