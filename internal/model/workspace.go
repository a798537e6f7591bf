package model

import "time"

type ConfigSection struct {
	Schema map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	Value  map[string]any `json:"value,omitempty" yaml:"value,omitempty"`
}

type Workspace struct {
	ID          string                  `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string                  `json:"name" yaml:"name"`
	Description LocalizedText           `json:"description,omitzero" yaml:"description,omitempty"`
	Photo       string                  `json:"photo,omitempty" yaml:"photo,omitempty"`
	Automations map[string]*Automation  `json:"automations,omitempty" yaml:"automations,omitempty"`
	Pages       map[string]*Page        `json:"pages,omitempty" yaml:"pages,omitempty"`
	Blocks      map[string]*Block       `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Imports     map[string]*AppInstance `json:"imports,omitempty" yaml:"imports,omitempty"`
	Config      *ConfigSection          `json:"config,omitempty" yaml:"config,omitempty"`
	Secrets     *ConfigSection          `json:"secrets,omitempty" yaml:"secrets,omitempty"`
	CreatedAt   *time.Time              `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt   *time.Time              `json:"updatedAt,omitempty" yaml:"-"`
}

// AutomationNames returns the display names of every automation in ws for lang.
func (ws *Workspace) AutomationNames(lang string) []string {
	if ws == nil {
		return nil
	}
	names := make([]string, 0, len(ws.Automations))
	for slug, a := range ws.Automations {
		if a == nil || a.Name.IsZero() {
			names = append(names, slug)
			continue
		}
		names = append(names, Localize(a.Name, lang))
	}
	return names
}

// PageNames returns the display names of every page in ws for lang.
func (ws *Workspace) PageNames(lang string) []string {
	if ws == nil {
		return nil
	}
	names := make([]string, 0, len(ws.Pages))
	for slug, p := range ws.Pages {
		if p == nil || p.Name.IsZero() {
			names = append(names, slug)
			continue
		}
		names = append(names, Localize(p.Name, lang))
	}
	return names
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Language  string `json:"language,omitempty"`
	Photo     string `json:"photo,omitempty"`
}

type PermissionTarget struct {
	ID     string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	Public bool   `json:"public,omitempty"`
}

type Permission struct {
	Target   PermissionTarget `json:"target"`
	Role     string           `json:"role,omitempty"`
	Policies map[string]bool  `json:"policies,omitempty"`
}
