package mock

import (
	"strings"

	"github.com/google/uuid"

	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/names"
	"github.com/prismeai/prisme-cli/internal/schema"
)

func (b *Backend) ListApps(wsID string) ([]model.AppInstance, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	out := make([]model.AppInstance, 0, len(ws.Imports))
	for _, slug := range sortedKeys(ws.Imports) {
		inst := *ws.Imports[slug]
		inst.Slug = slug
		out = append(out, inst)
	}
	return out, nil
}

type installBody struct {
	AppSlug    string `json:"appSlug"`
	Slug       string `json:"slug"`
	AppVersion string `json:"appVersion"`
}

// InstallApp imports a store app into the workspace under a unique slug.
func (b *Backend) InstallApp(wsID, userID string, req installBody) (*model.AppInstance, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	app := b.st.Store[req.AppSlug]
	if app == nil {
		return nil, notFound("app", req.AppSlug)
	}
	ensureMaps(ws)
	hint := strings.TrimSpace(req.Slug)
	if hint == "" {
		hint = app.Slug
	}
	version := req.AppVersion
	if version == "" {
		version = app.Version
	}
	blocks := make([]model.BlockInCatalog, len(app.Blocks))
	copy(blocks, app.Blocks)
	inst := &model.AppInstance{
		ID:         uuid.NewString(),
		Slug:       names.UniqueSlug(hint, app.Slug, sortedKeys(ws.Imports)),
		AppSlug:    app.Slug,
		AppName:    app.Name,
		AppVersion: version,
		Config: &model.ConfigSection{
			Schema: copyMap(app.ConfigSchema),
			Value:  map[string]any{},
		},
		Blocks: blocks,
	}
	ws.Imports[inst.Slug] = inst
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.apps.installed", map[string]any{"appInstance": map[string]any{"slug": inst.Slug, "appSlug": inst.AppSlug}})
	cp := *inst
	return &cp, b.persist()
}

func (b *Backend) UpdateApp(wsID, slug, userID string, body []byte) (*model.AppInstance, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	cur := ws.Imports[slug]
	if cur == nil {
		return nil, notFound("app instance", slug)
	}
	next, err := patch(cur, body)
	if err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.Slug = slug
	next.AppSlug = cur.AppSlug
	ws.Imports[slug] = next
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.apps.configured", map[string]any{"appInstance": map[string]any{"slug": slug, "appSlug": next.AppSlug}})
	cp := *next
	return &cp, b.persist()
}

func (b *Backend) UninstallApp(wsID, slug, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return err
	}
	inst := ws.Imports[slug]
	if inst == nil {
		return notFound("app instance", slug)
	}
	delete(ws.Imports, slug)
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.apps.uninstalled", map[string]any{"appInstance": map[string]any{"slug": slug, "appSlug": inst.AppSlug}})
	return b.persist()
}

func (b *Backend) AppConfig(wsID, slug string) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	inst := ws.Imports[slug]
	if inst == nil {
		return nil, notFound("app instance", slug)
	}
	if inst.Config == nil || inst.Config.Value == nil {
		return map[string]any{}, nil
	}
	return copyMap(inst.Config.Value), nil
}

// SaveAppConfig merges values into the instance config; nil values remove
// keys.
func (b *Backend) SaveAppConfig(wsID, slug, userID string, values map[string]any) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	inst := ws.Imports[slug]
	if inst == nil {
		return nil, notFound("app instance", slug)
	}
	if inst.Config == nil {
		inst.Config = &model.ConfigSection{}
	}
	if inst.Config.Value == nil {
		inst.Config.Value = map[string]any{}
	}
	for k, v := range values {
		if v == nil {
			delete(inst.Config.Value, k)
			continue
		}
		inst.Config.Value[k] = v
	}
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.apps.configured", map[string]any{"appInstance": map[string]any{"slug": slug, "appSlug": inst.AppSlug}})
	return copyMap(inst.Config.Value), b.persist()
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return schema.CopyValue(m).(map[string]any)
}
