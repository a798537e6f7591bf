package mock

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/names"
	"github.com/prismeai/prisme-cli/internal/state"
)

// ListWorkspaces returns workspace summaries, most recently updated first.
func (b *Backend) ListWorkspaces(limit int) []model.Workspace {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Workspace, 0, len(b.st.Workspaces))
	for _, ws := range b.st.Workspaces {
		out = append(out, model.Workspace{
			ID:          ws.ID,
			Name:        ws.Name,
			Description: ws.Description,
			Photo:       ws.Photo,
			CreatedAt:   ws.CreatedAt,
			UpdatedAt:   ws.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, c := out[i].UpdatedAt, out[j].UpdatedAt
		if a == nil || c == nil {
			return a != nil
		}
		if a.Equal(*c) {
			return out[i].ID < out[j].ID
		}
		return a.After(*c)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (b *Backend) GetWorkspace(id string) (*model.Workspace, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(id)
	if err != nil {
		return nil, err
	}
	cp := *ws
	return &cp, nil
}

func (b *Backend) CreateWorkspace(name, userID string) (*model.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("name is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	ws := &model.Workspace{
		ID:          uuid.NewString(),
		Name:        name,
		Automations: map[string]*model.Automation{},
		Pages:       map[string]*model.Page{},
		Blocks:      map[string]*model.Block{},
		Imports:     map[string]*model.AppInstance{},
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	b.st.Workspaces[ws.ID] = ws
	if userID != "" {
		var email string
		if u := b.st.Users[userID]; u != nil {
			email = u.Email
		}
		b.st.Permissions[state.PermissionKey("workspaces", ws.ID)] = []model.Permission{
			{Target: model.PermissionTarget{ID: userID, Email: email}, Role: "owner"},
		}
	}
	b.emit(ws.ID, userID, "workspaces.created", map[string]any{"workspace": map[string]any{"id": ws.ID, "name": ws.Name}})
	cp := *ws
	return &cp, b.persist()
}

func (b *Backend) UpdateWorkspace(id, userID string, body []byte) (*model.Workspace, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, err := b.workspace(id)
	if err != nil {
		return nil, err
	}
	next, err := patch(cur, body)
	if err != nil {
		return nil, err
	}
	next.ID = id
	next.CreatedAt = cur.CreatedAt
	if strings.TrimSpace(next.Name) == "" {
		return nil, badRequest("name is required")
	}
	ensureMaps(next)
	b.touch(next)
	b.st.Workspaces[id] = next
	b.emit(id, userID, "workspaces.updated", map[string]any{"workspace": map[string]any{"id": id, "name": next.Name}})
	cp := *next
	return &cp, b.persist()
}

func (b *Backend) DeleteWorkspace(id, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.workspace(id); err != nil {
		return err
	}
	b.emit(id, userID, "workspaces.deleted", map[string]any{"workspaceId": id})
	delete(b.st.Workspaces, id)
	delete(b.st.Events, id)
	delete(b.st.Permissions, state.PermissionKey("workspaces", id))
	return b.persist()
}

func ensureMaps(ws *model.Workspace) {
	if ws.Automations == nil {
		ws.Automations = map[string]*model.Automation{}
	}
	if ws.Pages == nil {
		ws.Pages = map[string]*model.Page{}
	}
	if ws.Blocks == nil {
		ws.Blocks = map[string]*model.Block{}
	}
	if ws.Imports == nil {
		ws.Imports = map[string]*model.AppInstance{}
	}
}

func (b *Backend) GetAutomation(wsID, slug string) (*model.Automation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	a := ws.Automations[slug]
	if a == nil {
		return nil, notFound("automation", slug)
	}
	cp := *a
	cp.Slug = slug
	return &cp, nil
}

func (b *Backend) CreateAutomation(wsID, userID string, a model.Automation) (*model.Automation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	ensureMaps(ws)
	hint := a.Slug
	if hint == "" {
		hint = model.Localize(a.Name, "en")
	}
	a.Slug = names.UniqueSlug(hint, "automation", sortedKeys(ws.Automations))
	if a.Name.IsZero() {
		a.Name = model.Text(a.Slug)
	}
	if a.Do == nil {
		a.Do = []model.Instruction{}
	}
	a.ID = uuid.NewString()
	ws.Automations[a.Slug] = &a
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.automations.created", map[string]any{"automation": map[string]any{"slug": a.Slug}})
	cp := a
	return &cp, b.persist()
}

// UpdateAutomation patches an automation; a new slug in the body renames it.
func (b *Backend) UpdateAutomation(wsID, slug, userID string, body []byte) (*model.Automation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	cur := ws.Automations[slug]
	if cur == nil {
		return nil, notFound("automation", slug)
	}
	next, err := patch(cur, body)
	if err != nil {
		return nil, err
	}
	next.ID = cur.ID
	newSlug := strings.TrimSpace(next.Slug)
	if newSlug == "" {
		newSlug = slug
	}
	if newSlug != slug {
		if ws.Automations[newSlug] != nil {
			return nil, conflict("automation slug already used: " + newSlug)
		}
		delete(ws.Automations, slug)
	}
	next.Slug = newSlug
	ws.Automations[newSlug] = next
	b.touch(ws)
	payload := map[string]any{"automation": map[string]any{"slug": newSlug}}
	if newSlug != slug {
		payload["oldSlug"] = slug
	}
	b.emit(wsID, userID, "workspaces.automations.updated", payload)
	cp := *next
	return &cp, b.persist()
}

func (b *Backend) DeleteAutomation(wsID, slug, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return err
	}
	if ws.Automations[slug] == nil {
		return notFound("automation", slug)
	}
	delete(ws.Automations, slug)
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.automations.deleted", map[string]any{"automation": map[string]any{"slug": slug}})
	return b.persist()
}

func (b *Backend) ListPages(wsID string) ([]model.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Page, 0, len(ws.Pages))
	for _, slug := range sortedKeys(ws.Pages) {
		p := *ws.Pages[slug]
		p.Slug = slug
		p.WorkspaceID = wsID
		out = append(out, p)
	}
	return out, nil
}

// findPage accepts a page slug or id.
func findPage(ws *model.Workspace, ref string) (string, *model.Page) {
	if p := ws.Pages[ref]; p != nil {
		return ref, p
	}
	for slug, p := range ws.Pages {
		if p != nil && p.ID == ref {
			return slug, p
		}
	}
	return "", nil
}

func (b *Backend) GetPage(wsID, ref string) (*model.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	slug, p := findPage(ws, ref)
	if p == nil {
		return nil, notFound("page", ref)
	}
	cp := *p
	cp.Slug = slug
	cp.WorkspaceID = wsID
	return &cp, nil
}

func (b *Backend) CreatePage(wsID, userID string, p model.Page) (*model.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	ensureMaps(ws)
	hint := p.Slug
	if hint == "" {
		hint = model.Localize(p.Name, "en")
	}
	p.Slug = names.UniqueSlug(hint, "page", sortedKeys(ws.Pages))
	if p.Name.IsZero() {
		p.Name = model.Text(p.Slug)
	}
	if p.Blocks == nil {
		p.Blocks = []model.BlockConfig{}
	}
	p.ID = uuid.NewString()
	p.WorkspaceID = wsID
	ws.Pages[p.Slug] = &p
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.pages.created", map[string]any{"page": map[string]any{"id": p.ID, "slug": p.Slug}})
	cp := p
	return &cp, b.persist()
}

func (b *Backend) UpdatePage(wsID, ref, userID string, body []byte) (*model.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return nil, err
	}
	slug, cur := findPage(ws, ref)
	if cur == nil {
		return nil, notFound("page", ref)
	}
	next, err := patch(cur, body)
	if err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.WorkspaceID = wsID
	newSlug := strings.TrimSpace(next.Slug)
	if newSlug == "" {
		newSlug = slug
	}
	if newSlug != slug {
		if ws.Pages[newSlug] != nil {
			return nil, conflict("page slug already used: " + newSlug)
		}
		delete(ws.Pages, slug)
	}
	next.Slug = newSlug
	if next.Blocks == nil {
		next.Blocks = []model.BlockConfig{}
	}
	ws.Pages[newSlug] = next
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.pages.updated", map[string]any{"page": map[string]any{"id": next.ID, "slug": newSlug}})
	cp := *next
	return &cp, b.persist()
}

func (b *Backend) DeletePage(wsID, ref, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, err := b.workspace(wsID)
	if err != nil {
		return err
	}
	slug, p := findPage(ws, ref)
	if p == nil {
		return notFound("page", ref)
	}
	delete(ws.Pages, slug)
	b.touch(ws)
	b.emit(wsID, userID, "workspaces.pages.deleted", map[string]any{"page": map[string]any{"id": p.ID, "slug": slug}})
	return b.persist()
}
