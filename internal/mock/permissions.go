package mock

import (
	"strings"

	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/state"
)

// PublicTarget is the target id that designates everyone.
const PublicTarget = "*"

func (b *Backend) subjectExists(subjectType, id string) error {
	switch subjectType {
	case "workspaces":
		_, err := b.workspace(id)
		return err
	case "pages":
		for _, ws := range b.st.Workspaces {
			if _, p := findPage(ws, id); p != nil {
				return nil
			}
		}
		return notFound("page", id)
	case "apps":
		if b.st.Store[id] == nil {
			return notFound("app", id)
		}
		return nil
	}
	return badRequest("unknown subject type %q", subjectType)
}

func (b *Backend) ListPermissions(subjectType, id string) ([]model.Permission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.subjectExists(subjectType, id); err != nil {
		return nil, err
	}
	list := b.st.Permissions[state.PermissionKey(subjectType, id)]
	out := make([]model.Permission, len(list))
	copy(out, list)
	return out, nil
}

func sameTarget(a, c model.PermissionTarget) bool {
	switch {
	case a.Public || c.Public:
		return a.Public && c.Public
	case a.ID != "" && c.ID != "":
		return a.ID == c.ID
	default:
		return a.Email != "" && strings.EqualFold(a.Email, c.Email)
	}
}

// AddPermission grants or replaces the permission of one target. A known
// email is resolved to its user id.
func (b *Backend) AddPermission(subjectType, id, userID string, p model.Permission) (*model.Permission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.subjectExists(subjectType, id); err != nil {
		return nil, err
	}
	t := &p.Target
	t.Email = strings.TrimSpace(t.Email)
	if !t.Public && t.ID == "" && t.Email == "" {
		return nil, badRequest("permission target needs an id, an email or public")
	}
	if t.ID == PublicTarget {
		t.ID = ""
		t.Public = true
	}
	if !t.Public && t.ID == "" {
		if u := b.userByEmail(t.Email); u != nil {
			t.ID = u.ID
		}
	}
	if p.Role == "" && len(p.Policies) == 0 {
		p.Role = "editor"
	}
	key := state.PermissionKey(subjectType, id)
	list := b.st.Permissions[key]
	replaced := false
	for i := range list {
		if sameTarget(list[i].Target, p.Target) {
			list[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, p)
	}
	b.st.Permissions[key] = list
	if subjectType == "workspaces" {
		b.emit(id, userID, "workspaces.sharing.updated", map[string]any{"target": p.Target, "role": p.Role})
	}
	cp := p
	return &cp, b.persist()
}

// DeletePermission revokes a target given by user id, email or PublicTarget.
func (b *Backend) DeletePermission(subjectType, id, target, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.subjectExists(subjectType, id); err != nil {
		return err
	}
	want := model.PermissionTarget{ID: target}
	switch {
	case target == PublicTarget:
		want = model.PermissionTarget{Public: true}
	case strings.Contains(target, "@"):
		want = model.PermissionTarget{Email: target}
	}
	key := state.PermissionKey(subjectType, id)
	list := b.st.Permissions[key]
	kept := list[:0:0]
	for _, p := range list {
		if !sameTarget(p.Target, want) {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(list) {
		return notFound("permission", target)
	}
	b.st.Permissions[key] = kept
	if subjectType == "workspaces" {
		b.emit(id, userID, "workspaces.sharing.deleted", map[string]any{"target": want})
	}
	return b.persist()
}
