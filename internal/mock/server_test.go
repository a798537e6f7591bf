package mock

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/archive"
	"github.com/prismeai/prisme-cli/internal/events"
	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/state"
)

func newTestServer(t *testing.T, opts ...Option) (*Backend, *httptest.Server, api.Client) {
	t.Helper()
	b := NewBackend(state.SeedDefault(), opts...)
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return b, srv, api.Client{BaseURL: srv.URL, Token: state.DemoToken}
}

func TestAuthFlow(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.DemoEmail, me.Email)

	anon := api.Client{BaseURL: c.BaseURL}
	_, err = anon.Me(ctx)
	assert.Equal(t, 401, api.StatusOf(err))

	_, err = anon.Signin(ctx, state.DemoEmail, "wrong")
	assert.Equal(t, 401, api.StatusOf(err))

	sess, err := anon.Signin(ctx, "DEV@prisme.test", state.DemoPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, state.DemoUserID, sess.ID)

	up, err := anon.Signup(ctx, api.SignupRequest{Email: "new@prisme.test", Password: "pw", FirstName: "New"})
	require.NoError(t, err)
	assert.Equal(t, "en", up.Language)

	_, err = anon.Signup(ctx, api.SignupRequest{Email: "new@prisme.test", Password: "pw"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "AlreadyUsed", apiErr.Code)

	signed := api.Client{BaseURL: c.BaseURL, Token: up.Token}
	require.NoError(t, signed.Signout(ctx))
	_, err = signed.Me(ctx)
	assert.Equal(t, 401, api.StatusOf(err))
}

func TestWorkspaceLifecycle(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	ws, err := c.CreateWorkspace(ctx, "Support")
	require.NoError(t, err)
	require.NotEmpty(t, ws.ID)

	list, err := c.GetWorkspaces(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ws.ID, list[0].ID, "newest workspace first")
	assert.Nil(t, list[0].Automations, "list returns summaries")

	limited, err := c.GetWorkspaces(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	ws.Name = "Support desk"
	updated, err := c.UpdateWorkspace(ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, "Support desk", updated.Name)

	perms, err := c.GetPermissions(ctx, "workspaces", ws.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "owner", perms[0].Role)

	require.NoError(t, c.DeleteWorkspace(ctx, ws.ID))
	_, err = c.GetWorkspace(ctx, ws.ID)
	assert.True(t, api.IsNotFound(err))
}

func TestAutomationCreateGeneratesUniqueSlug(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	a, err := c.CreateAutomation(ctx, state.DemoWorkspace, &model.Automation{Name: model.Text("Hello")})
	require.NoError(t, err)
	assert.Equal(t, "hello-1", a.Slug)
	assert.NotNil(t, a.Do)

	got, err := c.GetAutomation(ctx, state.DemoWorkspace, "hello-1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Name.Text)

	got.Slug = "renamed"
	renamed, err := c.UpdateAutomation(ctx, state.DemoWorkspace, "hello-1", got)
	require.NoError(t, err)
	assert.Equal(t, "renamed", renamed.Slug)
	_, err = c.GetAutomation(ctx, state.DemoWorkspace, "hello-1")
	assert.True(t, api.IsNotFound(err))

	got.Slug = "hello"
	_, err = c.UpdateAutomation(ctx, state.DemoWorkspace, "renamed", got)
	assert.Equal(t, 409, api.StatusOf(err))

	require.NoError(t, c.DeleteAutomation(ctx, state.DemoWorkspace, "renamed"))
}

func TestPagesCRUD(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	p, err := c.CreatePage(ctx, state.DemoWorkspace, &model.Page{Name: model.Text("Contact us")})
	require.NoError(t, err)
	assert.Equal(t, "contact-us", p.Slug)
	assert.NotEmpty(t, p.ID)

	byID, err := c.GetPage(ctx, state.DemoWorkspace, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "contact-us", byID.Slug)

	byID.Blocks = append(byID.Blocks, model.BlockConfig{Slug: "RichText", Config: map[string]any{"content": "hi"}})
	updated, err := c.UpdatePage(ctx, state.DemoWorkspace, "contact-us", byID)
	require.NoError(t, err)
	require.Len(t, updated.Blocks, 1)

	pages, err := c.GetPages(ctx, state.DemoWorkspace)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "contact-us", pages[0].Slug)
	assert.Equal(t, "home", pages[1].Slug)

	require.NoError(t, c.DeletePage(ctx, state.DemoWorkspace, "contact-us"))
	_, err = c.GetPage(ctx, state.DemoWorkspace, "contact-us")
	assert.True(t, api.IsNotFound(err))
}

func TestAppsInstallAndConfigure(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	_, err := c.InstallApp(ctx, state.DemoWorkspace, api.InstallRequest{AppSlug: "missing"})
	assert.True(t, api.IsNotFound(err))

	inst, err := c.InstallApp(ctx, state.DemoWorkspace, api.InstallRequest{AppSlug: "charts"})
	require.NoError(t, err)
	assert.Equal(t, "charts", inst.Slug)
	assert.Len(t, inst.Blocks, 2)

	again, err := c.InstallApp(ctx, state.DemoWorkspace, api.InstallRequest{AppSlug: "charts"})
	require.NoError(t, err)
	assert.Equal(t, "charts-1", again.Slug)

	cfg, err := c.SaveAppConfig(ctx, state.DemoWorkspace, "charts", map[string]any{"theme": "dark"})
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg["theme"])

	cfg, err = c.GetAppConfig(ctx, state.DemoWorkspace, "charts")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "dark"}, cfg)

	apps, err := c.ListAppInstances(ctx, state.DemoWorkspace)
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	require.NoError(t, c.UninstallApp(ctx, state.DemoWorkspace, "charts-1"))
	apps, err = c.ListAppInstances(ctx, state.DemoWorkspace)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestEventsPaging(t *testing.T) {
	base := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	n := 0
	clock := func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	_, _, c := newTestServer(t, WithClock(clock))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.CreateAutomation(ctx, state.DemoWorkspace, &model.Automation{Name: model.Text("Auto")})
		require.NoError(t, err)
	}

	first := c.GetEvents(ctx, state.DemoWorkspace, api.EventsQuery{Limit: 3})
	require.Len(t, first, 3)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	next := c.GetEvents(ctx, state.DemoWorkspace, api.EventsQuery{Limit: 3, BeforeDate: first[2].CreatedAt})
	require.Len(t, next, 3)
	assert.True(t, next[0].CreatedAt.Before(first[2].CreatedAt))

	typed := c.GetEvents(ctx, state.DemoWorkspace, api.EventsQuery{Types: []string{"workspaces.created"}})
	require.Len(t, typed, 1)
	assert.Equal(t, "evt-seed-1", typed[0].ID)

	wild := c.GetEvents(ctx, state.DemoWorkspace, api.EventsQuery{Types: []string{"workspaces.automations.*"}, Limit: 50})
	assert.Len(t, wild, 6)

	missing := c.GetEvents(ctx, "nope", api.EventsQuery{})
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestEventsSocketReceivesMutations(t *testing.T) {
	b, srv, c := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := events.Dial(ctx, events.Options{BaseURL: srv.URL, WorkspaceID: state.DemoWorkspace, Token: state.DemoToken})
	defer stream.Destroy()

	got := make(chan model.Event, 4)
	stream.On("workspaces.pages.created", func(ev model.Event) { got <- ev })

	select {
	case <-stream.Connected():
	case <-stream.Done():
		t.Fatalf("stream ended: %v", stream.Err())
	case <-ctx.Done():
		t.Fatal("timed out connecting")
	}
	assert.Equal(t, 1, b.hub.count(state.DemoWorkspace))

	_, err := c.CreatePage(ctx, state.DemoWorkspace, &model.Page{Name: model.Text("Live")})
	require.NoError(t, err)

	select {
	case ev := <-got:
		assert.Equal(t, state.DemoWorkspace, ev.Source.WorkspaceID)
		assert.Equal(t, state.DemoUserID, ev.Source.UserID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestPermissionsShareAndRevoke(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()
	ws := state.DemoWorkspace

	_, err := c.AddPermission(ctx, "workspaces", ws, model.Permission{Target: model.PermissionTarget{Email: "friend@prisme.test"}})
	require.NoError(t, err)
	_, err = c.AddPermission(ctx, "workspaces", ws, model.Permission{Target: model.PermissionTarget{Email: "friend@prisme.test"}, Role: "owner"})
	require.NoError(t, err)
	_, err = c.AddPermission(ctx, "workspaces", ws, model.Permission{Target: model.PermissionTarget{Public: true}, Policies: map[string]bool{"read": true}})
	require.NoError(t, err)

	perms, err := c.GetPermissions(ctx, "workspaces", ws)
	require.NoError(t, err)
	require.Len(t, perms, 3)
	assert.Equal(t, "owner", perms[1].Role)

	require.NoError(t, c.DeletePermission(ctx, "workspaces", ws, "*"))
	require.NoError(t, c.DeletePermission(ctx, "workspaces", ws, "friend@prisme.test"))
	perms, err = c.GetPermissions(ctx, "workspaces", ws)
	require.NoError(t, err)
	assert.Len(t, perms, 1)

	err = c.DeletePermission(ctx, "workspaces", ws, "friend@prisme.test")
	assert.True(t, api.IsNotFound(err))

	_, err = c.GetPermissions(ctx, "pages", "page-home")
	require.NoError(t, err)
	_, err = c.GetPermissions(ctx, "robots", "x")
	assert.Equal(t, 400, api.StatusOf(err))
}

func TestExportArchive(t *testing.T) {
	_, _, c := newTestServer(t)
	blob, err := c.ExportWorkspace(context.Background(), state.DemoWorkspace)
	require.NoError(t, err)

	entries, err := archive.List(blob)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"index.yml", "automations/hello.yml", "pages/home.yml", "blocks/counter.yml"}, names)

	var hello model.Automation
	require.NoError(t, archive.DecodeYAML(blob, "automations/hello.yml", &hello))
	assert.Len(t, hello.Do, 2)
	assert.Equal(t, "Bonjour", hello.Name.Translations["fr"])

	var index model.Workspace
	require.NoError(t, archive.DecodeYAML(blob, "index.yml", &index))
	assert.Equal(t, "Demo Workspace", index.Name)
	assert.Nil(t, index.Automations)
}

func TestStorePersistsMutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := Store{Path: path}
	st, err := store.Ensure()
	require.NoError(t, err)

	b := NewBackend(st, WithSave(store.Save))
	_, err = b.CreateWorkspace("Persisted", state.DemoUserID)
	require.NoError(t, err)

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, reloaded.Workspaces, 2)
}
