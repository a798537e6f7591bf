package cli_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prismeai/prisme-cli/internal/cli"
	"github.com/prismeai/prisme-cli/internal/mock"
	"github.com/prismeai/prisme-cli/internal/state"
)

type envelope struct {
	OK          bool           `json:"ok"`
	WorkspaceID string         `json:"workspaceId"`
	Meta        map[string]any `json:"meta"`
	Data        map[string]any `json:"data"`
	Error       map[string]any `json:"error"`
	Hint        string         `json:"hint"`
}

type harness struct {
	t       *testing.T
	api     string
	dir     string
	backend *mock.Backend
}

// newHarness serves a freshly seeded mock backend and gives each test its
// own config and token store.
func newHarness(t *testing.T) *harness {
	t.Helper()
	b := mock.NewBackend(state.SeedDefault())
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return &harness{t: t, api: srv.URL, dir: t.TempDir(), backend: b}
}

func (h *harness) configPath() string { return filepath.Join(h.dir, "config.json") }

func (h *harness) exec(args ...string) (string, error) {
	h.t.Helper()
	cmd := cli.NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(new(bytes.Buffer))
	base := []string{
		"--api", h.api,
		"--token", state.DemoToken,
		"--format", "json",
		"--config", h.configPath(),
		"--auth-store", filepath.Join(h.dir, "auth.json"),
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

// run executes args on the demo workspace.
func (h *harness) run(args ...string) (envelope, error) {
	h.t.Helper()
	out, err := h.exec(append([]string{"--workspace", state.DemoWorkspace}, args...)...)
	return decodeEnvelope(h.t, out), err
}

func (h *harness) ok(args ...string) envelope {
	h.t.Helper()
	e, err := h.run(args...)
	if err != nil || !e.OK {
		h.t.Fatalf("%v: expected success, got err=%v envelope=%+v", args, err, e)
	}
	return e
}

func (h *harness) fail(args ...string) envelope {
	h.t.Helper()
	e, err := h.run(args...)
	if err == nil || e.OK {
		h.t.Fatalf("%v: expected failure, got %+v", args, e)
	}
	return e
}

func decodeEnvelope(t *testing.T, s string) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		t.Fatalf("output is not valid JSON: %v\n---\n%s", err, s)
	}
	return e
}

func items(t *testing.T, e envelope, key string) []map[string]any {
	t.Helper()
	raw, ok := e.Data[key].([]any)
	if !ok {
		t.Fatalf("data.%s is not an array: %T", key, e.Data[key])
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			t.Fatalf("data.%s holds %T", key, it)
		}
		out = append(out, m)
	}
	return out
}

func errorCode(e envelope) string {
	code, _ := e.Error["code"].(string)
	return code
}

func TestContract_AutomationsCreateWithoutName(t *testing.T) {
	h := newHarness(t)

	e := h.ok("automations", "create")
	if got := e.Data["path"]; got != "/workspaces/ws-demo/automations/my-automation" {
		t.Fatalf("unexpected path %v", got)
	}
	auto, _ := e.Data["automation"].(map[string]any)
	if auto["name"] != "My automation" {
		t.Fatalf("expected default name, got %v", auto["name"])
	}

	e = h.ok("automations", "create")
	if got := e.Data["path"]; got != "/workspaces/ws-demo/automations/my-automation-1" {
		t.Fatalf("unexpected second path %v", got)
	}
	auto, _ = e.Data["automation"].(map[string]any)
	if auto["name"] != "My automation (1)" {
		t.Fatalf("expected incremented name, got %v", auto["name"])
	}

	list := items(t, h.ok("automations", "list"), "items")
	if len(list) != 3 {
		t.Fatalf("expected 3 automations, got %d", len(list))
	}
}

func TestContract_PagesCreateWithoutName(t *testing.T) {
	h := newHarness(t)

	e := h.ok("pages", "create")
	if got := e.Data["path"]; got != "/workspaces/ws-demo/pages/my-page" {
		t.Fatalf("unexpected path %v", got)
	}
	page, _ := e.Data["page"].(map[string]any)
	if page["name"] != "My page" {
		t.Fatalf("expected default name, got %v", page["name"])
	}
}

func TestContract_AutomationSourceApply(t *testing.T) {
	h := newHarness(t)

	e := h.ok("automations", "source", "get", "hello")
	if e.Data["invalid"] != false {
		t.Fatalf("expected a valid seed automation, got %+v", e.Data)
	}

	file := filepath.Join(h.dir, "hello.yml")
	if err := os.WriteFile(file, []byte("name: Renamed\nwhen:\n  events:\n    - hello\ndo: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	h.ok("automations", "source", "apply", "hello", "-f", file)

	got := h.ok("automations", "get", "hello")
	auto, _ := got.Data["automation"].(map[string]any)
	if auto["name"] != "Renamed" {
		t.Fatalf("expected the applied name, got %v", auto["name"])
	}
}

func TestContract_SourceApplyRejectsInvalidYAML(t *testing.T) {
	h := newHarness(t)
	file := filepath.Join(h.dir, "broken.yml")
	if err := os.WriteFile(file, []byte("name: Hello\n  do: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e := h.fail("automations", "source", "apply", "hello", "-f", file)
	if errorCode(e) != "invalid_source" {
		t.Fatalf("expected invalid_source, got %+v", e.Error)
	}
	details, _ := e.Error["details"].(map[string]any)
	annotations, _ := details["annotations"].([]any)
	if len(annotations) != 1 {
		t.Fatalf("expected one annotation, got %v", details["annotations"])
	}
}

func TestContract_SchemaValidate(t *testing.T) {
	h := newHarness(t)
	good := filepath.Join(h.dir, "page.yml")
	if err := os.WriteFile(good, []byte("name: Home\nblocks:\n  - slug: RichText\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e := h.ok("schema", "validate", "--kind", "page", "-f", good)
	if e.Data["valid"] != true {
		t.Fatalf("expected valid=true, got %+v", e.Data)
	}

	bad := filepath.Join(h.dir, "bad.yml")
	if err := os.WriteFile(bad, []byte("name: Home\n  blocks: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e = h.fail("schema", "validate", "--kind", "page", "-f", bad)
	if errorCode(e) != "invalid_source" {
		t.Fatalf("expected invalid_source, got %+v", e.Error)
	}

	e = h.fail("schema", "validate", "--kind", "widget", "-f", good)
	if errorCode(e) != "invalid_kind" {
		t.Fatalf("expected invalid_kind, got %+v", e.Error)
	}
}

func TestContract_PageBlocksAddAndMove(t *testing.T) {
	h := newHarness(t)

	e := h.ok("pages", "blocks", "add", "home", "Hero", "--set", "title=Hi")
	blocks := items(t, e, "blocks")
	if len(blocks) != 3 || blocks[2]["slug"] != "Hero" {
		t.Fatalf("expected Hero appended, got %v", blocks)
	}
	cfg, _ := blocks[2]["config"].(map[string]any)
	if cfg["title"] != "Hi" {
		t.Fatalf("expected title config, got %v", blocks[2]["config"])
	}

	e = h.ok("pages", "blocks", "move", "home", "2", "0")
	blocks = items(t, e, "blocks")
	order := []string{}
	for _, b := range blocks {
		order = append(order, b["slug"].(string))
	}
	if len(order) != 3 || order[0] != "Hero" || order[1] != "Header" || order[2] != "RichText" {
		t.Fatalf("unexpected order %v", order)
	}

	e = h.ok("pages", "blocks", "remove", "home", "1")
	if got := len(items(t, e, "blocks")); got != 2 {
		t.Fatalf("expected 2 blocks after removal, got %d", got)
	}

	e = h.fail("pages", "blocks", "move", "home", "9", "0")
	if errorCode(e) != "invalid_index" {
		t.Fatalf("expected invalid_index, got %+v", e.Error)
	}
	e = h.fail("pages", "blocks", "add", "home", "NoSuchBlock")
	if errorCode(e) != "unknown_block" {
		t.Fatalf("expected unknown_block, got %+v", e.Error)
	}
}

func TestContract_AppsInstallAndConfigure(t *testing.T) {
	h := newHarness(t)

	e := h.ok("apps", "install", "slack")
	if e.Data["path"] != "/workspaces/ws-demo/apps/slack" {
		t.Fatalf("unexpected path %v", e.Data["path"])
	}

	e = h.ok("apps", "configure", "slack", "--set", "channel=general")
	cfg, _ := e.Data["config"].(map[string]any)
	if cfg["channel"] != "general" {
		t.Fatalf("expected saved channel, got %v", e.Data["config"])
	}

	e = h.ok("apps", "configure", "slack", "--disable")
	app, _ := e.Data["app"].(map[string]any)
	if app["disabled"] != true {
		t.Fatalf("expected disabled app, got %v", e.Data["app"])
	}
	e = h.ok("apps", "configure", "slack", "--enable")
	app, _ = e.Data["app"].(map[string]any)
	if _, ok := app["disabled"]; ok {
		t.Fatalf("expected enabled app, got %v", e.Data["app"])
	}

	e = h.fail("apps", "uninstall", "slack")
	if errorCode(e) != "confirmation_required" {
		t.Fatalf("expected confirmation_required, got %+v", e.Error)
	}
	h.ok("apps", "uninstall", "slack", "--yes")
	if got := len(items(t, h.ok("apps", "list"), "items")); got != 0 {
		t.Fatalf("expected no apps left, got %d", got)
	}
}

func TestContract_PermissionsShareAndRevoke(t *testing.T) {
	h := newHarness(t)

	e := h.ok("permissions", "share", "--email", "guest@prisme.test", "--role", "editor")
	perm, _ := e.Data["permission"].(map[string]any)
	if perm["role"] != "editor" {
		t.Fatalf("expected editor role, got %v", perm)
	}
	if got := len(items(t, h.ok("permissions", "list"), "items")); got != 2 {
		t.Fatalf("expected 2 permissions, got %d", got)
	}

	e = h.fail("permissions", "share", "--email", "a@prisme.test", "--public")
	if errorCode(e) != "invalid_target" {
		t.Fatalf("expected invalid_target, got %+v", e.Error)
	}

	h.ok("permissions", "revoke", "guest@prisme.test")
	if got := len(items(t, h.ok("permissions", "list"), "items")); got != 1 {
		t.Fatalf("expected 1 permission after revoke, got %d", got)
	}
}

func TestContract_EventsListGroupsByDay(t *testing.T) {
	h := newHarness(t)
	h.ok("events", "emit", "orders.created", "--set", "order=1")

	e := h.ok("events", "list")
	days := items(t, e, "days")
	if len(days) == 0 {
		t.Fatalf("expected at least one day")
	}
	total, _ := e.Meta["total"].(float64)
	if total != 3 {
		t.Fatalf("expected 3 events, got %v", e.Meta["total"])
	}
	first, _ := days[0]["events"].([]any)
	ev, _ := first[0].(map[string]any)
	if ev["type"] != "orders.created" {
		t.Fatalf("expected newest event first, got %v", ev["type"])
	}

	e = h.ok("events", "list", "--type", "workspaces.*")
	if total, _ := e.Meta["total"].(float64); total != 2 {
		t.Fatalf("expected 2 workspace events, got %v", e.Meta["total"])
	}
}

func TestContract_WorkspaceExport(t *testing.T) {
	h := newHarness(t)
	outDir := filepath.Join(h.dir, "export")

	e := h.ok("workspaces", "export", "--out", outDir)
	file, _ := e.Data["file"].(string)
	if filepath.Base(file) != "workspace-ws-demo.zip" {
		t.Fatalf("unexpected archive name %q", file)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("archive not written: %v", err)
	}
	names := map[string]bool{}
	for _, entry := range items(t, e, "entries") {
		names[entry["name"].(string)] = true
	}
	for _, want := range []string{"index.yml", "automations/hello.yml", "pages/home.yml"} {
		if !names[want] {
			t.Fatalf("expected %s in archive, got %v", want, names)
		}
	}
}

func TestContract_DeleteRequiresConfirmation(t *testing.T) {
	h := newHarness(t)

	e := h.fail("automations", "delete", "hello")
	if errorCode(e) != "confirmation_required" {
		t.Fatalf("expected confirmation_required, got %+v", e.Error)
	}
	h.ok("automations", "delete", "hello", "--yes")

	e = h.fail("automations", "get", "hello")
	if errorCode(e) != "api_error" {
		t.Fatalf("expected api_error, got %+v", e.Error)
	}
	details, _ := e.Error["details"].(map[string]any)
	if status, _ := details["status"].(float64); status != 404 {
		t.Fatalf("expected 404, got %v", details["status"])
	}
}

func TestContract_MissingWorkspace(t *testing.T) {
	h := newHarness(t)
	out, err := h.exec("automations", "list")
	if err == nil {
		t.Fatalf("expected an error without a workspace")
	}
	e := decodeEnvelope(t, out)
	if errorCode(e) != "missing_workspace" {
		t.Fatalf("expected missing_workspace, got %+v", e.Error)
	}
	if e.Hint == "" {
		t.Fatalf("expected a hint")
	}
}

func TestContract_UnknownWorkspaceIsNotFound(t *testing.T) {
	h := newHarness(t)
	out, err := h.exec("--workspace", "nope", "pages", "list")
	if err == nil {
		t.Fatalf("expected an error")
	}
	e := decodeEnvelope(t, out)
	if e.Hint == "" || errorCode(e) != "api_error" {
		t.Fatalf("expected api_error with a hint, got %+v", e)
	}
}

func TestContract_OutputFormats(t *testing.T) {
	h := newHarness(t)

	out, err := h.exec("--workspace", "ws-demo", "--format", "yaml", "workspaces", "get")
	if err != nil {
		t.Fatalf("expected success, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok: true") {
		t.Fatalf("expected yaml output, got:\n%s", out)
	}

	if _, err := h.exec("--format", "xml", "workspaces", "list"); err == nil {
		t.Fatalf("expected an unknown format to be rejected")
	}
}
