package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prismeai/prisme-cli/internal/model"
)

func TestClient_baseEndpointFor_AppendsPath(t *testing.T) {
	c := Client{BaseURL: "http://example.test/base/"}
	got, err := c.baseEndpointFor("/api/me")
	if err != nil {
		t.Fatalf("baseEndpointFor: %v", err)
	}
	if got != "http://example.test/base/api/me" {
		t.Fatalf("unexpected endpoint: %q", got)
	}
}

func TestClient_DoRootREST_SetsHeadersAndQueryAndParsesJSON(t *testing.T) {
	var gotAuth, gotCT, gotPath, gotQuery string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotBody, _ = io.ReadAll(r.Body)

		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, Token: "tok", HTTP: srv.Client()}
	out, status, err := c.DoRootREST(context.Background(), http.MethodPost, "/api/me", url.Values{"x": []string{"1"}}, map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("DoRootREST: %v", err)
	}
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotCT != "application/json" {
		t.Fatalf("unexpected content-type: %q", gotCT)
	}
	if gotPath != "/api/me" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotQuery != "x=1" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if !strings.Contains(string(gotBody), "\"a\":1") {
		t.Fatalf("unexpected body: %q", string(gotBody))
	}
	m, ok := out.(map[string]any)
	if !ok || m["ok"] != true {
		t.Fatalf("unexpected response: %#v", out)
	}
}

func TestClient_DoRootREST_AllowsNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	out, status, err := c.DoRootREST(context.Background(), http.MethodGet, "/api/me", nil, nil)
	if err != nil {
		t.Fatalf("DoRootREST: %v", err)
	}
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	s, ok := out.(string)
	if !ok || !strings.Contains(s, "nope") {
		t.Fatalf("expected raw string response, got %#v", out)
	}
}

func TestClient_NonSuccessBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "ForbiddenError",
			"message": "You cannot update this workspace",
			"details": []any{map[string]any{"field": "name"}},
		})
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.GetWorkspace(context.Background(), "w1")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Code != "ForbiddenError" {
		t.Fatalf("unexpected error: %#v", apiErr)
	}
	if apiErr.Error() != "ForbiddenError: You cannot update this workspace" {
		t.Fatalf("unexpected message: %q", apiErr.Error())
	}
	if apiErr.Details == nil {
		t.Fatalf("expected details")
	}
	if StatusOf(err) != http.StatusForbidden || IsNotFound(err) {
		t.Fatalf("unexpected status helpers")
	}
}

func TestClient_DoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.CreateAutomation(context.Background(), "w1", &model.Automation{Name: model.Text("x")})
	if StatusOf(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
}

func TestClient_GetEvents_SwallowsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	events := c.GetEvents(context.Background(), "w1", EventsQuery{})
	if events == nil || len(events) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", events)
	}

	unreachable := Client{BaseURL: "http://127.0.0.1:1", HTTP: srv.Client()}
	if got := unreachable.GetEvents(context.Background(), "w1", EventsQuery{}); len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}

func TestClient_GetEvents_SendsPagingQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"result":{"events":[{"id":"e1","type":"started","createdAt":"2024-03-05T09:00:00Z"}]}}`))
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	before := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	events := c.GetEvents(context.Background(), "w1", EventsQuery{BeforeDate: before, Limit: 20, Types: []string{"a", "b"}})
	if len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("unexpected events: %#v", events)
	}
	if gotQuery.Get("beforeDate") != "2024-03-05T10:00:00Z" || gotQuery.Get("limit") != "20" || gotQuery.Get("types") != "a,b" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
}

func TestClient_ExportWorkspace_ReturnsArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/workspaces/w1/versions/current/export" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK\x03\x04zip"))
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	b, err := c.ExportWorkspace(context.Background(), "w1")
	if err != nil {
		t.Fatalf("ExportWorkspace: %v", err)
	}
	if !strings.HasPrefix(string(b), "PK") {
		t.Fatalf("unexpected archive: %q", b)
	}
	if ExportFilename("w1") != "workspace-w1.zip" {
		t.Fatalf("unexpected filename")
	}
}

func TestClient_Signin_PostsCredentials(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.c","token":"jwt"}`))
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	s, err := c.Signin(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("Signin: %v", err)
	}
	if s.ID != "u1" || s.Token != "jwt" {
		t.Fatalf("unexpected session: %#v", s)
	}
	if got["email"] != "a@b.c" || got["password"] != "secret" {
		t.Fatalf("unexpected body: %#v", got)
	}
}

func TestClient_Permissions_Paths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"result":[{"target":{"id":"u1"},"role":"editor"}]}`))
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"target":{"email":"x@y.z"},"role":"owner"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, HTTP: srv.Client()}
	perms, err := c.GetPermissions(context.Background(), "workspaces", "w1")
	if err != nil || len(perms) != 1 || perms[0].Role != "editor" {
		t.Fatalf("GetPermissions: %v %#v", err, perms)
	}
	if _, err := c.AddPermission(context.Background(), "workspaces", "w1", model.Permission{Target: model.PermissionTarget{Email: "x@y.z"}, Role: "owner"}); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}
	if err := c.DeletePermission(context.Background(), "workspaces", "w1", "u1"); err != nil {
		t.Fatalf("DeletePermission: %v", err)
	}
	want := []string{
		"GET /workspaces/w1/permissions",
		"POST /workspaces/w1/permissions",
		"DELETE /workspaces/w1/permissions/u1",
	}
	if strings.Join(paths, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected requests: %v", paths)
	}
}

func TestClient_PathSegmentsAreEscapedOnce(t *testing.T) {
	var paths, raws []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		raws = append(raws, r.URL.EscapedPath())
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"id":"my ws","name":"Mine"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL + "/v2", HTTP: srv.Client()}
	if err := c.DeletePermission(context.Background(), "workspaces", "ws1", "*"); err != nil {
		t.Fatalf("DeletePermission: %v", err)
	}
	if _, err := c.GetWorkspace(context.Background(), "my ws"); err != nil {
		t.Fatalf("GetWorkspace: %v", err)
	}
	if _, err := c.GetPage(context.Background(), "ws1", "a/b"); err != nil {
		t.Fatalf("GetPage: %v", err)
	}

	want := []string{"/v2/workspaces/ws1/permissions/*", "/v2/workspaces/my ws", "/v2/workspaces/ws1/pages/a/b"}
	if strings.Join(paths, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected paths: %q", paths)
	}
	if raws[1] != "/v2/workspaces/my%20ws" {
		t.Fatalf("unexpected escaped path: %q", raws[1])
	}
	if raws[2] != "/v2/workspaces/ws1/pages/a%2Fb" {
		t.Fatalf("expected the slash inside a slug to stay escaped, got %q", raws[2])
	}
}

func TestClient_baseEndpointFor_KeepsEscapes(t *testing.T) {
	c := Client{BaseURL: "http://example.test/v2"}
	got, err := c.baseEndpointFor("/workspaces/" + seg("ws 1") + "/permissions/" + seg("*"))
	if err != nil {
		t.Fatalf("baseEndpointFor: %v", err)
	}
	if got != "http://example.test/v2/workspaces/ws%201/permissions/%2A" {
		t.Fatalf("unexpected endpoint: %q", got)
	}
}
