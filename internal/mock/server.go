package mock

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prismeai/prisme-cli/internal/events"
	"github.com/prismeai/prisme-cli/internal/model"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

func userFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

func userIDFrom(ctx context.Context) string {
	if u := userFrom(ctx); u != nil {
		return u.ID
	}
	return ""
}

// Handler serves the REST routes and the events socket.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.requestLog)
	r.Use(b.authenticate)

	r.Get("/me", b.handleMe)
	r.Post("/login", b.handleLogin)
	r.Post("/login/anonymous", b.handleAnonymous)
	r.Post("/signup", b.handleSignup)
	r.Post("/logout", b.handleLogout)

	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/", b.handleListWorkspaces)
		r.Post("/", b.handleCreateWorkspace)
		r.Route("/{workspaceId}", func(r chi.Router) {
			r.Get("/", b.handleGetWorkspace)
			r.Patch("/", b.handleUpdateWorkspace)
			r.Delete("/", b.handleDeleteWorkspace)
			r.Post("/versions/current/export", b.handleExport)

			r.Post("/automations", b.handleCreateAutomation)
			r.Get("/automations/{slug}", b.handleGetAutomation)
			r.Patch("/automations/{slug}", b.handleUpdateAutomation)
			r.Delete("/automations/{slug}", b.handleDeleteAutomation)

			r.Get("/pages", b.handleListPages)
			r.Post("/pages", b.handleCreatePage)
			r.Get("/pages/{slug}", b.handleGetPage)
			r.Patch("/pages/{slug}", b.handleUpdatePage)
			r.Delete("/pages/{slug}", b.handleDeletePage)

			r.Get("/apps", b.handleListApps)
			r.Post("/apps", b.handleInstallApp)
			r.Patch("/apps/{slug}", b.handleUpdateApp)
			r.Delete("/apps/{slug}", b.handleUninstallApp)
			r.Get("/apps/{slug}/config", b.handleGetAppConfig)
			r.Patch("/apps/{slug}/config", b.handleSaveAppConfig)

			r.Get("/events", b.handleEvents)
			r.Post("/events", b.handleEmit)

			r.Get("/permissions", b.withSubject("workspaces", b.handleListPermissions))
			r.Post("/permissions", b.withSubject("workspaces", b.handleAddPermission))
			r.Delete("/permissions/{target}", b.withSubject("workspaces", b.handleDeletePermission))
		})
	})

	r.Get("/{subjectType}/{subjectId}/permissions", b.handleListPermissions)
	r.Post("/{subjectType}/{subjectId}/permissions", b.handleAddPermission)
	r.Delete("/{subjectType}/{subjectId}/permissions/{target}", b.handleDeletePermission)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, &Error{Status: http.StatusNotFound, Code: "NotFound", Message: "no route " + r.Method + " " + r.URL.Path})
	})
	return r
}

func (b *Backend) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		b.log.Debug("mock: request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if ok && token != "" {
			ctx := context.WithValue(r.Context(), tokenKey, token)
			if u, found := b.UserForToken(token); found {
				ctx = context.WithValue(ctx, userKey, u)
			}
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Status: http.StatusInternalServerError, Code: "InternalError", Message: err.Error()}
	}
	writeJSON(w, e.Status, map[string]any{"error": e.Code, "message": e.Message})
}

// reply writes v, or the error when the operation failed.
func reply(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
	if err != nil {
		return nil, badRequest("read body: %v", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return []byte("{}"), nil
	}
	return b, nil
}

func decodeJSON(r *http.Request, v any) error {
	b, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return badRequest("invalid json body: %v", err)
	}
	return nil
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	if u == nil {
		writeError(w, unauthorized("not signed in"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s, err := b.Login(body.Email, body.Password)
	reply(w, s, err)
}

func (b *Backend) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	s, err := b.AnonymousLogin()
	reply(w, s, err)
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s, err := b.Signup(body)
	reply(w, s, err)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey).(string)
	reply(w, map[string]any{}, b.Logout(token))
}

func (b *Backend) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, b.ListWorkspaces(limit))
}

func (b *Backend) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	ws, err := b.CreateWorkspace(body.Name, userIDFrom(r.Context()))
	reply(w, ws, err)
}

func (b *Backend) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := b.GetWorkspace(chi.URLParam(r, "workspaceId"))
	reply(w, ws, err)
}

func (b *Backend) handleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ws, err := b.UpdateWorkspace(chi.URLParam(r, "workspaceId"), userIDFrom(r.Context()), body)
	reply(w, ws, err)
}

func (b *Backend) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceId")
	reply(w, map[string]any{"id": id}, b.DeleteWorkspace(id, userIDFrom(r.Context())))
}

func (b *Backend) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceId")
	archive, err := b.Export(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="workspace-`+id+`.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (b *Backend) handleCreateAutomation(w http.ResponseWriter, r *http.Request) {
	var a model.Automation
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, err)
		return
	}
	out, err := b.CreateAutomation(chi.URLParam(r, "workspaceId"), userIDFrom(r.Context()), a)
	reply(w, out, err)
}

func (b *Backend) handleGetAutomation(w http.ResponseWriter, r *http.Request) {
	a, err := b.GetAutomation(chi.URLParam(r, "workspaceId"), chi.URLParam(r, "slug"))
	reply(w, a, err)
}

func (b *Backend) handleUpdateAutomation(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := b.UpdateAutomation(chi.URLParam(r, "workspaceId"), chi.URLParam(r, "slug"), userIDFrom(r.Context()), body)
	reply(w, a, err)
}

func (b *Backend) handleDeleteAutomation(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	reply(w, map[string]any{"slug": slug}, b.DeleteAutomation(chi.URLParam(r, "workspaceId"), slug, userIDFrom(r.Context())))
}

func (b *Backend) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := b.ListPages(chi.URLParam(r, "workspaceId"))
	reply(w, pages, err)
}

func (b *Backend) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var p model.Page
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	out, err := b.CreatePage(chi.URLParam(r, "workspaceId"), userIDFrom(r.Context()), p)
	reply(w, out, err)
}

func (b *Backend) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := b.GetPage(chi.URLParam(r, "workspaceId"), chi.URLParam(r, "slug"))
	reply(w, p, err)
}

func (b *Backend) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := b.UpdatePage(chi.URLParam(r, "workspaceId"), chi.URLParam(r, "slug"), userIDFrom(r.Context()), body)
	reply(w, p, err)
}

func (b *Backend) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	reply(w, map[string]any{"slug": slug}, b.DeletePage(chi.URLParam(r, "workspaceId"), slug, userIDFrom(r.Context())))
}

func (b *Backend) handleListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := b.ListApps(chi.URLParam(r, "workspaceId"))
	reply(w, apps, err)
}

func (b *Backend) handleInstallApp(w http.ResponseWriter, r *http.Request) {
	var body installBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	inst, err := b.InstallApp(chi.URLParam(r, "workspaceId"), userIDFrom(r.Context()), body)
	reply(w, inst, err)
}

func (b *Backend) handleUpdateApp(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	inst, err := b.UpdateApp(chi.URLParam(r, "workspaceId"), chi.URLParam(r, "slug"), userIDFrom(r.Context()), body)
	reply(w, inst, err)
}

func (b *Backend) handleUninstallApp(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	reply(w, map[string]any{"slug": slug}, b.UninstallApp(chi.URLParam(r, "workspaceId"), slug, userIDFrom(r.Context())))
}

func (b *Backend) handleGetAppConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := b.AppConfig(chi.URLParam(r, "workspaceId"), chi.URLParam(r, "slug"))
	reply(w, cfg, err)
}

func (b *Backend) handleSaveAppConfig(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := decodeJSON(r, &values); err != nil {
		writeError(w, err)
		return
	}
	cfg, err := b.SaveAppConfig(chi.URLParam(r, "workspaceId"), chi.URLParam(r, "slug"), userIDFrom(r.Context()), values)
	reply(w, cfg, err)
}

// handleEvents serves both the events socket (on upgrade requests) and the
// paged events search.
func (b *Backend) handleEvents(w http.ResponseWriter, r *http.Request) {
	wsID := chi.URLParam(r, "workspaceId")
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		b.streamEvents(w, r, wsID)
		return
	}
	qs := r.URL.Query()
	q := EventsQuery{Text: qs.Get("text")}
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))
	if raw := qs.Get("beforeDate"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, badRequest("invalid beforeDate %q", raw))
			return
		}
		q.BeforeDate = t
	}
	if raw := qs.Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Types = append(q.Types, t)
			}
		}
	}
	list, err := b.ListEvents(wsID, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"events": list}})
}

func (b *Backend) handleEmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Event   string         `json:"event"`
		Payload map[string]any `json:"payload"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(body.Event) == "" {
		writeError(w, badRequest("event is required"))
		return
	}
	ev, err := b.Emit(chi.URLParam(r, "workspaceId"), userIDFrom(r.Context()), body.Event, body.Payload)
	reply(w, ev, err)
}

func (b *Backend) streamEvents(w http.ResponseWriter, r *http.Request, wsID string) {
	b.mu.Lock()
	_, err := b.workspace(wsID)
	b.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	// Subscribe before the handshake completes so that nothing emitted after
	// the client sees the connection open is missed.
	ch, cancel := b.hub.subscribe(wsID)
	defer cancel()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		b.log.Debug("mock: websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-ch:
			if err := wsjson.Write(ctx, conn, events.Frame{Type: ev.Type, Payload: ev}); err != nil {
				b.log.Debug("mock: websocket write failed", "workspace", wsID, "err", err)
				return
			}
		}
	}
}

// withSubject pins the subject type for the nested workspace routes.
func (b *Backend) withSubject(subjectType string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		rctx.URLParams.Add("subjectType", subjectType)
		rctx.URLParams.Add("subjectId", chi.URLParam(r, "workspaceId"))
		next(w, r)
	}
}

func (b *Backend) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	list, err := b.ListPermissions(chi.URLParam(r, "subjectType"), chi.URLParam(r, "subjectId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": list})
}

func (b *Backend) handleAddPermission(w http.ResponseWriter, r *http.Request) {
	var p model.Permission
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	out, err := b.AddPermission(chi.URLParam(r, "subjectType"), chi.URLParam(r, "subjectId"), userIDFrom(r.Context()), p)
	reply(w, out, err)
}

func (b *Backend) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	err := b.DeletePermission(chi.URLParam(r, "subjectType"), chi.URLParam(r, "subjectId"), target, userIDFrom(r.Context()))
	reply(w, map[string]any{"target": target}, err)
}
