// Package mock is a local stand-in for the platform API: a file-backed
// state served over the same REST routes and events socket the console
// talks to.
package mock

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/state"
)

// maxEvents bounds the events kept per workspace.
const maxEvents = 500

type Store struct {
	Path string
}

// Ensure loads the state at Path, seeding and saving it when missing.
func (s Store) Ensure() (*state.State, error) {
	st, err := state.Load(s.Path)
	if err == nil {
		return st, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	seed := state.SeedDefault()
	if err := state.SaveAtomic(s.Path, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

func (s Store) Load() (*state.State, error) { return state.Load(s.Path) }
func (s Store) Save(st *state.State) error  { return state.SaveAtomic(s.Path, st) }

// Error is a failure reported to clients as {"error": Code, "message": Message}.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

func notFound(kind, id string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "ObjectNotFoundError", Message: fmt.Sprintf("%s not found: %s", kind, id)}
}

func badRequest(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "BadParametersError", Message: fmt.Sprintf(format, args...)}
}

func unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "AuthenticationError", Message: msg}
}

func conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: "AlreadyUsed", Message: msg}
}

type Option func(*Backend)

// WithSave persists the state after every mutation.
func WithSave(fn func(*state.State) error) Option {
	return func(b *Backend) { b.save = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// Backend owns the state and serialises every access to it.
type Backend struct {
	mu   sync.Mutex
	st   *state.State
	save func(*state.State) error
	log  *slog.Logger
	now  func() time.Time
	hub  *hub
}

func NewBackend(st *state.State, opts ...Option) *Backend {
	if st == nil {
		st = state.Empty()
	}
	b := &Backend{
		st:  st,
		log: slog.Default(),
		now: func() time.Time { return time.Now().UTC() },
		hub: newHub(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Snapshot runs fn with the state locked. fn must not keep references.
func (b *Backend) Snapshot(fn func(*state.State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.st)
}

// persist must be called with b.mu held.
func (b *Backend) persist() error {
	if b.save == nil {
		return nil
	}
	if err := b.save(b.st); err != nil {
		b.log.Error("mock: save state failed", "err", err)
		return err
	}
	return nil
}

// emit records an event and fans it out to live subscribers. b.mu must be
// held.
func (b *Backend) emit(wsID, userID, typ string, payload map[string]any) model.Event {
	ev := model.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		CreatedAt: b.now(),
		Source:    model.EventSource{WorkspaceID: wsID, UserID: userID},
		Payload:   payload,
	}
	list := append(b.st.Events[wsID], ev)
	if len(list) > maxEvents {
		list = list[len(list)-maxEvents:]
	}
	b.st.Events[wsID] = list
	b.hub.publish(ev)
	return ev
}

// Emit records a custom event in a workspace.
func (b *Backend) Emit(wsID, userID, typ string, payload map[string]any) (model.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st.Workspaces[wsID] == nil {
		return model.Event{}, notFound("workspace", wsID)
	}
	ev := b.emit(wsID, userID, typ, payload)
	return ev, b.persist()
}

func (b *Backend) workspace(id string) (*model.Workspace, error) {
	ws := b.st.Workspaces[id]
	if ws == nil {
		return nil, notFound("workspace", id)
	}
	return ws, nil
}

func (b *Backend) touch(ws *model.Workspace) {
	now := b.now()
	ws.UpdatedAt = &now
}

// patch merges the top-level keys of body into cur's JSON form; a null
// value removes the key.
func patch[T any](cur *T, body []byte) (*T, error) {
	base, err := json.Marshal(cur)
	if err != nil {
		return nil, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	var p map[string]any
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, badRequest("invalid json body: %v", err)
	}
	for k, v := range p {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, badRequest("invalid document: %v", err)
	}
	return &out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
