// Package events streams a workspace's events over WebSocket and keeps the
// day-bucketed activity feed.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/prismeai/prisme-cli/internal/model"
)

// Frame is one message of the events socket.
type Frame struct {
	Type    string      `json:"type"`
	Payload model.Event `json:"payload"`
}

type Listener func(model.Event)

type Options struct {
	// BaseURL is the API base URL; http(s) is switched to ws(s).
	BaseURL     string
	WorkspaceID string
	Token       string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// SocketURL returns the events endpoint of a workspace.
func SocketURL(baseURL, workspaceID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported api url scheme %q", u.Scheme)
	}
	base := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/workspaces/" + workspaceID + "/events"
	u.RawPath = base + "/workspaces/" + url.PathEscape(workspaceID) + "/events"
	return u.String(), nil
}

type subscription struct {
	eventType string
	fn        Listener
}

// Events is one live connection to a workspace's event stream.
type Events struct {
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	destroy   bool
	listeners map[int]subscription
	nextID    int
	err       error

	connectedCh chan struct{}
	done        chan struct{}
}

// Dial starts connecting in the background and returns immediately.
func Dial(ctx context.Context, opts Options) *Events {
	e := &Events{
		opts:        opts,
		log:         opts.Logger,
		listeners:   map[int]subscription{},
		connectedCh: make(chan struct{}),
		done:        make(chan struct{}),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	go e.run(ctx)
	return e
}

func (e *Events) run(ctx context.Context) {
	defer close(e.done)

	endpoint, err := SocketURL(e.opts.BaseURL, e.opts.WorkspaceID)
	if err != nil {
		e.fail(err)
		return
	}
	header := http.Header{}
	if e.opts.Token != "" {
		header.Set("Authorization", "Bearer "+e.opts.Token)
	}
	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPClient: e.opts.HTTPClient,
		HTTPHeader: header,
	})
	if err != nil {
		e.fail(fmt.Errorf("connect %s: %w", endpoint, err))
		return
	}

	e.mu.Lock()
	if e.destroy {
		e.mu.Unlock()
		e.log.Debug("events: destroyed before connect, closing", "workspace", e.opts.WorkspaceID)
		_ = conn.Close(websocket.StatusNormalClosure, "destroyed")
		return
	}
	e.conn = conn
	e.connected = true
	close(e.connectedCh)
	e.mu.Unlock()
	e.log.Debug("events: connected", "workspace", e.opts.WorkspaceID)

	for {
		var frame Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			e.mu.Lock()
			destroyed := e.destroy
			e.connected = false
			e.mu.Unlock()
			status := websocket.CloseStatus(err)
			if !destroyed && status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				e.fail(fmt.Errorf("read events: %w", err))
			}
			return
		}
		ev := frame.Payload
		if ev.Type == "" {
			ev.Type = frame.Type
		}
		e.dispatch(ev)
	}
}

func (e *Events) fail(err error) {
	e.log.Debug("events: stream failed", "workspace", e.opts.WorkspaceID, "err", err)
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

func (e *Events) dispatch(ev model.Event) {
	e.mu.Lock()
	subs := make([]subscription, 0, len(e.listeners))
	// Listeners run in subscription order.
	for i := 0; i < e.nextID; i++ {
		if s, ok := e.listeners[i]; ok {
			subs = append(subs, s)
		}
	}
	e.mu.Unlock()

	for _, s := range subs {
		if s.eventType == "" || s.eventType == ev.Type {
			s.fn(ev)
		}
	}
}

func (e *Events) subscribe(eventType string, fn Listener) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = subscription{eventType: eventType, fn: fn}
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// All registers fn for every event and returns its unsubscribe function.
func (e *Events) All(fn Listener) func() { return e.subscribe("", fn) }

// On registers fn for events of one type.
func (e *Events) On(eventType string, fn Listener) func() { return e.subscribe(eventType, fn) }

// Destroy disconnects now when connected; otherwise the connection is
// closed as soon as it is established.
func (e *Events) Destroy() {
	e.mu.Lock()
	e.destroy = true
	conn, connected := e.conn, e.connected
	e.connected = false
	e.mu.Unlock()
	if connected {
		_ = conn.Close(websocket.StatusNormalClosure, "destroyed")
	}
}

// Connected is closed once the socket is open.
func (e *Events) Connected() <-chan struct{} { return e.connectedCh }

// Done is closed when the stream has stopped for any reason.
func (e *Events) Done() <-chan struct{} { return e.done }

// Err reports why the stream stopped, nil after a clean close.
func (e *Events) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
