package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismeai/prisme-cli/internal/model"
)

func drain(ctx context.Context, c *websocket.Conn) {
	for {
		if _, _, err := c.Read(ctx); err != nil {
			return
		}
	}
}

func TestSocketURL(t *testing.T) {
	u, err := SocketURL("https://api.example.test/v2/", "ws 1")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.test/v2/workspaces/ws%201/events", u)

	u, err = SocketURL("http://localhost:3000", "abc")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3000/workspaces/abc/events", u)

	u, err = SocketURL("http://localhost:3000", "team/ws")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3000/workspaces/team%2Fws/events", u)

	_, err = SocketURL("ftp://x", "abc")
	assert.Error(t, err)
}

func TestEvents_DispatchesFrames(t *testing.T) {
	release := make(chan struct{})
	auth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		<-release
		for _, typ := range []string{"a", "b", "a"} {
			frame := Frame{Type: typ, Payload: model.Event{ID: typ, Type: typ}}
			if err := wsjson.Write(r.Context(), c, frame); err != nil {
				return
			}
		}
		drain(r.Context(), c)
	}))
	defer srv.Close()

	ev := Dial(context.Background(), Options{BaseURL: srv.URL, WorkspaceID: "w1", Token: "tok"})
	all := make(chan model.Event, 10)
	onlyB := make(chan model.Event, 10)
	ev.All(func(e model.Event) { all <- e })
	ev.On("b", func(e model.Event) { onlyB <- e })

	select {
	case <-ev.Connected():
	case <-time.After(5 * time.Second):
		t.Fatal("not connected")
	}
	assert.Equal(t, "Bearer tok", <-auth)
	close(release)

	var types []string
	for len(types) < 3 {
		select {
		case e := <-all:
			types = append(types, e.Type)
		case <-time.After(5 * time.Second):
			t.Fatalf("got %v", types)
		}
	}
	assert.Equal(t, []string{"a", "b", "a"}, types)
	require.Len(t, onlyB, 1)

	ev.Destroy()
	select {
	case <-ev.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("not closed after destroy")
	}
	assert.NoError(t, ev.Err())
}

func TestEvents_DestroyBeforeConnectClosesOnConnect(t *testing.T) {
	hold := make(chan struct{})
	closed := make(chan websocket.StatusCode, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-hold
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		_, _, err = c.Read(r.Context())
		closed <- websocket.CloseStatus(err)
	}))
	defer srv.Close()

	ev := Dial(context.Background(), Options{BaseURL: srv.URL, WorkspaceID: "w1"})
	ev.Destroy()
	close(hold)

	select {
	case <-ev.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop")
	}
	select {
	case <-ev.Connected():
		t.Fatal("destroyed stream must not report connected")
	default:
	}
	select {
	case status := <-closed:
		assert.Equal(t, websocket.StatusNormalClosure, status)
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the close")
	}
	assert.NoError(t, ev.Err())
}

func TestEvents_DialFailureIsReported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ev := Dial(context.Background(), Options{BaseURL: srv.URL, WorkspaceID: "w1"})
	<-ev.Done()
	assert.Error(t, ev.Err())
}
