package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prismeai/prisme-cli/internal/model"
)

type EventsQuery struct {
	BeforeDate time.Time
	Limit      int
	Types      []string
	Text       string
}

func (q EventsQuery) values() url.Values {
	v := url.Values{}
	if !q.BeforeDate.IsZero() {
		v.Set("beforeDate", q.BeforeDate.UTC().Format(time.RFC3339Nano))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(q.Types) > 0 {
		v.Set("types", strings.Join(q.Types, ","))
	}
	if q.Text != "" {
		v.Set("text", q.Text)
	}
	return v
}

// GetEvents returns a page of the workspace's events. Any failure yields an
// empty list; the error is only logged.
func (c Client) GetEvents(ctx context.Context, wsID string, q EventsQuery) []model.Event {
	var out struct {
		Result struct {
			Events []model.Event `json:"events"`
		} `json:"result"`
	}
	if err := c.call(ctx, http.MethodGet, "/workspaces/"+seg(wsID)+"/events", q.values(), nil, &out); err != nil {
		c.logger().Debug("get events failed", "workspace", wsID, "err", err)
		return []model.Event{}
	}
	if out.Result.Events == nil {
		return []model.Event{}
	}
	return out.Result.Events
}

// EmitEvent publishes a custom event in the workspace.
func (c Client) EmitEvent(ctx context.Context, wsID, eventType string, payload map[string]any) (*model.Event, error) {
	body := map[string]any{"event": eventType, "payload": payload}
	var out model.Event
	if err := c.call(ctx, http.MethodPost, "/workspaces/"+seg(wsID)+"/events", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
