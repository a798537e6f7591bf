package mock

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prismeai/prisme-cli/internal/model"
)

const defaultEventsLimit = 20

type EventsQuery struct {
	BeforeDate time.Time
	Limit      int
	Types      []string
	Text       string
}

// matchType accepts exact types and "prefix.*" patterns.
func matchType(patterns []string, typ string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p == typ {
			return true
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok && strings.HasPrefix(typ, prefix) {
			return true
		}
	}
	return false
}

// ListEvents returns the newest events matching q, newest first.
func (b *Backend) ListEvents(wsID string, q EventsQuery) ([]model.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.workspace(wsID); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultEventsLimit
	}
	text := strings.ToLower(q.Text)
	all := b.st.Events[wsID]
	out := make([]model.Event, 0, limit)
	for i := len(all) - 1; i >= 0; i-- {
		ev := all[i]
		if !q.BeforeDate.IsZero() && !ev.CreatedAt.Before(q.BeforeDate) {
			continue
		}
		if !matchType(q.Types, ev.Type) {
			continue
		}
		if text != "" && !eventContains(ev, text) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func eventContains(ev model.Event, text string) bool {
	if strings.Contains(strings.ToLower(ev.Type), text) {
		return true
	}
	b, err := json.Marshal(ev.Payload)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(b)), text)
}

// hub fans events out to the open sockets of each workspace.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan model.Event]struct{}
}

func newHub() *hub {
	return &hub{subs: map[string]map[chan model.Event]struct{}{}}
}

func (h *hub) subscribe(wsID string) (<-chan model.Event, func()) {
	ch := make(chan model.Event, 64)
	h.mu.Lock()
	if h.subs[wsID] == nil {
		h.subs[wsID] = map[chan model.Event]struct{}{}
	}
	h.subs[wsID][ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs[wsID], ch)
		if len(h.subs[wsID]) == 0 {
			delete(h.subs, wsID)
		}
		h.mu.Unlock()
	}
}

// publish never blocks: a subscriber with a full buffer misses the event.
func (h *hub) publish(ev model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.Source.WorkspaceID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) count(wsID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[wsID])
}
