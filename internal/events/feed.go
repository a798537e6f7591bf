package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prismeai/prisme-cli/internal/model"
)

const dayLayout = "2006-01-02"

type Day struct {
	Key    string        `json:"day"`
	Date   time.Time     `json:"date"`
	Events []model.Event `json:"events"`
}

// Fetcher loads the page of events older than before (zero for the most
// recent page).
type Fetcher func(ctx context.Context, before time.Time) ([]model.Event, error)

// Feed buckets events by calendar day, ignoring ids it already holds.
type Feed struct {
	loc *time.Location

	mu        sync.Mutex
	days      map[string][]model.Event
	seen      map[string]bool
	count     int
	oldest    time.Time
	locked    bool
	exhausted bool
}

func NewFeed(loc *time.Location) *Feed {
	if loc == nil {
		loc = time.Local
	}
	return &Feed{loc: loc, days: map[string][]model.Event{}, seen: map[string]bool{}}
}

// Add merges events and returns how many were new. Each day stays sorted
// newest first; equal timestamps keep arrival order.
func (f *Feed) Add(events ...model.Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	added := 0
	touched := map[string]bool{}
	for _, ev := range events {
		if ev.ID != "" {
			if f.seen[ev.ID] {
				continue
			}
			f.seen[ev.ID] = true
		}
		key := ev.CreatedAt.In(f.loc).Format(dayLayout)
		f.days[key] = append(f.days[key], ev)
		touched[key] = true
		if f.oldest.IsZero() || ev.CreatedAt.Before(f.oldest) {
			f.oldest = ev.CreatedAt
		}
		added++
	}
	f.count += added
	for key := range touched {
		list := f.days[key]
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	}
	return added
}

// Days returns the buckets, most recent day first.
func (f *Feed) Days() []Day {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Day, 0, len(f.days))
	for key, list := range f.days {
		date, _ := time.ParseInLocation(dayLayout, key, f.loc)
		out = append(out, Day{Key: key, Date: date, Events: append([]model.Event(nil), list...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// HasMore is false once a fetch returned no events.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.exhausted
}

// FetchNext loads the page before the oldest held event. A call made while
// another is in flight returns immediately with fetched=false; it is not
// queued.
func (f *Feed) FetchNext(ctx context.Context, fetch Fetcher) (added int, fetched bool, err error) {
	f.mu.Lock()
	if f.locked {
		f.mu.Unlock()
		return 0, false, nil
	}
	f.locked = true
	before := f.oldest
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.locked = false
		f.mu.Unlock()
	}()

	events, err := fetch(ctx, before)
	if err != nil {
		return 0, true, err
	}
	if len(events) == 0 {
		f.mu.Lock()
		f.exhausted = true
		f.mu.Unlock()
		return 0, true, nil
	}
	return f.Add(events...), true, nil
}

// Follow adds every live event of stream to the feed until the returned
// function is called.
func (f *Feed) Follow(stream *Events) func() {
	return stream.All(func(ev model.Event) { f.Add(ev) })
}
