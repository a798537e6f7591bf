package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/prismeai/prisme-cli/internal/model"
)

// Loader fetches the schema of a remote block.
type Loader func(ctx context.Context, url string) (map[string]any, error)

// SchemaCache memoizes remote block schemas by URL. Concurrent loads of the
// same URL share one request.
type SchemaCache struct {
	load Loader

	mu      sync.RWMutex
	schemas map[string]map[string]any
	group   singleflight.Group
}

func NewSchemaCache(load Loader) *SchemaCache {
	return &SchemaCache{load: load, schemas: map[string]map[string]any{}}
}

// Get returns the schema of entry: the inline schema when present, else the
// cached or freshly loaded remote one. Entries without URL have no schema.
func (c *SchemaCache) Get(ctx context.Context, entry model.BlockInCatalog) (map[string]any, error) {
	if entry.Schema != nil {
		return entry.Schema, nil
	}
	if entry.URL == "" {
		return nil, nil
	}
	c.mu.RLock()
	s, ok := c.schemas[entry.URL]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	// The shared load outlives the caller that started it; each caller
	// only stops waiting when its own ctx ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(entry.URL, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.schemas[entry.URL]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		s, err := c.load(loadCtx, entry.URL)
		if err != nil {
			return nil, fmt.Errorf("load schema of %s: %w", entry.Slug, err)
		}
		c.mu.Lock()
		c.schemas[entry.URL] = s
		c.mu.Unlock()
		return s, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(map[string]any), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Warm loads the schemas of every remote entry of catalog in parallel.
func (c *SchemaCache) Warm(ctx context.Context, catalog []model.BlockInCatalog) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, entry := range catalog {
		if entry.Schema != nil || entry.URL == "" {
			continue
		}
		g.Go(func() error {
			_, err := c.Get(ctx, entry)
			return err
		})
	}
	return g.Wait()
}

func (c *SchemaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.schemas)
}

// HTTPLoader fetches url and decodes a JSON schema from it. Bodies shaped
// like {"schema": {...}} are unwrapped.
func HTTPLoader(client *http.Client) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, url string) (map[string]any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/schema+json, application/json")
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		}
		var out map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("GET %s: %w", url, err)
		}
		if inner, ok := out["schema"].(map[string]any); ok {
			return inner, nil
		}
		return out, nil
	}
}
