package builder

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/prismeai/prisme-cli/internal/model"
)

// Catalog lists every block placeable in ws: built-ins first, then the
// workspace's own blocks, then blocks of enabled app instances (prefixed
// with the instance slug). The first entry wins on duplicate slugs, and
// variants whose parent is missing are dropped.
func Catalog(ws *model.Workspace, apps []model.AppInstance) []model.BlockInCatalog {
	all := BuiltIns()

	if ws != nil {
		slugs := make([]string, 0, len(ws.Blocks))
		for slug := range ws.Blocks {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)
		for _, slug := range slugs {
			b := ws.Blocks[slug]
			if b == nil {
				continue
			}
			all = append(all, model.BlockInCatalog{
				Slug:        slug,
				Name:        b.Name,
				Description: b.Description,
				URL:         b.URL,
				Schema:      b.Schema,
				From:        model.FromWorkspace,
			})
		}
	}

	sorted := append([]model.AppInstance(nil), apps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })
	for _, app := range sorted {
		if app.Disabled {
			continue
		}
		for _, b := range app.Blocks {
			b.Slug = app.Slug + "." + b.Slug
			if b.Parent != "" && !strings.Contains(b.Parent, ".") {
				b.Parent = app.Slug + "." + b.Parent
			}
			b.From = model.FromApp
			b.App = app.Slug
			all = append(all, b)
		}
	}

	return Dedupe(all)
}

// Dedupe keeps the first entry per slug and drops children whose parent
// block is not present.
func Dedupe(entries []model.BlockInCatalog) []model.BlockInCatalog {
	seen := make(map[string]bool, len(entries))
	unique := make([]model.BlockInCatalog, 0, len(entries))
	for _, e := range entries {
		if seen[e.Slug] {
			continue
		}
		seen[e.Slug] = true
		unique = append(unique, e)
	}
	out := unique[:0]
	for _, e := range unique {
		if e.Parent != "" && !seen[e.Parent] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Find returns the catalog entry for slug.
func Find(catalog []model.BlockInCatalog, slug string) (model.BlockInCatalog, bool) {
	for _, e := range catalog {
		if e.Slug == slug {
			return e, true
		}
	}
	return model.BlockInCatalog{}, false
}

type searchSource struct {
	entries []model.BlockInCatalog
	lang    string
}

func (s searchSource) String(i int) string {
	e := s.entries[i]
	return strings.ToLower(e.Slug + " " + model.Localize(e.Name, s.lang))
}

func (s searchSource) Len() int { return len(s.entries) }

// Search ranks catalog entries against query, best match first. An empty
// query returns the catalog unchanged.
func Search(catalog []model.BlockInCatalog, query, lang string) []model.BlockInCatalog {
	query = strings.TrimSpace(query)
	if query == "" {
		return catalog
	}
	matches := fuzzy.FindFrom(strings.ToLower(query), searchSource{entries: catalog, lang: lang})
	out := make([]model.BlockInCatalog, 0, len(matches))
	for _, m := range matches {
		out = append(out, catalog[m.Index])
	}
	return out
}
