package schema

import (
	"sort"
	"strings"

	"github.com/prismeai/prisme-cli/internal/model"
)

// Selector widgets are expanded into plain "select" widgets whose options
// come from the current workspace.
const (
	SelectAutomations = "select:automations"
	SelectPages       = "select:pages"
	SelectBlocks      = "select:blocks"
	SelectApps        = "select:apps"
	SelectLanguages   = "select:lang"
)

type Option struct {
	Value string
	Label string
}

// Sources holds the options injected for each selector widget.
type Sources map[string][]Option

// SourcesFromWorkspace lists automations, pages, blocks and app instances of
// ws, labelled for lang and sorted by label.
func SourcesFromWorkspace(ws *model.Workspace, lang string) Sources {
	src := Sources{}
	if ws == nil {
		return src
	}
	for slug, a := range ws.Automations {
		label := slug
		if a != nil && !a.Name.IsZero() {
			label = model.Localize(a.Name, lang)
		}
		src[SelectAutomations] = append(src[SelectAutomations], Option{Value: slug, Label: label})
	}
	for slug, p := range ws.Pages {
		label := slug
		if p != nil && !p.Name.IsZero() {
			label = model.Localize(p.Name, lang)
		}
		src[SelectPages] = append(src[SelectPages], Option{Value: slug, Label: label})
	}
	for slug, b := range ws.Blocks {
		label := slug
		if b != nil && !b.Name.IsZero() {
			label = model.Localize(b.Name, lang)
		}
		src[SelectBlocks] = append(src[SelectBlocks], Option{Value: slug, Label: label})
	}
	for slug, app := range ws.Imports {
		label := slug
		if app != nil && app.AppSlug != "" && app.AppSlug != slug {
			label = slug + " (" + app.AppSlug + ")"
		}
		src[SelectApps] = append(src[SelectApps], Option{Value: slug, Label: label})
	}
	for k := range src {
		opts := src[k]
		sort.SliceStable(opts, func(i, j int) bool {
			return strings.ToLower(opts[i].Label) < strings.ToLower(opts[j].Label)
		})
	}
	return src
}

// ExpandSelectors returns a copy of s where every selector widget is replaced
// by "select" with enum/enumNames taken from src. Unknown selectors and
// malformed nodes are left as they are.
func ExpandSelectors(s *Schema, src Sources) *Schema {
	out := s.Clone()
	Walk(out, func(_ string, n *Schema) bool {
		if !strings.HasPrefix(n.Widget, "select:") {
			return true
		}
		opts, ok := src[n.Widget]
		if !ok {
			return true
		}
		n.Widget = "select"
		n.Enum = make([]any, 0, len(opts))
		n.EnumNames = make([]model.LocalizedText, 0, len(opts))
		for _, o := range opts {
			n.Enum = append(n.Enum, o.Value)
			n.EnumNames = append(n.EnumNames, model.Text(o.Label))
		}
		if n.Type == "" {
			n.Type = "string"
		}
		return true
	})
	return out
}
