package tui

import (
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prismeai/prisme-cli/internal/model"
)

type itemKind string

const (
	kindActivity   itemKind = "activity"
	kindAutomation itemKind = "automations"
	kindPage       itemKind = "pages"
	kindApp        itemKind = "apps"
)

const (
	sidebarWidth          = 32
	sidebarMinimizedWidth = 6
)

type sidebarItem struct {
	kind itemKind
	slug string
	name string
	desc string
}

func (i sidebarItem) Title() string { return i.name }

func (i sidebarItem) Description() string {
	if i.desc != "" {
		return i.desc
	}
	return i.label()
}

func (i sidebarItem) FilterValue() string { return i.name + " " + i.slug }

func (i sidebarItem) label() string {
	switch i.kind {
	case kindAutomation:
		return "automation"
	case kindPage:
		return "page"
	case kindApp:
		return "app"
	}
	return ""
}

func (i sidebarItem) glyph() string {
	switch i.kind {
	case kindAutomation:
		return "ƒ"
	case kindPage:
		return "▤"
	case kindApp:
		return "◆"
	}
	return "≡"
}

// route identifies the view an item opens, as used by the dirty guard.
func (i sidebarItem) route() string {
	if i.kind == kindActivity {
		return string(kindActivity)
	}
	return string(i.kind) + "/" + i.slug
}

// sidebarItems lists the activity feed then every automation, page and app
// of ws, each group sorted by display name.
func sidebarItems(ws *model.Workspace, lang string) []list.Item {
	items := []list.Item{sidebarItem{kind: kindActivity, name: "Activity", desc: "live events"}}
	if ws == nil {
		return items
	}
	group := func(kind itemKind, entries []sidebarItem) {
		sort.SliceStable(entries, func(a, b int) bool {
			return strings.ToLower(entries[a].name) < strings.ToLower(entries[b].name)
		})
		for _, e := range entries {
			e.kind = kind
			items = append(items, e)
		}
	}

	autos := make([]sidebarItem, 0, len(ws.Automations))
	for slug, a := range ws.Automations {
		it := sidebarItem{slug: slug, name: slug}
		if a != nil && !a.Name.IsZero() {
			it.name = model.Localize(a.Name, lang)
		}
		if a != nil && a.Disabled {
			it.desc = "automation · disabled"
		}
		autos = append(autos, it)
	}
	group(kindAutomation, autos)

	pages := make([]sidebarItem, 0, len(ws.Pages))
	for slug, p := range ws.Pages {
		it := sidebarItem{slug: slug, name: slug}
		if p != nil && !p.Name.IsZero() {
			it.name = model.Localize(p.Name, lang)
		}
		if p != nil && p.Public {
			it.desc = "page · public"
		}
		pages = append(pages, it)
	}
	group(kindPage, pages)

	apps := make([]sidebarItem, 0, len(ws.Imports))
	for slug, inst := range ws.Imports {
		it := sidebarItem{slug: slug, name: slug}
		if inst != nil && !inst.AppName.IsZero() {
			it.desc = "app · " + model.Localize(inst.AppName, lang)
		}
		if inst != nil && inst.Disabled {
			it.desc = "app · disabled"
		}
		apps = append(apps, it)
	}
	group(kindApp, apps)

	return items
}

func newSidebar() list.Model {
	d := list.NewDefaultDelegate()
	d.Styles = itemStyles()
	l := list.New(nil, d, sidebarWidth, 10)
	l.Title = "Workspace"
	l.Styles = listStyles()
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

// minimalDelegate renders one glyph per item for the folded sidebar.
type minimalDelegate struct{}

func (d minimalDelegate) Height() int                               { return 1 }
func (d minimalDelegate) Spacing() int                              { return 0 }
func (d minimalDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d minimalDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(sidebarItem)
	if !ok {
		return
	}
	style := lipgloss.NewStyle().Foreground(prismeMuted)
	prefix := " "
	if index == m.Index() {
		style = lipgloss.NewStyle().Bold(true).Foreground(prismeAccent)
		prefix = ">"
	}
	_, _ = io.WriteString(w, style.Render(prefix+" "+it.glyph()))
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
