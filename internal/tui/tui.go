// Package tui is the interactive workspace console: a sidebar of the
// workspace's automations, pages and apps, the live activity feed, and a
// YAML source view with save and unsaved-changes protection.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/configstore"
	"github.com/prismeai/prisme-cli/internal/dateformat"
	"github.com/prismeai/prisme-cli/internal/dirty"
	"github.com/prismeai/prisme-cli/internal/events"
	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/source"
)

const (
	eventsPageSize = 30
	routeQuit      = "quit"
)

type Config struct {
	Client      api.Client
	WorkspaceID string
	Lang        string
	// Prefs holds the persisted UI preferences; SavePrefs writes them back.
	Prefs     *configstore.Store
	SavePrefs func(*configstore.Store) error
	Logger    *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

type viewMode int

const (
	viewFeed viewMode = iota
	viewSource
)

type paneFocus int

const (
	focusSidebar paneFocus = iota
	focusMain
)

type workspaceLoadedMsg struct {
	ws  *model.Workspace
	err error
}

type eventsPageMsg struct {
	added   int
	fetched bool
	err     error
}

type liveEventMsg struct{ ev model.Event }

type streamMsg struct {
	connected bool
	err       error
}

type Model struct {
	cfg Config
	ctx context.Context

	keys    keyMap
	help    help.Model
	sidebar list.Model
	main    viewport.Model

	mode      viewMode
	focus     paneFocus
	minimized bool
	width     int
	height    int

	ws        *model.Workspace
	feed      *events.Feed
	formatter dateformat.Formatter
	now       func() time.Time
	loading   bool

	stream *events.Events
	live   <-chan model.Event
	online bool

	worker    *source.Worker
	validator *source.Validator
	doc       *document

	confirm *huh.Form
	leave   *bool

	status    string
	statusErr bool
}

// Run opens the console on cfg.WorkspaceID until the user quits.
func Run(ctx context.Context, cfg Config) error {
	m := NewModel(ctx, cfg)
	defer m.worker.Close()

	stream := events.Dial(ctx, events.Options{
		BaseURL:     cfg.Client.BaseURL,
		WorkspaceID: cfg.WorkspaceID,
		Token:       cfg.Client.Token,
		Logger:      cfg.logger(),
	})
	defer stream.Destroy()
	live := make(chan model.Event, 128)
	defer stream.All(func(ev model.Event) {
		select {
		case live <- ev:
		default:
			cfg.logger().Warn("dropping live event", "type", ev.Type)
		}
	})()
	m.stream = stream
	m.live = live

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func NewModel(ctx context.Context, cfg Config) Model {
	if cfg.Prefs == nil {
		cfg.Prefs = &configstore.Store{}
	}
	m := Model{
		cfg:       cfg,
		ctx:       ctx,
		keys:      defaultKeyMap(),
		help:      help.New(),
		sidebar:   newSidebar(),
		main:      viewport.New(80, 20),
		minimized: cfg.Prefs.SidebarMinimized(),
		feed:      events.NewFeed(time.Local),
		formatter: dateformat.New(cfg.Lang),
		now:       time.Now,
		loading:   true,
		worker:    source.NewWorker(),
		validator: source.NewValidator(),
	}
	m.sidebar.SetItems(sidebarItems(nil, cfg.Lang))
	m.applySidebarMode()
	m.refreshMain()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadWorkspace(), m.fetchEvents(), m.waitForLive(), m.waitForStream())
}

func (m Model) loadWorkspace() tea.Cmd {
	ctx, c, id := m.ctx, m.cfg.Client, m.cfg.WorkspaceID
	return func() tea.Msg {
		ws, err := c.GetWorkspace(ctx, id)
		return workspaceLoadedMsg{ws: ws, err: err}
	}
}

func (m Model) fetchEvents() tea.Cmd {
	ctx, c, id, feed := m.ctx, m.cfg.Client, m.cfg.WorkspaceID, m.feed
	return func() tea.Msg {
		added, fetched, err := feed.FetchNext(ctx, func(ctx context.Context, before time.Time) ([]model.Event, error) {
			return c.GetEvents(ctx, id, api.EventsQuery{Limit: eventsPageSize, BeforeDate: before}), nil
		})
		return eventsPageMsg{added: added, fetched: fetched, err: err}
	}
}

func (m Model) waitForLive() tea.Cmd {
	if m.live == nil {
		return nil
	}
	ch := m.live
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return liveEventMsg{ev: ev}
	}
}

func (m Model) waitForStream() tea.Cmd {
	if m.stream == nil {
		return nil
	}
	stream, online := m.stream, m.online
	return func() tea.Msg {
		if !online {
			select {
			case <-stream.Connected():
				return streamMsg{connected: true}
			case <-stream.Done():
				return streamMsg{err: stream.Err()}
			}
		}
		<-stream.Done()
		return streamMsg{err: stream.Err()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.confirm != nil {
			m.confirm = m.confirm.WithWidth(m.main.Width)
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		return m.handleKey(translateNavKeys(msg))

	case workspaceLoadedMsg:
		if msg.err != nil {
			m.setError("load workspace: " + describeError(msg.err))
			return m, nil
		}
		m.ws = msg.ws
		m.sidebar.SetItems(sidebarItems(msg.ws, m.cfg.Lang))
		return m, nil

	case eventsPageMsg:
		m.loading = false
		if msg.err != nil {
			m.setError("load events: " + describeError(msg.err))
		} else if msg.fetched && msg.added == 0 && !m.feed.HasMore() {
			m.setStatus("no older events")
		}
		m.refreshMain()
		return m, nil

	case liveEventMsg:
		m.feed.Add(msg.ev)
		m.refreshMain()
		cmds := []tea.Cmd{m.waitForLive()}
		if isWorkspaceChange(msg.ev.Type) {
			cmds = append(cmds, m.loadWorkspace())
		}
		return m, tea.Batch(cmds...)

	case streamMsg:
		m.online = msg.connected
		if msg.err != nil {
			m.cfg.logger().Warn("events stream closed", "err", msg.err)
			m.setError("live events disconnected")
		}
		if msg.connected {
			return m, m.waitForStream()
		}
		return m, nil

	case sourceLoadedMsg:
		if msg.err != nil {
			m.setError(describeError(msg.err))
			return m, nil
		}
		m.doc = msg.doc
		m.mode = viewSource
		m.focus = focusMain
		m.keys.editable = !msg.doc.readOnly
		m.setStatus("")
		m.refreshMain()
		m.main.GotoTop()
		return m, nil

	case editorDoneMsg:
		if m.doc == nil {
			return m, nil
		}
		if err := m.applyEdit(msg); err != nil {
			m.setError("editor: " + err.Error())
		} else if m.doc.editor.Invalid() {
			m.setError(fmt.Sprintf("%d error(s) in the document", len(m.doc.editor.Annotations())))
		} else if m.doc.guard.Dirty() {
			m.setStatus("modified, ctrl+s to save")
		}
		m.refreshMain()
		return m, nil

	case savedMsg:
		if m.doc == nil || m.doc.item.route() != msg.route {
			return m, nil
		}
		if msg.err != nil {
			m.setError("save: " + describeError(msg.err))
			return m, nil
		}
		if err := m.doc.guard.Reset(m.doc.editor.Text()); err != nil {
			m.setError(err.Error())
		}
		m.setStatus("saved")
		return m, m.loadWorkspace()
	}

	if m.confirm != nil {
		return m.updateConfirm(msg)
	}
	return m, nil
}

// isWorkspaceChange reports events that alter the sidebar content.
func isWorkspaceChange(eventType string) bool {
	return strings.HasPrefix(eventType, "workspaces.")
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.doc != nil {
			if err := m.doc.guard.Intercept(routeQuit); errors.Is(err, dirty.ErrNavigationAborted) {
				return m, m.askLeave()
			}
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Sidebar):
		m.toggleSidebar()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusSidebar {
			m.focus = focusMain
		} else {
			m.focus = focusSidebar
		}
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		return m, m.loadWorkspace()
	case key.Matches(msg, m.keys.Back) && m.mode == viewSource:
		return m.navigate(sidebarItem{kind: kindActivity})
	case key.Matches(msg, m.keys.Save) && m.mode == viewSource:
		if m.doc.readOnly {
			m.setError("this document is read-only")
			return m, nil
		}
		if m.doc.editor.Invalid() {
			m.setError(describeError(source.ErrInvalid))
			return m, nil
		}
		m.setStatus("saving…")
		return m, m.saveDocument()
	case key.Matches(msg, m.keys.Edit) && m.mode == viewSource:
		if m.doc.readOnly {
			m.setError("this document is read-only")
			return m, nil
		}
		return m, m.editDocument()
	case key.Matches(msg, m.keys.More) && m.mode == viewFeed:
		if m.loading || !m.feed.HasMore() {
			return m, nil
		}
		m.loading = true
		m.setStatus("loading older events…")
		return m, m.fetchEvents()
	}

	if m.focus == focusSidebar {
		if key.Matches(msg, m.keys.Enter) {
			if it, ok := m.sidebar.SelectedItem().(sidebarItem); ok {
				return m.navigate(it)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.main, cmd = m.main.Update(msg)
	return m, cmd
}

// navigate opens it unless the current document has unsaved changes, in
// which case the user is asked first.
func (m Model) navigate(it sidebarItem) (tea.Model, tea.Cmd) {
	route := it.route()
	if m.doc != nil {
		if m.doc.item.route() == route {
			m.focus = focusMain
			return m, nil
		}
		if err := m.doc.guard.Intercept(route); errors.Is(err, dirty.ErrNavigationAborted) {
			return m, m.askLeave()
		}
	}
	return m.open(it)
}

func (m Model) open(it sidebarItem) (tea.Model, tea.Cmd) {
	if it.kind == kindActivity {
		m.doc = nil
		m.mode = viewFeed
		m.keys.editable = false
		m.refreshMain()
		return m, nil
	}
	m.setStatus("opening " + it.route() + "…")
	return m, m.loadDocument(it)
}

func (m *Model) askLeave() tea.Cmd {
	m.leave = new(bool)
	m.confirm = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Discard unsaved changes?").
			Description(m.doc.item.name+" has changes that are not saved.").
			Affirmative("Leave").
			Negative("Stay").
			Value(m.leave),
	)).WithShowHelp(false).WithWidth(m.main.Width)
	return m.confirm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	fm, cmd := m.confirm.Update(msg)
	if f, ok := fm.(*huh.Form); ok {
		m.confirm = f
	}
	switch m.confirm.State {
	case huh.StateCompleted:
		return m.finishConfirm(*m.leave)
	case huh.StateAborted:
		return m.finishConfirm(false)
	}
	return m, cmd
}

// finishConfirm resolves the pending navigation held by the dirty guard.
func (m Model) finishConfirm(leave bool) (tea.Model, tea.Cmd) {
	m.confirm, m.leave = nil, nil
	if m.doc == nil {
		return m, nil
	}
	if !leave {
		m.doc.guard.Cancel()
		return m, nil
	}
	route, ok := m.doc.guard.Confirm()
	if !ok {
		return m, nil
	}
	if route == routeQuit {
		return m, tea.Quit
	}
	return m.open(m.itemForRoute(route))
}

func (m Model) itemForRoute(route string) sidebarItem {
	for _, li := range m.sidebar.Items() {
		if it, ok := li.(sidebarItem); ok && it.route() == route {
			return it
		}
	}
	return sidebarItem{kind: kindActivity}
}

func (m *Model) toggleSidebar() {
	m.minimized = !m.minimized
	m.cfg.Prefs.SetSidebarMinimized(m.minimized)
	if m.cfg.SavePrefs != nil {
		if err := m.cfg.SavePrefs(m.cfg.Prefs); err != nil {
			m.cfg.logger().Warn("cannot save preferences", "err", err)
			m.setError("preferences not saved")
		}
	}
	m.applySidebarMode()
	m.layout()
}

func (m *Model) applySidebarMode() {
	if m.minimized {
		m.sidebar.SetDelegate(minimalDelegate{})
		m.sidebar.SetShowTitle(false)
		return
	}
	d := list.NewDefaultDelegate()
	d.Styles = itemStyles()
	m.sidebar.SetDelegate(d)
	m.sidebar.SetShowTitle(true)
}

func (m *Model) setStatus(s string) { m.status, m.statusErr = s, false }
func (m *Model) setError(s string)  { m.status, m.statusErr = s, true }

func (m Model) sidebarWidth() int {
	if m.minimized {
		return sidebarMinimizedWidth
	}
	return maxInt(minInt(sidebarWidth, m.width/3), sidebarMinimizedWidth)
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	footerH := 2
	if m.help.ShowAll {
		footerH = 6
	}
	// Panes carry a border and a one-column padding on each side.
	bodyH := maxInt(m.height-1-footerH-2, 3)
	sw := m.sidebarWidth()
	m.sidebar.SetSize(sw, bodyH)
	m.main.Width = maxInt(m.width-sw-8, 10)
	m.main.Height = bodyH
	m.help.Width = m.width
	m.refreshMain()
}

func (m *Model) refreshMain() {
	switch m.mode {
	case viewSource:
		m.main.SetContent(renderDocument(m.doc, m.main.Width))
	default:
		m.main.SetContent(renderFeed(m.feed, m.formatter, m.now(), m.main.Width))
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading…"
	}
	sw := m.sidebarWidth()
	left := paneStyle(m.focus == focusSidebar).Width(sw).Height(m.main.Height).Render(m.sidebar.View())
	mainView := m.main.View()
	if m.confirm != nil {
		mainView = m.confirm.View()
	}
	right := paneStyle(m.focus == focusMain).Width(m.main.Width).Height(m.main.Height).Render(mainView)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	status := footerStyle().Render(cmpOrDash(m.status))
	if m.statusErr {
		status = lipgloss.NewStyle().Foreground(prismeDanger).Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, status, m.help.View(m.keys))
}

func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(prismeText).Render("prisme")
	name := m.cfg.WorkspaceID
	if m.ws != nil && m.ws.Name != "" {
		name = m.ws.Name
	}
	parts := []string{title, lipgloss.NewStyle().Foreground(prismeText).Render(name)}
	switch m.mode {
	case viewSource:
		if m.doc != nil {
			parts = append(parts, footerStyle().Render(m.doc.item.route()))
			if m.doc.guard.Dirty() {
				parts = append(parts, lipgloss.NewStyle().Foreground(prismeAccent).Render("● modified"))
			}
		}
	default:
		parts = append(parts, footerStyle().Render(fmt.Sprintf("%d events", m.feed.Len())))
	}
	if m.online {
		parts = append(parts, lipgloss.NewStyle().Foreground(prismeOK).Render("live"))
	} else {
		parts = append(parts, footerStyle().Render("offline"))
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += footerStyle().Render("  ·  ")
		}
		out += p
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(out)
}

func paneStyle(active bool) lipgloss.Style {
	border := prismeBorder
	if active {
		border = prismeAccent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		AlignVertical(lipgloss.Top).
		Align(lipgloss.Left)
}

func footerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(prismeMuted)
}
