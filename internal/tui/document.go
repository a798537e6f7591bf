package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/dirty"
	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/source"
	"github.com/prismeai/prisme-cli/internal/tools"
)

const kindAppSource source.Kind = "app"

// document is the YAML source opened in the main pane.
type document struct {
	item     sidebarItem
	editor   *source.Editor
	guard    *dirty.Guard
	readOnly bool
}

type sourceLoadedMsg struct {
	doc *document
	err error
}

type editorDoneMsg struct {
	path string
	err  error
}

type savedMsg struct {
	route string
	err   error
}

func sourceKind(k itemKind) source.Kind {
	switch k {
	case kindAutomation:
		return source.KindAutomation
	case kindPage:
		return source.KindPage
	}
	return kindAppSource
}

func (m Model) loadDocument(it sidebarItem) tea.Cmd {
	ctx, c, wsID := m.ctx, m.cfg.Client, m.cfg.WorkspaceID
	worker, validator := m.worker, m.validator
	ws := m.ws
	return func() tea.Msg {
		var original any
		switch it.kind {
		case kindAutomation:
			a, err := c.GetAutomation(ctx, wsID, it.slug)
			if err != nil {
				return sourceLoadedMsg{err: err}
			}
			original = a
		case kindPage:
			p, err := c.GetPage(ctx, wsID, it.slug)
			if err != nil {
				return sourceLoadedMsg{err: err}
			}
			original = p
		case kindApp:
			if ws == nil || ws.Imports[it.slug] == nil {
				return sourceLoadedMsg{err: fmt.Errorf("app %q is not installed", it.slug)}
			}
			original = ws.Imports[it.slug]
		default:
			return sourceLoadedMsg{err: fmt.Errorf("nothing to open for %q", it.route())}
		}

		kind := sourceKind(it.kind)
		v := validator
		if kind == kindAppSource {
			v = nil
		}
		ed, err := source.NewEditor(ctx, kind, original, worker, v)
		if err != nil {
			return sourceLoadedMsg{err: err}
		}
		g, err := dirty.New(ed.Text())
		if err != nil {
			return sourceLoadedMsg{err: err}
		}
		return sourceLoadedMsg{doc: &document{item: it, editor: ed, guard: g, readOnly: kind == kindAppSource}}
	}
}

// editDocument suspends the program and opens the current text in the
// user's editor.
func (m Model) editDocument() tea.Cmd {
	doc := m.doc
	argv, err := tools.FindEditor()
	if err != nil {
		return func() tea.Msg { return editorDoneMsg{err: err} }
	}
	dir, err := os.MkdirTemp("", "prisme-tui-")
	if err != nil {
		return func() tea.Msg { return editorDoneMsg{err: err} }
	}
	path := filepath.Join(dir, string(doc.editor.Kind())+"-"+doc.item.slug+".yml")
	if err := os.WriteFile(path, []byte(doc.editor.Text()), 0o600); err != nil {
		return func() tea.Msg { return editorDoneMsg{err: err} }
	}
	c := exec.Command(argv[0], append(argv[1:], path)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorDoneMsg{path: path, err: err}
	})
}

// applyEdit re-parses the edited file and refreshes the dirty state.
func (m *Model) applyEdit(msg editorDoneMsg) error {
	if msg.path != "" {
		defer os.RemoveAll(filepath.Dir(msg.path))
	}
	if msg.err != nil {
		return msg.err
	}
	text, err := os.ReadFile(msg.path)
	if err != nil {
		return err
	}
	return m.setText(string(text))
}

func (m *Model) setText(text string) error {
	if _, err := m.doc.editor.Update(m.ctx, text); err != nil {
		return err
	}
	return m.doc.guard.Update(m.doc.editor.Text())
}

func convertDoc(doc any, into any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, into)
}

func (m Model) saveDocument() tea.Cmd {
	doc := m.doc
	ctx, c, wsID := m.ctx, m.cfg.Client, m.cfg.WorkspaceID
	route := doc.item.route()
	return func() tea.Msg {
		err := doc.editor.Save(ctx, func(ctx context.Context, v any) error {
			switch doc.item.kind {
			case kindAutomation:
				var a model.Automation
				if err := convertDoc(v, &a); err != nil {
					return err
				}
				_, err := c.UpdateAutomation(ctx, wsID, doc.item.slug, &a)
				return err
			case kindPage:
				var p model.Page
				if err := convertDoc(v, &p); err != nil {
					return err
				}
				_, err := c.UpdatePage(ctx, wsID, doc.item.slug, &p)
				return err
			}
			return errors.New("this document is read-only")
		})
		return savedMsg{route: route, err: err}
	}
}

func describeError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (HTTP %d)", apiErr.Error(), apiErr.Status)
	}
	if errors.Is(err, source.ErrInvalid) {
		return "fix the errors before saving"
	}
	return err.Error()
}

// renderDocument numbers each line and marks annotated rows.
func renderDocument(doc *document, width int) string {
	if doc == nil {
		return ""
	}
	lines := strings.Split(strings.TrimRight(doc.editor.Text(), "\n"), "\n")
	// Errors reported past the end of the text belong to the last line.
	marks := map[int][]string{}
	for _, a := range doc.editor.Annotations() {
		row := minInt(maxInt(a.Row, 1), len(lines))
		marks[row] = append(marks[row], a.Text)
	}
	gutter := len(strconv.Itoa(len(lines)))
	numStyle := lipgloss.NewStyle().Foreground(prismeMuted)
	errStyle := lipgloss.NewStyle().Foreground(prismeDanger)

	var b strings.Builder
	for i, line := range lines {
		row := i + 1
		num := fmt.Sprintf("%*d ", gutter, row)
		mark := "  "
		if len(marks[row]) > 0 {
			mark = errStyle.Render("✗ ")
		}
		b.WriteString(numStyle.Render(num) + mark + truncateRunes(line, maxInt(width-gutter-3, 1)))
		for _, text := range marks[row] {
			b.WriteString("\n" + strings.Repeat(" ", gutter+3) + errStyle.Render(truncateRunes(text, maxInt(width-gutter-3, 1))))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
