package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/prismeai/prisme-cli/internal/dateformat"
	"github.com/prismeai/prisme-cli/internal/events"
	"github.com/prismeai/prisme-cli/internal/model"
)

// renderFeed lays out the feed one block per day, most recent first.
func renderFeed(feed *events.Feed, f dateformat.Formatter, now time.Time, width int) string {
	days := feed.Days()
	if len(days) == 0 {
		return lipgloss.NewStyle().Foreground(prismeMuted).Render("No activity yet.")
	}
	dayStyle := lipgloss.NewStyle().Bold(true).Foreground(prismeText)
	timeStyle := lipgloss.NewStyle().Foreground(prismeMuted)
	typeStyle := lipgloss.NewStyle().Foreground(prismeAccent)
	failStyle := lipgloss.NewStyle().Foreground(prismeDanger)

	var b strings.Builder
	for i, d := range days {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(dayStyle.Render(f.Format(d.Date, dateformat.Options{Format: "PPPP"})))
		b.WriteString("\n")
		for _, ev := range d.Events {
			line := timeStyle.Render(f.Format(ev.CreatedAt, dateformat.Options{Format: "p"})) + "  "
			if ev.Failed() {
				line += failStyle.Render(ev.Type)
			} else {
				line += typeStyle.Render(ev.Type)
			}
			if detail := eventDetail(ev); detail != "" {
				line += "  " + detail
			}
			line += timeStyle.Render("  " + dateformat.Ago(ev.CreatedAt, now))
			b.WriteString(lipgloss.NewStyle().MaxWidth(width).Render(line))
			b.WriteString("\n")
		}
	}
	if !feed.HasMore() {
		b.WriteString("\n")
		b.WriteString(timeStyle.Render("Beginning of the activity."))
	}
	return strings.TrimRight(b.String(), "\n")
}

// eventDetail summarizes who or what emitted ev, followed by its payload
// keys.
func eventDetail(ev model.Event) string {
	var parts []string
	if ev.Source.AutomationSlug != "" {
		parts = append(parts, "by "+ev.Source.AutomationSlug)
	} else if ev.Source.UserID != "" {
		parts = append(parts, "by "+ev.Source.UserID)
	}
	if ev.Error != nil && ev.Error.Message != "" {
		parts = append(parts, ev.Error.Message)
	}
	if len(ev.Payload) > 0 {
		keys := make([]string, 0, len(ev.Payload))
		for k := range ev.Payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts = append(parts, fmt.Sprintf("{%s}", strings.Join(keys, ", ")))
	}
	return strings.Join(parts, " ")
}
