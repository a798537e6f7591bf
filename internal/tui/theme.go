package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

// Console palette, readable on both light and dark terminal backgrounds.
var (
	prismeText   = lipgloss.AdaptiveColor{Light: "#1a2138", Dark: "#f4f6fb"}
	prismeMuted  = lipgloss.AdaptiveColor{Light: "#6b7691", Dark: "#b6bdd0"}
	prismeBorder = lipgloss.AdaptiveColor{Light: "#6b7691", Dark: "#3e4763"}
	prismeAccent = lipgloss.AdaptiveColor{Light: "#015dff", Dark: "#4b8bff"}
	prismeDanger = lipgloss.AdaptiveColor{Light: "#c0262d", Dark: "#ff5c63"}
	prismeOK     = lipgloss.AdaptiveColor{Light: "#1c7c3a", Dark: "#5ad27f"}
)

func listStyles() list.Styles {
	s := list.DefaultStyles()

	s.TitleBar = lipgloss.NewStyle().Padding(0, 0, 1, 0)
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(prismeText).UnsetBackground()

	s.Spinner = lipgloss.NewStyle().Foreground(prismeMuted)

	s.FilterPrompt = lipgloss.NewStyle().Foreground(prismeAccent)
	s.FilterCursor = lipgloss.NewStyle().Foreground(prismeAccent)
	s.DefaultFilterCharacterMatch = lipgloss.NewStyle().Underline(true)

	s.StatusBar = lipgloss.NewStyle().Foreground(prismeMuted).Padding(0, 0, 1, 0)
	s.StatusEmpty = lipgloss.NewStyle().Foreground(prismeMuted)
	s.StatusBarActiveFilter = lipgloss.NewStyle().Foreground(prismeText)
	s.StatusBarFilterCount = lipgloss.NewStyle().Foreground(prismeMuted)

	s.NoItems = lipgloss.NewStyle().Foreground(prismeMuted)
	s.PaginationStyle = lipgloss.NewStyle().PaddingLeft(0)
	s.HelpStyle = lipgloss.NewStyle().Padding(1, 0, 0, 0).Foreground(prismeMuted)

	s.ActivePaginationDot = lipgloss.NewStyle().Foreground(prismeAccent).SetString("•")
	s.InactivePaginationDot = lipgloss.NewStyle().Foreground(prismeMuted).SetString("•")
	s.DividerDot = lipgloss.NewStyle().Foreground(prismeMuted).SetString(" • ")

	return s
}

func itemStyles() list.DefaultItemStyles {
	s := list.NewDefaultItemStyles()

	s.NormalTitle = lipgloss.NewStyle().
		Foreground(prismeText).
		Padding(0, 0, 0, 2)

	s.NormalDesc = lipgloss.NewStyle().
		Foreground(prismeMuted).
		Padding(0, 0, 0, 2)

	s.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(prismeAccent).
		Foreground(prismeText).
		Bold(true).
		Padding(0, 0, 0, 1)

	s.SelectedDesc = s.SelectedTitle.Copy().
		Bold(false).
		Foreground(prismeText)

	s.DimmedTitle = lipgloss.NewStyle().
		Foreground(prismeMuted).
		Padding(0, 0, 0, 2)

	s.DimmedDesc = lipgloss.NewStyle().
		Foreground(prismeBorder).
		Padding(0, 0, 0, 2)

	s.FilterMatch = lipgloss.NewStyle().Underline(true)

	return s
}
