package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Group   lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
	Search  lipgloss.Style
	Table   table.Styles
}

func defaultStyles() styles {
	tbl := table.DefaultStyles()
	tbl.Header = tbl.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	tbl.Selected = tbl.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Group:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Search:  lipgloss.NewStyle().Foreground(lipgloss.Color("218")),
		Table:   tbl,
	}
}
