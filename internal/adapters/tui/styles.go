// Package tui is the terminal surface of the address book: a bubbletea list
// view plus the confirmation and notification surfaces used by both the list
// view and the one-shot `delete` command.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	destructive = lipgloss.Color("#e53935")
	info        = lipgloss.Color("#2196F3")
	muted       = lipgloss.Color("#6b7280")
)

// Styles groups the lipgloss styles used across the surface.
type Styles struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	Help    lipgloss.Style
	Banner  lipgloss.Style
	Error   lipgloss.Style
	Dialog  lipgloss.Style
	Danger  lipgloss.Style
	Option  lipgloss.Style
	Cursor  lipgloss.Style
	Detail  lipgloss.Style
	Success lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Status:  lipgloss.NewStyle().Foreground(muted),
		Help:    lipgloss.NewStyle().Foreground(muted).Italic(true),
		Banner:  lipgloss.NewStyle().Foreground(info).Border(lipgloss.RoundedBorder()).BorderForeground(info).Padding(0, 1),
		Error:   lipgloss.NewStyle().Foreground(destructive).Bold(true),
		Dialog:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(destructive).Padding(0, 1),
		Danger:  lipgloss.NewStyle().Foreground(destructive).Bold(true),
		Option:  lipgloss.NewStyle().PaddingLeft(2),
		Cursor:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		Detail:  lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(muted).PaddingLeft(1),
		Success: lipgloss.NewStyle().Foreground(accent),
	}
}
