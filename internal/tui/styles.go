package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	success  lipgloss.Style
	pending  lipgloss.Style
	accent   lipgloss.Style
	muted    lipgloss.Style
	err      lipgloss.Style
	selected lipgloss.Style
	name     lipgloss.Style
	help     lipgloss.Style
	disabled lipgloss.Style
	label    lipgloss.Style
	frame    lipgloss.Style
	box      lipgloss.Style
}

// newStyles returns the palette for a theme name; unknown names get classic.
func newStyles(theme string) styles {
	s := styles{
		title:    lipgloss.NewStyle().Bold(true),
		success:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		muted:    lipgloss.NewStyle().Faint(true),
		err:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		name:     lipgloss.NewStyle().Bold(true),
		help:     lipgloss.NewStyle().Faint(true),
		disabled: lipgloss.NewStyle().Faint(true).Strikethrough(true),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
	}

	switch theme {
	case "neon":
		s.title = s.title.Foreground(lipgloss.Color("13"))
		s.accent = s.accent.Foreground(lipgloss.Color("14"))
		s.label = s.label.Foreground(lipgloss.Color("14"))
		s.frame = s.frame.BorderForeground(lipgloss.Color("13"))
		s.box = s.box.BorderForeground(lipgloss.Color("14"))
	case "mono":
		plain := lipgloss.NewStyle()
		s.success, s.pending, s.accent, s.label = plain, plain, plain, plain
		s.err = plain.Bold(true)
		s.frame = s.frame.Border(lipgloss.NormalBorder()).UnsetBorderForeground()
		s.box = s.box.Border(lipgloss.NormalBorder()).UnsetBorderForeground()
	}
	return s
}
