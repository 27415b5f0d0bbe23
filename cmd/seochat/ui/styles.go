package ui

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 32

var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBorder  = lipgloss.Color("#2A3850")
	colorError   = lipgloss.Color("#E53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorUser    = lipgloss.Color("#2196F3")
)

// Styles groups the lipgloss styles of the chat screen.
type Styles struct {
	Sidebar        lipgloss.Style
	SidebarTitle   lipgloss.Style
	SessionItem    lipgloss.Style
	SessionActive  lipgloss.Style
	SessionPending lipgloss.Style
	Chat           lipgloss.Style
	UserLabel      lipgloss.Style
	AgentLabel     lipgloss.Style
	Timestamp      lipgloss.Style
	Status         lipgloss.Style
	Error          lipgloss.Style
	Prompt         lipgloss.Style
	Help           lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Sidebar: lipgloss.NewStyle().
			Width(sidebarWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(colorBorder).
			PaddingRight(1),
		SidebarTitle:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1),
		SessionItem:    lipgloss.NewStyle().PaddingLeft(2),
		SessionActive:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		SessionPending: lipgloss.NewStyle().Italic(true).Foreground(colorMuted).PaddingLeft(2),
		Chat:           lipgloss.NewStyle().PaddingLeft(1),
		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(colorUser),
		AgentLabel:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Timestamp:      lipgloss.NewStyle().Foreground(colorMuted),
		Status:         lipgloss.NewStyle().Foreground(colorWarning),
		Error:          lipgloss.NewStyle().Foreground(colorError),
		Prompt:         lipgloss.NewStyle().Foreground(colorAccent),
		Help:           lipgloss.NewStyle().Foreground(colorMuted),
	}
}
