package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"seo-assistant/cmd/seochat/controller"
	"seo-assistant/models"
)

// SuggestionMarkdown lays out an agent suggestion bundle as Markdown.
func SuggestionMarkdown(s *models.Suggestion) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	title := s.Title
	if title == "" {
		title = "Suggestion"
	}
	fmt.Fprintf(&b, "### %s\n\n", title)
	if s.TitleTag != "" {
		fmt.Fprintf(&b, "- **Title tag:** %s\n", s.TitleTag)
	}
	if s.MetaDescription != "" {
		fmt.Fprintf(&b, "- **Meta description:** %s\n", s.MetaDescription)
	}
	if len(s.MetaKeywords) > 0 {
		fmt.Fprintf(&b, "- **Meta keywords:** %s\n", strings.Join(s.MetaKeywords, ", "))
	}
	if s.Content != "" {
		b.WriteString("\n")
		b.WriteString(s.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// NewRenderer creates a glamour renderer wrapping at width. Errors fall back to plain Markdown.
func NewRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// RenderMarkdown renders md with r, returning md unchanged when r is nil or fails.
func RenderMarkdown(r *glamour.TermRenderer, md string) string {
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func renderSidebar(st Styles, snap controller.Snapshot, height int) string {
	var b strings.Builder
	b.WriteString(st.SidebarTitle.Render("Sessions"))
	b.WriteString("\n")

	if snap.LoadingSessions && len(snap.Sessions) == 0 {
		b.WriteString(st.Help.Render("loading…"))
	}
	if !snap.LoadingSessions && len(snap.Sessions) == 0 {
		b.WriteString(st.Help.Render("no sessions yet"))
	}
	for _, s := range snap.Sessions {
		title := truncate(s.Title, sidebarWidth-4)
		switch {
		case s.ID == snap.ActiveSessionID:
			b.WriteString(st.SessionActive.Render("▸ " + title))
		case s.Pending:
			b.WriteString(st.SessionPending.Render(title))
		default:
			b.WriteString(st.SessionItem.Render(title))
		}
		b.WriteString("\n")
	}

	style := st.Sidebar
	if height > 0 {
		style = style.Height(height)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func renderMessages(st Styles, r *glamour.TermRenderer, messages []models.Message) string {
	if len(messages) == 0 {
		return st.Help.Render("Type a prompt and press enter to start a session.")
	}
	var blocks []string
	for _, m := range messages {
		ts := ""
		if !m.Timestamp.IsZero() {
			ts = " " + st.Timestamp.Render(m.Timestamp.Local().Format("15:04"))
		}
		if m.IsAgent() {
			blocks = append(blocks, st.AgentLabel.Render("Assistant")+ts+"\n"+RenderMarkdown(r, SuggestionMarkdown(m.Suggestion)))
			continue
		}
		label := st.UserLabel.Render("You")
		if m.Pending {
			ts = " " + st.Timestamp.Render("sending…")
		}
		blocks = append(blocks, label+ts+"\n"+m.Text)
	}
	return strings.Join(blocks, "\n\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
