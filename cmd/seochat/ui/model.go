// Package ui is the bubbletea front end of seochat.
package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"seo-assistant/cmd/internal/logger"
	"seo-assistant/cmd/seochat/controller"
	"seo-assistant/dto"
)

// Controller is what the screen needs from the session controller.
type Controller interface {
	Snapshot() controller.Snapshot
	FetchSessions(ctx context.Context) error
	SelectSession(ctx context.Context, sessionID string) error
	NewConversation()
	CreateSession(ctx context.Context, text string) (dto.AsyncSessionStartResponse, *controller.JobTask, error)
	ContinueSession(ctx context.Context, text string) (dto.AsyncMessageResponse, *controller.JobTask, error)
	UpdateSession(ctx context.Context, sessionID, title string) error
	DeleteSession(ctx context.Context, sessionID string) error
}

type mode int

const (
	modeChat mode = iota
	modeRename
	modeConfirmDelete
)

// opDoneMsg reports the end of a controller call started from a key press.
type opDoneMsg struct {
	op  string
	err error
}

const helpText = "enter send · tab/shift+tab switch · ctrl+n new · ctrl+r rename · ctrl+d delete · ctrl+c quit"

// Model is the chat screen: session sidebar, conversation viewport and input line.
//
// Every controller call runs inside a tea.Cmd. The controller notifies through Program.Send, which
// would deadlock if it were reached from Update.
type Model struct {
	ctx  context.Context
	ctrl Controller

	styles   Styles
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	snap   controller.Snapshot
	mode   mode
	status string
	err    error

	width  int
	height int
	ready  bool
}

func New(ctx context.Context, ctrl Controller) Model {
	in := textinput.New()
	in.Placeholder = "Describe the page you want to optimize"
	in.Prompt = "› "
	in.CharLimit = 4000
	in.Width = 60
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	st := DefaultStyles()
	in.PromptStyle = st.Prompt

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		styles:   st,
		input:    in,
		viewport: viewport.New(60, 10),
		spin:     s,
		snap:     ctrl.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.run("fetch_sessions", func(ctx context.Context) error {
		return m.ctrl.FetchSessions(ctx)
	}))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}

	case EventMsg:
		m.refresh()
		if msg.Event.Kind == controller.EventJobFailed && msg.Event.Err != nil {
			m.err = msg.Event.Err
		}
		if msg.Event.Kind == controller.EventJobCompleted {
			m.status = ""
		}
		return m, nil

	case opDoneMsg:
		m.refresh()
		m.err = nil
		if msg.err != nil {
			m.err = msg.err
			logger.WarnWithFields("ui operation failed", logger.Fields{"op": msg.op, "error": msg.err.Error()})
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok {
		// the input owns every other key, including the viewport's letter bindings
		if s := key.String(); s == "pgup" || s == "pgdown" {
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit, true
	}

	switch m.mode {
	case modeConfirmDelete:
		id := m.snap.ActiveSessionID
		m.mode = modeChat
		m.status = ""
		if key == "y" || key == "Y" {
			return m.run("delete_session", func(ctx context.Context) error {
				return m.ctrl.DeleteSession(ctx, id)
			}), true
		}
		return nil, true

	case modeRename:
		switch key {
		case "esc":
			m.mode = modeChat
			m.status = ""
			m.input.SetValue("")
			return nil, true
		case "enter":
			id, title := m.snap.ActiveSessionID, m.input.Value()
			m.mode = modeChat
			m.status = ""
			m.input.SetValue("")
			return m.run("update_session", func(ctx context.Context) error {
				return m.ctrl.UpdateSession(ctx, id, title)
			}), true
		}
		return nil, false
	}

	switch key {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return nil, true
		}
		m.input.SetValue("")
		m.err = nil
		if m.snap.ActiveSessionID == "" {
			return m.run("create_session", func(ctx context.Context) error {
				_, _, err := m.ctrl.CreateSession(ctx, text)
				return err
			}), true
		}
		return m.run("continue_session", func(ctx context.Context) error {
			_, _, err := m.ctrl.ContinueSession(ctx, text)
			return err
		}), true

	case "tab", "shift+tab":
		step := 1
		if key == "shift+tab" {
			step = -1
		}
		id, ok := m.neighbour(step)
		if !ok {
			return nil, true
		}
		return m.run("select_session", func(ctx context.Context) error {
			return m.ctrl.SelectSession(ctx, id)
		}), true

	case "ctrl+n":
		m.err = nil
		return m.run("new_conversation", func(context.Context) error {
			m.ctrl.NewConversation()
			return nil
		}), true

	case "ctrl+r":
		active, ok := m.snap.ActiveSession()
		if !ok || active.Pending {
			return nil, true
		}
		m.mode = modeRename
		m.status = "Rename session (enter to save, esc to cancel)"
		m.input.SetValue(active.Title)
		m.input.CursorEnd()
		return nil, true

	case "ctrl+d":
		active, ok := m.snap.ActiveSession()
		if !ok || active.Pending {
			return nil, true
		}
		m.mode = modeConfirmDelete
		m.status = "Delete \"" + truncate(active.Title, 40) + "\"? (y/n)"
		return nil, true
	}
	return nil, false
}

// neighbour returns the confirmed session step positions away from the active one, wrapping.
func (m Model) neighbour(step int) (string, bool) {
	var ids []string
	for _, s := range m.snap.Sessions {
		if !s.Pending {
			ids = append(ids, s.ID)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	cur := -1
	for i, id := range ids {
		if id == m.snap.ActiveSessionID {
			cur = i
			break
		}
	}
	if cur < 0 {
		if step < 0 {
			return ids[len(ids)-1], true
		}
		return ids[0], true
	}
	next := (cur + step + len(ids)) % len(ids)
	if ids[next] == m.snap.ActiveSessionID {
		return "", false
	}
	return ids[next], true
}

func (m Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *Model) layout() {
	chatWidth := m.width - sidebarWidth - 3
	if chatWidth < 20 {
		chatWidth = 20
	}
	// input, status and help lines
	chatHeight := m.height - 4
	if chatHeight < 3 {
		chatHeight = 3
	}
	m.viewport.Width = chatWidth
	m.viewport.Height = chatHeight
	m.input.Width = chatWidth - 4
	m.renderer = NewRenderer(chatWidth - 4)
}

// refresh takes a new snapshot and re-renders the conversation.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderMessages(m.styles, m.renderer, m.snap.Messages))
	if atBottom || m.snap.Generating {
		m.viewport.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	sidebar := renderSidebar(m.styles, m.snap, m.height-1)
	chat := m.styles.Chat.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.statusLine(),
		m.input.View(),
	))
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chat)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.styles.Help.Render(helpText))
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return m.styles.Error.Render(errorText(m.err))
	case m.status != "":
		return m.styles.Status.Render(m.status)
	case m.snap.Generating:
		return m.spin.View() + " generating suggestions…"
	case m.snap.State(m.snap.ActiveSessionID) == controller.StateFetching:
		return m.spin.View() + " loading messages…"
	}
	return ""
}

func errorText(err error) string {
	var jobErr *controller.JobFailedError
	switch {
	case errors.Is(err, controller.ErrBusy):
		return "Still waiting for the previous reply."
	case errors.As(err, &jobErr):
		return "Generation failed: " + jobErr.Error()
	default:
		return "Error: " + err.Error()
	}
}

// Run starts the chat screen and blocks until the user quits or ctx is canceled.
func Run(ctx context.Context, ctrl Controller, n *Notifier) error {
	p := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	n.Attach(p)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
