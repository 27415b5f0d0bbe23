package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"seo-assistant/cmd/seochat/controller"
)

// EventMsg carries a controller event into the bubbletea loop.
type EventMsg struct {
	Event controller.Event
}

// Notifier forwards controller events to a running program. Events sent before Attach are dropped;
// the model takes a fresh snapshot on start anyway.
type Notifier struct {
	mu      sync.Mutex
	program *tea.Program
}

func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	n.program = p
	n.mu.Unlock()
}

// Notify must not be called from inside Update: Program.Send blocks until the loop reads it.
func (n *Notifier) Notify(ev controller.Event) {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p != nil {
		p.Send(EventMsg{Event: ev})
	}
}
