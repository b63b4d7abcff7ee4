package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifiprov/internal/machine"
	"github.com/muurk/wifiprov/internal/monitor"
)

// maxHistory bounds the transition list shown by the watch view
const maxHistory = 10

// EventMsg carries one monitor message into the watch model
type EventMsg monitor.Message

// StreamClosedMsg ends the watch view; Err is nil on a clean close
type StreamClosedMsg struct {
	Err error
}

// WatchModel is the Bubble Tea model behind "wifiprov watch"
type WatchModel struct {
	target   string
	snapshot *machine.Snapshot
	history  []machine.Transition
	spinner  spinner.Model
	width    int
	err      error
	done     bool
}

// NewWatchModel creates a watch view for the monitor at target
func NewWatchModel(target string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StateStyle(machine.StateConnecting)
	return WatchModel{
		target:  target,
		spinner: s,
		width:   GetTerminalWidth(),
	}
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)

	case EventMsg:
		m = m.apply(monitor.Message(msg))

	case StreamClosedMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) apply(msg monitor.Message) WatchModel {
	switch msg.Type {
	case monitor.TypeSnapshot:
		if msg.Snapshot != nil {
			snap := *msg.Snapshot
			m.snapshot = &snap
		}
	case monitor.TypeTransition:
		if msg.Transition == nil {
			return m
		}
		t := *msg.Transition
		m.history = append(m.history, t)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
		if m.snapshot == nil {
			m.snapshot = &machine.Snapshot{}
		}
		m.snapshot.State = t.To
		m.snapshot.Since = t.At
		m.snapshot.Status.Connected = t.To == machine.StateConnected
		if t.Address.IsValid() {
			m.snapshot.Status.LastAddress = t.Address
		}
		if t.To == machine.StateProvisioning {
			m.snapshot.Mode = "access-point"
		} else if t.To == machine.StateConnecting {
			m.snapshot.Mode = "client"
		}
	}
	return m
}

// State returns the last known machine state
func (m WatchModel) State() (machine.State, bool) {
	if m.snapshot == nil {
		return 0, false
	}
	return m.snapshot.State, true
}

// Err returns the stream error that ended the view, if any
func (m WatchModel) Err() error {
	return m.err
}

// View implements tea.Model
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(RenderHeader("Watching", m.target, nil, m.width))
	b.WriteString("\n")

	if m.snapshot == nil {
		b.WriteString("  " + m.spinner.View() + " waiting for status...\n")
	} else {
		b.WriteString(RenderSnapshot(*m.snapshot, m.width))
		b.WriteString("\n")
		if m.snapshot.State == machine.StateConnecting && !m.done {
			b.WriteString("  " + m.spinner.View() + " connecting...\n")
		}
	}

	if len(m.history) > 0 {
		b.WriteString("\n")
		for _, t := range m.history {
			b.WriteString("  " + RenderTransition(t) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + ErrorMessageStyle.Render("  Stream closed: "+m.err.Error()) + "\n")
	}
	if !m.done {
		b.WriteString("\n" + MutedStyle.Render("  q to quit") + "\n")
	}
	return b.String()
}

func clampWidth(w int) int {
	if w < MinTerminalWidth {
		return MinTerminalWidth
	}
	if w > MaxContentWidth {
		return MaxContentWidth
	}
	return w
}
