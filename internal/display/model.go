package display

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hostprowl/internal/scanstate"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	countStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

type tickMsg time.Time

// Model is the live scan-progress screen: a spinner, elapsed time, and the
// running found-host count read from the process-wide counter.
type Model struct {
	spinner   spinner.Model
	started   time.Time
	targets   string
	quitting  bool
	onQuit    func()
}

// NewModel builds the progress model for a scan against the given target
// description (shown in the header).
func NewModel(targets string, onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{spinner: s, started: time.Now(), targets: targets, onQuit: onQuit}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			scanstate.Stop()
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
	case tickMsg:
		if scanstate.Stopped() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	elapsed := time.Since(m.started).Round(time.Second)
	return fmt.Sprintf(
		"%s %s\n\n  %s scanning %s\n  %s %s\n\n%s\n",
		m.spinner.View(), titleStyle.Render("hostprowl"),
		elapsed, m.targets,
		countStyle.Render(fmt.Sprintf("%d", scanstate.HostCount())), "hosts found",
		hintStyle.Render("press q to stop"),
	)
}
