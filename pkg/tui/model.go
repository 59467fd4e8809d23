// Package tui is the interactive capacity dashboard.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DrSkyle/stowage/pkg/warehouse"
)

type ViewState int

const (
	ViewStateList ViewState = iota
	ViewStateDetail
)

// RefreshInterval is how often the dashboard reloads the persisted state.
const RefreshInterval = 2 * time.Second

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99"))
	special    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF99"))
	danger     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0055"))
	warning    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
)

// Loader reads the current warehouse state.
type Loader func(ctx context.Context) (*warehouse.State, error)

type Model struct {
	// core components
	spinner  spinner.Model
	progress progress.Model
	load     Loader

	// state
	state    ViewState
	loading  bool
	quitting bool
	err      error
	width    int
	height   int

	// data
	snapshot    *warehouse.State
	status      warehouse.Status
	lastRefresh time.Time

	// navigation
	cursor        int
	detailsScroll int
}

type tickMsg time.Time

type loadedMsg struct {
	state *warehouse.State
	err   error
	at    time.Time
}

func NewModel(load Loader) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = special

	prog := progress.New(progress.WithGradient("#00FF99", "#FF0055"), progress.WithoutPercentage())
	prog.Width = 24

	return Model{
		spinner:  s,
		progress: prog,
		load:     load,
		state:    ViewStateList,
		loading:  true,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), tick())
}

func (m Model) refresh() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		st, err := load(context.Background())
		return loadedMsg{state: st, err: err, at: time.Now()}
	}
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if w := msg.Width / 3; w > 10 {
			m.progress.Width = w
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.snapshot = msg.state
			m.status = msg.state.Status()
			m.lastRefresh = msg.at
			if n := len(m.status.Containers); m.cursor >= n {
				m.cursor = max(n-1, 0)
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, m.refresh()
	}

	switch m.state {
	case ViewStateList:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.status.Containers)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.status.Containers) > 0 {
				m.state = ViewStateDetail
				m.detailsScroll = 0
			}
		}
	case ViewStateDetail:
		switch msg.String() {
		case "esc", "backspace":
			m.state = ViewStateList
		case "up", "k":
			if m.detailsScroll > 0 {
				m.detailsScroll--
			}
		case "down", "j":
			m.detailsScroll++
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle.Render("STOWAGE DASHBOARD")
	if m.snapshot != nil {
		header += dimStyle.Render("  day " + m.status.CurrentDate.Format(time.DateOnly))
	}
	if m.loading {
		header += " " + m.spinner.View()
	}

	body := ""
	switch {
	case m.snapshot == nil && m.err == nil:
		body = "\n   " + m.spinner.View() + " Loading state..."
	case m.state == ViewStateDetail:
		body = m.viewDetails()
	default:
		body = m.viewList()
	}

	footer := dimStyle.Render("  ↑/↓ move • enter details • esc back • r refresh • q quit")
	if m.err != nil {
		footer = danger.Render("  load failed: "+m.err.Error()) + "\n" + footer
	}
	return header + "\n" + body + "\n" + footer + "\n"
}

// Run starts the dashboard on the terminal.
func Run(load Loader) error {
	_, err := tea.NewProgram(NewModel(load), tea.WithAltScreen()).Run()
	return err
}
