package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AnferLagbu/Chameleon/internal/batch"
)

// Model renders a running batch. It owns nothing but the event channel; the
// engine keeps running whether or not a terminal is attached.
type Model struct {
	events  <-chan batch.Event
	cancel  func()
	started time.Time

	width      int
	percent    int // high-water mark; worker completion order may regress raw values
	message    string
	errorCount int
	lastError  string

	tally     batch.Tally
	completed bool
	cancelled bool
	quitting  bool
}

type doneMsg struct{}

type eventMsg struct {
	event batch.Event
}

// NewModel builds a Model over a batch's event stream. cancel is invoked on
// Ctrl+C or q; the model quits only once the engine confirms via its
// terminal event.
func NewModel(events <-chan batch.Event, cancel func()) Model {
	return Model{events: events, cancel: cancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForEvents(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		switch ev := msg.event.(type) {
		case batch.Progress:
			if ev.Percent > m.percent {
				m.percent = ev.Percent
			}
			m.message = ev.Message
		case batch.FileError:
			m.errorCount++
			m.lastError = fmt.Sprintf("%s: %s", ev.Path, ev.Message)
		case batch.Complete:
			m.tally = ev.Tally
			m.completed = true
			m.percent = 100
		case batch.Cancelled:
			m.cancelled = true
		}
		return m, listenForEvents(m.events)

	case doneMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			m.message = "cancelling..."
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)

	status := m.message
	switch {
	case m.cancelled:
		status = warnStyle.Render("conversion cancelled")
	case m.completed:
		status = okStyle.Render("conversion complete")
	}

	lines := []string{
		titleStyle.Render("chameleon 🦎"),
		barStyle.Render(renderBar(barWidth, float64(m.percent)/100)) + dimStyle.Render(fmt.Sprintf(" %3d%%", m.percent)),
		labelStyle.Render(status),
		dimStyle.Render(fmt.Sprintf("errors: %d  elapsed: %s", m.errorCount, elapsed)),
	}
	if m.lastError != "" {
		lines = append(lines, errStyle.Render("last error: "+m.lastError))
	}

	return strings.Join(lines, "\n")
}

func listenForEvents(events <-chan batch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg{event: ev}
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	okStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
	errStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
)
