// Package tui is the terminal editor for the chord loop.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/timing"
)

const (
	keyLeft  = "left"
	keyRight = "right"

	minTempo  = 20
	maxTempo  = 300
	tempoStep = 5

	// refresh rate of the playhead
	tickInterval = 60 * time.Millisecond
)

// meters are the beats-per-bar values that divide the grid evenly.
var meters = []uint32{1, 2, 4, 8, 16}

// Clock reports the absolute frame the audio host has reached.
type Clock interface {
	Frame() uint64
}

// tickMsg is used for playback animation timing
type tickMsg time.Time

// Model represents the editor state. The chord loop itself lives in the
// shared project.State; the model only keeps the cursor and display state.
type Model struct {
	state  *project.State
	timing timing.TimingInfo
	table  harmony.Table
	clock  Clock
	output string

	cursor  timing.Tatum
	message string
	width   int
	height  int
}

// Options wires the editor to the running session.
type Options struct {
	Timing timing.TimingInfo
	Table  harmony.Table
	// Clock is nil when no audio is running.
	Clock Clock
	// Output describes where the chords are sent.
	Output string
}

func InitialModel(state *project.State, opts Options) Model {
	return Model{
		state:  state,
		timing: opts.Timing,
		table:  opts.Table,
		clock:  opts.Clock,
		output: opts.Output,
	}
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	chordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))
)

func (m Model) Init() tea.Cmd {
	if m.clock == nil {
		return nil
	}
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m.updateSequencer(msg)
	}

	return m, nil
}

func (m Model) View() string {
	return m.viewSequencer()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
