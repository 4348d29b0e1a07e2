package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/timing"
)

func (m Model) updateSequencer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case keyLeft, "h":
		m.cursor = m.cursor.Add(-1)
	case keyRight, "l":
		m.cursor = m.cursor.Add(1)
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = timing.SubdivisionsPerBar - 1
	case "1", "2", "3", "4", "5", "6", "7":
		d, _ := harmony.ParseDegree(key)
		m.state.SetChord(m.cursor, d)
		m.message = fmt.Sprintf("Slot %X: %s", int(m.cursor), d)
	case "0", "backspace", "delete", "x":
		m.state.ClearChord(m.cursor)
		m.message = fmt.Sprintf("Slot %X cleared", int(m.cursor))
	case "c":
		m.state.ReplaceSequence(project.ChordSequence{})
		m.message = "Sequence cleared"
	case "+", "=":
		m.changeTempo(tempoStep)
	case "-", "_":
		m.changeTempo(-tempoStep)
	case "]":
		m.changeMeter(1)
	case "[":
		m.changeMeter(-1)
	}

	return m, nil
}

func (m *Model) changeTempo(delta float64) {
	bpm := m.state.Time().BeatsPerMinute + delta
	if bpm < minTempo || bpm > maxTempo {
		return
	}
	if err := m.state.SetTempo(bpm); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	m.message = fmt.Sprintf("Tempo %v BPM", bpm)
}

func (m *Model) changeMeter(delta int) {
	current := m.state.Time().BeatsPerBar
	i := slices.Index(meters, current)
	if i < 0 {
		i = slices.Index(meters, 4)
	}
	i += delta
	if i < 0 || i >= len(meters) {
		return
	}
	if err := m.state.SetBeatsPerBar(meters[i]); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	m.message = fmt.Sprintf("%d beats per bar", meters[i])
}

// playhead returns the slot the audio is in, or -1 without audio.
func (m Model) playhead(pt timing.ProjectTimeInfo) int {
	if m.clock == nil {
		return -1
	}
	perSlot := m.timing.FramesPerSubdivision(pt)
	if perSlot == 0 {
		return -1
	}
	pos := m.timing.FramesThroughBar(pt, m.clock.Frame())
	step := int(uint32(pos) / perSlot)
	if step >= timing.SubdivisionsPerBar {
		step = timing.SubdivisionsPerBar - 1
	}
	return step
}

func (m Model) viewSequencer() string {
	snap := m.state.Snapshot()
	current := m.playhead(snap.Time)

	var b strings.Builder

	b.WriteString(titleStyle.Render("tubular chord sequencer") + "\n\n")
	b.WriteString(fmt.Sprintf("BPM: %v (use +/- to adjust)\n", snap.Time.BeatsPerMinute))
	b.WriteString(fmt.Sprintf("Beats per bar: %d (use [/] to adjust)\n", snap.Time.BeatsPerBar))
	if m.output != "" {
		b.WriteString(fmt.Sprintf("Output: %s\n\n", m.output))
	} else {
		b.WriteString("Output: built-in synth\n\n")
	}

	b.WriteString(renderClockBar(current) + "\n\n")

	// Header row: 8 chars of label, then 4 per slot
	b.WriteString("Slot    ")
	hexDigits := "0123456789ABCDEF"
	for i := 0; i < timing.SubdivisionsPerBar; i++ {
		b.WriteString(fmt.Sprintf(" %c  ", hexDigits[i]))
	}
	b.WriteString("\n")

	b.WriteString("Chord   ")
	for i := 0; i < timing.SubdivisionsPerBar; i++ {
		tatum := timing.Tatum(i)
		cell := " ·  "
		d, ok := snap.Sequence.At(tatum)
		if ok {
			cell = fmt.Sprintf("%-4s", d.String())
		}

		cellStyle := lipgloss.NewStyle().Width(4)
		if ok {
			cellStyle = cellStyle.Foreground(lipgloss.Color("#FFD700"))
		} else {
			cellStyle = cellStyle.Foreground(lipgloss.Color("#666666"))
		}
		if i == current {
			cellStyle = cellStyle.Foreground(lipgloss.Color("#00FF00")).Bold(true)
		}
		if tatum == m.cursor {
			cellStyle = cellStyle.Background(lipgloss.Color("#7D56F4"))
		}

		b.WriteString(cellStyle.Render(cell))
	}
	b.WriteString("\n\n")

	b.WriteString(selectedStyle.Render(fmt.Sprintf("Slot %X", int(m.cursor))) + "  ")
	if d, ok := snap.Sequence.At(m.cursor); ok {
		triad := m.table.Triad(d)
		names := make([]string, len(triad))
		for i, n := range triad {
			names[i] = n.Name()
		}
		b.WriteString(chordStyle.Render(fmt.Sprintf("%s: %s", d, strings.Join(names, " "))))
	} else {
		b.WriteString("(silent)")
	}
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString("\n" + errorStyle.Render(m.message) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("←→ or hl: move • 1-7: set chord I-VII • 0/backspace: clear slot • c: clear all"))
	b.WriteString("\n" + helpStyle.Render("+/-: tempo • [/]: beats per bar • q: quit"))

	return b.String()
}

func renderClockBar(currentStep int) string {
	// Colors for the clock bar - gradient from cyan to magenta
	colors := []string{
		"#00FFFF", "#00E5FF", "#00CCFF", "#00B2FF",
		"#0099FF", "#0080FF", "#0066FF", "#1A4DFF",
		"#3333FF", "#4D1AFF", "#6600FF", "#8000FF",
		"#9900FF", "#B300FF", "#CC00FF", "#FF00FF",
	}
	isPlaying := currentStep >= 0

	bar := strings.Builder{}
	bar.WriteString("Clock   ")

	for i := 0; i < timing.SubdivisionsPerBar; i++ {
		var cell string
		var cellStyle lipgloss.Style

		if isPlaying && i == currentStep {
			cell = " ▶  "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color(colors[i])).
				Bold(true)
		} else if isPlaying && i < currentStep {
			cell = " █  "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colors[i]))
		} else {
			cell = " ·  "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#444444"))
		}

		bar.WriteString(cellStyle.Render(cell))
	}

	status := " Stopped"
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	if isPlaying {
		status = " Playing"
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	}
	bar.WriteString(statusStyle.Render(status))

	return bar.String()
}
