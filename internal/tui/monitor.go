// Package tui renders a live terminal view of the analysis stream: volume
// and band meters, beat flashes, tempo and scheduler status.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hapticsync/internal/engine"
	"hapticsync/internal/haptic"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0")).
			Width(8)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4"))

	beatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))
)

const barWidth = 30

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ResultMsg delivers one analysis result to the model.
type ResultMsg engine.AnalysisResult

// Model is the Bubble Tea model for the live monitor.
type Model struct {
	results   <-chan engine.AnalysisResult
	scheduler *haptic.Scheduler

	latest engine.AnalysisResult
	flash  int // Remaining ticks of the beat flash
	width  int
}

// NewModel creates a monitor consuming the engine's result stream.
func NewModel(results <-chan engine.AnalysisResult, scheduler *haptic.Scheduler) Model {
	return Model{results: results, scheduler: scheduler}
}

func (m Model) Init() tea.Cmd {
	return m.waitForResult()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case ResultMsg:
		m.latest = engine.AnalysisResult(msg)
		if m.latest.Beat.Detected {
			m.flash = 4
		} else if m.flash > 0 {
			m.flash--
		}
		return m, m.waitForResult()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("hapticsync monitor"))
	b.WriteString("\n\n")

	freq := m.latest.Frequency
	b.WriteString(meter("volume", m.latest.Volume.Level))
	b.WriteString(meter("bass", freq.Bass))
	b.WriteString(meter("mid", freq.Mid))
	b.WriteString(meter("treble", freq.Treble))
	b.WriteString("\n")

	beat := "         "
	if m.flash > 0 {
		beat = beatStyle.Render(fmt.Sprintf("● BEAT %s", m.latest.Beat.Type))
	}
	b.WriteString(beat)
	b.WriteString("\n\n")

	bpm := "--"
	if m.latest.Beat.BPM > 0 {
		bpm = fmt.Sprintf("%.0f", m.latest.Beat.BPM)
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf("BPM: %s   centroid: %.0f Hz   peak: %.0f Hz", bpm, freq.Centroid, freq.PeakHz)))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("latency: %.1f ms   compensation: %.1f ms",
		m.scheduler.AverageLatency(), m.scheduler.Compensation())))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("q: quit"))
	b.WriteString("\n")

	return b.String()
}

// waitForResult blocks on the result stream outside the update loop.
func (m Model) waitForResult() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.results
		if !ok {
			return tea.Quit()
		}
		return ResultMsg(res)
	}
}

// meter renders one labeled horizontal bar for a 0..1 value.
func meter(label string, value float64) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return labelStyle.Render(label) + " " + barStyle.Render(bar) + fmt.Sprintf(" %4.2f\n", value)
}
