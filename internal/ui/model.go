// Package ui provides the Bubbletea terminal interface of the tuner.
// It polls the plugin's parameter surface on an idle tick and renders
// the detected note; the detection core never drives the UI directly.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brummer10/StompTuner/internal/note"
	"github.com/brummer10/StompTuner/internal/plugin"
)

// pollInterval is the idle-timer period for reading the parameter
// surface.
const pollInterval = 50 * time.Millisecond

// Model is the Bubbletea model for the tuner display.
type Model struct {
	plug   *plugin.Plugin
	source string

	// Latest poll results
	freq     float32
	refFreq  float64
	noteName string
	octave   int
	cents    float64
	hasNote  bool

	bypassed  bool
	fastNotes bool
	inputDone bool
	inputErr  error

	// Terminal dimensions
	width  int
	height int
}

// NewModel creates the tuner UI backed by the given plugin. source
// names the input for the header ("live input" or a file name).
func NewModel(plug *plugin.Plugin, source string) Model {
	return Model{
		plug:    plug,
		source:  source,
		refFreq: float64(plug.GetParameterValue(plugin.ParamRefFreq)),
	}
}

// Init starts the poll timer.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "b":
			m.bypassed = !m.bypassed
			var v float32
			if m.bypassed {
				v = 1
			}
			m.plug.SetParameterValue(plugin.ParamBypass, v)
		case "f":
			m.fastNotes = !m.fastNotes
			m.plug.Tracker().SetFastNoteDetection(m.fastNotes)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.freq = m.plug.GetParameterValue(plugin.ParamFreq)
		m.refFreq = float64(m.plug.GetParameterValue(plugin.ParamRefFreq))
		m.noteName, m.octave, m.cents, m.hasNote = note.Nearest(float64(m.freq), m.refFreq)
		return m, tick()

	case InputDoneMsg:
		m.inputDone = true

	case InputErrorMsg:
		m.inputErr = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the tuner.
func (m Model) View() string {
	return renderTuner(m)
}
