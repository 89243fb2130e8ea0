package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Meter geometry: meterWidth columns spanning ±meterRange cents.
const (
	meterWidth = 41
	meterRange = 50.0
	inTuneband = 5.0
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	noteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	inTuneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00AA00"))

	offTuneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFA500"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))
)

// renderTuner renders the whole display.
func renderTuner(m Model) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("StompTuner 🎸"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Listening to %s — A4 = %.0f Hz", m.source, m.refFreq)))
	b.WriteString("\n\n")

	b.WriteString(renderNote(m))
	b.WriteString("\n")
	b.WriteString(renderMeter(m))
	b.WriteString("\n\n")
	b.WriteString(renderStatus(m))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("[b] bypass  [f] fast notes  [q] quit"))
	b.WriteString("\n")

	return b.String()
}

// renderNote shows the note name and measured frequency.
func renderNote(m Model) string {
	if !m.hasNote {
		return noteStyle.Render("  ---") + mutedStyle.Render("   no signal")
	}
	label := fmt.Sprintf("  %s%d", m.noteName, m.octave)
	style := offTuneStyle
	if math.Abs(m.cents) <= inTuneband {
		style = inTuneStyle
	}
	return style.Render(label) + mutedStyle.Render(fmt.Sprintf("   %.1f Hz  %+.0f¢", m.freq, m.cents))
}

// renderMeter draws the cents deviation meter, flat side left, sharp
// side right.
func renderMeter(m Model) string {
	cells := make([]rune, meterWidth)
	for i := range cells {
		cells[i] = '─'
	}
	center := meterWidth / 2
	cells[center] = '┼'

	if !m.hasNote {
		return mutedStyle.Render("  " + string(cells))
	}

	offset := int(math.Round(m.cents / meterRange * float64(center)))
	if offset < -center {
		offset = -center
	}
	if offset > center {
		offset = center
	}
	pos := center + offset
	cells[pos] = '●'

	style := offTuneStyle
	if math.Abs(m.cents) <= inTuneband {
		style = inTuneStyle
	}
	return "  " + style.Render(string(cells[:pos])+string(cells[pos])) + mutedStyle.Render(string(cells[pos+1:]))
}

// renderStatus reports bypass, fast-note mode and stream state.
func renderStatus(m Model) string {
	var parts []string
	if m.bypassed {
		parts = append(parts, offTuneStyle.Render("bypassed"))
	}
	if m.fastNotes {
		parts = append(parts, mutedStyle.Render("fast notes"))
	}
	if m.inputDone {
		parts = append(parts, mutedStyle.Render("stream ended"))
	}
	if len(parts) == 0 {
		parts = append(parts, mutedStyle.Render("tracking"))
	}
	return "  " + strings.Join(parts, "  ")
}
