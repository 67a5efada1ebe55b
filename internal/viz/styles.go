package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	canvas lipgloss.Style
	panel  lipgloss.Style
	title  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	help   lipgloss.Style
	cuckoo lipgloss.Style
	low    lipgloss.Style
	mid    lipgloss.Style
	high   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Foreground(t.Brass).Padding(1, 2),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Wood).
			Padding(1, 2).
			Width(40),
		title:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		help:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		cuckoo: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		low:    lipgloss.NewStyle().Foreground(t.Low),
		mid:    lipgloss.NewStyle().Foreground(t.Mid),
		high:   lipgloss.NewStyle().Foreground(t.High),
	}
}

// gauge renders v in [0,1] as a bar coloured by how close it is to 1.
func (s styles) gauge(v float64, width int) string {
	filled := int(v * float64(width))
	filled = max(0, min(width, filled))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case v >= 0.85:
		return s.high.Render(bar)
	case v >= 0.4:
		return s.mid.Render(bar)
	}
	return s.low.Render(bar)
}

// sparkline maps values onto block glyphs, newest on the right.
func sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("▁", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	glyphs := []rune("▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, v := range values {
		i := int((v - lo) / span * float64(len(glyphs)-1))
		b.WriteRune(glyphs[i])
	}
	return b.String()
}
