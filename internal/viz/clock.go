package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/hertz/internal/animator"
	"github.com/san-kum/hertz/internal/config"
	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/signal"
)

const (
	canvasWidth  = 48
	canvasHeight = 18
	historySize  = 120

	// The virtual page: the clock section spans sectionStart..sectionEnd.
	pageLength   = 200.0
	sectionStart = 40.0
	sectionEnd   = 160.0
	scrollStep   = 4.0
	pageStep     = 20.0
)

type frameMsg time.Time

// ClockModel is the interactive clock. Scrolling the virtual page feeds the
// sync progress the same way the landing page does.
type ClockModel struct {
	cfg      config.ClockConfig
	loop     *animator.Loop
	progress *signal.Progress
	canvas   *Canvas
	theme    Theme
	styles   styles

	scroll   float64
	frame    dynamo.Frame
	cuckoo   float64
	gaps     []float64
	paused   bool
	showHelp bool
}

func NewClockModel(cfg config.ClockConfig) ClockModel {
	if cfg.FPS <= 0 {
		cfg.FPS = animator.DefaultFPS
	}
	m := ClockModel{
		cfg:    cfg,
		canvas: NewCanvas(canvasWidth, canvasHeight),
		theme:  Themes[0],
		gaps:   make([]float64, 0, historySize),
	}
	m.styles = newStyles(m.theme)
	m.mount()
	return m
}

// WithTheme returns m drawn in t.
func (m ClockModel) WithTheme(t Theme) ClockModel {
	m.theme = t
	m.styles = newStyles(t)
	return m
}

// mount builds a fresh loop, which also re-arms the reveal.
func (m *ClockModel) mount() {
	if m.progress == nil {
		m.progress = signal.NewProgress(0)
	}
	m.loop = animator.New(m.cfg.NewClock(), m.progress, animator.Options{
		FPS:             m.cfg.FPS,
		RevealThreshold: m.cfg.RevealThreshold,
		Source:          animator.ManualSource(),
	})
	m.frame = m.loop.Snapshot()
	m.cuckoo = 0
	m.gaps = m.gaps[:0]
}

func (m ClockModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.cfg.FPS), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m ClockModel) Init() tea.Cmd {
	return m.tick()
}

func (m ClockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.loop.Stop()
			return m, tea.Quit
		case "down", "j":
			m.scrollBy(scrollStep)
		case "up", "k":
			m.scrollBy(-scrollStep)
		case "pgdown", "f":
			m.scrollBy(pageStep)
		case "pgup", "b":
			m.scrollBy(-pageStep)
		case " ":
			m.paused = !m.paused
		case "r":
			m.mount()
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			m.scrollBy(scrollStep)
		case tea.MouseButtonWheelUp:
			m.scrollBy(-scrollStep)
		}
		return m, nil

	case frameMsg:
		if !m.paused {
			m.step(time.Time(msg))
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *ClockModel) scrollBy(d float64) {
	m.scroll = math.Max(0, math.Min(pageLength, m.scroll+d))
	m.progress.Set(signal.FromScroll(m.scroll, sectionStart, sectionEnd))
}

func (m *ClockModel) step(now time.Time) {
	m.frame = m.loop.Tick(now)
	m.cuckoo = m.loop.Cuckoo()
	if len(m.gaps) == historySize {
		m.gaps = m.gaps[1:]
	}
	m.gaps = append(m.gaps, m.frame.State.PhaseGap())
}

func (m ClockModel) Frame() dynamo.Frame { return m.frame }
func (m ClockModel) Sync() float64       { return m.progress.Load() }

func (m ClockModel) View() string {
	m.draw()
	s := m.styles

	var b strings.Builder
	b.WriteString(s.title.Render("HERTZ AN HERTZ") + "\n")
	status := "ticking"
	if m.paused {
		status = "paused"
	}
	b.WriteString(s.value.Render(status) + "\n\n")

	row := func(label, value string) {
		b.WriteString(s.label.Render(label) + s.value.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.1fs", m.frame.Time))
	row("left", fmt.Sprintf("%+6.2f°", m.frame.State[dynamo.LeftAngle]))
	row("right", fmt.Sprintf("%+6.2f°", m.frame.State[dynamo.RightAngle]))
	row("coupling", fmt.Sprintf("%.3f", m.frame.Coupling))
	b.WriteString(s.label.Render("sync") + s.gauge(m.frame.Sync, 20) + fmt.Sprintf(" %3.0f%%", m.frame.Sync*100) + "\n")
	b.WriteString(s.label.Render("gap") + s.value.Render(sparkline(m.gaps, 20)) + "\n")
	if m.frame.Revealed {
		b.WriteString("\n" + s.cuckoo.Render("Kuckuck! Eure Herzen schlagen im Takt.") + "\n")
	}
	b.WriteString(s.help.Render("↑↓ scroll · space pause · r remount · t theme · ? help · q quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		s.canvas.Render(m.canvas.String()),
		s.panel.Render(b.String()))
	if m.showHelp {
		return m.help() + "\n\n" + main
	}
	return main
}

func (m ClockModel) help() string {
	return m.styles.panel.Render(strings.Join([]string{
		"↓/j  ↑/k    scroll the page",
		"PgDn PgUp   scroll a screen",
		"space       pause / resume",
		"r           remount the clock",
		"t           cycle themes (" + m.theme.Name + ")",
		"q           quit",
	}, "\n"))
}

// draw paints the case, both pendulums and, once revealed, the cuckoo.
func (m ClockModel) draw() {
	c := m.canvas
	c.Clear()
	w, h := c.Pixels()

	beamY := 6
	leftX, rightX := w/3, 2*w/3
	length := float64(h) * 0.6

	c.Line(8, beamY, w-8, beamY)
	c.Rect(2, 1, w-3, h-2)

	for _, p := range []struct {
		x     int
		angle float64
	}{
		{leftX, m.frame.State[dynamo.LeftAngle]},
		{rightX, m.frame.State[dynamo.RightAngle]},
	} {
		rad := p.angle * math.Pi / 180
		bx := p.x + int(math.Round(length*math.Sin(rad)))
		by := beamY + int(math.Round(length*math.Cos(rad)))
		c.Line(p.x, beamY, bx, by)
		c.Disc(bx, by, 3)
	}

	// the bird slides out of its house above the beam
	house := w / 2
	c.Rect(house-5, 1, house+5, beamY-1)
	if m.cuckoo > 0.01 {
		out := int(math.Round(m.cuckoo * 14))
		c.Disc(house+5+out, 3, 2)
		c.Line(house+5, 3, house+5+out, 3)
	}
}
