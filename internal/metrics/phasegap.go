package metrics

import "github.com/san-kum/hertz/internal/dynamo"

// PhaseGap is the mean |θL-θR| over the most recent window frames.
type PhaseGap struct {
	window int
	ring   []float64
	next   int
	filled bool
}

func NewPhaseGap(window int) *PhaseGap {
	if window <= 0 {
		window = 60
	}
	return &PhaseGap{window: window, ring: make([]float64, window)}
}

func (p *PhaseGap) Name() string { return "phase_gap" }

func (p *PhaseGap) Observe(f dynamo.Frame) {
	p.ring[p.next] = f.State.PhaseGap()
	p.next++
	if p.next == p.window {
		p.next = 0
		p.filled = true
	}
}

func (p *PhaseGap) Value() float64 {
	n := p.next
	if p.filled {
		n = p.window
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += p.ring[i]
	}
	return sum / float64(n)
}

func (p *PhaseGap) Reset() {
	for i := range p.ring {
		p.ring[i] = 0
	}
	p.next = 0
	p.filled = false
}

// Defaults returns the metrics the simulate command reports.
func Defaults(energy func(dynamo.State) float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewAmplitude(),
		NewStability(90),
		NewPhaseGap(120),
		NewEnergy(energy),
	}
}
