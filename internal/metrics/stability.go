package metrics

import (
	"math"

	"github.com/san-kum/hertz/internal/dynamo"
)

// Stability is the fraction of frames whose angles stay within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f dynamo.Frame) {
	s.samples++
	if !f.State.IsValid() || f.State.MaxAbsAngle() > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Amplitude is the largest |angle| seen.
type Amplitude struct {
	max float64
}

func NewAmplitude() *Amplitude { return &Amplitude{} }

func (a *Amplitude) Name() string { return "max_amplitude" }

func (a *Amplitude) Observe(f dynamo.Frame) {
	a.max = math.Max(a.max, f.State.MaxAbsAngle())
}

func (a *Amplitude) Value() float64 { return a.max }
func (a *Amplitude) Reset()         { a.max = 0 }
