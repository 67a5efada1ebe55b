package metrics

import "github.com/san-kum/hertz/internal/dynamo"

// Energy reports the ratio of final to initial energy. Below 1 means the
// clock is winding down.
type Energy struct {
	fn      func(dynamo.State) float64
	initial float64
	last    float64
	samples int
}

func NewEnergy(fn func(dynamo.State) float64) *Energy {
	return &Energy{fn: fn}
}

func (e *Energy) Name() string {
	return "energy_ratio"
}

func (e *Energy) Observe(f dynamo.Frame) {
	v := e.fn(f.State)
	if e.samples == 0 {
		e.initial = v
	}
	e.last = v
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 || e.initial == 0 {
		return 0
	}
	return e.last / e.initial
}

func (e *Energy) Reset() {
	e.initial = 0
	e.last = 0
	e.samples = 0
}
