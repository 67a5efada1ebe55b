package dynamo

import (
	"fmt"
	"math"
)

// Indices into State.
const (
	LeftAngle = iota
	LeftVelocity
	RightAngle
	RightVelocity
)

// State holds both oscillators: [θL, ωL, θR, ωR].
type State [4]float64

// Oscillator is the angle/velocity pair of a single pendulum.
type Oscillator struct {
	Angle    float64 `json:"angle"`
	Velocity float64 `json:"velocity"`
}

func NewState(left, right Oscillator) State {
	return State{left.Angle, left.Velocity, right.Angle, right.Velocity}
}

func (s State) Left() Oscillator {
	return Oscillator{Angle: s[LeftAngle], Velocity: s[LeftVelocity]}
}

func (s State) Right() Oscillator {
	return Oscillator{Angle: s[RightAngle], Velocity: s[RightVelocity]}
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MaxAbsAngle returns the larger of |θL| and |θR|.
func (s State) MaxAbsAngle() float64 {
	return math.Max(math.Abs(s[LeftAngle]), math.Abs(s[RightAngle]))
}

// PhaseGap returns |θL - θR|.
func (s State) PhaseGap() float64 {
	return math.Abs(s[LeftAngle] - s[RightAngle])
}

func (s State) String() string {
	return fmt.Sprintf("L(%.2f°, %.3f) R(%.2f°, %.3f)", s[0], s[1], s[2], s[3])
}

// Frame is one integration step.
type Frame struct {
	Step     int     `json:"step"`
	Time     float64 `json:"t"`
	Dt       float64 `json:"dt"`
	Sync     float64 `json:"sync"`
	Coupling float64 `json:"coupling"`
	State    State   `json:"state"`
	Revealed bool    `json:"revealed"`
}

type Observer interface {
	OnFrame(f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Result struct {
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	RevealedAt float64
	Errors     []error
}

// Angles returns the left and right angle series.
func (r *Result) Angles() (left, right []float64) {
	left = make([]float64, len(r.Frames))
	right = make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		left[i] = f.State[LeftAngle]
		right[i] = f.State[RightAngle]
	}
	return left, right
}
