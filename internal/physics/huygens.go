package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/hertz/internal/dynamo"
)

const (
	DefaultNaturalFrequency = 1.0
	DefaultDamping          = 0.999
	DefaultMaxCoupling      = 0.6
	DefaultMaxDt            = 1.0 / 60.0

	// StabilityLimit bounds the stiffest mode times the frame time.
	StabilityLimit = 4.0

	DefaultLeftAngle  = 18.0
	DefaultRightAngle = -12.0
)

// Constants configure the clock. They are fixed for the lifetime of a Clock.
type Constants struct {
	NaturalFrequency float64 `yaml:"natural_frequency" json:"natural_frequency"`
	Damping          float64 `yaml:"damping" json:"damping"`
	MaxCoupling      float64 `yaml:"max_coupling" json:"max_coupling"`
	MaxDt            float64 `yaml:"max_dt" json:"max_dt"`
	// Escapement is the velocity impulse (degrees per frame) given at each
	// zero crossing. Zero disables it.
	Escapement float64 `yaml:"escapement" json:"escapement"`
}

func DefaultConstants() Constants {
	return Constants{
		NaturalFrequency: DefaultNaturalFrequency,
		Damping:          DefaultDamping,
		MaxCoupling:      DefaultMaxCoupling,
		MaxDt:            DefaultMaxDt,
	}
}

// Validate rejects constants the per-frame update cannot integrate. With
// θ advanced by ω once per frame, the anti-phase mode stays bounded only
// while (NaturalFrequency + 2*MaxCoupling) * MaxDt < StabilityLimit.
func (c Constants) Validate() error {
	switch {
	case !finite(c.NaturalFrequency) || c.NaturalFrequency < 0:
		return fmt.Errorf("%w: natural_frequency %v", dynamo.ErrParameterBounds, c.NaturalFrequency)
	case !(c.Damping > 0 && c.Damping < 1):
		return fmt.Errorf("%w: damping must be in (0,1), got %v", dynamo.ErrParameterBounds, c.Damping)
	case !finite(c.MaxCoupling) || c.MaxCoupling < 0:
		return fmt.Errorf("%w: max_coupling %v", dynamo.ErrParameterBounds, c.MaxCoupling)
	case !finite(c.MaxDt) || !(c.MaxDt > 0):
		return fmt.Errorf("%w: max_dt must be positive, got %v", dynamo.ErrParameterBounds, c.MaxDt)
	case !finite(c.Escapement) || c.Escapement < 0:
		return fmt.Errorf("%w: escapement %v", dynamo.ErrParameterBounds, c.Escapement)
	case (c.NaturalFrequency+2*c.MaxCoupling)*c.MaxDt >= StabilityLimit:
		return fmt.Errorf("%w: (natural_frequency + 2*max_coupling) * max_dt must stay below %v, got %v",
			dynamo.ErrParameterBounds, StabilityLimit, (c.NaturalFrequency+2*c.MaxCoupling)*c.MaxDt)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clock implements two pendulums hanging from a shared beam.
// State: [thetaL, omegaL, thetaR, omegaR]
// The beam transmits a restoring pull toward the other pendulum's angle,
// scaled by the sync signal, so the pair drifts into phase as sync rises.
type Clock struct {
	c     Constants
	state dynamo.State
	t     float64
}

func NewClock(c Constants, left, right float64) *Clock {
	return &Clock{
		c:     c,
		state: dynamo.State{left, 0, right, 0},
	}
}

// NewDefaultClock returns a clock with the default constants and the two
// pendulums released from opposite sides.
func NewDefaultClock() *Clock {
	return NewClock(DefaultConstants(), DefaultLeftAngle, DefaultRightAngle)
}

func (c *Clock) Constants() Constants { return c.c }
func (c *Clock) State() dynamo.State  { return c.state }
func (c *Clock) Time() float64        { return c.t }

func (c *Clock) Reset(s dynamo.State) {
	c.state = s
	c.t = 0
}

// Coupling maps a sync value to coupling strength. Sync is clamped to [0,1].
func (c *Clock) Coupling(sync float64) float64 {
	return clamp01(sync) * c.c.MaxCoupling
}

// Accelerations returns the angular acceleration of each pendulum for the
// given coupling strength.
func (c *Clock) Accelerations(s dynamo.State, coupling float64) (left, right float64) {
	thetaL, thetaR := s[dynamo.LeftAngle], s[dynamo.RightAngle]

	// restoring force plus pull toward the other pendulum
	left = -c.c.NaturalFrequency*thetaL + coupling*(thetaR-thetaL)
	right = -c.c.NaturalFrequency*thetaR + coupling*(thetaL-thetaR)
	return left, right
}

// ClampDt bounds dt to [0, MaxDt]. NaN counts as zero.
func (c *Clock) ClampDt(dt float64) float64 {
	if !(dt > 0) {
		return 0
	}
	if dt > c.c.MaxDt {
		return c.c.MaxDt
	}
	return dt
}

// Step advances both pendulums by one frame.
func (c *Clock) Step(dt, sync float64) dynamo.State {
	dt = c.ClampDt(dt)
	coupling := c.Coupling(sync)
	aL, aR := c.Accelerations(c.state, coupling)

	s := c.state
	s[dynamo.LeftVelocity] = (s[dynamo.LeftVelocity] + aL*dt) * c.c.Damping
	s[dynamo.RightVelocity] = (s[dynamo.RightVelocity] + aR*dt) * c.c.Damping

	prevL, prevR := s[dynamo.LeftAngle], s[dynamo.RightAngle]
	s[dynamo.LeftAngle] += s[dynamo.LeftVelocity]
	s[dynamo.RightAngle] += s[dynamo.RightVelocity]

	if c.c.Escapement > 0 {
		s[dynamo.LeftVelocity] = c.escape(prevL, s[dynamo.LeftAngle], s[dynamo.LeftVelocity])
		s[dynamo.RightVelocity] = c.escape(prevR, s[dynamo.RightAngle], s[dynamo.RightVelocity])
	}

	c.state = s
	c.t += dt
	return s
}

// escape kicks the pendulum along its direction of motion when it swings
// through the vertical.
func (c *Clock) escape(prev, next, v float64) float64 {
	crossed := (prev < 0 && next >= 0) || (prev > 0 && next <= 0)
	if !crossed || v == 0 {
		return v
	}
	return v + math.Copysign(c.c.Escapement, v)
}

// Energy returns kinetic plus restoring plus coupling potential at full
// coupling. Only meaningful as a relative measure between frames.
func (c *Clock) Energy(s dynamo.State) float64 {
	vL, vR := s[dynamo.LeftVelocity], s[dynamo.RightVelocity]
	thetaL, thetaR := s[dynamo.LeftAngle], s[dynamo.RightAngle]
	ke := 0.5 * (vL*vL + vR*vR)
	pe := 0.5 * c.c.NaturalFrequency * (thetaL*thetaL + thetaR*thetaR)
	gap := thetaL - thetaR
	return ke + pe + 0.5*c.c.MaxCoupling*gap*gap
}

// GetParams implements dynamo.Configurable
func (c *Clock) GetParams() map[string]float64 {
	return map[string]float64{
		"frequency":  c.c.NaturalFrequency,
		"damping":    c.c.Damping,
		"coupling":   c.c.MaxCoupling,
		"escapement": c.c.Escapement,
	}
}

// SetParam implements dynamo.Configurable
func (c *Clock) SetParam(name string, value float64) error {
	next := c.c
	switch name {
	case "frequency":
		next.NaturalFrequency = value
	case "damping":
		next.Damping = value
	case "coupling":
		next.MaxCoupling = value
	case "escapement":
		next.Escapement = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	c.c = next
	return nil
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
