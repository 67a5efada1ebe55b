package sim

import "github.com/san-kum/hertz/internal/signal"

// Schedule gives the sync value at simulated time t.
type Schedule func(t float64) float64

// Constant holds sync at v.
func Constant(v float64) Schedule {
	v = signal.Clamp(v)
	return func(float64) float64 { return v }
}

// Ramp rises linearly from 0 at t0 to 1 at t1, like scrolling through the
// clock section at a steady pace.
func Ramp(t0, t1 float64) Schedule {
	return func(t float64) float64 {
		return signal.FromScroll(t, t0, t1)
	}
}

type Config struct {
	Dt              float64
	Duration        float64
	RevealThreshold float64
	ValidateState   bool
	// AngleBound stops the run with ErrUnstable when exceeded. Zero disables.
	AngleBound float64
	// RecordEvery keeps every n-th frame in the result. Zero keeps all.
	RecordEvery int
}

func DefaultConfig() Config {
	return Config{
		Dt:              1.0 / 60.0,
		Duration:        30.0,
		RevealThreshold: 0.85,
		ValidateState:   true,
		AngleBound:      90,
	}
}
