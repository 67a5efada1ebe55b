// Package physics provides the coupled pendulum clock.
//
// [Clock] models Huygens' observation that two pendulum clocks hanging
// from one beam fall into step. Each frame:
//
//	coupling  = sync * MaxCoupling
//	accel     = -NaturalFrequency*θ + coupling*(θother - θ)
//	ω         = (ω + accel*dt) * Damping
//	θ         = θ + ω
//
// dt is clamped to [Constants.MaxDt] so a long pause (a backgrounded
// tab, a dropped frame) cannot blow the integration up.
//
//	clock := physics.NewDefaultClock()
//	for range frames {
//	    s := clock.Step(1.0/60, progress.Load())
//	    render(s.Left().Angle, s.Right().Angle)
//	}
package physics
