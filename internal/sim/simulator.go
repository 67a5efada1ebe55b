package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/hertz/internal/animator"
	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/physics"
)

// Simulator steps a clock at a fixed dt, without a frame source. It drives
// the simulate command and the stability checks.
type Simulator struct {
	clock     *physics.Clock
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(clock *physics.Clock) *Simulator {
	return &Simulator{
		clock:     clock,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, schedule Schedule, cfg Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if schedule == nil {
		schedule = Constant(0)
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := cfg.RecordEvery
	if every <= 0 {
		every = 1
	}

	result := &dynamo.Result{
		Frames:     make([]dynamo.Frame, 0, steps/every+1),
		Metrics:    make(map[string]float64),
		Errors:     make([]error, 0),
		RevealedAt: -1,
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	threshold := cfg.RevealThreshold
	if threshold <= 0 {
		threshold = animator.DefaultRevealThreshold
	}
	latch := animator.NewLatch(threshold)

	t := 0.0
	result.Frames = append(result.Frames, dynamo.Frame{State: s.clock.State()})

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		level := schedule(t)
		x := s.clock.Step(cfg.Dt, level)
		t += cfg.Dt
		if latch.Observe(level) {
			result.RevealedAt = t
		}

		f := dynamo.Frame{
			Step:     i + 1,
			Time:     t,
			Dt:       cfg.Dt,
			Sync:     level,
			Coupling: s.clock.Coupling(level),
			State:    x,
			Revealed: latch.Fired(),
		}

		if cfg.ValidateState && !x.IsValid() {
			result.Errors = append(result.Errors, &dynamo.SimulationError{Step: i, Time: t, State: x, Wrapped: dynamo.ErrInvalidState})
			break
		}
		if cfg.AngleBound > 0 && x.MaxAbsAngle() > cfg.AngleBound {
			result.Errors = append(result.Errors, &dynamo.SimulationError{Step: i, Time: t, State: x, Wrapped: dynamo.ErrUnstable})
			break
		}

		for _, m := range s.metrics {
			m.Observe(f)
		}
		for _, obs := range s.observers {
			obs.OnFrame(f)
		}

		result.StepsTaken++
		if (i+1)%every == 0 {
			result.Frames = append(result.Frames, f)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
