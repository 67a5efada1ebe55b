package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/physics"
)

func TestSimulatorRun(t *testing.T) {
	s := New(physics.NewDefaultClock())

	cfg := Config{Dt: 0.1, Duration: 1.0}
	result, err := s.Run(context.Background(), Constant(0), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Frames) != 11 {
		t.Errorf("expected 11 frames, got %d", len(result.Frames))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if result.RevealedAt != -1 {
		t.Errorf("expected no reveal, got %f", result.RevealedAt)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(physics.NewDefaultClock())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), Constant(0), tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorStaysBoundedForSixtySeconds(t *testing.T) {
	for _, level := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1} {
		cfg := DefaultConfig()
		cfg.Duration = 60
		cfg.RecordEvery = 60

		result, err := New(physics.NewDefaultClock()).Run(context.Background(), Constant(level), cfg)
		if err != nil {
			t.Fatalf("sync %.1f: %v", level, err)
		}
		if len(result.Errors) > 0 {
			t.Fatalf("sync %.1f: %v", level, result.Errors[0])
		}
		if result.StepsTaken != 3600 {
			t.Errorf("sync %.1f: expected 3600 steps, got %d", level, result.StepsTaken)
		}
	}
}

func TestSimulatorRevealOnRamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Duration = 12

	result, err := New(physics.NewDefaultClock()).Run(context.Background(), Ramp(0, 10), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.RevealedAt < 8.4 || result.RevealedAt > 8.6 {
		t.Errorf("expected reveal near t=8.5, got %f", result.RevealedAt)
	}

	count := 0
	prev := false
	for _, f := range result.Frames {
		if f.Revealed && !prev {
			count++
		}
		if f.Revealed && f.Sync < 0.85 && !prev {
			t.Errorf("revealed before threshold at t=%f", f.Time)
		}
		prev = f.Revealed
	}
	if count != 1 {
		t.Errorf("expected a single reveal transition, got %d", count)
	}
}

func TestSimulatorAngleBound(t *testing.T) {
	clock := physics.NewClock(physics.DefaultConstants(), 80, -80)
	cfg := Config{Dt: 1.0 / 60, Duration: 5, AngleBound: 10}

	result, err := New(clock).Run(context.Background(), Constant(0), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) == 0 || !errors.Is(result.Errors[0], dynamo.ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", result.Errors)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(physics.NewDefaultClock()).Run(ctx, Constant(1), DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(f dynamo.Frame) {
	t.count++
	t.sum += f.Sync
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	s := New(physics.NewDefaultClock())

	metric := &testMetric{}
	s.AddMetric(metric)

	result, err := s.Run(context.Background(), Constant(0.25), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if v, ok := result.Metrics["test"]; !ok || v != 0.25 {
		t.Errorf("unexpected metric: %v (present %v)", v, ok)
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestSweep(t *testing.T) {
	sw := &Sweep{
		NewClock:   physics.NewDefaultClock,
		NewMetrics: func() []dynamo.Metric { return []dynamo.Metric{&testMetric{}} },
		Levels:     []float64{0, 0.5, 1},
	}

	results, err := sw.Run(context.Background(), Config{Dt: 1.0 / 60, Duration: 2})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Level != sw.Levels[i] {
			t.Errorf("result %d: level %f, want %f", i, r.Level, sw.Levels[i])
		}
		if r.Result.Metrics["test"] != sw.Levels[i] {
			t.Errorf("result %d: metric %f", i, r.Result.Metrics["test"])
		}
	}
}

func TestSweepParam(t *testing.T) {
	sw := &Sweep{
		NewClock: physics.NewDefaultClock,
		NewMetrics: func() []dynamo.Metric {
			return []dynamo.Metric{&testMetric{}}
		},
		Levels: Levels(0.2, 0.8, 4),
		Param:  "coupling",
		Sync:   0.75,
	}

	results, err := sw.Run(context.Background(), Config{Dt: 1.0 / 60, Duration: 1})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	for i, r := range results {
		if math.Abs(r.Level-sw.Levels[i]) > 1e-12 {
			t.Errorf("result %d: level %f", i, r.Level)
		}
		if r.Result.Metrics["test"] != 0.75 {
			t.Errorf("result %d: sync should be held at 0.75, got %f", i, r.Result.Metrics["test"])
		}
	}

	sw.Param = "mass"
	if _, err := sw.Run(context.Background(), Config{Dt: 1.0 / 60, Duration: 1}); err == nil {
		t.Error("expected error for unknown param")
	}
}

func TestLevels(t *testing.T) {
	got := Levels(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Levels = %v, want %v", got, want)
		}
	}
	if len(Levels(0.3, 1, 1)) != 1 {
		t.Error("single level")
	}
}
