package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/physics"
	"golang.org/x/sync/errgroup"
)

// SweepResult is one run of a sweep.
type SweepResult struct {
	Level  float64
	Result *dynamo.Result
}

// Sweep runs one simulation per level, in parallel. Every run gets its own
// clock built by NewClock and its own metrics built by NewMetrics.
//
// With Param empty the levels are sync values. Otherwise each level is
// assigned to the named clock parameter and sync is held at Sync.
type Sweep struct {
	NewClock   func() *physics.Clock
	NewMetrics func() []dynamo.Metric
	Levels     []float64
	Param      string
	Sync       float64
}

func (sw *Sweep) Run(ctx context.Context, cfg Config) ([]SweepResult, error) {
	results := make([]SweepResult, len(sw.Levels))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, level := range sw.Levels {
		g.Go(func() error {
			clock := sw.NewClock()
			schedule := Constant(level)
			if sw.Param != "" {
				if err := clock.SetParam(sw.Param, level); err != nil {
					return fmt.Errorf("sweep %s=%v: %w", sw.Param, level, err)
				}
				schedule = Constant(sw.Sync)
			}

			s := New(clock)
			if sw.NewMetrics != nil {
				for _, m := range sw.NewMetrics() {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(ctx, schedule, cfg)
			if err != nil {
				return err
			}
			results[i] = SweepResult{Level: level, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Levels returns n evenly spaced values from lo to hi inclusive.
func Levels(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}
