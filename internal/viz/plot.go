package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/sim"
)

// PlotAngles charts both pendulum angles of res, downsampled to width.
func PlotAngles(res *dynamo.Result, width, height int) string {
	if res == nil || len(res.Frames) < 2 {
		return ""
	}
	left, right := res.Angles()
	return asciigraph.PlotMany([][]float64{downsample(left, width), downsample(right, width)},
		asciigraph.Height(height),
		asciigraph.SeriesColors(asciigraph.Goldenrod, asciigraph.DeepSkyBlue),
		asciigraph.Caption("angle (°): left gold, right blue"),
	)
}

// PlotSweep charts a metric against the level of each run.
func PlotSweep(results []sim.SweepResult, metric, axis string, height int) string {
	if len(results) < 2 {
		return ""
	}
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.Result.Metrics[metric]
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("%s, %s %.2f → %.2f", metric, axis, results[0].Level, results[len(results)-1].Level)),
	)
}

// downsample keeps every n-th sample so at most width remain.
func downsample(data []float64, width int) []float64 {
	if width <= 0 || len(data) <= width {
		return data
	}
	out := make([]float64, 0, width)
	stride := float64(len(data)) / float64(width)
	for i := 0; i < width; i++ {
		out = append(out, data[int(float64(i)*stride)])
	}
	return out
}
