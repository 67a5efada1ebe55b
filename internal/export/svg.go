package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/hertz/internal/analysis"
)

// Series is one polyline of an SVG plot.
type Series struct {
	Points []analysis.Point
	Stroke string
}

// PlotSVG draws the series on a shared, padded coordinate system. It returns
// an empty string when no series has at least two points.
func PlotSVG(width, height int, series ...Series) string {
	var all []analysis.Point
	for _, s := range series {
		if len(s.Points) >= 2 {
			all = append(all, s.Points...)
		}
	}
	if len(all) == 0 {
		return ""
	}

	minX, maxX := all[0].X, all[0].X
	minY, maxY := all[0].Y, all[0].Y
	for _, p := range all {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	minX, maxX = padRange(minX, maxX)
	minY, maxY = padRange(minY, maxY)
	rangeX, rangeY := maxX-minX, maxY-minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#fdf6e3"/>
`, width, height, width, height)

	for _, s := range series {
		if len(s.Points) < 2 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, s.Stroke)
		for i, p := range s.Points {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// TimeSeries pairs samples with their time axis.
func TimeSeries(dt float64, samples []float64) []analysis.Point {
	pts := make([]analysis.Point, len(samples))
	for i, v := range samples {
		pts[i] = analysis.Point{X: float64(i) * dt, Y: v}
	}
	return pts
}

func padRange(lo, hi float64) (float64, float64) {
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - r*0.1, hi + r*0.1
}
