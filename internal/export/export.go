// Package export writes simulated clock runs to JSON, CSV and SVG.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/physics"
)

// Run is the serialized form of one simulation.
type Run struct {
	Preset     string             `json:"preset,omitempty"`
	Constants  physics.Constants  `json:"constants"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	RevealedAt float64            `json:"revealed_at"`
	Metrics    map[string]float64 `json:"metrics"`
	Frames     []dynamo.Frame     `json:"frames"`
}

func NewRun(preset string, c physics.Constants, dt, duration float64, res *dynamo.Result) Run {
	return Run{
		Preset:     preset,
		Constants:  c,
		Dt:         dt,
		Duration:   duration,
		Steps:      res.StepsTaken,
		RevealedAt: res.RevealedAt,
		Metrics:    res.Metrics,
		Frames:     res.Frames,
	}
}

func WriteJSON(w io.Writer, run Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

var csvHeader = []string{"step", "t", "sync", "coupling", "left_angle", "left_velocity", "right_angle", "right_velocity", "revealed"}

// WriteCSV writes one row per recorded frame.
func WriteCSV(w io.Writer, frames []dynamo.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	row := make([]string, len(csvHeader))
	for _, f := range frames {
		row[0] = strconv.Itoa(f.Step)
		row[1] = formatFloat(f.Time)
		row[2] = formatFloat(f.Sync)
		row[3] = formatFloat(f.Coupling)
		for i, v := range f.State {
			row[4+i] = formatFloat(v)
		}
		row[8] = strconv.FormatBool(f.Revealed)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write frame %d: %w", f.Step, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}
