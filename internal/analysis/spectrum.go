package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first half of the spectrum of
// data with its mean removed.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spec := fft.FFTReal(centered)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantPeriod returns the period in seconds of the strongest frequency
// in samples taken every dt seconds. Zero means no oscillation was found.
func DominantPeriod(samples []float64, dt float64) float64 {
	ps := PowerSpectrum(samples)
	if len(ps) < 2 || dt <= 0 {
		return 0
	}

	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 || maxPower < 1e-9 {
		return 0
	}

	freq := float64(maxIdx) / (float64(len(samples)) * dt)
	return 1.0 / freq
}

// SyncIndex is 1 when both series are identical and falls toward 0 as they
// drift apart or move in opposition.
func SyncIndex(left, right []float64) float64 {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if n == 0 {
		return 1
	}

	gap, span := 0.0, 0.0
	for i := 0; i < n; i++ {
		gap += math.Abs(left[i] - right[i])
		span += math.Abs(left[i]) + math.Abs(right[i])
	}
	if span == 0 {
		return 1
	}
	return math.Max(0, 1-gap/span)
}
