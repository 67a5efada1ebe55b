package config

import (
	"sort"

	"github.com/san-kum/hertz/internal/physics"
)

var Presets = map[string]ClockConfig{
	"calm": {
		FPS: 60, RevealThreshold: 0.85, LeftAngle: 12, RightAngle: -8,
		Physics: physics.Constants{NaturalFrequency: 0.7, Damping: 0.999, MaxCoupling: 0.4, MaxDt: 1.0 / 60},
	},
	"lively": {
		FPS: 60, RevealThreshold: 0.85, LeftAngle: 24, RightAngle: -20,
		Physics: physics.Constants{NaturalFrequency: 1.6, Damping: 0.9985, MaxCoupling: 0.9, MaxDt: 1.0 / 60},
	},
	"clockwork": {
		FPS: 60, RevealThreshold: 0.85, LeftAngle: 18, RightAngle: -12,
		Physics: physics.Constants{NaturalFrequency: 1.0, Damping: 0.999, MaxCoupling: 0.6, MaxDt: 1.0 / 60, Escapement: 0.03},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *ClockConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
