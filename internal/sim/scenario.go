package sim

import (
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/signal"
	"gopkg.in/yaml.v3"
)

// Keyframe pins the sync value at time At. Sync moves linearly between
// keyframes and holds its value before the first and after the last.
type Keyframe struct {
	At   float64 `yaml:"at"`
	Sync float64 `yaml:"sync"`
}

// Scenario is a scripted visit to the page: how far the visitor has
// scrolled over time, on which clock.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Preset      string             `yaml:"preset"`
	Params      map[string]float64 `yaml:"params"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Keyframes   []Keyframe         `yaml:"keyframes"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Keyframes) == 0 {
		return nil, fmt.Errorf("scenario %q has no keyframes", sc.Name)
	}
	for i, k := range sc.Keyframes {
		if k.Sync < 0 || k.Sync > 1 {
			return nil, fmt.Errorf("keyframe %d: sync %v outside [0,1]", i, k.Sync)
		}
		if i > 0 && k.At <= sc.Keyframes[i-1].At {
			return nil, fmt.Errorf("keyframe %d: times must increase", i)
		}
	}
	return &sc, nil
}

// Schedule interpolates the keyframes.
func (sc *Scenario) Schedule() Schedule {
	keys := append([]Keyframe(nil), sc.Keyframes...)
	return func(t float64) float64 {
		i := sort.Search(len(keys), func(i int) bool { return keys[i].At > t })
		switch {
		case i == 0:
			return keys[0].Sync
		case i == len(keys):
			return keys[len(keys)-1].Sync
		}
		a, b := keys[i-1], keys[i]
		return signal.Clamp(a.Sync + (b.Sync-a.Sync)*(t-a.At)/(b.At-a.At))
	}
}

// Apply sets the scenario's parameters on c in name order.
func (sc *Scenario) Apply(c dynamo.Configurable) error {
	names := make([]string, 0, len(sc.Params))
	for name := range sc.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.SetParam(name, sc.Params[name]); err != nil {
			return fmt.Errorf("scenario param %s: %w", name, err)
		}
	}
	return nil
}

// Config overlays the scenario's timing on base.
func (sc *Scenario) Config(base Config) Config {
	if sc.Dt > 0 {
		base.Dt = sc.Dt
	}
	if sc.Duration > 0 {
		base.Duration = sc.Duration
	}
	return base
}
