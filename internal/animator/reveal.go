package animator

import (
	"sync/atomic"

	"github.com/charmbracelet/harmonica"
)

const DefaultRevealThreshold = 0.85

// Latch fires once, the first time an observed value reaches Threshold.
type Latch struct {
	Threshold float64
	fired     atomic.Bool
}

func NewLatch(threshold float64) *Latch {
	return &Latch{Threshold: threshold}
}

// Observe reports true on the single call that trips the latch.
func (l *Latch) Observe(v float64) bool {
	if v < l.Threshold {
		return false
	}
	return l.fired.CompareAndSwap(false, true)
}

func (l *Latch) Fired() bool { return l.fired.Load() }

// Cuckoo eases the bird out of its door once released. Offset 0 is hidden,
// 1 is fully out; the spring may overshoot briefly.
type Cuckoo struct {
	spring   harmonica.Spring
	pos, vel float64
	released bool
}

func NewCuckoo(fps int) *Cuckoo {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Cuckoo{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.4)}
}

func (c *Cuckoo) Release() { c.released = true }

// Update advances the spring by one frame and returns the offset.
func (c *Cuckoo) Update() float64 {
	if !c.released {
		return c.pos
	}
	c.pos, c.vel = c.spring.Update(c.pos, c.vel, 1.0)
	return c.pos
}

func (c *Cuckoo) Offset() float64 { return c.pos }
