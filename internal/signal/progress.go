// Package signal carries the scroll-driven sync progress from its producer
// (scroll events, a websocket, a key press) to the frame loop.
//
// The loop samples [Progress.Load] once per frame and subscribes for
// changes while it runs. Producers may call [Progress.Set] far more often
// than frames are drawn; nothing is redrawn per sample.
package signal

import (
	"math"
	"sync"
	"sync/atomic"
)

// Progress is a value in [0,1]. The zero value is ready to use.
type Progress struct {
	bits atomic.Uint64

	mu     sync.Mutex
	nextID int
	subs   map[int]func(float64)
}

func NewProgress(initial float64) *Progress {
	p := &Progress{}
	p.bits.Store(math.Float64bits(Clamp(initial)))
	return p
}

// Load returns the current value. It never blocks.
func (p *Progress) Load() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Set stores v clamped to [0,1] and notifies subscribers if the value
// changed. Subscribers run on the caller's goroutine.
func (p *Progress) Set(v float64) {
	v = Clamp(v)
	old := math.Float64frombits(p.bits.Swap(math.Float64bits(v)))
	if old == v {
		return
	}

	p.mu.Lock()
	fns := make([]func(float64), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe registers fn for changes. The returned function removes it and
// is safe to call more than once.
func (p *Progress) Subscribe(fn func(float64)) (unsubscribe func()) {
	p.mu.Lock()
	if p.subs == nil {
		p.subs = make(map[int]func(float64))
	}
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// FromScroll maps a scroll offset inside [start, end] to [0,1].
func FromScroll(scrollY, start, end float64) float64 {
	if end <= start {
		if scrollY >= end {
			return 1
		}
		return 0
	}
	return Clamp((scrollY - start) / (end - start))
}

// Clamp bounds v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
