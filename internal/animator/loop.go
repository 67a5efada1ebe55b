// Package animator runs the clock once per rendered frame.
//
// A [Loop] owns its [physics.Clock]; nothing else mutates it. The sync
// value is sampled from a [signal.Progress] at the start of every frame.
// While Run is active the loop also subscribes to the progress so a
// threshold crossing between two frames still trips the reveal.
// Observers get a copy of each frame and may be added or removed while the
// loop runs. Stop (or canceling the context given to Run) tears the loop
// down; no per-frame work survives it.
package animator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/physics"
	"github.com/san-kum/hertz/internal/signal"
)

const DefaultFPS = 60

// FrameSource delivers frame ticks.
type FrameSource interface {
	Frames() <-chan time.Time
	Stop()
}

type tickerSource struct {
	t *time.Ticker
}

// NewTickerSource ticks fps times per second.
func NewTickerSource(fps int) FrameSource {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &tickerSource{t: time.NewTicker(time.Second / time.Duration(fps))}
}

func (s *tickerSource) Frames() <-chan time.Time { return s.t.C }
func (s *tickerSource) Stop()                    { s.t.Stop() }

type manualSource struct{}

// ManualSource never fires. Its owner drives the loop through Tick, the way
// a UI framework with its own frame clock does.
func ManualSource() FrameSource { return manualSource{} }

func (manualSource) Frames() <-chan time.Time { return nil }
func (manualSource) Stop()                    {}

type Options struct {
	FPS             int
	RevealThreshold float64
	// Source overrides the ticker. Tests use it to drive frames by hand.
	Source FrameSource
}

type Loop struct {
	clock    *physics.Clock
	progress *signal.Progress
	latch    *Latch
	cuckoo   *Cuckoo
	src      FrameSource
	nominal  float64

	mu        sync.Mutex
	frame     dynamo.Frame
	lastTick  time.Time
	observers map[int]dynamo.Observer
	nextID    int
	onReveal  []func()

	// crossed is set by the progress subscription when the latch trips
	// between frames; the next Tick reports the reveal.
	crossed atomic.Bool

	stopOnce sync.Once
	done     chan struct{}
}

func New(clock *physics.Clock, progress *signal.Progress, opts Options) *Loop {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.RevealThreshold <= 0 {
		opts.RevealThreshold = DefaultRevealThreshold
	}
	if progress == nil {
		progress = signal.NewProgress(0)
	}
	src := opts.Source
	if src == nil {
		src = NewTickerSource(opts.FPS)
	}
	return &Loop{
		clock:     clock,
		progress:  progress,
		latch:     NewLatch(opts.RevealThreshold),
		cuckoo:    NewCuckoo(opts.FPS),
		src:       src,
		nominal:   1.0 / float64(opts.FPS),
		frame:     dynamo.Frame{State: clock.State()},
		observers: make(map[int]dynamo.Observer),
		done:      make(chan struct{}),
	}
}

func (l *Loop) Progress() *signal.Progress { return l.progress }

// Observe registers o for every frame until cancel is called.
func (l *Loop) Observe(o dynamo.Observer) (cancel func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.observers[id] = o
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.observers, id)
		l.mu.Unlock()
	}
}

// OnReveal registers fn to run on the frame the reveal latch trips.
func (l *Loop) OnReveal(fn func()) {
	l.mu.Lock()
	l.onReveal = append(l.onReveal, fn)
	l.mu.Unlock()
}

// Snapshot returns the most recent frame.
func (l *Loop) Snapshot() dynamo.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// Cuckoo returns the bird's current offset.
func (l *Loop) Cuckoo() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cuckoo.Offset()
}

// Tick advances the clock by the time elapsed since the previous tick.
func (l *Loop) Tick(now time.Time) dynamo.Frame {
	level := l.progress.Load()

	l.mu.Lock()
	dt := l.nominal
	if !l.lastTick.IsZero() {
		dt = now.Sub(l.lastTick).Seconds()
	}
	l.lastTick = now
	dt = l.clock.ClampDt(dt)

	state := l.clock.Step(dt, level)
	revealed := l.latch.Observe(level) || l.crossed.Swap(false)
	if revealed {
		l.cuckoo.Release()
	}
	l.cuckoo.Update()

	f := dynamo.Frame{
		Step:     l.frame.Step + 1,
		Time:     l.frame.Time + dt,
		Dt:       dt,
		Sync:     level,
		Coupling: l.clock.Coupling(level),
		State:    state,
		Revealed: l.latch.Fired(),
	}
	l.frame = f

	observers := make([]dynamo.Observer, 0, len(l.observers))
	for _, o := range l.observers {
		observers = append(observers, o)
	}
	var hooks []func()
	if revealed {
		hooks = append(hooks, l.onReveal...)
	}
	l.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	for _, o := range observers {
		o.OnFrame(f)
	}
	return f
}

// Run processes frames until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.src.Stop()
	defer l.progress.Subscribe(l.syncChanged)()

	frames := l.src.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case now, ok := <-frames:
			if !ok {
				return nil
			}
			l.Tick(now)
		}
	}
}

func (l *Loop) syncChanged(v float64) {
	if l.latch.Observe(v) {
		l.crossed.Store(true)
	}
}

// Stop ends Run. Safe to call more than once and before Run.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}
