package scene

import (
	"context"
	"sync"
	"sync/atomic"
)

// Loop is the single cooperative driver for everything that touches the
// graphics context. Each Step first runs work posted from other goroutines
// and then, while started, the tick hooks in registration order.
type Loop struct {
	mu     sync.Mutex
	posted []func()
	hooks  []func()
	closed bool

	running atomic.Bool
	ticks   atomic.Uint64
}

// NewLoop creates a stopped loop
func NewLoop() *Loop {
	return &Loop{}
}

// Start begins ticking; starting a running loop does nothing
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.running.Store(true)
}

// Stop pauses ticking; stopping a stopped loop does nothing
func (l *Loop) Stop() {
	l.running.Store(false)
}

// Running reports whether tick hooks are being run
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Ticks returns the number of frames ticked so far
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

// OnTick registers fn to run once per frame
func (l *Loop) OnTick(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}

// Post schedules fn on the loop goroutine. It is safe to call from any
// goroutine and reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.posted = append(l.posted, fn)
	return true
}

// Step runs one iteration. Work posted while draining runs on the next Step.
func (l *Loop) Step() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()

	for _, fn := range posted {
		fn()
	}

	if !l.running.Load() {
		return
	}

	l.mu.Lock()
	hooks := l.hooks
	l.mu.Unlock()

	for _, fn := range hooks {
		if !l.running.Load() {
			return
		}
		fn()
	}
	l.ticks.Add(1)
}

// Run steps until the loop is stopped or ctx is done. It must be called
// from the goroutine that owns the graphics context.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.running.Load() {
			return nil
		}
		l.Step()
	}
}

// Close stops the loop and refuses new posts. Work already posted still
// runs so completions can observe the shutdown.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	posted := l.posted
	l.posted = nil
	l.hooks = nil
	l.running.Store(false)
	l.mu.Unlock()

	for _, fn := range posted {
		fn()
	}
}
