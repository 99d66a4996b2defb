// Package engine provides the tick scheduler and the simulation state it drives.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Speed selects the tick interval from a fixed set.
type Speed uint8

const (
	SpeedSlow Speed = iota
	SpeedNormal
	SpeedFast
)

// Interval returns the tick period for s.
func (s Speed) Interval() time.Duration {
	switch s {
	case SpeedSlow:
		return 3000 * time.Millisecond
	case SpeedFast:
		return 1000 * time.Millisecond
	default:
		return 2000 * time.Millisecond
	}
}

func (s Speed) String() string {
	switch s {
	case SpeedSlow:
		return "slow"
	case SpeedNormal:
		return "normal"
	case SpeedFast:
		return "fast"
	default:
		return "unknown"
	}
}

// ParseSpeed resolves a speed by name.
func ParseSpeed(name string) (Speed, error) {
	switch name {
	case "slow":
		return SpeedSlow, nil
	case "normal", "":
		return SpeedNormal, nil
	case "fast":
		return SpeedFast, nil
	}
	return SpeedNormal, fmt.Errorf("unknown speed %q (want slow, normal or fast)", name)
}

// Engine is a cancellable repeating task: while running it calls OnTick once
// per interval. Stopping clears the pending timer; no tick fires after Stop
// returns.
type Engine struct {
	// OnTick runs on the engine goroutine. It must not call Stop or SetSpeed.
	OnTick        func(tick uint64)
	// OnStateChange is called after the engine starts or stops.
	OnStateChange func(running bool)

	ctl    sync.Mutex // serializes Start, Stop and SetSpeed
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	tick    uint64 // ticks fired since creation
	speed   Speed
	running bool
}

// NewEngine creates a stopped engine at the given speed.
func NewEngine(speed Speed) *Engine {
	return &Engine{speed: speed}
}

// Start begins ticking. Returns false if already running.
func (e *Engine) Start() bool {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	if e.Running() {
		return false
	}
	e.startLoop()

	speed := e.Speed()
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", speed.String(), "interval", speed.Interval())
	e.notify(true)
	return true
}

// Stop halts ticking and waits for the loop to exit. Returns false if already stopped.
func (e *Engine) Stop() bool {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	if !e.Running() {
		return false
	}
	e.stopLoop()

	slog.Info("simulation engine stopped", "tick", e.Tick())
	e.notify(false)
	return true
}

// SetSpeed changes the tick interval, restarting the timer if running.
func (e *Engine) SetSpeed(s Speed) {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.mu.Lock()
	changed := e.speed != s
	e.speed = s
	e.mu.Unlock()

	if !changed {
		return
	}
	if e.Running() {
		e.stopLoop()
		e.startLoop()
	}
	slog.Info("speed changed", "speed", s.String(), "interval", s.Interval())
}

// Speed returns the current speed.
func (e *Engine) Speed() Speed {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Running reports whether the engine is ticking.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Tick returns the number of ticks fired so far.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Run starts the engine and blocks until ctx is done, then stops it.
func (e *Engine) Run(ctx context.Context) {
	e.Start()
	<-ctx.Done()
	e.Stop()
}

func (e *Engine) startLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	e.mu.Lock()
	e.running = true
	interval := e.speed.Interval()
	e.mu.Unlock()

	go e.loop(ctx, interval, e.done)
}

func (e *Engine) stopLoop() {
	e.cancel()
	<-e.done

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

func (e *Engine) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			e.step()
		}
	}
}

// step advances the tick counter and runs the callback.
func (e *Engine) step() {
	e.mu.Lock()
	e.tick++
	tick := e.tick
	e.mu.Unlock()

	if e.OnTick != nil {
		e.OnTick(tick)
	}
}

func (e *Engine) notify(running bool) {
	if e.OnStateChange != nil {
		e.OnStateChange(running)
	}
}
