package devserver

import (
	"context"
	"sync"
	"time"
)

// reloadMode says whether a rebuild should notify browsers. Pending requests
// are merged by keeping the strongest mode.
type reloadMode int

const (
	reloadNever reloadMode = iota
	reloadIfChanged
	reloadAlways
)

type passFunc func(ctx context.Context, mode reloadMode, trigger string)

// Rebuilder serializes compile passes. Requests arriving while a pass runs are
// folded into one follow-up pass, so the served map always reflects the most
// recently started change and passes never overlap.
type Rebuilder struct {
	mu       sync.Mutex
	mode     reloadMode
	trigger  string
	timer    *time.Timer
	debounce time.Duration
	req      chan struct{}
	pass     passFunc
}

func newRebuilder(debounce time.Duration, pass passFunc) *Rebuilder {
	return &Rebuilder{debounce: debounce, req: make(chan struct{}, 1), pass: pass}
}

// Request schedules a pass after the debounce delay.
func (r *Rebuilder) Request(mode reloadMode, trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mode > r.mode {
		r.mode = mode
	}
	r.trigger = trigger

	if r.debounce <= 0 {
		r.signal()
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.signal)
}

func (r *Rebuilder) signal() {
	select {
	case r.req <- struct{}{}:
	default:
	}
}

// Run executes passes until ctx is done. An in-flight pass is not interrupted.
func (r *Rebuilder) Run(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		if r.timer != nil {
			r.timer.Stop()
		}
		r.mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.req:
			r.mu.Lock()
			mode, trigger := r.mode, r.trigger
			r.mode = reloadNever
			r.mu.Unlock()
			r.pass(ctx, mode, trigger)
		}
	}
}
