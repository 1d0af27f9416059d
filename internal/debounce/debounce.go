// Package debounce holds a value that settles only after it has stopped
// changing for a fixed quiet interval.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer a Value needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Option configures a Value.
type Option func(*options)

type options struct {
	afterFunc AfterFunc
}

// WithAfterFunc replaces time.AfterFunc, letting tests drive time by hand.
func WithAfterFunc(fn AfterFunc) Option {
	return func(o *options) { o.afterFunc = fn }
}

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Value is a debounced projection of a rapidly changing input. Set records
// the latest input and restarts the quiet interval; once the interval
// elapses with no further Set, the input becomes Current and onChange runs
// on the timer's goroutine.
type Value[T comparable] struct {
	mu        sync.Mutex
	delay     time.Duration
	afterFunc AfterFunc
	onChange  func(T)

	current    T
	pending    T
	hasPending bool
	timer      Timer
	gen        uint64
	stopped    bool
}

// New returns a Value whose settled value starts at initial. onChange may be nil.
func New[T comparable](initial T, delay time.Duration, onChange func(T), opts ...Option) *Value[T] {
	o := options{afterFunc: realAfterFunc}
	for _, opt := range opts {
		opt(&o)
	}
	return &Value[T]{
		delay:     delay,
		afterFunc: o.afterFunc,
		onChange:  onChange,
		current:   initial,
	}
}

// Set schedules x to become current after the quiet interval, cancelling
// any update still pending. It is a no-op after Stop.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stopped {
		return
	}
	if v.timer != nil {
		v.timer.Stop()
	}
	v.gen++
	gen := v.gen
	v.pending = x
	v.hasPending = true
	v.timer = v.afterFunc(v.delay, func() { v.fire(gen) })
}

// Current returns the settled value.
func (v *Value[T]) Current() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Stop cancels any pending update. Later calls to Set are ignored.
func (v *Value[T]) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopped = true
	v.gen++
	v.hasPending = false
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *Value[T]) fire(gen uint64) {
	v.mu.Lock()
	// A timer that lost the race with Stop or a newer Set must not apply.
	if gen != v.gen || !v.hasPending || v.stopped {
		v.mu.Unlock()
		return
	}
	x := v.pending
	changed := x != v.current
	v.current = x
	v.hasPending = false
	v.timer = nil
	onChange := v.onChange
	v.mu.Unlock()

	if changed && onChange != nil {
		onChange(x)
	}
}
