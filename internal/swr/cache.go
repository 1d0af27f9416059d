// Package swr is a fetch cache keyed by request target. Each key moves from
// Pending to Succeeded or Failed exactly once per fetch; subscribers hear
// about every transition. Concurrent requests for the same key share one
// fetch.
package swr

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a Cache built without WithMaxEntries.
const DefaultMaxEntries = 256

// State is the outcome tag of a cache entry.
type State int

const (
	// Pending means no fetch for the key has settled yet.
	Pending State = iota
	// Failed means the latest fetch returned an error.
	Failed
	// Succeeded means the latest fetch returned a value.
	Succeeded
)

func (s State) String() string {
	switch s {
	case Failed:
		return "failed"
	case Succeeded:
		return "succeeded"
	default:
		return "pending"
	}
}

// Entry is a snapshot of one key. After a failed revalidation Value still
// holds the last successful value.
type Entry[V any] struct {
	Key        string
	State      State
	Value      V
	Err        error
	UpdatedAt  time.Time
	Validating bool
}

// Settled reports whether no fetch is outstanding for the entry.
func (e Entry[V]) Settled() bool {
	return e.State != Pending && !e.Validating
}

// Fetcher produces the value for a key. ctx carries the values of the
// context that started the fetch but is cancelled only by its timeout or
// by Close.
type Fetcher[V any] func(ctx context.Context, key string) (V, error)

// Option configures a Cache.
type Option func(*options)

type options struct {
	maxEntries int
}

// WithMaxEntries caps the number of keys kept. When a new key would exceed
// the cap, the least recently used settled key without subscribers is
// dropped. n <= 0 disables the cap.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

type entry[V any] struct {
	snap Entry[V]
	subs map[uint64]func(Entry[V])
	done chan struct{} // closed when the outstanding fetch settles
	used uint64
}

func (e *entry[V]) evictable() bool {
	return len(e.subs) == 0 && (e.done == nil || e.snap.Settled())
}

// Cache memoizes Fetcher results by key. The zero value is not usable; call New.
type Cache[V any] struct {
	fetch      Fetcher[V]
	timeout    time.Duration
	maxEntries int
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry[V]
	nextSub uint64
	clock   uint64
}

// New returns a Cache that runs fetch in background goroutines, each bounded
// by timeout when it is positive.
func New[V any](fetch Fetcher[V], timeout time.Duration, opts ...Option) *Cache[V] {
	o := options{maxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache[V]{
		fetch:      fetch,
		timeout:    timeout,
		maxEntries: o.maxEntries,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		entries:    make(map[string]*entry[V]),
	}
}

// Get returns the entry for key, starting a fetch if the key has never been
// requested or its last fetch failed.
func (c *Cache[V]) Get(ctx context.Context, key string) Entry[V] {
	c.mu.Lock()
	e, _ := c.ensureLocked(ctx, key)
	snap := e.snap
	c.mu.Unlock()
	return snap
}

// Peek returns the entry for key without starting a fetch.
func (c *Cache[V]) Peek(key string) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry[V]{Key: key}, false
	}
	return e.snap, true
}

// Revalidate fetches key again, keeping the current value visible until the
// new one settles, and returns the entry as it stands. It joins the
// outstanding fetch instead of starting another.
func (c *Cache[V]) Revalidate(ctx context.Context, key string) Entry[V] {
	c.mu.Lock()
	e := c.revalidateLocked(ctx, key)
	snap := e.snap
	c.mu.Unlock()
	return snap
}

// Subscribe registers fn to receive every state transition of key and
// returns a function that removes it. fn runs on the fetching goroutine and
// must not block for long. Subscribing does not start a fetch.
func (c *Cache[V]) Subscribe(key string, fn func(Entry[V])) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookupLocked(key)
	c.nextSub++
	id := c.nextSub
	e.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(e.subs, id)
	}
}

// Await is Get followed by waiting until the entry settles or ctx ends.
func (c *Cache[V]) Await(ctx context.Context, key string) (Entry[V], error) {
	c.mu.Lock()
	e, _ := c.ensureLocked(ctx, key)
	c.mu.Unlock()
	return c.wait(ctx, e)
}

// Refresh is Revalidate followed by waiting until the entry settles or ctx ends.
func (c *Cache[V]) Refresh(ctx context.Context, key string) (Entry[V], error) {
	c.mu.Lock()
	e := c.revalidateLocked(ctx, key)
	c.mu.Unlock()
	return c.wait(ctx, e)
}

// Len returns the number of keys the cache holds.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels outstanding fetches and waits for their goroutines.
func (c *Cache[V]) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Cache[V]) wait(ctx context.Context, e *entry[V]) (Entry[V], error) {
	c.mu.Lock()
	if e.snap.Settled() {
		snap := e.snap
		c.mu.Unlock()
		return snap, nil
	}
	done := e.done
	c.mu.Unlock()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return e.snap, err
}

// ensureLocked returns the entry for key and reports whether it started a
// fetch. Entries created by Subscribe have not fetched yet; failed entries
// fetch again.
func (c *Cache[V]) ensureLocked(ctx context.Context, key string) (*entry[V], bool) {
	e := c.lookupLocked(key)
	switch {
	case e.done == nil:
		c.startLocked(ctx, e)
	case e.snap.State == Failed && e.snap.Settled():
		e.snap.Validating = true
		c.startLocked(ctx, e)
	default:
		return e, false
	}
	return e, true
}

func (c *Cache[V]) revalidateLocked(ctx context.Context, key string) *entry[V] {
	e, started := c.ensureLocked(ctx, key)
	if !started && e.snap.Settled() {
		e.snap.Validating = true
		c.startLocked(ctx, e)
	}
	return e
}

// lookupLocked returns the entry for key, creating it if needed, and marks
// it as the most recently used.
func (c *Cache[V]) lookupLocked(key string) *entry[V] {
	e, ok := c.entries[key]
	if !ok {
		c.evictLocked()
		e = &entry[V]{
			snap: Entry[V]{Key: key, State: Pending},
			subs: make(map[uint64]func(Entry[V])),
		}
		c.entries[key] = e
	}
	c.clock++
	e.used = c.clock
	return e
}

// evictLocked makes room for one more key. When every key is in flight or
// watched the cache grows past its cap until one settles.
func (c *Cache[V]) evictLocked() {
	if c.maxEntries <= 0 {
		return
	}
	for len(c.entries) >= c.maxEntries {
		var (
			oldest string
			found  bool
			used   uint64
		)
		for k, e := range c.entries {
			if e.evictable() && (!found || e.used < used) {
				oldest, used, found = k, e.used, true
			}
		}
		if !found {
			return
		}
		delete(c.entries, oldest)
	}
}

// startLocked launches a fetch for e. A revalidation is announced to
// subscribers from the fetching goroutine, so callers never block on
// subscribers and the announcement always precedes the result.
func (c *Cache[V]) startLocked(origin context.Context, e *entry[V]) {
	done := make(chan struct{})
	e.done = done
	key := e.snap.Key
	if origin == nil {
		origin = context.Background()
	}
	var (
		announce = e.snap.Validating
		start    = e.snap
		startFor = subscribers(e)
	)

	c.wg.Go(func() {
		if announce {
			notify(startFor, start)
		}

		ctx, cancel := context.WithCancel(context.WithoutCancel(origin))
		defer cancel()
		stop := context.AfterFunc(c.ctx, cancel)
		defer stop()
		if c.timeout > 0 {
			var cancelTimeout context.CancelFunc
			ctx, cancelTimeout = context.WithTimeout(ctx, c.timeout)
			defer cancelTimeout()
		}

		v, err := c.fetch(ctx, key)

		c.mu.Lock()
		if err != nil {
			e.snap.State = Failed
			e.snap.Err = err
		} else {
			e.snap.State = Succeeded
			e.snap.Value = v
			e.snap.Err = nil
		}
		e.snap.Validating = false
		e.snap.UpdatedAt = c.now()
		snap, subs := e.snap, subscribers(e)
		close(done)
		c.mu.Unlock()

		notify(subs, snap)
	})
}

func subscribers[V any](e *entry[V]) []func(Entry[V]) {
	subs := make([]func(Entry[V]), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify[V any](subs []func(Entry[V]), snap Entry[V]) {
	for _, fn := range subs {
		fn(snap)
	}
}
