// Package refresh coordinates re-fetches between components.
//
// A Counter is the shared "something changed" signal: a component that mutates
// server state bumps it, and every view that depends on that state re-fetches
// when it observes a new value. A Guard protects a single view from applying a
// response that is older than the latest request it issued, or that arrives
// after the view was closed.
package refresh

import "sync"

// Counter is a monotonic change counter with subscribers.
type Counter struct {
	mu    sync.Mutex
	value uint64
	subs  map[int]func(uint64)
	next  int
}

// NewCounter returns a counter starting at zero.
func NewCounter() *Counter {
	return &Counter{subs: make(map[int]func(uint64))}
}

// Value returns the current count.
func (c *Counter) Value() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Bump increments the counter and notifies subscribers with the new value.
// Subscribers run synchronously on the caller's goroutine, outside the lock.
func (c *Counter) Bump() uint64 {
	c.mu.Lock()
	c.value++
	v := c.value
	fns := make([]func(uint64), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
	return v
}

// Subscribe registers fn for future bumps. The returned func removes it.
func (c *Counter) Subscribe(fn func(uint64)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[int]func(uint64))
	}
	id := c.next
	c.next++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Ticket identifies one issued request.
type Ticket uint64

// Guard tracks the latest issued request of a view and whether the view is closed.
type Guard struct {
	mu     sync.Mutex
	latest Ticket
	closed bool
}

// Begin issues a ticket for a new request, superseding all earlier ones.
func (g *Guard) Begin() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest++
	return g.latest
}

// Accept reports whether a response for t may be applied: t is the latest
// ticket and the view is still open.
func (g *Guard) Accept(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && t == g.latest
}

// Open reports whether the view has not been closed.
func (g *Guard) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed
}

// Close marks the view dismissed; later responses are ignored.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}
