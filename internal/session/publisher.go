package session

import "sync"

// Publisher holds the current Snapshot behind a mutex plus a dirty bit, the
// only global mutable state in the system. Every other field lives inside
// whichever goroutine owns it.
type Publisher struct {
	mu      sync.Mutex
	current Snapshot
	dirty   bool
}

// NewPublisher returns a publisher seeded with the zero Snapshot.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Update applies fn to a copy of the current snapshot and swaps it in if
// anything changed, marking the result dirty. Snapshot is a plain
// comparable struct, so "changed" is ordinary Go equality.
func (p *Publisher) Update(fn func(*Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.current
	fn(&next)
	if next != p.current {
		p.current = next
		p.dirty = true
	}
}

// Snapshot returns the current value without affecting the dirty bit.
func (p *Publisher) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// PopIfChanged returns the current snapshot and clears the dirty bit, or
// reports ok=false if nothing has changed since the last call.
func (p *Publisher) PopIfChanged() (snap Snapshot, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return Snapshot{}, false
	}
	p.dirty = false
	return p.current, true
}
