// Package buffer provides a bounded ring of recent entries, used to replay a
// session's chat backlog to late joiners.
package buffer

import (
	"sync"
)

// Ring is a thread-safe circular buffer that keeps the most recent entries up
// to a fixed capacity. When the ring is full, the oldest entry is discarded to
// make room for the new one.
type Ring[T any] struct {
	mu       sync.RWMutex
	entries  []T
	head     int
	capacity int
}

// NewRing creates a Ring with the given capacity.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		entries:  make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Append adds an entry, evicting the oldest one if the ring is full.
func (r *Ring[T]) Append(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) < r.capacity {
		r.entries = append(r.entries, v)
		return
	}
	// head points at the oldest entry once the ring is full.
	r.entries[r.head] = v
	r.head = (r.head + 1) % r.capacity
}

// Snapshot returns a copy of the current entries, oldest first.
// The returned slice is safe to use without holding the lock.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return nil
	}
	out := make([]T, 0, len(r.entries))
	for i := 0; i < len(r.entries); i++ {
		out = append(out, r.entries[(r.head+i)%len(r.entries)])
	}
	return out
}

// Clear removes all entries from the ring.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = r.entries[:0]
	r.head = 0
}

// Len returns the current number of entries in the ring.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Cap returns the capacity of the ring.
func (r *Ring[T]) Cap() int {
	return r.capacity
}
