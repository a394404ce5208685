package replica

import (
	"github.com/outofforest/replica/readers"
)

// Handle is a pinned reader registration. It keeps a single reader slot claimed across calls,
// skipping the per-call claim done by the methods on Registry. A handle may be used by one
// goroutine at a time.
type Handle[T any] struct {
	r *Registry[T]
	s *readers.Slot
}

// Acquire claims a reader slot and returns a handle bound to it.
func (r *Registry[T]) Acquire() *Handle[T] {
	return &Handle[T]{
		r: r,
		s: r.readers.Claim(&r.acct),
	}
}

// Install publishes v as the replica for the given ID, growing the table if the ID doesn't fit.
func (h *Handle[T]) Install(id int64, v T) {
	h.r.install(h.s, id, v)
}

// Get returns the replica installed for the given ID, or the zero value if the ID was cleared.
func (h *Handle[T]) Get(id int64) T {
	return h.r.get(h.s, id)
}

// Clear zeroes the slot of the given ID. No storage is released.
func (h *Handle[T]) Clear(id int64) {
	h.r.clear(h.s, id)
}

// Count returns the capacity of the current instance.
func (h *Handle[T]) Count() int64 {
	return h.r.count(h.s)
}

// Release returns the reader slot to the registry. The handle must not be used afterwards.
func (h *Handle[T]) Release() {
	h.s.Release()
	h.s = nil
}
