package replica

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/outofforest/replica/blocks"
	"github.com/outofforest/replica/mem"
	"github.com/outofforest/replica/readers"
)

type config struct {
	lock  sync.Locker
	yield func()
}

// Option configures the registry.
type Option func(c *config)

// WithLock sets the mutual exclusion primitive serializing writers. It is taken only when the
// table must grow.
func WithLock(lock sync.Locker) Option {
	return func(c *config) {
		c.lock = lock
	}
}

// WithYield sets the hint called while a writer waits for readers to leave a retired instance.
func WithYield(yield func()) Option {
	return func(c *config) {
		c.yield = yield
	}
}

// Registry maps non-negative numeric IDs to replicas of type T. Reads don't lock; writers
// serialize only when the table must grow. IDs may be installed in any order.
type Registry[T any] struct {
	lock  sync.Locker
	yield func()

	instances [2]blocks.Spine[T]
	current   atomic.Int32
	readers   readers.List
	acct      mem.Accounting
}

// New returns a new registry able to hold SlotsPerBlock replicas before the first grow.
func New[T any](opts ...Option) *Registry[T] {
	c := config{
		lock:  &sync.Mutex{},
		yield: runtime.Gosched,
	}
	for _, opt := range opts {
		opt(&c)
	}

	r := &Registry[T]{
		lock:  c.lock,
		yield: c.yield,
	}
	r.instances[0] = blocks.NewSpine[T](1, &r.acct)
	return r
}

// Install publishes v as the replica for the given ID, growing the table if the ID doesn't fit.
// Concurrent installs for distinct IDs are safe; for the same ID the last writer wins.
func (r *Registry[T]) Install(id int64, v T) {
	s := r.readers.Claim(&r.acct)
	defer s.Release()

	r.install(s, id, v)
}

// Get returns the replica installed for the given ID, or the zero value if the ID was cleared.
// The ID must have been installed before.
func (r *Registry[T]) Get(id int64) T {
	s := r.readers.Claim(&r.acct)
	defer s.Release()

	return r.get(s, id)
}

// Clear zeroes the slot of the given ID. No storage is released.
func (r *Registry[T]) Clear(id int64) {
	s := r.readers.Claim(&r.acct)
	defer s.Release()

	r.clear(s, id)
}

// Count returns the capacity of the current instance, an upper bound on the highest installed ID.
func (r *Registry[T]) Count() int64 {
	s := r.readers.Claim(&r.acct)
	defer s.Release()

	return r.count(s)
}

// Close verifies that no reader slot is claimed and that everything the registry allocated has
// been accounted for. It must be called once, after all handles are released.
func (r *Registry[T]) Close() error {
	if claimed := r.readers.Claimed(); claimed > 0 {
		return errors.Errorf("registry is still in use, claimed reader slots: %d", claimed)
	}

	idx := r.current.Load()
	spine := r.instances[idx]
	r.acct.Free(mem.PurposeBlock, int64(len(spine))*blocks.Sizeof[T]())
	r.acct.Free(mem.PurposeSpine, spine.Sizeof())
	r.acct.Free(mem.PurposeReaderSlot, int64(r.readers.Len())*readers.Sizeof())
	r.instances[idx] = nil

	return r.acct.Leaks()
}

func (r *Registry[T]) install(s *readers.Slot, id int64, v T) {
	pos, slot := blocks.Locate(id)
	for {
		idx := r.acquireRead(s)
		if spine := r.instances[idx]; pos < int64(len(spine)) {
			spine[pos].Slots[slot] = v
			s.SetStatus(readers.Idle)
			return
		}
		s.SetStatus(readers.Idle)

		r.grow(pos + 1)
	}
}

func (r *Registry[T]) get(s *readers.Slot, id int64) T {
	pos, slot := blocks.Locate(id)

	idx := r.acquireRead(s)
	v := r.instances[idx][pos].Slots[slot]
	s.SetStatus(readers.Idle)

	return v
}

func (r *Registry[T]) clear(s *readers.Slot, id int64) {
	pos, slot := blocks.Locate(id)

	idx := r.acquireRead(s)
	var zero T
	r.instances[idx][pos].Slots[slot] = zero
	s.SetStatus(readers.Idle)
}

func (r *Registry[T]) count(s *readers.Slot) int64 {
	idx := r.acquireRead(s)
	n := int64(len(r.instances[idx])) * blocks.SlotsPerBlock
	s.SetStatus(readers.Idle)

	return n
}

// acquireRead publishes the instance index the caller is about to read. The index is reread
// after publishing; a mismatch means a writer flipped instances in between and the handshake
// must restart.
func (r *Registry[T]) acquireRead(s *readers.Slot) int32 {
	for {
		idx := r.current.Load()
		s.SetStatus(idx)
		if r.current.Load() == idx {
			return idx
		}
	}
}

// grow makes the current instance at least n blocks long. The new spine shares the blocks of the
// retired one, so installed values survive. The retired spine is dropped only once no reader
// publishes its index anymore.
func (r *Registry[T]) grow(n int64) {
	r.lock.Lock()
	defer r.lock.Unlock()

	idx := r.current.Load()
	retired := r.instances[idx]
	if n <= int64(len(retired)) {
		// Another writer grew the table in the meantime.
		return
	}

	next := idx ^ 1
	r.instances[next] = retired.Grow(n, &r.acct)
	r.current.Store(next)

	r.readers.WaitIdle(idx, r.yield)

	r.acct.Free(mem.PurposeSpine, retired.Sizeof())
	r.instances[idx] = nil
}
