package readers

import (
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/outofforest/replica/mem"
)

// Idle is the status of a slot whose owner is not inside a read.
const Idle int32 = -1

// Slot is a single reader registration. Its owner publishes the instance index it is about
// to read so writers can wait for it before dropping retired state.
type Slot struct {
	inUse  atomic.Bool
	status atomic.Int32
	next   *Slot
}

// SetStatus publishes the instance index the owner is reading, or Idle.
func (s *Slot) SetStatus(status int32) {
	s.status.Store(status)
}

// Status returns the published status.
func (s *Slot) Status() int32 {
	return s.status.Load()
}

// Release returns the slot to the pool. The status is cleared before the slot is unclaimed
// so a writer never waits on a slot nobody owns.
func (s *Slot) Release() {
	s.status.Store(Idle)
	s.inUse.Store(false)
}

// List is the set of reader slots. It grows when no released slot is available and never shrinks.
type List struct {
	head atomic.Pointer[Slot]
}

// Claim returns a claimed slot, reusing a released one if possible.
func (l *List) Claim(acct *mem.Accounting) *Slot {
	for s := l.head.Load(); s != nil; s = s.next {
		if !s.inUse.Load() && s.inUse.CompareAndSwap(false, true) {
			return s
		}
	}

	// The status must be Idle before the slot becomes reachable, because 0 is a valid
	// instance index.
	s := &Slot{}
	s.status.Store(Idle)
	s.inUse.Store(true)
	acct.Alloc(mem.PurposeReaderSlot, Sizeof())

	for {
		head := l.head.Load()
		s.next = head
		if l.head.CompareAndSwap(head, s) {
			return s
		}
	}
}

// WaitIdle returns once no slot publishes the given instance index. The yield hint is called
// between the first polls of a busy slot, then the wait falls back to sleeping. Slots pushed
// after the wait starts are not inspected; they cannot publish an index which is already retired.
func (l *List) WaitIdle(idx int32, yield func()) {
	for s := l.head.Load(); s != nil; s = s.next {
		for spins := 0; s.status.Load() == idx; spins++ {
			if spins < quiesceSpinYields {
				yield()
			} else {
				time.Sleep(quiescePollInterval)
			}
		}
	}
}

// Len returns the number of slots ever created.
func (l *List) Len() int {
	var n int
	for s := l.head.Load(); s != nil; s = s.next {
		n++
	}
	return n
}

// Claimed returns the number of slots currently claimed.
func (l *List) Claimed() int {
	var n int
	for s := l.head.Load(); s != nil; s = s.next {
		if s.inUse.Load() {
			n++
		}
	}
	return n
}

// Sizeof returns the in-memory size of a single slot.
func Sizeof() int64 {
	return int64(unsafe.Sizeof(Slot{}))
}
