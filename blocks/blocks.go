package blocks

import (
	"unsafe"

	"github.com/outofforest/replica/mem"
)

const (
	// SlotsPerBlock is the number of value slots in a single block. It must stay a power of two
	// because IDs are split into spine and slot positions using shift and mask.
	SlotsPerBlock int64 = 1 << slotShift

	slotShift = 10
	slotMask  = SlotsPerBlock - 1
)

// Block is a fixed run of value slots covering SlotsPerBlock consecutive IDs.
type Block[T any] struct {
	Slots [SlotsPerBlock]T
}

// New allocates a zeroed block and records it in the accounting.
func New[T any](acct *mem.Accounting) *Block[T] {
	acct.Alloc(mem.PurposeBlock, Sizeof[T]())
	return &Block[T]{}
}

// Sizeof returns the in-memory size of a single block.
func Sizeof[T any]() int64 {
	var b Block[T]
	return int64(unsafe.Sizeof(b))
}

// Locate splits an ID into the spine position of its block and the slot inside that block.
func Locate(id int64) (int64, int64) {
	return id >> slotShift, id & slotMask
}

// Spine is an ordered sequence of block references covering IDs [0, len*SlotsPerBlock).
// It provides no synchronization on its own.
type Spine[T any] []*Block[T]

// NewSpine returns a spine of n fresh blocks.
func NewSpine[T any](n int64, acct *mem.Accounting) Spine[T] {
	return Spine[T](nil).Grow(n, acct)
}

// Grow returns a spine of length n referencing the receiver's blocks in the positions both cover
// and fresh zeroed blocks in the positions past the receiver's end. The receiver is left untouched.
func (s Spine[T]) Grow(n int64, acct *mem.Accounting) Spine[T] {
	next := make(Spine[T], n)
	acct.Alloc(mem.PurposeSpine, next.Sizeof())
	copy(next, s)
	for k := int64(len(s)); k < n; k++ {
		next[k] = New[T](acct)
	}
	return next
}

// Sizeof returns the in-memory size of the spine array itself, excluding the blocks it references.
func (s Spine[T]) Sizeof() int64 {
	var p *Block[T]
	return int64(len(s)) * int64(unsafe.Sizeof(p))
}
