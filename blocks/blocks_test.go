package blocks

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/replica/mem"
)

func TestLocate(t *testing.T) {
	assertT := assert.New(t)

	for _, tc := range []struct {
		id   int64
		pos  int64
		slot int64
	}{
		{id: 0, pos: 0, slot: 0},
		{id: 1, pos: 0, slot: 1},
		{id: SlotsPerBlock - 1, pos: 0, slot: SlotsPerBlock - 1},
		{id: SlotsPerBlock, pos: 1, slot: 0},
		{id: SlotsPerBlock + 1, pos: 1, slot: 1},
		{id: 5000, pos: 4, slot: 904},
		{id: 10*SlotsPerBlock - 1, pos: 9, slot: SlotsPerBlock - 1},
	} {
		pos, slot := Locate(tc.id)
		assertT.Equal(tc.pos, pos, "ID: %d", tc.id)
		assertT.Equal(tc.slot, slot, "ID: %d", tc.id)
	}
}

func TestNewBlockIsZeroed(t *testing.T) {
	requireT := require.New(t)

	var acct mem.Accounting
	b := New[*int](&acct)

	for i := range b.Slots {
		requireT.Nil(b.Slots[i])
	}
	requireT.Equal(Sizeof[*int](), acct.Live(mem.PurposeBlock))
}

func TestGrowSharesBlocks(t *testing.T) {
	requireT := require.New(t)

	var acct mem.Accounting
	s := NewSpine[int64](1, &acct)
	s[0].Slots[7] = 42

	grown := s.Grow(3, &acct)

	requireT.Len(grown, 3)
	requireT.Same(s[0], grown[0])
	requireT.EqualValues(42, grown[0].Slots[7])
	requireT.NotNil(grown[1])
	requireT.NotNil(grown[2])
	requireT.NotSame(grown[1], grown[2])

	// Fresh tail blocks are zeroed.
	for i := range grown[1].Slots {
		requireT.EqualValues(0, grown[1].Slots[i])
		requireT.EqualValues(0, grown[2].Slots[i])
	}

	// The receiver is untouched.
	requireT.Len(s, 1)
	requireT.EqualValues(42, s[0].Slots[7])
}

func TestGrowAccounting(t *testing.T) {
	requireT := require.New(t)

	var acct mem.Accounting
	s := NewSpine[int64](1, &acct)

	requireT.Equal(Sizeof[int64](), acct.Live(mem.PurposeBlock))
	requireT.Equal(s.Sizeof(), acct.Live(mem.PurposeSpine))

	grown := s.Grow(4, &acct)

	requireT.Equal(4*Sizeof[int64](), acct.Live(mem.PurposeBlock))
	requireT.Equal(s.Sizeof()+grown.Sizeof(), acct.Live(mem.PurposeSpine))

	acct.Free(mem.PurposeSpine, s.Sizeof())
	acct.Free(mem.PurposeSpine, grown.Sizeof())
	acct.Free(mem.PurposeBlock, 4*Sizeof[int64]())
	requireT.NoError(acct.Leaks())
}

func TestSizeof(t *testing.T) {
	assertT := assert.New(t)

	assertT.Equal(SlotsPerBlock*int64(unsafe.Sizeof(uintptr(0))), Sizeof[*int]())
	assertT.Equal(SlotsPerBlock*8, Sizeof[int64]())

	var acct mem.Accounting
	s := NewSpine[int64](3, &acct)
	assertT.Equal(3*int64(unsafe.Sizeof(uintptr(0))), s.Sizeof())
}
