package mem

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// Purpose classifies an allocation tracked by Accounting.
type Purpose uint8

// Allocation purposes.
const (
	PurposeBlock Purpose = iota
	PurposeSpine
	PurposeReaderSlot

	numPurposes
)

var purposeNames = [numPurposes]string{
	PurposeBlock:      "block",
	PurposeSpine:      "spine",
	PurposeReaderSlot: "reader slot",
}

// String returns the name of the purpose.
func (p Purpose) String() string {
	if p >= numPurposes {
		return "unknown"
	}
	return purposeNames[p]
}

// Accounting tracks the number of live bytes per allocation purpose.
type Accounting struct {
	live [numPurposes]atomic.Int64
}

// Alloc records an allocation.
func (a *Accounting) Alloc(p Purpose, size int64) {
	a.live[p].Add(size)
}

// Free records a release.
func (a *Accounting) Free(p Purpose, size int64) {
	a.live[p].Add(-size)
}

// Live returns the number of bytes currently recorded for the purpose.
func (a *Accounting) Live(p Purpose) int64 {
	return a.live[p].Load()
}

// Leaks returns an error if allocations and releases recorded for any purpose don't balance out.
func (a *Accounting) Leaks() error {
	for p := Purpose(0); p < numPurposes; p++ {
		if live := a.live[p].Load(); live != 0 {
			return errors.Errorf("accounting is not balanced, purpose: %s, live bytes: %d", p, live)
		}
	}
	return nil
}
