//go:build test

package readers

import "time"

const (
	// quiesceSpinYields is the number of polls of a busy reader slot interleaved with the yield hint
	// before the wait falls back to sleeping.
	quiesceSpinYields = 2

	// quiescePollInterval is the sleep between polls of a busy reader slot once yielding is exhausted.
	quiescePollInterval = time.Microsecond
)
