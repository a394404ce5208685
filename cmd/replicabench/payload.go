package main

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// payload derives the value installed for an ID. It never returns 0, so a 0 read always means
// an empty or cleared slot.
func payload(id int64) uint64 {
	v := mix(uint64(id))
	if v == 0 {
		return 1
	}
	return v
}

// mix hashes a counter into a pseudorandom value.
func mix(i uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], i)
	return xxhash.Sum64(b[:])
}
