package node

import (
	"strconv"
	"sync/atomic"
)

// Key identifies a node for its whole lifetime. Keys are never reused.
type Key string

var keyCounter atomic.Uint64

// NewKey allocates a fresh key.
func NewKey() Key {
	return Key(strconv.FormatUint(keyCounter.Add(1), 10))
}

// LastKey returns the most recently allocated key.
func LastKey() Key {
	return Key(strconv.FormatUint(keyCounter.Load(), 10))
}

// ReserveKeys raises the allocator floor so that no key at or below last is
// handed out again. Keys that are not numeric are ignored.
func ReserveKeys(last Key) {
	n, err := strconv.ParseUint(string(last), 10, 64)
	if err != nil {
		return
	}
	for {
		cur := keyCounter.Load()
		if cur >= n || keyCounter.CompareAndSwap(cur, n) {
			return
		}
	}
}
