// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package memzero wipes secret material from memory.
package memzero

import (
	"crypto/subtle"
	"runtime"
	"sync"
)

// Zero overwrites b with zeros in a constant-time friendly way.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
	runtime.KeepAlive(b)
}

// Arena tracks secret buffers that share one lifetime. Wipe zeroes all of
// them; the usual pattern is
//
//	var secrets memzero.Arena
//	defer secrets.Wipe()
//
// The zero value is ready to use.
type Arena struct {
	mu      sync.Mutex
	buffers [][]byte
}

// Alloc returns a zeroed buffer of length n owned by the arena.
func (a *Arena) Alloc(n int) []byte {
	return a.Track(make([]byte, n))
}

// Track hands ownership of b to the arena and returns it.
func (a *Arena) Track(b []byte) []byte {
	if len(b) == 0 {
		return b
	}
	a.mu.Lock()
	a.buffers = append(a.buffers, b)
	a.mu.Unlock()

	return b
}

// Wipe zeroes every tracked buffer. The arena can be reused afterwards.
func (a *Arena) Wipe() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, b := range a.buffers {
		Zero(b)
	}
	a.buffers = nil
}

// Len returns the number of tracked buffers.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.buffers)
}
