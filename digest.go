// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"hash"
)

// digest is the running transcript hash of a handshake. The hash function
// is only known once ServerHello arrives, so bytes are buffered until then.
type digest struct {
	pending []byte
	h       hash.Hash
}

// Write appends handshake bytes to the transcript.
func (d *digest) Write(p []byte) (int, error) {
	if d.h != nil {
		return d.h.Write(p)
	}
	d.pending = append(d.pending, p...)

	return len(p), nil
}

// setHash selects the transcript hash and replays the buffered bytes.
func (d *digest) setHash(newHash func() hash.Hash) {
	d.h = newHash()
	d.h.Write(d.pending) //nolint:errcheck
	d.pending = nil
}

// sum returns the hash of the transcript so far without consuming it.
func (d *digest) sum() ([]byte, error) {
	if d.h == nil {
		return nil, errTranscriptHashUnset
	}

	return d.h.Sum(nil), nil
}

// reset drops the transcript.
func (d *digest) reset() {
	d.pending = nil
	d.h = nil
}
