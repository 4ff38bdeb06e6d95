// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"
)

// HeaderLength msg_type(1) + length(3).
const HeaderLength = 4

// MaxMessageLength bounds a single reassembled handshake message.
const MaxMessageLength = 1 << 16

// Header is the static first 4 bytes of each TLS handshake message
//
// https://tools.ietf.org/html/rfc5246#section-7.4
type Header struct {
	Type   Type
	Length uint32 // uint24 on the wire
}

// Marshal encodes the Header.
func (h *Header) Marshal() ([]byte, error) {
	out := make([]byte, HeaderLength)
	out[0] = byte(h.Type)
	putBigEndianUint24(out[1:], h.Length)

	return out, nil
}

// Unmarshal populates the header from encoded data.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < HeaderLength {
		return errBufferTooSmall
	}

	h.Type = Type(data[0])
	h.Length = bigEndianUint24(data[1:])
	if h.Length > MaxMessageLength {
		return errMessageTooLarge
	}

	return nil
}

func bigEndianUint24(raw []byte) uint32 {
	if len(raw) < 3 {
		return 0
	}

	rawCopy := make([]byte, 4)
	copy(rawCopy[1:], raw)

	return binary.BigEndian.Uint32(rawCopy)
}

func putBigEndianUint24(out []byte, in uint32) {
	tmp := make([]byte, 4)
	binary.BigEndian.PutUint32(tmp, in)
	copy(out, tmp[1:])
}
