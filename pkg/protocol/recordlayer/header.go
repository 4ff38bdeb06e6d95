// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import (
	"encoding/binary"

	"github.com/yinpeng/tlsclient/pkg/protocol"
)

// Header implements a TLS RecordLayer header.
type Header struct {
	ContentType protocol.ContentType
	Version     protocol.Version
	ContentLen  uint16
}

// RecordLayer enums.
const (
	// HeaderSize is the size of a TLS record header.
	HeaderSize = 5
	// MaxPlaintextLength is the largest fragment a record may carry before protection.
	MaxPlaintextLength = 1 << 14
	// MaxCiphertextLength bounds a protected fragment, RFC 5246 section 6.2.3.
	MaxCiphertextLength = MaxPlaintextLength + 2048
)

// Size returns the total size of the header.
func (h *Header) Size() int {
	return HeaderSize
}

// Marshal encodes a TLS RecordLayer Header to binary.
func (h *Header) Marshal() ([]byte, error) {
	out := make([]byte, HeaderSize)
	out[0] = byte(h.ContentType)
	out[1] = h.Version.Major
	out[2] = h.Version.Minor
	binary.BigEndian.PutUint16(out[3:], h.ContentLen)

	return out, nil
}

// Unmarshal populates a TLS RecordLayer Header from binary.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < HeaderSize {
		return errBufferTooSmall
	}
	h.ContentType = protocol.ContentType(data[0])
	if !h.ContentType.IsValid() {
		return errInvalidContentType
	}
	h.Version.Major = data[1]
	h.Version.Minor = data[2]
	if !protocol.IsValidRecordVersion(h.Version) {
		return errUnsupportedProtocolVersion
	}
	h.ContentLen = binary.BigEndian.Uint16(data[3:])
	if h.ContentLen > MaxCiphertextLength {
		return errRecordOverflow
	}

	return nil
}
