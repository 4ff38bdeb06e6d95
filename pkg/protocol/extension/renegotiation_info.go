// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"golang.org/x/crypto/cryptobyte"
)

// RenegotiationInfo allows a Client/Server to
// communicate their renegotiation support. An initial handshake
// always carries an empty renegotiated_connection.
//
// https://tools.ietf.org/html/rfc5746
type RenegotiationInfo struct {
	RenegotiatedConnection []byte
}

// TypeValue returns the extension TypeValue.
func (r RenegotiationInfo) TypeValue() TypeValue {
	return RenegotiationInfoTypeValue
}

// Marshal encodes the extension.
func (r *RenegotiationInfo) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint16(uint16(r.TypeValue()))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
			b.AddBytes(r.RenegotiatedConnection)
		})
	})

	return b.Bytes()
}

// Unmarshal populates the extension from encoded data.
func (r *RenegotiationInfo) Unmarshal(data []byte) error {
	extData, err := readHeader(data, r.TypeValue())
	if err != nil {
		return err
	}

	var conn cryptobyte.String
	if !extData.ReadUint8LengthPrefixed(&conn) || !extData.Empty() {
		return errInvalidRenegotiationInfo
	}
	r.RenegotiatedConnection = append([]byte{}, conn...)

	return nil
}
