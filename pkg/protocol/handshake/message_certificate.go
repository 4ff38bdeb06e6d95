// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"golang.org/x/crypto/cryptobyte"
)

// MessageCertificate is a TLS Handshake Message
// it can contain either a Client or Server Certificate
//
// https://tools.ietf.org/html/rfc5246#section-7.4.2
type MessageCertificate struct {
	Certificate [][]byte
}

// Type returns the Handshake Type.
func (m MessageCertificate) Type() Type {
	return TypeCertificate
}

// Marshal encodes the Handshake.
func (m *MessageCertificate) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint24LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, cert := range m.Certificate {
			b.AddUint24LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(cert)
			})
		}
	})

	return b.Bytes()
}

// Unmarshal populates the message from encoded data.
func (m *MessageCertificate) Unmarshal(data []byte) error {
	val := cryptobyte.String(data)
	var list cryptobyte.String
	if !val.ReadUint24LengthPrefixed(&list) {
		return errBufferTooSmall
	}
	if !val.Empty() {
		return errLengthMismatch
	}

	m.Certificate = [][]byte{}
	for !list.Empty() {
		var cert cryptobyte.String
		if !list.ReadUint24LengthPrefixed(&cert) {
			return errLengthMismatch
		}
		m.Certificate = append(m.Certificate, append([]byte{}, cert...))
	}

	return nil
}
