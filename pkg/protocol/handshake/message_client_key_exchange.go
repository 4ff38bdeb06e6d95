// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"golang.org/x/crypto/cryptobyte"
)

// MessageClientKeyExchange is a TLS Handshake Message
// With this message, the premaster secret is set, either by direct
// transmission of the RSA-encrypted secret or by the transmission of
// Diffie-Hellman parameters that will allow each side to agree upon
// the same premaster secret. An empty message means the key agreement
// completed implicitly.
//
// https://tools.ietf.org/html/rfc5246#section-7.4.7
type MessageClientKeyExchange struct {
	EncryptedPreMasterSecret []byte
	PublicKey                []byte
}

// Type returns the Handshake Type.
func (m MessageClientKeyExchange) Type() Type {
	return TypeClientKeyExchange
}

// Marshal encodes the Handshake.
func (m *MessageClientKeyExchange) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	switch {
	case m.PublicKey != nil && m.EncryptedPreMasterSecret != nil:
		return nil, errInvalidClientKeyExchange
	case m.PublicKey != nil:
		b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
			b.AddBytes(m.PublicKey)
		})
	case m.EncryptedPreMasterSecret != nil:
		b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
			b.AddBytes(m.EncryptedPreMasterSecret)
		})
	default:
		return []byte{}, nil
	}

	return b.Bytes()
}

// Unmarshal populates the message from encoded data.
// The encoding is inferred from the length prefix.
func (m *MessageClientKeyExchange) Unmarshal(data []byte) error {
	m.PublicKey, m.EncryptedPreMasterSecret = nil, nil
	switch {
	case len(data) == 0:
		return nil
	case len(data) >= 2 && int(binary.BigEndian.Uint16(data)) == len(data)-2:
		m.EncryptedPreMasterSecret = append([]byte{}, data[2:]...)
	case int(data[0]) == len(data)-1:
		m.PublicKey = append([]byte{}, data[1:]...)
	default:
		return errInvalidClientKeyExchange
	}

	return nil
}
