// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/extension"
	"golang.org/x/crypto/cryptobyte"
)

// MessageClientHello is for when a client first connects to a server it is
// required to send the client hello as its first message.  The client can also send a
// client hello in response to a hello request or on its own
// initiative in order to renegotiate the security parameters in an
// existing connection.
//
// https://tools.ietf.org/html/rfc5246#section-7.4.1.2
type MessageClientHello struct {
	Version protocol.Version
	Random  Random

	SessionID []byte

	CipherSuiteIDs     []uint16
	CompressionMethods []*protocol.CompressionMethod
	Extensions         []extension.Extension
}

// Type returns the Handshake Type.
func (m MessageClientHello) Type() Type {
	return TypeClientHello
}

// Marshal encodes the Handshake.
func (m *MessageClientHello) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(m.Version.Major)
	b.AddUint8(m.Version.Minor)

	rand := m.Random.MarshalFixed()
	b.AddBytes(rand[:])

	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.SessionID)
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, id := range m.CipherSuiteIDs {
			b.AddUint16(id)
		}
	})
	b.AddBytes(protocol.EncodeCompressionMethods(m.CompressionMethods))

	if len(m.Extensions) > 0 {
		extensions, err := extension.Marshal(m.Extensions)
		if err != nil {
			return nil, err
		}
		b.AddBytes(extensions)
	}

	return b.Bytes()
}

// Unmarshal populates the message from encoded data.
func (m *MessageClientHello) Unmarshal(data []byte) error {
	val := cryptobyte.String(data)
	var random []byte
	if !val.ReadUint8(&m.Version.Major) || !val.ReadUint8(&m.Version.Minor) ||
		!val.ReadBytes(&random, RandomLength) {
		return errBufferTooSmall
	}
	var fixed [RandomLength]byte
	copy(fixed[:], random)
	m.Random.UnmarshalFixed(fixed)

	var sessionID, cipherSuites cryptobyte.String
	if !val.ReadUint8LengthPrefixed(&sessionID) || !val.ReadUint16LengthPrefixed(&cipherSuites) ||
		len(cipherSuites)%2 != 0 {
		return errBufferTooSmall
	}
	m.SessionID = append([]byte{}, sessionID...)

	m.CipherSuiteIDs = []uint16{}
	for !cipherSuites.Empty() {
		var id uint16
		if !cipherSuites.ReadUint16(&id) {
			return errBufferTooSmall
		}
		m.CipherSuiteIDs = append(m.CipherSuiteIDs, id)
	}

	var compression cryptobyte.String
	if !val.ReadUint8LengthPrefixed(&compression) {
		return errBufferTooSmall
	}
	compressionMethods, err := protocol.DecodeCompressionMethods(
		append([]byte{uint8(len(compression))}, compression...), //nolint:gosec // G115
	)
	if err != nil {
		return err
	}
	m.CompressionMethods = compressionMethods

	extensions, err := extension.Unmarshal(val)
	if err != nil {
		return err
	}
	m.Extensions = extensions

	return nil
}
