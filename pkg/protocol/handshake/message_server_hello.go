// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/extension"
	"golang.org/x/crypto/cryptobyte"
)

// MessageServerHello is sent in response to a ClientHello
// message when it was able to find an acceptable set of algorithms.
// If it cannot find such a match, it will respond with a handshake
// failure alert.
//
// https://tools.ietf.org/html/rfc5246#section-7.4.1.3
type MessageServerHello struct {
	Version protocol.Version
	Random  Random

	SessionID []byte

	CipherSuiteID     *uint16
	CompressionMethod *protocol.CompressionMethod
	Extensions        []extension.Extension
}

// Type returns the Handshake Type.
func (m MessageServerHello) Type() Type {
	return TypeServerHello
}

// Marshal encodes the Handshake.
func (m *MessageServerHello) Marshal() ([]byte, error) {
	if m.CipherSuiteID == nil {
		return nil, errCipherSuiteUnset
	} else if m.CompressionMethod == nil {
		return nil, errCompressionMethodUnset
	}

	var b cryptobyte.Builder
	b.AddUint8(m.Version.Major)
	b.AddUint8(m.Version.Minor)

	rand := m.Random.MarshalFixed()
	b.AddBytes(rand[:])

	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.SessionID)
	})
	b.AddUint16(*m.CipherSuiteID)
	b.AddUint8(byte(m.CompressionMethod.ID))

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
func (m *MessageServerHello) Unmarshal(data []byte) error {
	val := cryptobyte.String(data)
	var random []byte
	if !val.ReadUint8(&m.Version.Major) || !val.ReadUint8(&m.Version.Minor) ||
		!val.ReadBytes(&random, RandomLength) {
		return errBufferTooSmall
	}
	var fixed [RandomLength]byte
	copy(fixed[:], random)
	m.Random.UnmarshalFixed(fixed)

	var sessionID cryptobyte.String
	var cipherSuiteID uint16
	var compressionMethodID uint8
	if !val.ReadUint8LengthPrefixed(&sessionID) || !val.ReadUint16(&cipherSuiteID) ||
		!val.ReadUint8(&compressionMethodID) {
		return errBufferTooSmall
	}
	m.SessionID = append([]byte{}, sessionID...)
	m.CipherSuiteID = &cipherSuiteID

	compressionMethod, ok := protocol.CompressionMethods()[protocol.CompressionMethodID(compressionMethodID)]
	if !ok {
		return errInvalidCompressionMethod
	}
	m.CompressionMethod = compressionMethod

	extensions, err := extension.Unmarshal(val)
	if err != nil {
		return err
	}
	m.Extensions = extensions

	return nil
}
