// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
	"github.com/yinpeng/tlsclient/pkg/crypto/hash"
	"github.com/yinpeng/tlsclient/pkg/crypto/signature"
	"golang.org/x/crypto/cryptobyte"
)

// MessageServerKeyExchange supports ECDH and is sent by the server
// when the server Certificate message does not contain enough
// data to allow the client to exchange a premaster secret.
//
// https://tools.ietf.org/html/rfc4492#section-5.4
type MessageServerKeyExchange struct {
	EllipticCurveType  elliptic.CurveType
	NamedCurve         elliptic.Curve
	PublicKey          []byte
	HashAlgorithm      hash.Algorithm
	SignatureAlgorithm signature.Algorithm
	Signature          []byte
}

// Type returns the Handshake Type.
func (m MessageServerKeyExchange) Type() Type {
	return TypeServerKeyExchange
}

// Params returns the ServerECDHParams exactly as they are covered by the signature.
func (m *MessageServerKeyExchange) Params() []byte {
	var b cryptobyte.Builder
	b.AddUint8(byte(m.EllipticCurveType))
	b.AddUint16(uint16(m.NamedCurve))
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.PublicKey)
	})

	return b.BytesOrPanic()
}

// Marshal encodes the Handshake.
func (m *MessageServerKeyExchange) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddBytes(m.Params())
	b.AddUint8(byte(m.HashAlgorithm))
	b.AddUint8(byte(m.SignatureAlgorithm))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.Signature)
	})

	return b.Bytes()
}

// Unmarshal populates the message from encoded data.
// Only named curves are accepted.
func (m *MessageServerKeyExchange) Unmarshal(data []byte) error {
	val := cryptobyte.String(data)

	var curveType uint8
	if !val.ReadUint8(&curveType) {
		return errBufferTooSmall
	}
	m.EllipticCurveType = elliptic.CurveType(curveType)
	if m.EllipticCurveType != elliptic.CurveTypeNamedCurve {
		return errInvalidEllipticCurveType
	}

	var namedCurve uint16
	var publicKey cryptobyte.String
	if !val.ReadUint16(&namedCurve) || !val.ReadUint8LengthPrefixed(&publicKey) || publicKey.Empty() {
		return errBufferTooSmall
	}
	m.NamedCurve = elliptic.Curve(namedCurve)
	m.PublicKey = append([]byte{}, publicKey...)

	var hashAlgorithm, signatureAlgorithm uint8
	var sig cryptobyte.String
	if !val.ReadUint8(&hashAlgorithm) || !val.ReadUint8(&signatureAlgorithm) ||
		!val.ReadUint16LengthPrefixed(&sig) {
		return errBufferTooSmall
	}
	if !val.Empty() {
		return errLengthMismatch
	}
	m.HashAlgorithm = hash.Algorithm(hashAlgorithm)
	m.SignatureAlgorithm = signature.Algorithm(signatureAlgorithm)
	m.Signature = append([]byte{}, sig...)

	return nil
}
