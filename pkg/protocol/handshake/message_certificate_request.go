// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/yinpeng/tlsclient/pkg/crypto/hash"
	"github.com/yinpeng/tlsclient/pkg/crypto/signature"
	"github.com/yinpeng/tlsclient/pkg/crypto/signaturehash"
	"golang.org/x/crypto/cryptobyte"
)

// ClientCertificateType is used to communicate what
// type of certificate is being transported
//
// https://www.iana.org/assignments/tls-parameters/tls-parameters.xhtml#tls-parameters-2
type ClientCertificateType byte

// ClientCertificateType enums.
const (
	ClientCertificateTypeRSASign   ClientCertificateType = 1
	ClientCertificateTypeECDSASign ClientCertificateType = 64
)

// MessageCertificateRequest is so a non-anonymous server can optionally
// request a certificate from the client, if appropriate for the selected cipher
// suite.  This message, if sent, will immediately follow the ServerKeyExchange
// message (if it is sent; otherwise, this message follows the
// server's Certificate message).
//
// https://tools.ietf.org/html/rfc5246#section-7.4.4
type MessageCertificateRequest struct {
	CertificateTypes            []ClientCertificateType
	SignatureHashAlgorithms     []signaturehash.Algorithm
	CertificateAuthoritiesNames [][]byte
}

// Type returns the Handshake Type.
func (m MessageCertificateRequest) Type() Type {
	return TypeCertificateRequest
}

// Marshal encodes the Handshake.
func (m *MessageCertificateRequest) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, v := range m.CertificateTypes {
			b.AddUint8(byte(v))
		}
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, v := range m.SignatureHashAlgorithms {
			b.AddUint16(v.Scheme())
		}
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, name := range m.CertificateAuthoritiesNames {
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(name)
			})
		}
	})

	return b.Bytes()
}

// Unmarshal populates the message from encoded data.
func (m *MessageCertificateRequest) Unmarshal(data []byte) error {
	val := cryptobyte.String(data)

	var certificateTypes, signatureHashAlgorithms, authorities cryptobyte.String
	if !val.ReadUint8LengthPrefixed(&certificateTypes) ||
		!val.ReadUint16LengthPrefixed(&signatureHashAlgorithms) ||
		!val.ReadUint16LengthPrefixed(&authorities) {
		return errBufferTooSmall
	}
	if !val.Empty() || len(signatureHashAlgorithms)%2 != 0 {
		return errLengthMismatch
	}

	m.CertificateTypes = []ClientCertificateType{}
	for _, v := range certificateTypes {
		m.CertificateTypes = append(m.CertificateTypes, ClientCertificateType(v))
	}

	m.SignatureHashAlgorithms = []signaturehash.Algorithm{}
	for !signatureHashAlgorithms.Empty() {
		var h, s uint8
		if !signatureHashAlgorithms.ReadUint8(&h) || !signatureHashAlgorithms.ReadUint8(&s) {
			return errBufferTooSmall
		}
		m.SignatureHashAlgorithms = append(m.SignatureHashAlgorithms, signaturehash.Algorithm{
			Hash:      hash.Algorithm(h),
			Signature: signature.Algorithm(s),
		})
	}

	m.CertificateAuthoritiesNames = [][]byte{}
	for !authorities.Empty() {
		var name cryptobyte.String
		if !authorities.ReadUint16LengthPrefixed(&name) {
			return errLengthMismatch
		}
		m.CertificateAuthoritiesNames = append(m.CertificateAuthoritiesNames, append([]byte{}, name...))
	}

	return nil
}
