// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package extension implements the extension values in the ClientHello/ServerHello
package extension

import (
	"golang.org/x/crypto/cryptobyte"
)

// TypeValue is the 2 byte value for a TLS Extension as registered in the IANA
//
// https://www.iana.org/assignments/tls-extensiontype-values/tls-extensiontype-values.xhtml
type TypeValue uint16

// TypeValue constants.
const (
	ServerNameTypeValue                   TypeValue = 0
	SupportedEllipticCurvesTypeValue      TypeValue = 10
	SupportedPointFormatsTypeValue        TypeValue = 11
	SupportedSignatureAlgorithmsTypeValue TypeValue = 13
	RenegotiationInfoTypeValue            TypeValue = 65281
)

// Extension represents a single TLS extension.
type Extension interface {
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
	TypeValue() TypeValue
}

// Unmarshal many extensions at once. Extensions this package does not
// implement are returned as *Unknown.
func Unmarshal(buf []byte) ([]Extension, error) {
	if len(buf) == 0 {
		return []Extension{}, nil
	}

	in := cryptobyte.String(buf)
	var block cryptobyte.String
	if !in.ReadUint16LengthPrefixed(&block) {
		return nil, errBufferTooSmall
	}
	if !in.Empty() {
		return nil, errLengthMismatch
	}

	extensions := []Extension{}
	seen := map[TypeValue]bool{}
	for !block.Empty() {
		raw := []byte(block)
		var typ uint16
		var data cryptobyte.String
		if !block.ReadUint16(&typ) || !block.ReadUint16LengthPrefixed(&data) {
			return nil, errBufferTooSmall
		}
		raw = raw[:4+len(data)]

		if seen[TypeValue(typ)] {
			return nil, errDuplicateExtension
		}
		seen[TypeValue(typ)] = true

		var ext Extension
		switch TypeValue(typ) {
		case ServerNameTypeValue:
			ext = &ServerName{}
		case SupportedEllipticCurvesTypeValue:
			ext = &SupportedEllipticCurves{}
		case SupportedPointFormatsTypeValue:
			ext = &SupportedPointFormats{}
		case SupportedSignatureAlgorithmsTypeValue:
			ext = &SupportedSignatureAlgorithms{}
		case RenegotiationInfoTypeValue:
			ext = &RenegotiationInfo{}
		default:
			ext = &Unknown{}
		}
		if err := ext.Unmarshal(raw); err != nil {
			return nil, err
		}
		extensions = append(extensions, ext)
	}

	return extensions, nil
}

// Marshal many extensions at once.
func Marshal(e []Extension) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, ext := range e {
			raw, err := ext.Marshal()
			if err != nil {
				b.SetError(err)

				return
			}
			b.AddBytes(raw)
		}
	})

	return b.Bytes()
}

// readHeader consumes the type and length prefix of a single extension.
func readHeader(data []byte, want TypeValue) (cryptobyte.String, error) {
	val := cryptobyte.String(data)
	var typ uint16
	if !val.ReadUint16(&typ) {
		return nil, errBufferTooSmall
	}
	if TypeValue(typ) != want {
		return nil, errInvalidExtensionType
	}
	var extData cryptobyte.String
	if !val.ReadUint16LengthPrefixed(&extData) {
		return nil, errBufferTooSmall
	}
	if !val.Empty() {
		return nil, errLengthMismatch
	}

	return extData, nil
}
