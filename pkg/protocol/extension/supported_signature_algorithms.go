// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"github.com/yinpeng/tlsclient/pkg/crypto/hash"
	"github.com/yinpeng/tlsclient/pkg/crypto/signature"
	"github.com/yinpeng/tlsclient/pkg/crypto/signaturehash"
	"golang.org/x/crypto/cryptobyte"
)

// SupportedSignatureAlgorithms allows a Client/Server to
// negotiate what SignatureHash Algorithms they both support
//
// https://tools.ietf.org/html/rfc5246#section-7.4.1.4.1
type SupportedSignatureAlgorithms struct {
	SignatureHashAlgorithms []signaturehash.Algorithm
}

// TypeValue returns the extension TypeValue.
func (s SupportedSignatureAlgorithms) TypeValue() TypeValue {
	return SupportedSignatureAlgorithmsTypeValue
}

// Marshal encodes the extension.
func (s *SupportedSignatureAlgorithms) Marshal() ([]byte, error) {
	if len(s.SignatureHashAlgorithms) == 0 {
		return nil, errInvalidSignatureAlgorithmsFormat
	}

	var b cryptobyte.Builder
	b.AddUint16(uint16(s.TypeValue()))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
			for _, v := range s.SignatureHashAlgorithms {
				b.AddUint16(v.Scheme())
			}
		})
	})

	return b.Bytes()
}

// Unmarshal populates the extension from encoded data.
// Schemes this package does not implement are skipped.
func (s *SupportedSignatureAlgorithms) Unmarshal(data []byte) error {
	extData, err := readHeader(data, s.TypeValue())
	if err != nil {
		return err
	}

	var list cryptobyte.String
	if !extData.ReadUint16LengthPrefixed(&list) || !extData.Empty() || len(list)%2 != 0 || list.Empty() {
		return errInvalidSignatureAlgorithmsFormat
	}

	s.SignatureHashAlgorithms = []signaturehash.Algorithm{}
	for !list.Empty() {
		var hashAlg, sigAlg uint8
		if !list.ReadUint8(&hashAlg) || !list.ReadUint8(&sigAlg) {
			return errInvalidSignatureAlgorithmsFormat
		}
		if _, ok := hash.Algorithms()[hash.Algorithm(hashAlg)]; !ok {
			continue
		}
		if _, ok := signature.Algorithms()[signature.Algorithm(sigAlg)]; !ok {
			continue
		}
		s.SignatureHashAlgorithms = append(s.SignatureHashAlgorithms, signaturehash.Algorithm{
			Hash:      hash.Algorithm(hashAlg),
			Signature: signature.Algorithm(sigAlg),
		})
	}

	return nil
}
