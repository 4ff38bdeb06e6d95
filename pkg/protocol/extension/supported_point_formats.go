// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
	"golang.org/x/crypto/cryptobyte"
)

// SupportedPointFormats allows a Client/Server to negotiate
// the EllipticCurvePointFormats
//
// https://tools.ietf.org/html/rfc4492#section-5.1.2
type SupportedPointFormats struct {
	PointFormats []elliptic.CurvePointFormat
}

// TypeValue returns the extension TypeValue.
func (s SupportedPointFormats) TypeValue() TypeValue {
	return SupportedPointFormatsTypeValue
}

// Marshal encodes the extension.
func (s *SupportedPointFormats) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint16(uint16(s.TypeValue()))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
			for _, v := range s.PointFormats {
				b.AddUint8(byte(v))
			}
		})
	})

	return b.Bytes()
}

// Unmarshal populates the extension from encoded data.
func (s *SupportedPointFormats) Unmarshal(data []byte) error {
	extData, err := readHeader(data, s.TypeValue())
	if err != nil {
		return err
	}

	var list cryptobyte.String
	if !extData.ReadUint8LengthPrefixed(&list) || !extData.Empty() || list.Empty() {
		return errInvalidPointFormats
	}

	s.PointFormats = []elliptic.CurvePointFormat{}
	for _, v := range list {
		s.PointFormats = append(s.PointFormats, elliptic.CurvePointFormat(v))
	}

	return nil
}

// SupportsUncompressed reports whether the uncompressed point format is listed.
func (s *SupportedPointFormats) SupportsUncompressed() bool {
	for _, v := range s.PointFormats {
		if v == elliptic.CurvePointFormatUncompressed {
			return true
		}
	}

	return false
}
