// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
	"golang.org/x/crypto/cryptobyte"
)

// SupportedEllipticCurves allows a Client/Server to communicate
// what curves they both support. Renamed supported_groups by RFC 8422.
//
// https://tools.ietf.org/html/rfc8422#section-5.1.1
type SupportedEllipticCurves struct {
	EllipticCurves []elliptic.Curve
}

// TypeValue returns the extension TypeValue.
func (s SupportedEllipticCurves) TypeValue() TypeValue {
	return SupportedEllipticCurvesTypeValue
}

// Marshal encodes the extension.
func (s *SupportedEllipticCurves) Marshal() ([]byte, error) {
	if len(s.EllipticCurves) == 0 {
		return nil, errInvalidEllipticCurvesFormat
	}

	var b cryptobyte.Builder
	b.AddUint16(uint16(s.TypeValue()))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
			for _, c := range s.EllipticCurves {
				b.AddUint16(uint16(c))
			}
		})
	})

	return b.Bytes()
}

// Unmarshal populates the extension from encoded data.
func (s *SupportedEllipticCurves) Unmarshal(data []byte) error {
	extData, err := readHeader(data, s.TypeValue())
	if err != nil {
		return err
	}

	var list cryptobyte.String
	if !extData.ReadUint16LengthPrefixed(&list) || !extData.Empty() || len(list)%2 != 0 {
		return errInvalidEllipticCurvesFormat
	}

	s.EllipticCurves = []elliptic.Curve{}
	for !list.Empty() {
		var curve uint16
		if !list.ReadUint16(&curve) {
			return errInvalidEllipticCurvesFormat
		}
		s.EllipticCurves = append(s.EllipticCurves, elliptic.Curve(curve))
	}

	return nil
}
