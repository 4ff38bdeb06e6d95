// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"golang.org/x/crypto/cryptobyte"
)

// Unknown holds an extension this package has no codec for.
type Unknown struct {
	Type TypeValue
	Data []byte
}

// TypeValue returns the extension TypeValue.
func (u Unknown) TypeValue() TypeValue {
	return u.Type
}

// Marshal encodes the extension.
func (u *Unknown) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint16(uint16(u.Type))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(u.Data)
	})

	return b.Bytes()
}

// Unmarshal populates the extension from encoded data.
func (u *Unknown) Unmarshal(data []byte) error {
	val := cryptobyte.String(data)
	var typ uint16
	var extData cryptobyte.String
	if !val.ReadUint16(&typ) || !val.ReadUint16LengthPrefixed(&extData) {
		return errBufferTooSmall
	}
	u.Type = TypeValue(typ)
	u.Data = append([]byte{}, extData...)

	return nil
}
