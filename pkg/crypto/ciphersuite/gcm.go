// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

const (
	gcmTagLength           = 16
	gcmNonceLength         = 12
	gcmFixedIVLength       = 4
	gcmExplicitNonceLength = 8
)

// GCM provides an API to protect TLS 1.2 records with AES-GCM, RFC 5288.
type GCM struct {
	aead    cipher.AEAD
	fixedIV []byte
}

// NewGCM creates a GCM Cipher from a write key and the 4 byte implicit IV.
// fixedIV is retained, not copied.
func NewGCM(key, fixedIV []byte) (*GCM, error) {
	if len(fixedIV) != gcmFixedIVLength {
		return nil, errInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &GCM{aead: aead, fixedIV: fixedIV}, nil
}

func (g *GCM) nonce(explicit []byte) []byte {
	nonce := make([]byte, gcmNonceLength)
	copy(nonce, g.fixedIV)
	copy(nonce[gcmFixedIVLength:], explicit)

	return nonce
}

// Seal encrypts plaintext and prefixes the explicit nonce, which is the sequence number.
func (g *GCM) Seal(seq uint64, header recordlayer.Header, plaintext []byte) ([]byte, error) {
	if len(plaintext) > recordlayer.MaxPlaintextLength {
		return nil, errPlaintextTooLong
	}

	out := make([]byte, gcmExplicitNonceLength, gcmExplicitNonceLength+len(plaintext)+gcmTagLength)
	binary.BigEndian.PutUint64(out, seq)

	additionalData := generateAEADAdditionalData(seq, header, len(plaintext))

	return g.aead.Seal(out, g.nonce(out), plaintext, additionalData), nil
}

// Open decrypts a fragment of the form explicit_nonce || ciphertext || tag.
func (g *GCM) Open(seq uint64, header recordlayer.Header, fragment []byte) ([]byte, error) {
	if len(fragment) < gcmExplicitNonceLength+gcmTagLength {
		return nil, errDecryptPacket
	}

	nonce := g.nonce(fragment[:gcmExplicitNonceLength])
	ciphertext := fragment[gcmExplicitNonceLength:]
	additionalData := generateAEADAdditionalData(seq, header, len(ciphertext)-gcmTagLength)

	plaintext, err := g.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, errDecryptPacket
	}

	return plaintext, nil
}
