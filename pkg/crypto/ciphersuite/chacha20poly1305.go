// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/cipher"

	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20Poly1305 provides an API to protect TLS 1.2 records with ChaCha20-Poly1305.
//
// Per RFC 7905, the nonce is formed by XOR-ing the write_IV with the padded
// 64-bit sequence number. No explicit nonce is carried in the record.
type ChaCha20Poly1305 struct {
	aead    cipher.AEAD
	writeIV []byte
}

// NewChaCha20Poly1305 creates a ChaCha20-Poly1305 Cipher from a 32 byte key and 12 byte IV.
// writeIV is retained, not copied.
func NewChaCha20Poly1305(key, writeIV []byte) (*ChaCha20Poly1305, error) {
	if len(writeIV) != chacha20poly1305.NonceSize {
		return nil, errInvalidKeyLength
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return &ChaCha20Poly1305{aead: aead, writeIV: writeIV}, nil
}

func (c *ChaCha20Poly1305) nonce(seq uint64) []byte {
	var nonce [chacha20poly1305.NonceSize]byte
	copy(nonce[:], c.writeIV)

	// XOR the last 8 bytes of the nonce with the sequence number
	for i := 0; i < 8; i++ {
		nonce[4+i] ^= byte(seq >> (56 - uint(i)*8)) //nolint:gosec
	}

	return nonce[:]
}

// Seal encrypts plaintext, the output is ciphertext || tag.
func (c *ChaCha20Poly1305) Seal(seq uint64, header recordlayer.Header, plaintext []byte) ([]byte, error) {
	if len(plaintext) > recordlayer.MaxPlaintextLength {
		return nil, errPlaintextTooLong
	}

	additionalData := generateAEADAdditionalData(seq, header, len(plaintext))

	return c.aead.Seal(nil, c.nonce(seq), plaintext, additionalData), nil
}

// Open decrypts a fragment of the form ciphertext || tag.
func (c *ChaCha20Poly1305) Open(seq uint64, header recordlayer.Header, fragment []byte) ([]byte, error) {
	if len(fragment) < chacha20poly1305.Overhead {
		return nil, errDecryptPacket
	}

	additionalData := generateAEADAdditionalData(seq, header, len(fragment)-chacha20poly1305.Overhead)

	plaintext, err := c.aead.Open(nil, c.nonce(seq), fragment, additionalData)
	if err != nil {
		return nil, errDecryptPacket
	}

	return plaintext, nil
}
