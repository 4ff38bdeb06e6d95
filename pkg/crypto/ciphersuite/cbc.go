// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/subtle"
	"encoding/binary"
	"hash"
	"io"

	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

// CBC provides an API to protect TLS 1.2 records with AES-CBC and HMAC,
// MAC-then-encrypt with a random explicit IV per record.
type CBC struct {
	block  cipher.Block
	macKey []byte
	h      func() hash.Hash
	rand   io.Reader
}

// NewCBC creates a CBC Cipher. rand supplies the per record IVs. macKey is
// retained, not copied.
func NewCBC(key, macKey []byte, h func() hash.Hash, rand io.Reader) (*CBC, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(macKey) == 0 {
		return nil, errInvalidKeyLength
	}

	return &CBC{
		block:  block,
		macKey: macKey,
		h:      h,
		rand:   rand,
	}, nil
}

// mac computes the record MAC over data. extra is hashed after the digest is
// taken so the work done by Open does not depend on the padding length.
func (c *CBC) mac(seq uint64, header recordlayer.Header, data, extra []byte) []byte {
	var prefix [additionalDataLength]byte
	binary.BigEndian.PutUint64(prefix[:], seq)
	prefix[8] = byte(header.ContentType)
	prefix[9] = header.Version.Major
	prefix[10] = header.Version.Minor
	binary.BigEndian.PutUint16(prefix[11:], uint16(len(data))) //nolint:gosec //G115

	mac := hmac.New(c.h, c.macKey)
	mac.Write(prefix[:]) //nolint:errcheck
	mac.Write(data)      //nolint:errcheck
	sum := mac.Sum(nil)
	if extra != nil {
		mac.Write(extra) //nolint:errcheck
	}

	return sum
}

// Seal returns IV || E(plaintext || MAC || padding).
func (c *CBC) Seal(seq uint64, header recordlayer.Header, plaintext []byte) ([]byte, error) {
	if len(plaintext) > recordlayer.MaxPlaintextLength {
		return nil, errPlaintextTooLong
	}

	blockSize := c.block.BlockSize()
	mac := c.mac(seq, header, plaintext, nil)
	paddingLen := blockSize - (len(plaintext)+len(mac))%blockSize

	out := make([]byte, blockSize, blockSize+len(plaintext)+len(mac)+paddingLen)
	if _, err := io.ReadFull(c.rand, out); err != nil {
		return nil, err
	}
	out = append(out, plaintext...)
	out = append(out, mac...)
	for i := 0; i < paddingLen; i++ {
		out = append(out, byte(paddingLen-1))
	}

	body := out[blockSize:]
	cipher.NewCBCEncrypter(c.block, out[:blockSize]).CryptBlocks(body, body)

	return out, nil
}

// Open checks padding and MAC in constant time.
func (c *CBC) Open(seq uint64, header recordlayer.Header, fragment []byte) ([]byte, error) {
	blockSize := c.block.BlockSize()
	macSize := c.h().Size()

	if len(fragment)%blockSize != 0 || len(fragment) < blockSize+max(macSize+1, blockSize) {
		return nil, errDecryptPacket
	}

	body := append([]byte{}, fragment[blockSize:]...)
	cipher.NewCBCDecrypter(c.block, fragment[:blockSize]).CryptBlocks(body, body)

	// Padding+MAC needs to be checked in constant time
	// Otherwise we reveal information about the level of correctness
	paddingLen, paddingGood := examinePadding(body)

	n := len(body) - macSize - paddingLen
	n = subtle.ConstantTimeSelect(int(uint32(n)>>31), 0, n) //nolint:gosec //G115

	remoteMAC := body[n : n+macSize]
	localMAC := c.mac(seq, header, body[:n], body[n+macSize:])

	if subtle.ConstantTimeCompare(localMAC, remoteMAC)&int(paddingGood&1) != 1 {
		return nil, errDecryptPacket
	}

	return body[:n], nil
}
