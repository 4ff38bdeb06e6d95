// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package ciphersuite provides the record protection primitives for TLS 1.2 cipher suites.
package ciphersuite

import (
	"encoding/binary"
	"errors"

	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

const additionalDataLength = 13

var (
	//nolint:err113
	errDecryptPacket = &protocol.FatalError{Err: errors.New("failed to decrypt packet")}
	//nolint:err113
	errPlaintextTooLong = &protocol.InternalError{Err: errors.New("plaintext exceeds maximum record size")}
	//nolint:err113
	errInvalidKeyLength = &protocol.InternalError{Err: errors.New("invalid key or iv length")}
)

// Cipher protects the records of a single direction of a connection.
// The caller owns the sequence number and must present each value once.
type Cipher interface {
	// Seal returns the protected fragment for plaintext. Only ContentType and
	// Version of header are used.
	Seal(seq uint64, header recordlayer.Header, plaintext []byte) ([]byte, error)
	// Open authenticates and decrypts a protected fragment. Every failure
	// returns the same error.
	Open(seq uint64, header recordlayer.Header, fragment []byte) ([]byte, error)
}

// IsDecryptError reports whether err was returned by a failed Open.
func IsDecryptError(err error) bool {
	return errors.Is(err, errDecryptPacket)
}

// generateAEADAdditionalData returns seq_num || type || version || length.
func generateAEADAdditionalData(seq uint64, h recordlayer.Header, payloadLen int) []byte {
	var additionalData [additionalDataLength]byte

	binary.BigEndian.PutUint64(additionalData[:], seq)
	additionalData[8] = byte(h.ContentType)
	additionalData[9] = h.Version.Major
	additionalData[10] = h.Version.Minor
	//nolint:gosec //G115
	binary.BigEndian.PutUint16(additionalData[len(additionalData)-2:], uint16(payloadLen))

	return additionalData[:]
}

// examinePadding returns, in constant time, the length of the padding to remove
// from the end of payload. It also returns a byte which is equal to 255 if the
// padding was valid and 0 otherwise. See RFC 2246, Section 6.2.3.2.
//
// https://github.com/golang/go/blob/039c2081d1178f90a8fa2f4e6958693129f8de33/src/crypto/tls/conn.go#L245
func examinePadding(payload []byte) (toRemove int, good byte) {
	if len(payload) < 1 {
		return 0, 0
	}

	paddingLen := payload[len(payload)-1]
	t := uint(len(payload)-1) - uint(paddingLen) //nolint:gosec //G115
	// if len(payload) >= (paddingLen - 1) then the MSB of t is zero
	good = byte(int32(^t) >> 31) //nolint:gosec //G115

	// The maximum possible padding length plus the actual length field
	toCheck := min(
		// The length of the padded data is public, so we can use an if here
		256, len(payload))

	for i := 0; i < toCheck; i++ {
		t := uint(paddingLen) - uint(i) //nolint:gosec //G115
		// if i <= paddingLen then the MSB of t is zero
		mask := byte(int32(^t) >> 31) //nolint:gosec //G115
		b := payload[len(payload)-1-i]
		good &^= mask&paddingLen ^ mask&b
	}

	// We AND together the bits of good and replicate the result across
	// all the bits.
	good &= good << 4
	good &= good << 2
	good &= good << 1
	good = uint8(int8(good) >> 7) //nolint:gosec //G115

	toRemove = int(paddingLen) + 1

	return toRemove, good
}
