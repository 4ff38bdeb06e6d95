// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package prf implements TLS 1.2 Pseudorandom functions
package prf

import ( //nolint:gci
	"crypto/hmac"
	"errors"
	"fmt"
	"hash"

	"github.com/yinpeng/tlsclient/internal/memzero"
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
)

const (
	masterSecretLabel     = "master secret"
	keyExpansionLabel     = "key expansion"
	verifyDataClientLabel = "client finished"
	verifyDataServerLabel = "server finished"
	masterSecretLength    = 48
	verifyDataLength      = 12
)

// PreMasterSecretLength is the size of an RSA key exchange pre-master secret.
const PreMasterSecretLength = 48

var (
	errInvalidLength       = errors.New("requested PRF output length must be positive") //nolint:err113
	errInvalidMasterSecret = errors.New("invalid master secret length")                 //nolint:err113
)

// HashFunc allows callers to decide what hash is used in PRF.
type HashFunc func() hash.Hash

// EncryptionKeys is all the state needed for a TLS CipherSuite.
type EncryptionKeys struct {
	MasterSecret   []byte
	ClientMACKey   []byte
	ServerMACKey   []byte
	ClientWriteKey []byte
	ServerWriteKey []byte
	ClientWriteIV  []byte
	ServerWriteIV  []byte

	keyMaterial []byte
}

// Zero wipes the derived key block. The master secret is owned by the caller.
func (e *EncryptionKeys) Zero() {
	memzero.Zero(e.keyMaterial)
}

// PreMasterSecret implements TLS 1.2 Premaster Secret generation given a keypair and a curve.
func PreMasterSecret(publicKey, privateKey []byte, curve elliptic.Curve) ([]byte, error) {
	return elliptic.SharedSecret(curve, privateKey, publicKey)
}

// PHash is PRF is the SHA-256 hash function is used for all cipher suites
// defined in this TLS 1.2 document and in TLS documents published prior to this
// document when TLS 1.2 is negotiated.  New cipher suites MUST explicitly
// specify a PRF and, in general, SHOULD use the TLS PRF with SHA-256 or a
// stronger standard hash function.
//
//	P_hash(secret, seed) = HMAC_hash(secret, A(1) + seed) +
//	                       HMAC_hash(secret, A(2) + seed) +
//	                       HMAC_hash(secret, A(3) + seed) + ...
//
// A() is defined as:
//
//	A(0) = seed
//	A(i) = HMAC_hash(secret, A(i-1))
//
// P_hash can be iterated as many times as necessary to produce the
// required quantity of data.
//
// https://tools.ietf.org/html/rfc5246#section-5
func PHash(secret, seed []byte, requestedLength int, h HashFunc) ([]byte, error) {
	if requestedLength <= 0 {
		return nil, errInvalidLength
	}

	mac := hmac.New(h, secret)
	out := make([]byte, 0, requestedLength+mac.Size())

	lastRound := seed
	for len(out) < requestedLength {
		mac.Reset()
		if _, err := mac.Write(lastRound); err != nil {
			return nil, err
		}
		lastRound = mac.Sum(nil)

		mac.Reset()
		if _, err := mac.Write(lastRound); err != nil {
			return nil, err
		}
		if _, err := mac.Write(seed); err != nil {
			return nil, err
		}
		out = mac.Sum(out)
	}
	memzero.Zero(out[requestedLength:])

	return out[:requestedLength], nil
}

// PRF is the TLS 1.2 PRF(secret, label, seed).
func PRF(secret []byte, label string, seed []byte, requestedLength int, h HashFunc) ([]byte, error) {
	labelAndSeed := make([]byte, 0, len(label)+len(seed))
	labelAndSeed = append(labelAndSeed, label...)
	labelAndSeed = append(labelAndSeed, seed...)

	return PHash(secret, labelAndSeed, requestedLength, h)
}

// MasterSecret generates a TLS 1.2 MasterSecret.
func MasterSecret(preMasterSecret, clientRandom, serverRandom []byte, h HashFunc) ([]byte, error) {
	seed := make([]byte, 0, len(clientRandom)+len(serverRandom))
	seed = append(seed, clientRandom...)
	seed = append(seed, serverRandom...)

	return PRF(preMasterSecret, masterSecretLabel, seed, masterSecretLength, h)
}

// GenerateEncryptionKeys is the final step TLS 1.2 PRF. Given all state generated so far generates
// the final keys need for encryption.
//
//	client_write_MAC_key[SecurityParameters.mac_key_length]
//	server_write_MAC_key[SecurityParameters.mac_key_length]
//	client_write_key[SecurityParameters.enc_key_length]
//	server_write_key[SecurityParameters.enc_key_length]
//	client_write_IV[SecurityParameters.fixed_iv_length]
//	server_write_IV[SecurityParameters.fixed_iv_length]
//
// https://tools.ietf.org/html/rfc5246#section-6.3
func GenerateEncryptionKeys(
	masterSecret, clientRandom, serverRandom []byte,
	macLen, keyLen, ivLen int,
	h HashFunc,
) (*EncryptionKeys, error) {
	seed := make([]byte, 0, len(clientRandom)+len(serverRandom))
	seed = append(seed, serverRandom...)
	seed = append(seed, clientRandom...)

	keyMaterial, err := PRF(masterSecret, keyExpansionLabel, seed, (2*macLen)+(2*keyLen)+(2*ivLen), h)
	if err != nil {
		return nil, err
	}

	keys := &EncryptionKeys{MasterSecret: masterSecret, keyMaterial: keyMaterial}
	next := func(n int) []byte {
		out := keyMaterial[:n:n]
		keyMaterial = keyMaterial[n:]

		return out
	}
	keys.ClientMACKey = next(macLen)
	keys.ServerMACKey = next(macLen)
	keys.ClientWriteKey = next(keyLen)
	keys.ServerWriteKey = next(keyLen)
	keys.ClientWriteIV = next(ivLen)
	keys.ServerWriteIV = next(ivLen)

	return keys, nil
}

func verifyData(masterSecret, transcriptHash []byte, label string, h HashFunc) ([]byte, error) {
	if len(masterSecret) != masterSecretLength {
		return nil, fmt.Errorf("%w: %d", errInvalidMasterSecret, len(masterSecret))
	}

	return PRF(masterSecret, label, transcriptHash, verifyDataLength, h)
}

// VerifyDataClient is caled on the Client Side to either verify or generate the VerifyData message.
func VerifyDataClient(masterSecret, transcriptHash []byte, h HashFunc) ([]byte, error) {
	return verifyData(masterSecret, transcriptHash, verifyDataClientLabel, h)
}

// VerifyDataServer is caled on the Server Side to either verify or generate the VerifyData message.
func VerifyDataServer(masterSecret, transcriptHash []byte, h HashFunc) ([]byte, error) {
	return verifyData(masterSecret, transcriptHash, verifyDataServerLabel, h)
}
