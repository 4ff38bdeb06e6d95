// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/yinpeng/tlsclient/internal/memzero"
	"github.com/yinpeng/tlsclient/pkg/crypto/ciphersuite"
	"github.com/yinpeng/tlsclient/pkg/crypto/prf"
	"github.com/yinpeng/tlsclient/pkg/crypto/signature"
	"github.com/yinpeng/tlsclient/pkg/crypto/signaturehash"
	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

var (
	//nolint:err113
	errInvalidECDSASignature = errors.New("ECDSA signature contained zero or negative values")
	//nolint:err113
	errKeySignatureMismatch = errors.New("expected and actual key signature do not match")
	//nolint:err113
	errKeySignatureVerifyUnimplemented = errors.New("unable to verify key signature, unimplemented")
	//nolint:err113
	errIncompatibleSignatureScheme = errors.New("signature scheme does not match the certificate key")
)

type ecdsaSignature struct {
	R, S *big.Int
}

// verifyKeySignature checks a ServerKeyExchange signature against the key
// from the server's certificate.
func verifyKeySignature(
	message, remoteKeySignature []byte,
	algorithm signaturehash.Algorithm,
	publicKey crypto.PublicKey,
) error {
	if !algorithm.IsCompatible(publicKey) {
		return errIncompatibleSignatureScheme
	}

	switch pubKey := publicKey.(type) {
	case ed25519.PublicKey:
		if ok := ed25519.Verify(pubKey, message, remoteKeySignature); !ok {
			return errKeySignatureMismatch
		}

		return nil
	case *ecdsa.PublicKey:
		ecdsaSig := &ecdsaSignature{}
		if _, err := asn1.Unmarshal(remoteKeySignature, ecdsaSig); err != nil {
			return err
		}
		if ecdsaSig.R.Sign() <= 0 || ecdsaSig.S.Sign() <= 0 {
			return errInvalidECDSASignature
		}
		hashed := algorithm.Hash.Digest(message)
		if !ecdsa.Verify(pubKey, hashed, ecdsaSig.R, ecdsaSig.S) {
			return errKeySignatureMismatch
		}

		return nil
	case *rsa.PublicKey:
		if algorithm.Signature != signature.RSA {
			return errIncompatibleSignatureScheme
		}
		hashed := algorithm.Hash.Digest(message)
		if rsa.VerifyPKCS1v15(pubKey, algorithm.Hash.CryptoHash(), hashed, remoteKeySignature) != nil {
			return errKeySignatureMismatch
		}

		return nil
	}

	return errKeySignatureVerifyUnimplemented
}

func loadCerts(rawCertificates [][]byte) ([]*x509.Certificate, error) {
	if len(rawCertificates) == 0 {
		return nil, errEmptyCertificateChain
	}

	certs := make([]*x509.Certificate, 0, len(rawCertificates))
	for _, rawCert := range rawCertificates {
		cert, err := x509.ParseCertificate(rawCert)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	return certs, nil
}

// CipherEncryptor protects the outbound records of a connection. It owns
// the sequence number, which starts at zero after ChangeCipherSpec.
type CipherEncryptor struct {
	cipher  ciphersuite.Cipher
	seq     uint64
	secrets [][]byte
}

// NewCipherEncryptor creates an encryptor for suite. It takes ownership of
// key, iv and macKey and zeroes them on Close.
func NewCipherEncryptor(suite *CipherSuite, key, iv, macKey []byte, rand io.Reader) (*CipherEncryptor, error) {
	c, err := suite.newCipher(key, iv, macKey, rand)
	if err != nil {
		return nil, err
	}

	return &CipherEncryptor{cipher: c, secrets: [][]byte{key, iv, macKey}}, nil
}

// Encrypt returns the protected form of r.
func (e *CipherEncryptor) Encrypt(r *recordlayer.Record) (*recordlayer.Record, error) {
	if e.cipher == nil {
		return nil, errCipherNotActive
	}
	if e.seq == math.MaxUint64 {
		return nil, errSequenceNumberOverflow
	}

	fragment, err := e.cipher.Seal(e.seq, r.Header(), r.Payload)
	if err != nil {
		return nil, err
	}
	e.seq++

	return &recordlayer.Record{ContentType: r.ContentType, Version: r.Version, Payload: fragment}, nil
}

// Close zeroes the key material. The encryptor can not be used afterwards.
func (e *CipherEncryptor) Close() {
	for _, secret := range e.secrets {
		memzero.Zero(secret)
	}
	e.secrets = nil
	e.cipher = nil
}

// CipherDecryptor removes protection from the inbound records of a connection.
type CipherDecryptor struct {
	cipher  ciphersuite.Cipher
	seq     uint64
	secrets [][]byte
}

// NewCipherDecryptor creates a decryptor for suite. It takes ownership of
// key, iv and macKey and zeroes them on Close.
func NewCipherDecryptor(suite *CipherSuite, key, iv, macKey []byte) (*CipherDecryptor, error) {
	c, err := suite.newCipher(key, iv, macKey, nil)
	if err != nil {
		return nil, err
	}

	return &CipherDecryptor{cipher: c, secrets: [][]byte{key, iv, macKey}}, nil
}

// Decrypt returns the plaintext form of r. Every authentication failure
// returns ErrRecordDecryption without further detail.
func (d *CipherDecryptor) Decrypt(r *recordlayer.Record) (*recordlayer.Record, error) {
	if d.cipher == nil {
		return nil, errCipherNotActive
	}
	if d.seq == math.MaxUint64 {
		return nil, errSequenceNumberOverflow
	}

	plaintext, err := d.cipher.Open(d.seq, r.Header(), r.Payload)
	if err != nil {
		return nil, ErrRecordDecryption
	}
	d.seq++

	if len(plaintext) > recordlayer.MaxPlaintextLength {
		return nil, fmt.Errorf("%w: record overflow", ErrProtocol)
	}

	return &recordlayer.Record{ContentType: r.ContentType, Version: r.Version, Payload: plaintext}, nil
}

// Close zeroes the key material. The decryptor can not be used afterwards.
func (d *CipherDecryptor) Close() {
	for _, secret := range d.secrets {
		memzero.Zero(secret)
	}
	d.secrets = nil
	d.cipher = nil
}

// newRecordCiphers splits the key block between the client's encryptor and
// the server's decryptor.
func newRecordCiphers(suite *CipherSuite, keys *prf.EncryptionKeys, rand io.Reader) (*CipherEncryptor, *CipherDecryptor, error) {
	encryptor, err := NewCipherEncryptor(suite, keys.ClientWriteKey, keys.ClientWriteIV, keys.ClientMACKey, rand)
	if err != nil {
		return nil, nil, err
	}
	decryptor, err := NewCipherDecryptor(suite, keys.ServerWriteKey, keys.ServerWriteIV, keys.ServerMACKey)
	if err != nil {
		encryptor.Close()

		return nil, nil, err
	}

	return encryptor, decryptor, nil
}
