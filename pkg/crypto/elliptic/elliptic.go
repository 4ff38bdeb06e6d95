// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package elliptic provides elliptic curve cryptography for TLS
package elliptic

import (
	"crypto/ecdh"
	"errors"
	"fmt"
	"io"
)

var (
	errInvalidNamedCurve = errors.New("invalid named curve")
	errInvalidPublicKey  = errors.New("invalid public key for curve")
)

// CurvePointFormat is used to represent the IANA registered curve points
//
// https://www.iana.org/assignments/tls-parameters/tls-parameters.xml#tls-parameters-9
type CurvePointFormat byte

// CurvePointFormat enums.
const (
	CurvePointFormatUncompressed CurvePointFormat = 0
)

// Keypair is a Curve with a Private/Public Keypair.
type Keypair struct {
	Curve      Curve
	PublicKey  []byte
	PrivateKey []byte
}

// CurveType is used to represent the IANA registered curve types for TLS
//
// https://www.iana.org/assignments/tls-parameters/tls-parameters.xhtml#tls-parameters-10
type CurveType byte

// CurveType enums.
const (
	CurveTypeNamedCurve CurveType = 0x03
)

// Curve is used to represent the IANA registered curves for TLS
//
// https://www.iana.org/assignments/tls-parameters/tls-parameters.xml#tls-parameters-8
type Curve uint16

// Curve enums.
const (
	P256   Curve = 0x0017
	P384   Curve = 0x0018
	X25519 Curve = 0x001d
)

func (c Curve) String() string {
	switch c {
	case P256:
		return "P-256"
	case P384:
		return "P-384"
	case X25519:
		return "X25519"
	}

	return fmt.Sprintf("%#x", uint16(c))
}

// Curves returns all curves we implement.
func Curves() map[Curve]bool {
	return map[Curve]bool{
		X25519: true,
		P256:   true,
		P384:   true,
	}
}

// DefaultCurves returns the curves offered in a ClientHello, most preferred first.
func DefaultCurves() []Curve {
	return []Curve{X25519, P256, P384}
}

// GenerateKeypair generates a keypair for the given Curve.
func GenerateKeypair(rand io.Reader, curve Curve) (*Keypair, error) {
	ec, err := curve.toECDH()
	if err != nil {
		return nil, err
	}

	sk, err := ec.GenerateKey(rand)
	if err != nil {
		return nil, err
	}

	return &Keypair{
		Curve:      curve,
		PublicKey:  sk.PublicKey().Bytes(), // NIST: SEC1 uncompressed (04||X||Y); X25519: 32 bytes
		PrivateKey: sk.Bytes(),
	}, nil
}

// SharedSecret performs ECDH between a private scalar and the peer's encoded point.
func SharedSecret(curve Curve, privateKey, peerPublicKey []byte) ([]byte, error) {
	ec, err := curve.toECDH()
	if err != nil {
		return nil, err
	}

	sk, err := ec.NewPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	pk, err := ec.NewPublicKey(peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidPublicKey, err) //nolint:errorlint
	}

	return sk.ECDH(pk)
}

// toECDH returns the crypto/ecdh curve for our enum.
func (c Curve) toECDH() (ecdh.Curve, error) {
	switch c {
	case X25519:
		return ecdh.X25519(), nil
	case P256:
		return ecdh.P256(), nil
	case P384:
		return ecdh.P384(), nil
	default:
		return nil, errInvalidNamedCurve
	}
}
