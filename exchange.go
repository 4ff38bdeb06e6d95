// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"crypto"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"

	"github.com/yinpeng/tlsclient/internal/memzero"
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
	"github.com/yinpeng/tlsclient/pkg/crypto/prf"
	"github.com/yinpeng/tlsclient/pkg/crypto/signaturehash"
	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/handshake"
)

var (
	//nolint:err113
	errServerKeyExchangeMissing = errors.New("ServerKeyExchange is required for ECDHE")
	//nolint:err113
	errUnexpectedServerKeyExchange = errors.New("ServerKeyExchange is not allowed for RSA key exchange")
	//nolint:err113
	errNotRSAKey = errors.New("RSA key exchange requires an RSA certificate")
)

// encryptionInfo is the key establishment material of one handshake run.
// Private parts live in the run's arena and are zeroed with it.
type encryptionInfo struct {
	// serverKey is the certified key from the leaf certificate.
	serverKey crypto.PublicKey
	// serverPublicKey is the server's ephemeral ECDHE point.
	serverPublicKey  []byte
	curve            elliptic.Curve
	clientPublicKey  []byte
	clientPrivateKey []byte
	// seed is the RSA pre-master secret.
	seed []byte
}

// exchangeDetails is everything the server sent that shapes the key exchange.
type exchangeDetails struct {
	certificateRequested bool
	encryptionInfo       encryptionInfo
}

// keyAgreement computes the pre-master secret for one kind of key exchange.
type keyAgreement interface {
	// requiresServerKeyExchange reports whether the server must send ServerKeyExchange.
	requiresServerKeyExchange() bool
	// processServerKeyExchange validates and records the server's parameters.
	processServerKeyExchange(
		cfg *handshakeConfig, details *exchangeDetails, clientRandom, serverRandom []byte,
		msg *handshake.MessageServerKeyExchange,
	) error
	// generateClientKeyExchange returns the pre-master secret, tracked by
	// secrets, and the ClientKeyExchange message.
	generateClientKeyExchange(
		details *exchangeDetails, secrets *memzero.Arena, rand io.Reader,
	) ([]byte, *handshake.MessageClientKeyExchange, error)
}

func newKeyAgreement(kx KeyExchange) (keyAgreement, error) {
	switch kx {
	case KeyExchangeECDHE:
		return &ecdheKeyAgreement{}, nil
	case KeyExchangeRSA:
		return &rsaKeyAgreement{}, nil
	default:
		return nil, fmt.Errorf("%w: %s key exchange", ErrUnsupportedFeature, kx)
	}
}

type ecdheKeyAgreement struct{}

func (ecdheKeyAgreement) requiresServerKeyExchange() bool { return true }

func (ecdheKeyAgreement) processServerKeyExchange(
	cfg *handshakeConfig, details *exchangeDetails, clientRandom, serverRandom []byte,
	msg *handshake.MessageServerKeyExchange,
) error {
	offered := false
	for _, curve := range cfg.ellipticCurves {
		if curve == msg.NamedCurve {
			offered = true

			break
		}
	}
	if !offered {
		return fmt.Errorf("%w: server chose curve %s", ErrNegotiation, msg.NamedCurve)
	}

	algorithm := signaturehash.Algorithm{Hash: msg.HashAlgorithm, Signature: msg.SignatureAlgorithm}
	offered = false
	for _, ss := range cfg.signatureSchemes {
		if ss == algorithm {
			offered = true

			break
		}
	}
	if !offered {
		return fmt.Errorf("%w: server chose signature scheme %s", ErrNegotiation, algorithm)
	}

	signed := make([]byte, 0, len(clientRandom)+len(serverRandom)+4+len(msg.PublicKey))
	signed = append(signed, clientRandom...)
	signed = append(signed, serverRandom...)
	signed = append(signed, msg.Params()...)
	if err := verifyKeySignature(signed, msg.Signature, algorithm, details.encryptionInfo.serverKey); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err) //nolint:errorlint
	}

	details.encryptionInfo.curve = msg.NamedCurve
	details.encryptionInfo.serverPublicKey = append([]byte{}, msg.PublicKey...)

	return nil
}

func (ecdheKeyAgreement) generateClientKeyExchange(
	details *exchangeDetails, secrets *memzero.Arena, rand io.Reader,
) ([]byte, *handshake.MessageClientKeyExchange, error) {
	info := &details.encryptionInfo
	if info.serverPublicKey == nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProtocol, errServerKeyExchangeMissing) //nolint:errorlint
	}

	keypair, err := elliptic.GenerateKeypair(rand, info.curve)
	if err != nil {
		return nil, nil, err
	}
	info.clientPrivateKey = secrets.Track(keypair.PrivateKey)
	info.clientPublicKey = keypair.PublicKey

	preMasterSecret, err := prf.PreMasterSecret(info.serverPublicKey, info.clientPrivateKey, info.curve)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProtocol, err) //nolint:errorlint
	}
	secrets.Track(preMasterSecret)
	memzero.Zero(info.clientPrivateKey)

	// With a fixed_ecdh client certificate the agreement is implicit and
	// the public value is omitted, RFC 4492 section 5.7.
	if details.certificateRequested {
		return preMasterSecret, &handshake.MessageClientKeyExchange{}, nil
	}

	return preMasterSecret, &handshake.MessageClientKeyExchange{PublicKey: info.clientPublicKey}, nil
}

type rsaKeyAgreement struct{}

func (rsaKeyAgreement) requiresServerKeyExchange() bool { return false }

func (rsaKeyAgreement) processServerKeyExchange(
	*handshakeConfig, *exchangeDetails, []byte, []byte, *handshake.MessageServerKeyExchange,
) error {
	return fmt.Errorf("%w: %v", ErrProtocol, errUnexpectedServerKeyExchange) //nolint:errorlint
}

func (rsaKeyAgreement) generateClientKeyExchange(
	details *exchangeDetails, secrets *memzero.Arena, rand io.Reader,
) ([]byte, *handshake.MessageClientKeyExchange, error) {
	info := &details.encryptionInfo
	publicKey, ok := info.serverKey.(*rsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", ErrUntrustedServer, errNotRSAKey) //nolint:errorlint
	}

	info.seed = secrets.Alloc(prf.PreMasterSecretLength)
	if _, err := io.ReadFull(rand, info.seed); err != nil {
		return nil, nil, err
	}
	info.seed[0] = protocol.Version1_2.Major
	info.seed[1] = protocol.Version1_2.Minor

	encrypted, err := rsa.EncryptPKCS1v15(rand, publicKey, info.seed)
	if err != nil {
		return nil, nil, err
	}

	return info.seed, &handshake.MessageClientKeyExchange{EncryptedPreMasterSecret: encrypted}, nil
}
