// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

var (
	//nolint:err113
	errEmptyCertificateChain = errors.New("server sent an empty certificate chain")
	//nolint:err113
	errUnexpectedKeyType = errors.New("certificate key type does not match the key exchange")
	//nolint:err113
	errUnknownTrustName = errors.New("unknown key exchange trust name")
)

// CertificateVerifier decides whether a server certificate chain is trusted
// for a key exchange. exchange is the suite's trust name: "ECDHE_ECDSA",
// "ECDHE_RSA" or "RSA". It returns the public key of the leaf.
type CertificateVerifier interface {
	VerifyServerCertificate(chain []*x509.Certificate, exchange string) (crypto.PublicKey, error)
}

// CertificateVerifierFunc is an adapter to use an ordinary function as a CertificateVerifier.
type CertificateVerifierFunc func(chain []*x509.Certificate, exchange string) (crypto.PublicKey, error)

// VerifyServerCertificate calls f(chain, exchange).
func (f CertificateVerifierFunc) VerifyServerCertificate(
	chain []*x509.Certificate, exchange string,
) (crypto.PublicKey, error) {
	return f(chain, exchange)
}

// x509Verifier validates the chain against a root pool and the server name.
type x509Verifier struct {
	roots              *x509.CertPool
	serverName         string
	insecureSkipVerify bool
	now                func() time.Time
}

func (v *x509Verifier) VerifyServerCertificate(chain []*x509.Certificate, exchange string) (crypto.PublicKey, error) {
	if len(chain) == 0 {
		return nil, errEmptyCertificateChain
	}

	if !v.insecureSkipVerify {
		intermediateCAPool := x509.NewCertPool()
		for _, cert := range chain[1:] {
			intermediateCAPool.AddCert(cert)
		}
		opts := x509.VerifyOptions{
			Roots:         v.roots,
			CurrentTime:   v.now(),
			DNSName:       v.serverName,
			Intermediates: intermediateCAPool,
		}
		if _, err := chain[0].Verify(opts); err != nil {
			return nil, err
		}
	}

	if err := checkKeyType(chain[0].PublicKey, exchange); err != nil {
		return nil, err
	}

	return chain[0].PublicKey, nil
}

// checkKeyType checks the leaf key can serve the key exchange.
func checkKeyType(publicKey crypto.PublicKey, exchange string) error {
	switch exchange {
	case trustECDHEECDSA:
		switch publicKey.(type) {
		case *ecdsa.PublicKey, ed25519.PublicKey:
			return nil
		}
	case trustECDHERSA, trustRSA:
		if _, ok := publicKey.(*rsa.PublicKey); ok {
			return nil
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownTrustName, exchange)
	}

	return fmt.Errorf("%w: %T for %s", errUnexpectedKeyType, publicKey, exchange)
}
