// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckKeyType(t *testing.T) {
	ecdsaKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	edKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	for _, test := range []struct {
		key      crypto.PublicKey
		exchange string
		wantErr  error
	}{
		{&ecdsaKey.PublicKey, trustECDHEECDSA, nil},
		{edKey, trustECDHEECDSA, nil},
		{&rsaKey.PublicKey, trustECDHERSA, nil},
		{&rsaKey.PublicKey, trustRSA, nil},
		{&rsaKey.PublicKey, trustECDHEECDSA, errUnexpectedKeyType},
		{&ecdsaKey.PublicKey, trustECDHERSA, errUnexpectedKeyType},
		{edKey, trustRSA, errUnexpectedKeyType},
		{&rsaKey.PublicKey, "DHE_RSA", errUnknownTrustName},
	} {
		err := checkKeyType(test.key, test.exchange)
		if test.wantErr == nil {
			assert.NoError(t, err, test.exchange)
		} else {
			assert.ErrorIs(t, err, test.wantErr, test.exchange)
		}
	}
}

func TestX509Verifier(t *testing.T) {
	cert, pool := testCertificate(t)
	chain := []*x509.Certificate{cert.Leaf}

	verifier := &x509Verifier{roots: pool, serverName: "localhost", now: time.Now}
	key, err := verifier.VerifyServerCertificate(chain, trustECDHEECDSA)
	require.NoError(t, err)
	assert.Equal(t, cert.Leaf.PublicKey, key)

	_, err = verifier.VerifyServerCertificate(chain, trustECDHERSA)
	assert.ErrorIs(t, err, errUnexpectedKeyType)

	_, err = verifier.VerifyServerCertificate(nil, trustECDHEECDSA)
	assert.ErrorIs(t, err, errEmptyCertificateChain)

	wrongName := &x509Verifier{roots: pool, serverName: "example.com", now: time.Now}
	_, err = wrongName.VerifyServerCertificate(chain, trustECDHEECDSA)
	var hostErr x509.HostnameError
	assert.ErrorAs(t, err, &hostErr)

	untrusted := &x509Verifier{roots: x509.NewCertPool(), serverName: "localhost", now: time.Now}
	_, err = untrusted.VerifyServerCertificate(chain, trustECDHEECDSA)
	var authErr x509.UnknownAuthorityError
	assert.ErrorAs(t, err, &authErr)

	expired := &x509Verifier{
		roots: pool, serverName: "localhost",
		now: func() time.Time { return cert.Leaf.NotAfter.Add(time.Hour) },
	}
	_, err = expired.VerifyServerCertificate(chain, trustECDHEECDSA)
	var invalidErr x509.CertificateInvalidError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, x509.Expired, invalidErr.Reason)

	insecure := &x509Verifier{roots: x509.NewCertPool(), serverName: "example.com", insecureSkipVerify: true, now: time.Now}
	_, err = insecure.VerifyServerCertificate(chain, trustECDHEECDSA)
	assert.NoError(t, err)
	_, err = insecure.VerifyServerCertificate(chain, trustRSA)
	assert.ErrorIs(t, err, errUnexpectedKeyType)
}
