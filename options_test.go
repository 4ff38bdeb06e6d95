// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"bytes"
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
)

func TestBuildClientConfig(t *testing.T) {
	pool := x509.NewCertPool()
	var keyLog bytes.Buffer
	factory := logging.NewDefaultLoggerFactory()
	now := func() time.Time { return time.Unix(1700000000, 0) }

	cfg, err := buildClientConfig(
		WithServerName("example.com"),
		WithRootCAs(pool),
		WithInsecureSkipVerify(true),
		WithCipherSuites(TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256),
		WithEllipticCurves(elliptic.P256),
		WithSignatureSchemes(tls.ECDSAWithP256AndSHA256),
		WithMaxKeyStrength(128),
		WithLoggerFactory(factory),
		WithKeyLogWriter(&keyLog),
		WithRand(bytes.NewReader(make([]byte, 64))),
		WithTime(now),
	)
	require.NoError(t, err)

	assert.Equal(t, "example.com", cfg.ServerName)
	assert.Same(t, pool, cfg.RootCAs)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, []CipherSuiteID{TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256}, cfg.CipherSuites)
	assert.Equal(t, []elliptic.Curve{elliptic.P256}, cfg.EllipticCurves)
	assert.Equal(t, []tls.SignatureScheme{tls.ECDSAWithP256AndSHA256}, cfg.SignatureSchemes)
	assert.Equal(t, 128, cfg.MaxKeyStrength)
	assert.Equal(t, factory, cfg.LoggerFactory)
	assert.Equal(t, &keyLog, cfg.KeyLogWriter)
	assert.Equal(t, now(), cfg.Time())
}

func TestClientOptionErrors(t *testing.T) {
	for name, test := range map[string]struct {
		option  ClientOption
		wantErr error
	}{
		"EmptyCipherSuites":    {WithCipherSuites(), errEmptyCipherSuites},
		"EmptyEllipticCurves":  {WithEllipticCurves(), errEmptyEllipticCurves},
		"EmptySignatures":      {WithSignatureSchemes(), errEmptySignatureSchemes},
		"ZeroKeyStrength":      {WithMaxKeyStrength(0), errInvalidMaxKeyStrength},
		"UnalignedKeyStrength": {WithMaxKeyStrength(100), errInvalidMaxKeyStrength},
		"NilVerifier":          {WithCertificateVerifier(nil), errNilCertificateVerifier},
		"NilRand":              {WithRand(nil), errNilRand},
		"NilTime":              {WithTime(nil), errNilTime},
	} {
		test := test
		t.Run(name, func(t *testing.T) {
			_, err := buildClientConfig(test.option)
			assert.ErrorIs(t, err, test.wantErr)
		})
	}
}

func TestClientOptionDefensiveCopy(t *testing.T) {
	suites := []CipherSuiteID{TLS_RSA_WITH_AES_128_GCM_SHA256}
	cfg, err := buildClientConfig(WithCipherSuites(suites...))
	require.NoError(t, err)

	suites[0] = TLS_RSA_WITH_AES_128_CBC_SHA
	assert.Equal(t, []CipherSuiteID{TLS_RSA_WITH_AES_128_GCM_SHA256}, cfg.CipherSuites)
}

func TestWithCertificateVerifier(t *testing.T) {
	called := false
	verifier := CertificateVerifierFunc(func([]*x509.Certificate, string) (crypto.PublicKey, error) {
		called = true

		return nil, nil
	})

	cfg, err := buildClientConfig(WithCertificateVerifier(verifier))
	require.NoError(t, err)

	_, err = cfg.CertificateVerifier.VerifyServerCertificate(nil, trustRSA)
	assert.NoError(t, err)
	assert.True(t, called)
}
