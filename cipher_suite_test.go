// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherSuiteName(t *testing.T) {
	testCases := []struct {
		suite    CipherSuiteID
		expected string
	}{
		{TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256, "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256"},
		{TLS_RSA_WITH_AES_128_CBC_SHA, "TLS_RSA_WITH_AES_128_CBC_SHA"},
		{CipherSuiteID(0x0000), "0x0000"},
	}

	for _, testCase := range testCases {
		res := CipherSuiteName(testCase.suite)
		if res != testCase.expected {
			t.Fatalf("Expected: %s, got %s", testCase.expected, res)
		}
	}
}

func TestCipherSuiteInvariants(t *testing.T) {
	for _, suite := range allCipherSuites() {
		assert.Zero(t, suite.KeyStrength%8, suite.Name)
		assert.GreaterOrEqual(t, suite.IVLength, suite.FixedIVLength, suite.Name)
		assert.Equal(t, suite.IsAEAD(), suite.MAC == aeadMAC, suite.Name)
		assert.Equal(t, suite.IsAEAD(), suite.TagLength > 0, suite.Name)
		assert.NotNil(t, suite.Hash, suite.Name)
		assert.Contains(t, []string{trustECDHEECDSA, trustECDHERSA, trustRSA}, suite.TrustName, suite.Name)
		assert.Equal(t, suite.Name, suite.ID.String())
	}
}

func TestCatalogOrder(t *testing.T) {
	var ids []CipherSuiteID
	for _, s := range NewCatalog(DefaultMaxKeyStrength).Suites() {
		ids = append(ids, s.ID)
	}

	assert.Equal(t, []CipherSuiteID{
		TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		TLS_RSA_WITH_AES_256_GCM_SHA384,
		TLS_RSA_WITH_AES_128_GCM_SHA256,
		TLS_RSA_WITH_AES_256_CBC_SHA,
		TLS_RSA_WITH_AES_128_CBC_SHA,
	}, ids)
}

func TestCatalogKeyStrength(t *testing.T) {
	for _, maxKeyStrength := range []int{8, 64, 128, 192, 256} {
		catalog := NewCatalog(maxKeyStrength)
		for _, suite := range catalog.All() {
			want := suite.KeyStrength <= 128 || suite.KeyStrength <= maxKeyStrength
			assert.Equal(t, want, catalog.IsSupported(suite), "%s at %d", suite.Name, maxKeyStrength)
		}
		for _, suite := range catalog.Suites() {
			assert.True(t, catalog.IsSupported(suite))
		}
	}

	limited := NewCatalog(128)
	assert.Len(t, limited.All(), 10)
	assert.Len(t, limited.Suites(), 4)

	suite, ok := limited.Lookup(TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384)
	require.NotNil(t, suite)
	assert.False(t, ok)

	suite, ok = limited.Lookup(TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256)
	require.NotNil(t, suite)
	assert.True(t, ok)

	suite, ok = limited.Lookup(CipherSuiteID(0x1301))
	assert.Nil(t, suite)
	assert.False(t, ok)
}

func TestParseCipherSuite(t *testing.T) {
	for _, name := range []string{
		"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
		"ECDHE_RSA_WITH_AES_128_GCM_SHA256",
		" tls_ecdhe_rsa_with_aes_128_gcm_sha256 ",
	} {
		id, err := ParseCipherSuite(name)
		require.NoError(t, err, name)
		assert.Equal(t, TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, id)
	}

	_, err := ParseCipherSuite("TLS_AES_128_GCM_SHA256")
	assert.ErrorIs(t, err, errUnknownCipherSuiteName)
}

func TestSelectCipherSuites(t *testing.T) {
	catalog := NewCatalog(128)

	suites, err := selectCipherSuites(catalog, nil)
	require.NoError(t, err)
	assert.Equal(t, cipherSuiteIDs(catalog.Suites()), cipherSuiteIDs(suites))

	suites, err = selectCipherSuites(catalog, []CipherSuiteID{
		TLS_RSA_WITH_AES_128_CBC_SHA, TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x002f, 0xc02b}, cipherSuiteIDs(suites))

	_, err = selectCipherSuites(catalog, []CipherSuiteID{TLS_RSA_WITH_AES_256_CBC_SHA})
	assert.ErrorIs(t, err, &invalidCipherSuiteError{TLS_RSA_WITH_AES_256_CBC_SHA})

	_, err = selectCipherSuites(catalog, []CipherSuiteID{0x00ff})
	assert.ErrorIs(t, err, &invalidCipherSuiteError{0x00ff})
	assert.NotErrorIs(t, err, &invalidCipherSuiteError{0x00fe})
}
