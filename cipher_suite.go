// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/yinpeng/tlsclient/pkg/crypto/ciphersuite"
	"github.com/yinpeng/tlsclient/pkg/crypto/prf"
	"github.com/yinpeng/tlsclient/pkg/crypto/signature"
)

// CipherSuiteID is an ID for our supported CipherSuites.
type CipherSuiteID uint16

// Supported Cipher Suites, in order of preference.
const (
	TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256 CipherSuiteID = 0xcca9 //nolint:revive,stylecheck
	TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256   CipherSuiteID = 0xcca8 //nolint:revive,stylecheck

	TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384   CipherSuiteID = 0xc030 //nolint:revive,stylecheck
	TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256   CipherSuiteID = 0xc02f //nolint:revive,stylecheck
	TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384 CipherSuiteID = 0xc02c //nolint:revive,stylecheck
	TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256 CipherSuiteID = 0xc02b //nolint:revive,stylecheck

	TLS_RSA_WITH_AES_256_GCM_SHA384 CipherSuiteID = 0x009d //nolint:revive,stylecheck
	TLS_RSA_WITH_AES_128_GCM_SHA256 CipherSuiteID = 0x009c //nolint:revive,stylecheck

	TLS_RSA_WITH_AES_256_CBC_SHA CipherSuiteID = 0x0035 //nolint:revive,stylecheck
	TLS_RSA_WITH_AES_128_CBC_SHA CipherSuiteID = 0x002f //nolint:revive,stylecheck
)

func (c CipherSuiteID) String() string {
	if suite := cipherSuiteForID(c); suite != nil {
		return suite.Name
	}

	return fmt.Sprintf("unknown(%v)", uint16(c))
}

// KeyExchange is the key establishment method of a CipherSuite.
type KeyExchange int

// KeyExchange enums. Only RSA and ECDHE are implemented, the rest fail
// the handshake with ErrUnsupportedFeature.
const (
	KeyExchangeRSA KeyExchange = iota + 1
	KeyExchangeECDHE
	KeyExchangeRSAPSK
	KeyExchangeDHERSA
	KeyExchangeECDHERSA
)

func (k KeyExchange) String() string {
	switch k {
	case KeyExchangeRSA:
		return "RSA"
	case KeyExchangeECDHE:
		return "ECDHE"
	case KeyExchangeRSAPSK:
		return "RSA_PSK"
	case KeyExchangeDHERSA:
		return "DHE_RSA"
	case KeyExchangeECDHERSA:
		return "ECDHE_RSA"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// BulkCipher is the record protection algorithm of a CipherSuite.
type BulkCipher int

// BulkCipher enums.
const (
	BulkCipherAESGCM BulkCipher = iota + 1
	BulkCipherChaCha20Poly1305
	BulkCipherAESCBC
)

func (b BulkCipher) String() string {
	switch b {
	case BulkCipherAESGCM:
		return "AES-GCM"
	case BulkCipherChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	case BulkCipherAESCBC:
		return "AES-CBC"
	default:
		return fmt.Sprintf("unknown(%d)", int(b))
	}
}

// CipherSuite describes the algorithms of a TLS 1.2 cipher suite.
// Values are static and never mutated.
type CipherSuite struct {
	ID          CipherSuiteID
	Name        string
	KeyExchange KeyExchange
	BulkCipher  BulkCipher

	// KeyStrength is the write key length in bits.
	KeyStrength   int
	FixedIVLength int
	IVLength      int
	TagLength     int

	// MAC is "AEAD" for AEAD suites, MACStrength is the MAC key length in bits.
	MAC         string
	MACStrength int

	// Hash keys the PRF.
	Hash      func() hash.Hash
	Signature signature.Algorithm

	// TrustName is passed to the CertificateVerifier.
	TrustName string
}

func (c *CipherSuite) String() string {
	return c.Name
}

// IsAEAD reports whether the suite uses an AEAD bulk cipher.
func (c *CipherSuite) IsAEAD() bool {
	return c.MACStrength == 0
}

func (c *CipherSuite) keyLength() int {
	return c.KeyStrength / 8
}

func (c *CipherSuite) macLength() int {
	return c.MACStrength / 8
}

func (c *CipherSuite) prfHash() prf.HashFunc {
	return c.Hash
}

// newCipher builds the record cipher for one direction.
func (c *CipherSuite) newCipher(key, iv, macKey []byte, rand io.Reader) (ciphersuite.Cipher, error) {
	switch c.BulkCipher {
	case BulkCipherAESGCM:
		return ciphersuite.NewGCM(key, iv)
	case BulkCipherChaCha20Poly1305:
		return ciphersuite.NewChaCha20Poly1305(key, iv)
	case BulkCipherAESCBC:
		return ciphersuite.NewCBC(key, macKey, sha1.New, rand)
	default:
		return nil, &invalidCipherSuiteError{c.ID}
	}
}

const (
	aeadMAC     = "AEAD"
	hmacSHA1MAC = "HMAC-SHA1"

	trustECDHEECDSA = "ECDHE_ECDSA"
	trustECDHERSA   = "ECDHE_RSA"
	trustRSA        = "RSA"
)

func gcmSuite(id CipherSuiteID, name string, kx KeyExchange, sig signature.Algorithm, bits int, h func() hash.Hash, trust string) *CipherSuite {
	return &CipherSuite{
		ID: id, Name: name, KeyExchange: kx, BulkCipher: BulkCipherAESGCM,
		KeyStrength: bits, FixedIVLength: 4, IVLength: 12, TagLength: 16,
		MAC: aeadMAC, Hash: h, Signature: sig, TrustName: trust,
	}
}

func chachaSuite(id CipherSuiteID, name string, sig signature.Algorithm, trust string) *CipherSuite {
	return &CipherSuite{
		ID: id, Name: name, KeyExchange: KeyExchangeECDHE, BulkCipher: BulkCipherChaCha20Poly1305,
		KeyStrength: 256, FixedIVLength: 12, IVLength: 12, TagLength: 16,
		MAC: aeadMAC, Hash: sha256.New, Signature: sig, TrustName: trust,
	}
}

func cbcSuite(id CipherSuiteID, name string, bits int) *CipherSuite {
	return &CipherSuite{
		ID: id, Name: name, KeyExchange: KeyExchangeRSA, BulkCipher: BulkCipherAESCBC,
		KeyStrength: bits, FixedIVLength: 0, IVLength: 16, TagLength: 0,
		MAC: hmacSHA1MAC, MACStrength: 160, Hash: sha256.New, Signature: signature.RSA, TrustName: trustRSA,
	}
}

// allCipherSuites returns every suite in priority order: ECDHE-AEAD, then
// RSA-AEAD, then RSA-CBC.
func allCipherSuites() []*CipherSuite {
	return []*CipherSuite{
		chachaSuite(TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256", signature.ECDSA, trustECDHEECDSA),
		chachaSuite(TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
			"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256", signature.RSA, trustECDHERSA),
		gcmSuite(TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384, "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
			KeyExchangeECDHE, signature.RSA, 256, sha512.New384, trustECDHERSA),
		gcmSuite(TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
			KeyExchangeECDHE, signature.RSA, 128, sha256.New, trustECDHERSA),
		gcmSuite(TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384, "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
			KeyExchangeECDHE, signature.ECDSA, 256, sha512.New384, trustECDHEECDSA),
		gcmSuite(TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256, "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
			KeyExchangeECDHE, signature.ECDSA, 128, sha256.New, trustECDHEECDSA),
		gcmSuite(TLS_RSA_WITH_AES_256_GCM_SHA384, "TLS_RSA_WITH_AES_256_GCM_SHA384",
			KeyExchangeRSA, signature.RSA, 256, sha512.New384, trustRSA),
		gcmSuite(TLS_RSA_WITH_AES_128_GCM_SHA256, "TLS_RSA_WITH_AES_128_GCM_SHA256",
			KeyExchangeRSA, signature.RSA, 128, sha256.New, trustRSA),
		cbcSuite(TLS_RSA_WITH_AES_256_CBC_SHA, "TLS_RSA_WITH_AES_256_CBC_SHA", 256),
		cbcSuite(TLS_RSA_WITH_AES_128_CBC_SHA, "TLS_RSA_WITH_AES_128_CBC_SHA", 128),
	}
}

// Taken from https://www.iana.org/assignments/tls-parameters/tls-parameters.xml
// A cipherSuite is a specific combination of key agreement, cipher and MAC
// function.
func cipherSuiteForID(id CipherSuiteID) *CipherSuite {
	for _, c := range allCipherSuites() {
		if c.ID == id {
			return c
		}
	}

	return nil
}

// CipherSuiteName provides the same functionality as tls.CipherSuiteName.
func CipherSuiteName(id CipherSuiteID) string {
	if suite := cipherSuiteForID(id); suite != nil {
		return suite.Name
	}

	return fmt.Sprintf("0x%04X", uint16(id))
}

// ParseCipherSuite returns the ID of a suite given its IANA name. The
// "TLS_" prefix is optional and matching is case insensitive.
func ParseCipherSuite(name string) (CipherSuiteID, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "TLS_") {
		name = "TLS_" + name
	}
	for _, c := range allCipherSuites() {
		if c.Name == name {
			return c.ID, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errUnknownCipherSuiteName, name)
}

// DefaultMaxKeyStrength permits every suite in the catalog.
const DefaultMaxKeyStrength = 256

// Catalog is the ordered set of cipher suites available to a client,
// filtered by the maximum key strength the platform permits.
type Catalog struct {
	maxKeyStrength int
	suites         []*CipherSuite
}

// NewCatalog creates a Catalog. Suites with a key strength of 128 bits or
// less are always available.
func NewCatalog(maxKeyStrength int) *Catalog {
	return &Catalog{
		maxKeyStrength: maxKeyStrength,
		suites:         allCipherSuites(),
	}
}

// IsSupported reports whether s can be used under the catalog's key strength limit.
func (c *Catalog) IsSupported(s *CipherSuite) bool {
	return s.KeyStrength <= 128 || s.KeyStrength <= c.maxKeyStrength
}

// Suites returns the supported suites in priority order.
func (c *Catalog) Suites() []*CipherSuite {
	out := make([]*CipherSuite, 0, len(c.suites))
	for _, s := range c.suites {
		if c.IsSupported(s) {
			out = append(out, s)
		}
	}

	return out
}

// All returns every known suite, supported or not, in priority order.
func (c *Catalog) All() []*CipherSuite {
	return append([]*CipherSuite{}, c.suites...)
}

// Lookup returns the supported suite with the given ID.
func (c *Catalog) Lookup(id CipherSuiteID) (*CipherSuite, bool) {
	for _, s := range c.suites {
		if s.ID == id {
			return s, c.IsSupported(s)
		}
	}

	return nil, false
}

// selectCipherSuites resolves the configured IDs against the catalog,
// keeping the catalog's priority order when none are configured.
func selectCipherSuites(catalog *Catalog, ids []CipherSuiteID) ([]*CipherSuite, error) {
	if len(ids) == 0 {
		suites := catalog.Suites()
		if len(suites) == 0 {
			return nil, errNoAvailableCipherSuites
		}

		return suites, nil
	}

	suites := make([]*CipherSuite, 0, len(ids))
	for _, id := range ids {
		s, ok := catalog.Lookup(id)
		if !ok {
			return nil, &invalidCipherSuiteError{id}
		}
		suites = append(suites, s)
	}

	return suites, nil
}

func cipherSuiteIDs(suites []*CipherSuite) []uint16 {
	ids := make([]uint16, 0, len(suites))
	for _, s := range suites {
		ids = append(ids, uint16(s.ID))
	}

	return ids
}
