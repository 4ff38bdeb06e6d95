// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
	"github.com/yinpeng/tlsclient/pkg/crypto/signaturehash"
	"golang.org/x/net/idna"
)

// Config is used to configure a TLS client.
// After a Config is passed to a TLS function it must not be modified.
type Config struct {
	// ServerName is used to verify the hostname on the returned certificates
	// and is sent in the server_name extension unless it is an IP address.
	ServerName string

	// RootCAs defines the set of root certificate authorities that the
	// client uses when verifying server certificates. If RootCAs is nil,
	// TLS uses the host's root CA set.
	RootCAs *x509.CertPool

	// InsecureSkipVerify controls whether a client verifies the server's
	// certificate chain and host name. The leaf key type is still checked
	// against the negotiated cipher suite.
	InsecureSkipVerify bool

	// CipherSuites is a list of supported cipher suites, in order of
	// preference. If empty every suite the Catalog supports is offered.
	CipherSuites []CipherSuiteID

	// EllipticCurves are the curves offered for ECDHE, most preferred first.
	EllipticCurves []elliptic.Curve

	// SignatureSchemes are the schemes offered in signature_algorithms.
	SignatureSchemes []tls.SignatureScheme

	// MaxKeyStrength is the largest write key, in bits, the platform
	// permits. Zero means DefaultMaxKeyStrength.
	MaxKeyStrength int

	// CertificateVerifier replaces the default x509 chain verification.
	CertificateVerifier CertificateVerifier

	LoggerFactory logging.LoggerFactory

	// KeyLogWriter optionally specifies a destination for TLS master secrets
	// in NSS key log format that can be used to allow external programs
	// such as Wireshark to decrypt TLS connections.
	// See https://developer.mozilla.org/en-US/docs/Mozilla/Projects/NSS/Key_Log_Format.
	// Use of KeyLogWriter compromises security and should only be
	// used for debugging.
	KeyLogWriter io.Writer

	// Rand is the source of entropy. Defaults to crypto/rand.Reader.
	Rand io.Reader

	// Time returns the current time, used for the hello random and
	// certificate validity. Defaults to time.Now.
	Time func() time.Time
}

type handshakeConfig struct {
	serverName       string
	sendServerName   bool
	catalog          *Catalog
	cipherSuites     []*CipherSuite
	ellipticCurves   []elliptic.Curve
	signatureSchemes []signaturehash.Algorithm
	verifier         CertificateVerifier
	keyLogWriter     io.Writer
	rand             io.Reader
	now              func() time.Time
	loggerFactory    logging.LoggerFactory
	log              logging.LeveledLogger

	mu sync.Mutex
}

func (c *handshakeConfig) writeKeyLog(label string, clientRandom, secret []byte) {
	if c.keyLogWriter == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.keyLogWriter, "%s %x %x\n", label, clientRandom, secret)
	if err != nil {
		c.log.Debugf("failed to write key log file: %s", err)
	}
}

// normalizeServerName returns the ASCII form of a host name and whether it
// may be sent in server_name. IP literals are verified but never sent.
func normalizeServerName(name string) (string, bool, error) {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return "", false, nil
	}
	if net.ParseIP(name) != nil {
		return name, false, nil
	}

	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", errInvalidServerName, err)
	}

	return ascii, true, nil
}

func validateConfig(config *Config) error {
	switch {
	case config == nil:
		return errNoConfigProvided
	case config.MaxKeyStrength < 0 || config.MaxKeyStrength%8 != 0:
		return errInvalidMaxKeyStrength
	}

	return nil
}

func newHandshakeConfig(config *Config) (*handshakeConfig, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	maxKeyStrength := config.MaxKeyStrength
	if maxKeyStrength == 0 {
		maxKeyStrength = DefaultMaxKeyStrength
	}
	catalog := NewCatalog(maxKeyStrength)

	cipherSuites, err := selectCipherSuites(catalog, config.CipherSuites)
	if err != nil {
		return nil, err
	}

	curves := config.EllipticCurves
	if len(curves) == 0 {
		curves = elliptic.DefaultCurves()
	}
	supportedCurves := elliptic.Curves()
	for _, curve := range curves {
		if !supportedCurves[curve] {
			return nil, fmt.Errorf("%w: %s", errNoAvailableEllipticCurves, curve)
		}
	}

	signatureSchemes, err := signaturehash.ParseSignatureSchemes(config.SignatureSchemes, false)
	if err != nil {
		return nil, err
	}

	serverName, sendServerName, err := normalizeServerName(config.ServerName)
	if err != nil {
		return nil, err
	}
	if serverName == "" && !config.InsecureSkipVerify && config.CertificateVerifier == nil {
		return nil, errMissingServerName
	}

	cfg := &handshakeConfig{
		serverName:       serverName,
		sendServerName:   sendServerName,
		catalog:          catalog,
		cipherSuites:     cipherSuites,
		ellipticCurves:   append([]elliptic.Curve{}, curves...),
		signatureSchemes: signatureSchemes,
		keyLogWriter:     config.KeyLogWriter,
		rand:             config.Rand,
		now:              config.Time,
		loggerFactory:    loggerFactory,
		log:              loggerFactory.NewLogger("tlsclient"),
	}
	if cfg.rand == nil {
		cfg.rand = rand.Reader
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	cfg.verifier = config.CertificateVerifier
	if cfg.verifier == nil {
		cfg.verifier = &x509Verifier{
			roots:              config.RootCAs,
			serverName:         serverName,
			insecureSkipVerify: config.InsecureSkipVerify,
			now:                cfg.now,
		}
	}

	return cfg, nil
}
