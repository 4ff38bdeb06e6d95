// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"time"

	"github.com/pion/logging"
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
)

// ClientOption configures a TLS client.
type ClientOption interface {
	applyClient(*Config) error
}

// defensiveCopy copies a slice. This prevents the caller from mutating
// the config after construction. Returns empty slice if input is empty.
func defensiveCopy[T any](t ...T) []T {
	return append([]T{}, t...)
}

// buildClientConfig builds a Config for client from the provided options.
func buildClientConfig(opts ...ClientOption) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt.applyClient(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

type clientOption func(*Config) error

func (o clientOption) applyClient(c *Config) error { return o(c) }

// WithServerName sets the server name for SNI and certificate verification.
func WithServerName(name string) ClientOption {
	return clientOption(func(c *Config) error {
		c.ServerName = name

		return nil
	})
}

// WithRootCAs sets the root certificate authorities.
func WithRootCAs(pool *x509.CertPool) ClientOption {
	return clientOption(func(c *Config) error {
		c.RootCAs = pool

		return nil
	})
}

// WithInsecureSkipVerify disables certificate chain and host name verification.
func WithInsecureSkipVerify(skip bool) ClientOption {
	return clientOption(func(c *Config) error {
		c.InsecureSkipVerify = skip

		return nil
	})
}

// WithCipherSuites sets the offered cipher suites, most preferred first.
// For functional options, an explicitly empty slice is not allowed.
func WithCipherSuites(suites ...CipherSuiteID) ClientOption {
	return clientOption(func(c *Config) error {
		if len(suites) == 0 {
			return errEmptyCipherSuites
		}
		c.CipherSuites = defensiveCopy(suites...)

		return nil
	})
}

// WithEllipticCurves sets the elliptic curves.
// For functional options, an explicitly empty slice is not allowed.
func WithEllipticCurves(curves ...elliptic.Curve) ClientOption {
	return clientOption(func(c *Config) error {
		if len(curves) == 0 {
			return errEmptyEllipticCurves
		}
		c.EllipticCurves = defensiveCopy(curves...)

		return nil
	})
}

// WithSignatureSchemes sets the signature schemes.
// For functional options, an explicitly empty slice is not allowed.
func WithSignatureSchemes(schemes ...tls.SignatureScheme) ClientOption {
	return clientOption(func(c *Config) error {
		if len(schemes) == 0 {
			return errEmptySignatureSchemes
		}
		c.SignatureSchemes = defensiveCopy(schemes...)

		return nil
	})
}

// WithMaxKeyStrength limits the write key length, in bits, of offered suites.
func WithMaxKeyStrength(bits int) ClientOption {
	return clientOption(func(c *Config) error {
		if bits <= 0 || bits%8 != 0 {
			return errInvalidMaxKeyStrength
		}
		c.MaxKeyStrength = bits

		return nil
	})
}

// WithCertificateVerifier replaces the default certificate verification.
// Returns an error if the verifier is nil.
func WithCertificateVerifier(verifier CertificateVerifier) ClientOption {
	return clientOption(func(c *Config) error {
		if verifier == nil {
			return errNilCertificateVerifier
		}
		c.CertificateVerifier = verifier

		return nil
	})
}

// WithLoggerFactory sets the logger factory for creating loggers.
func WithLoggerFactory(factory logging.LoggerFactory) ClientOption {
	return clientOption(func(c *Config) error {
		c.LoggerFactory = factory

		return nil
	})
}

// WithKeyLogWriter sets the key log writer for debugging.
// Use of KeyLogWriter compromises security and should only be used for debugging.
func WithKeyLogWriter(writer io.Writer) ClientOption {
	return clientOption(func(c *Config) error {
		c.KeyLogWriter = writer

		return nil
	})
}

// WithRand sets the source of entropy.
func WithRand(rand io.Reader) ClientOption {
	return clientOption(func(c *Config) error {
		if rand == nil {
			return errNilRand
		}
		c.Rand = rand

		return nil
	})
}

// WithTime sets the clock.
func WithTime(now func() time.Time) ClientOption {
	return clientOption(func(c *Config) error {
		if now == nil {
			return errNilTime
		}
		c.Time = now

		return nil
	})
}
