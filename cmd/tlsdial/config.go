// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package main

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pion/logging"
	"github.com/spf13/pflag"
	"github.com/yinpeng/tlsclient"
	"gopkg.in/yaml.v2"
)

const defaultTimeout = 10 * time.Second

var (
	errBlockIsNotCertificate = errors.New("block is not a certificate, unable to load certificates")
	errNoCertificateFound    = errors.New("no certificate found, unable to load certificates")
)

// dialConfig is the union of the YAML file and the command line flags.
type dialConfig struct {
	ServerName     string        `yaml:"server_name"`
	CAFile         string        `yaml:"ca"`
	Insecure       bool          `yaml:"insecure"`
	CipherSuites   []string      `yaml:"cipher_suites"`
	MaxKeyStrength int           `yaml:"max_key_strength"`
	Data           string        `yaml:"data"`
	Timeout        time.Duration `yaml:"timeout"`
	KeyLogFile     string        `yaml:"key_log_file"`
	Verbose        bool          `yaml:"verbose"`
}

func (c *dialConfig) bindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.ServerName, "server-name", "", "name to verify and send in SNI (default: host of the address)")
	flags.StringVar(&c.CAFile, "ca", "", "PEM file with trusted root certificates (default: system roots)")
	flags.BoolVar(&c.Insecure, "insecure", false, "skip certificate chain and host name verification")
	flags.StringSliceVar(&c.CipherSuites, "cipher-suites", nil, "comma separated IANA suite names, most preferred first")
	flags.IntVar(&c.MaxKeyStrength, "max-key-strength", 0, "largest permitted write key in bits")
	flags.StringVar(&c.Data, "data", "", "payload to send after the handshake")
	flags.DurationVar(&c.Timeout, "timeout", defaultTimeout, "timeout for the handshake and the reply")
	flags.StringVar(&c.KeyLogFile, "key-log-file", "", "append NSS key log lines to this file")
	flags.BoolVarP(&c.Verbose, "verbose", "v", false, "trace the handshake")
}

// loadConfigFile reads a YAML config file.
func loadConfigFile(path string) (*dialConfig, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	cfg := &dialConfig{}
	if err = yaml.UnmarshalStrict(raw, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// merge overlays the flags that were set on the command line onto file.
func merge(file, flags *dialConfig, set *pflag.FlagSet) *dialConfig {
	out := *file
	if set.Changed("server-name") {
		out.ServerName = flags.ServerName
	}
	if set.Changed("ca") {
		out.CAFile = flags.CAFile
	}
	if set.Changed("insecure") {
		out.Insecure = flags.Insecure
	}
	if set.Changed("cipher-suites") {
		out.CipherSuites = flags.CipherSuites
	}
	if set.Changed("max-key-strength") {
		out.MaxKeyStrength = flags.MaxKeyStrength
	}
	if set.Changed("data") {
		out.Data = flags.Data
	}
	if set.Changed("timeout") || out.Timeout == 0 {
		out.Timeout = flags.Timeout
	}
	if set.Changed("key-log-file") {
		out.KeyLogFile = flags.KeyLogFile
	}
	if set.Changed("verbose") {
		out.Verbose = flags.Verbose
	}

	return &out
}

// clientOptions translates the config. The returned closer releases the key
// log file, if any.
func (c *dialConfig) clientOptions(stderr io.Writer) ([]tlsclient.ClientOption, io.Closer, error) {
	opts := []tlsclient.ClientOption{
		tlsclient.WithServerName(c.ServerName),
		tlsclient.WithInsecureSkipVerify(c.Insecure),
	}

	if c.CAFile != "" {
		pool, err := loadCertPool(c.CAFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, tlsclient.WithRootCAs(pool))
	}

	if len(c.CipherSuites) > 0 {
		ids := make([]tlsclient.CipherSuiteID, 0, len(c.CipherSuites))
		for _, name := range c.CipherSuites {
			id, err := tlsclient.ParseCipherSuite(name)
			if err != nil {
				return nil, nil, err
			}
			ids = append(ids, id)
		}
		opts = append(opts, tlsclient.WithCipherSuites(ids...))
	}

	if c.MaxKeyStrength != 0 {
		opts = append(opts, tlsclient.WithMaxKeyStrength(c.MaxKeyStrength))
	}

	loggerFactory := logging.NewDefaultLoggerFactory()
	loggerFactory.Writer = stderr
	if c.Verbose {
		loggerFactory.DefaultLogLevel = logging.LogLevelTrace
	}
	opts = append(opts, tlsclient.WithLoggerFactory(loggerFactory))

	var closer io.Closer = io.NopCloser(nil)
	if c.KeyLogFile != "" {
		keyLog, err := os.OpenFile(filepath.Clean(c.KeyLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, tlsclient.WithKeyLogWriter(keyLog))
		closer = keyLog
	}

	return opts, closer, nil
}

// loadCertPool reads every CERTIFICATE block of a PEM file into a pool.
func loadCertPool(path string) (*x509.CertPool, error) {
	rawData, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	pool := x509.NewCertPool()
	found := false
	for {
		block, rest := pem.Decode(rawData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			return nil, errBlockIsNotCertificate
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		pool.AddCert(cert)
		found = true
		rawData = rest
	}

	if !found {
		return nil, errNoCertificateFound
	}

	return pool, nil
}
