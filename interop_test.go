// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yinpeng/tlsclient/pkg/crypto/selfsign"
)

func rsaTestCertificate(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert, err := selfsign.WithDNS(key, "localhost", "localhost")
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(cert.Leaf)

	return cert, pool
}

// serveStdlib runs a crypto/tls server that echoes one message.
func serveStdlib(conn net.Conn, config *tls.Config) <-chan error {
	errc := make(chan error, 1)
	go func() {
		server := tls.Server(conn, config)
		defer func() {
			_ = server.Close()
		}()

		buf := make([]byte, 1024)
		n, err := server.Read(buf)
		if err != nil {
			errc <- err

			return
		}
		if _, err = server.Write(buf[:n]); err != nil {
			errc <- err

			return
		}
		// Wait for close_notify.
		_, err = server.Read(buf)
		if err == io.EOF { //nolint:errorlint
			err = nil
		}
		errc <- err
	}()

	return errc
}

func TestStdlibInterop(t *testing.T) {
	ecdsaCert, ecdsaPool := testCertificate(t)
	rsaCert, rsaPool := rsaTestCertificate(t)

	for _, suite := range NewCatalog(DefaultMaxKeyStrength).All() {
		suite := suite
		t.Run(suite.Name, func(t *testing.T) {
			defer test.CheckRoutines(t)()
			defer test.TimeOut(20 * time.Second).Stop()

			cert, pool := rsaCert, rsaPool
			if suite.TrustName == trustECDHEECDSA {
				cert, pool = ecdsaCert, ecdsaPool
			}

			var serverKeyLog, clientKeyLog bytes.Buffer
			clientSide, serverSide := net.Pipe()
			errc := serveStdlib(serverSide, &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
				MaxVersion:   tls.VersionTLS12,
				CipherSuites: []uint16{uint16(suite.ID)},
				KeyLogWriter: &serverKeyLog,
			})

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			conn, err := ClientWithOptions(ctx, clientSide,
				WithServerName("localhost"),
				WithRootCAs(pool),
				WithCipherSuites(suite.ID),
				WithKeyLogWriter(&clientKeyLog),
			)
			require.NoError(t, err)
			assert.Equal(t, suite.ID, conn.ConnectionState().CipherSuite.ID)

			msg := bytes.Repeat([]byte("interop"), 100)
			_, err = conn.Write(msg)
			require.NoError(t, err)
			got := make([]byte, len(msg))
			_, err = io.ReadFull(conn, got)
			require.NoError(t, err)
			assert.Equal(t, msg, got)

			require.NoError(t, conn.Close())
			assert.NoError(t, <-errc)

			assert.Equal(t, serverKeyLog.String(), clientKeyLog.String())
		})
	}
}

func TestStdlibInteropLargeWrite(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(20 * time.Second).Stop()

	cert, pool := testCertificate(t)
	clientSide, serverSide := net.Pipe()

	msg := make([]byte, 3*16384+17)
	_, err := rand.Read(msg)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		server := tls.Server(serverSide, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MaxVersion:   tls.VersionTLS12,
		})
		defer func() {
			_ = server.Close()
		}()

		buf := make([]byte, len(msg))
		if _, err := io.ReadFull(server, buf); err != nil {
			errc <- err

			return
		}
		_, err := server.Write(buf)
		errc <- err
	}()

	conn, err := ClientConn(context.Background(), clientSide, &Config{ServerName: "localhost", RootCAs: pool})
	require.NoError(t, err)

	writeErr := make(chan error, 1)
	go func() {
		_, err := conn.Write(msg)
		writeErr <- err
	}()

	got := make([]byte, len(msg))
	_, err = io.ReadFull(conn, got)
	require.NoError(t, err)
	require.NoError(t, <-writeErr)
	require.NoError(t, <-errc)
	assert.Equal(t, msg, got)

	// The server closes after echoing.
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, conn.Close())
}

func TestStdlibServerCloseNotify(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(20 * time.Second).Stop()

	cert, pool := testCertificate(t)
	clientSide, serverSide := net.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		server := tls.Server(serverSide, &tls.Config{Certificates: []tls.Certificate{cert}, MaxVersion: tls.VersionTLS12})
		if err := server.Handshake(); err != nil {
			return
		}
		_ = server.Close()
	}()

	conn, err := ClientConn(context.Background(), clientSide, &Config{ServerName: "localhost", RootCAs: pool})
	require.NoError(t, err)

	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	<-done

	_ = conn.Close()
}
