// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"
	"github.com/yinpeng/tlsclient"
	"github.com/yinpeng/tlsclient/pkg/crypto/selfsign"
)

const bufSize = 8192

func newRootCommand() *cobra.Command {
	flags := &dialConfig{}
	var configFile string

	cmd := &cobra.Command{
		Use:   "tlsdial <host:port>",
		Short: "Connect to a server over TLS 1.2 and exchange one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := &dialConfig{}
			if configFile != "" {
				var err error
				if file, err = loadConfigFile(configFile); err != nil {
					return err
				}
			}
			cfg := merge(file, flags, cmd.Flags())

			return dial(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], cfg)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML file with default settings; flags take precedence")
	flags.bindFlags(cmd.Flags())

	return cmd
}

func dial(ctx context.Context, stdout, stderr io.Writer, addr string, cfg *dialConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return err
		}
		cfg.ServerName = host
	}

	opts, keyLog, err := cfg.clientOptions(stderr)
	if err != nil {
		return err
	}
	defer func() {
		_ = keyLog.Close()
	}()

	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var dialer net.Dialer
	netConn, err := dialer.DialContext(handshakeCtx, "tcp", addr)
	if err != nil {
		return err
	}

	conn, err := tlsclient.ClientWithOptions(handshakeCtx, netConn, opts...)
	if err != nil {
		_ = netConn.Close()

		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	printState(stdout, conn.ConnectionState())

	if cfg.Data == "" {
		return nil
	}
	if _, err = conn.Write([]byte(cfg.Data)); err != nil {
		return err
	}

	if err = conn.SetReadDeadline(time.Now().Add(cfg.Timeout)); err != nil {
		return err
	}
	b := make([]byte, bufSize)
	n, err := conn.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	fmt.Fprintf(stdout, "Got message: %s\n", string(b[:n]))

	return nil
}

func printState(w io.Writer, state tlsclient.State) {
	fmt.Fprintf(w, "Connected to %s using %s\n", state.ServerName, state.CipherSuite)
	for i, cert := range state.PeerCertificates {
		fmt.Fprintf(w, "  %d: %s sha256:%s\n", i, cert.Subject, selfsign.Fingerprint(cert))
	}
}
