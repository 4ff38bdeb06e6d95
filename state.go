// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"crypto/x509"

	"github.com/yinpeng/tlsclient/pkg/protocol"
)

// State holds the negotiated parameters of an established connection.
// It carries no key material.
type State struct {
	Version     protocol.Version
	CipherSuite *CipherSuite

	// PeerCertificates is the chain the server sent, leaf first.
	PeerCertificates []*x509.Certificate

	// ServerName is the normalized name the certificate was checked against.
	ServerName string
	SessionID  []byte
}

// clone returns a copy the caller may keep.
func (s *State) clone() State {
	return State{
		Version:          s.Version,
		CipherSuite:      s.CipherSuite,
		PeerCertificates: append([]*x509.Certificate{}, s.PeerCertificates...),
		ServerName:       s.ServerName,
		SessionID:        append([]byte{}, s.SessionID...),
	}
}
