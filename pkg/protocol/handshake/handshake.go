// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshake provides the TLS 1.2 wire protocol for handshakes
package handshake

import (
	"github.com/yinpeng/tlsclient/pkg/protocol"
)

// Message is the body of a Handshake datagram.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
	Type() Type
}

// Handshake messages are used by the client and server to negotiate
// their security parameters. They are carried in records of content
// type Handshake, possibly several per record or split across records.
//
// https://tools.ietf.org/html/rfc5246#section-7.4
type Handshake struct {
	Header  Header
	Message Message
}

// ContentType returns what kind of content this message is carying.
func (h Handshake) ContentType() protocol.ContentType {
	return protocol.ContentTypeHandshake
}

// Marshal encodes a handshake into a binary message.
func (h *Handshake) Marshal() ([]byte, error) {
	if h.Message == nil {
		return nil, errHandshakeMessageUnset
	}

	msg, err := h.Message.Marshal()
	if err != nil {
		return nil, err
	}
	if len(msg) > MaxMessageLength {
		return nil, errMessageTooLarge
	}

	h.Header.Length = uint32(len(msg)) //nolint:gosec // G115, bounded above
	h.Header.Type = h.Message.Type()
	header, err := h.Header.Marshal()
	if err != nil {
		return nil, err
	}

	return append(header, msg...), nil
}

// Unmarshal decodes a single complete handshake message.
func (h *Handshake) Unmarshal(data []byte) error {
	if err := h.Header.Unmarshal(data); err != nil {
		return err
	}

	reportedLen := bigEndianUint24(data[1:])
	if uint32(len(data)-HeaderLength) != reportedLen {
		return errLengthMismatch
	}

	switch h.Header.Type {
	case TypeHelloRequest:
		h.Message = &MessageHelloRequest{}
	case TypeClientHello:
		h.Message = &MessageClientHello{}
	case TypeServerHello:
		h.Message = &MessageServerHello{}
	case TypeCertificate:
		h.Message = &MessageCertificate{}
	case TypeServerKeyExchange:
		h.Message = &MessageServerKeyExchange{}
	case TypeCertificateRequest:
		h.Message = &MessageCertificateRequest{}
	case TypeServerHelloDone:
		h.Message = &MessageServerHelloDone{}
	case TypeClientKeyExchange:
		h.Message = &MessageClientKeyExchange{}
	case TypeFinished:
		h.Message = &MessageFinished{}
	default:
		return errNotImplemented
	}

	return h.Message.Unmarshal(data[HeaderLength:])
}
