// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageServerHelloDone is final non-encrypted message from server
// this communicates server has sent all its handshake messages and next
// should be MessageFinished.
type MessageServerHelloDone struct{}

// Type returns the Handshake Type.
func (m MessageServerHelloDone) Type() Type {
	return TypeServerHelloDone
}

// Marshal encodes the Handshake.
func (m *MessageServerHelloDone) Marshal() ([]byte, error) {
	return []byte{}, nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageServerHelloDone) Unmarshal(data []byte) error {
	if len(data) != 0 {
		return errLengthMismatch
	}

	return nil
}

// MessageHelloRequest may be sent by the server at any time asking the
// client to renegotiate. Clients that do not renegotiate ignore it.
//
// https://tools.ietf.org/html/rfc5246#section-7.4.1.1
type MessageHelloRequest struct{}

// Type returns the Handshake Type.
func (m MessageHelloRequest) Type() Type {
	return TypeHelloRequest
}

// Marshal encodes the Handshake.
func (m *MessageHelloRequest) Marshal() ([]byte, error) {
	return []byte{}, nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageHelloRequest) Unmarshal(data []byte) error {
	if len(data) != 0 {
		return errLengthMismatch
	}

	return nil
}
