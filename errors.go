// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/alert"
)

// FatalError indicates that the TLS connection is no longer available.
// It is mainly caused by wrong configuration of server or client.
type FatalError = protocol.FatalError

// InternalError indicates and internal error caused by the implementation,
// and the TLS connection is no longer available.
// It is mainly caused by bugs or tried to use unimplemented features.
type InternalError = protocol.InternalError

// TemporaryError indicates that the TLS connection is still available, but the request was failed temporary.
type TemporaryError = protocol.TemporaryError

// TimeoutError indicates that the request was timed out.
type TimeoutError = protocol.TimeoutError

// HandshakeError indicates that the handshake failed.
type HandshakeError = protocol.HandshakeError

// Handshake and record failures. Every handshake failure is terminal and
// matches exactly one of these with errors.Is.
var (
	// ErrProtocol is an out of order, unexpected or malformed message.
	ErrProtocol = &FatalError{Err: errors.New("protocol violation")} //nolint:err113
	// ErrNegotiation is a server choice the client did not offer or cannot use.
	ErrNegotiation = &FatalError{Err: errors.New("negotiation failed")} //nolint:err113
	// ErrUntrustedServer is an empty or untrusted certificate chain.
	ErrUntrustedServer = &FatalError{Err: errors.New("untrusted server")} //nolint:err113
	// ErrSignatureVerification is a bad ServerKeyExchange signature.
	ErrSignatureVerification = &FatalError{Err: errors.New("signature verification failed")} //nolint:err113
	// ErrHandshakeVerificationFailed is a Finished verify_data mismatch.
	ErrHandshakeVerificationFailed = &FatalError{Err: errors.New("handshake verification failed")} //nolint:err113
	// ErrRecordDecryption is any failure to authenticate or decrypt a record.
	ErrRecordDecryption = &FatalError{Err: errors.New("record decryption failed")} //nolint:err113
	// ErrUnsupportedFeature is a feature this client deliberately lacks.
	ErrUnsupportedFeature = &FatalError{Err: errors.New("unsupported feature")} //nolint:err113
	// ErrPeerClosed is a close_notify alert from the server.
	ErrPeerClosed = &FatalError{Err: errors.New("peer closed the connection")} //nolint:err113
	// ErrTransportClosed is a closed, failed or cancelled transport.
	ErrTransportClosed = &FatalError{Err: errors.New("transport closed")} //nolint:err113

	// ErrConnClosed is returned by a Conn used after Close.
	ErrConnClosed = &FatalError{Err: errors.New("conn is closed")} //nolint:err113
)

var (
	//nolint:err113
	errNoConfigProvided = &FatalError{Err: errors.New("no config provided")}
	//nolint:err113
	errNilTransport = &FatalError{Err: errors.New("Conn can not be created with a nil transport")}
	//nolint:err113
	errNoAvailableCipherSuites = &FatalError{
		Err: errors.New("connection can not be created, no CipherSuites satisfy this Config"),
	}
	//nolint:err113
	errNoAvailableEllipticCurves = &FatalError{
		Err: errors.New("connection can not be created, no elliptic curves satisfy this Config"),
	}
	//nolint:err113
	errEmptyCipherSuites = &FatalError{Err: errors.New("cipher suites option can not be empty")}
	//nolint:err113
	errEmptyEllipticCurves = &FatalError{Err: errors.New("elliptic curves option can not be empty")}
	//nolint:err113
	errEmptySignatureSchemes = &FatalError{Err: errors.New("signature schemes option can not be empty")}
	//nolint:err113
	errInvalidMaxKeyStrength = &FatalError{Err: errors.New("max key strength must be a positive multiple of 8")}
	//nolint:err113
	errNilCertificateVerifier = &FatalError{Err: errors.New("certificate verifier can not be nil")}
	//nolint:err113
	errNilRand = &FatalError{Err: errors.New("random source can not be nil")}
	//nolint:err113
	errNilTime = &FatalError{Err: errors.New("time source can not be nil")}
	//nolint:err113
	errInvalidServerName = &FatalError{Err: errors.New("invalid server name")}
	//nolint:err113
	errMissingServerName = &FatalError{
		Err: errors.New("either ServerName or InsecureSkipVerify must be specified in the Config"),
	}
	//nolint:err113
	errUnknownCipherSuiteName = &FatalError{Err: errors.New("unknown cipher suite name")}

	//nolint:err113
	errSequenceNumberOverflow = &InternalError{Err: errors.New("sequence number overflow")}
	//nolint:err113
	errCipherNotActive = &InternalError{Err: errors.New("record cipher is not active")}
	//nolint:err113
	errTranscriptHashUnset = &InternalError{Err: errors.New("transcript hash has not been selected")}
	//nolint:err113
	errInvalidFSMTransition = &InternalError{Err: errors.New("invalid state machine transition")}

	errDeadlineExceeded = &TimeoutError{Err: fmt.Errorf("read/write timeout: %w", context.DeadlineExceeded)}
)

// invalidCipherSuiteError indicates an attempt at using an unsupported cipher suite.
type invalidCipherSuiteError struct {
	id CipherSuiteID
}

func (e *invalidCipherSuiteError) Error() string {
	return fmt.Sprintf("CipherSuite with id(%d) is not valid", e.id)
}

func (e *invalidCipherSuiteError) Is(err error) bool {
	var other *invalidCipherSuiteError
	if errors.As(err, &other) {
		return e.id == other.id
	}

	return false
}

// AlertError is a non close_notify alert received from the server.
type AlertError struct {
	Level       alert.Level
	Description alert.Description
}

func (e *AlertError) Error() string {
	return fmt.Sprintf("alert received: %s %s", e.Level, e.Description)
}

// Is matches another AlertError with the same level and description.
func (e *AlertError) Is(err error) bool {
	var other *AlertError
	if errors.As(err, &other) {
		return e.Level == other.Level && e.Description == other.Description
	}

	return false
}

// transportError wraps a failure of the underlying record transport.
func transportError(err error) error {
	if errors.Is(err, ErrTransportClosed) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrTransportClosed, err)
}
