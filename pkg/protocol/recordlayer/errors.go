// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package recordlayer implements the TLS Record Layer https://tools.ietf.org/html/rfc5246#section-6
package recordlayer

import (
	"errors"

	"github.com/yinpeng/tlsclient/pkg/protocol"
)

var (
	//nolint:err113
	errBufferTooSmall = &protocol.TemporaryError{Err: errors.New("buffer is too small")}
	//nolint:err113
	errInvalidPacketLength = &protocol.TemporaryError{Err: errors.New("packet length and declared length do not match")}
	//nolint:err113
	errUnsupportedProtocolVersion = &protocol.FatalError{Err: errors.New("unsupported protocol version")}
	//nolint:err113
	errInvalidContentType = &protocol.FatalError{Err: errors.New("invalid content type")}
	//nolint:err113
	errRecordOverflow = &protocol.FatalError{Err: errors.New("record exceeds maximum length")}
)
