// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"errors"

	"github.com/yinpeng/tlsclient/pkg/protocol"
)

var (
	errBufferTooSmall = &protocol.TemporaryError{
		Err: errors.New("buffer is too small"), //nolint:err113
	}
	errInvalidExtensionType = &protocol.FatalError{
		Err: errors.New("invalid extension type"), //nolint:err113
	}
	errInvalidSNIFormat = &protocol.FatalError{
		Err: errors.New("invalid server name format"), //nolint:err113
	}
	errInvalidEllipticCurvesFormat = &protocol.FatalError{
		Err: errors.New("invalid supported_groups format"), //nolint:err113
	}
	errInvalidPointFormats = &protocol.FatalError{
		Err: errors.New("invalid ec_point_formats format"), //nolint:err113
	}
	errInvalidSignatureAlgorithmsFormat = &protocol.FatalError{
		Err: errors.New("invalid signature_algorithms format"), //nolint:err113
	}
	errInvalidRenegotiationInfo = &protocol.FatalError{
		Err: errors.New("invalid renegotiation_info format"), //nolint:err113
	}
	errDuplicateExtension = &protocol.FatalError{
		Err: errors.New("duplicate extension"), //nolint:err113
	}
	errLengthMismatch = &protocol.InternalError{
		Err: errors.New("data length and declared length do not match"), //nolint:err113
	}
)
