// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import (
	"github.com/yinpeng/tlsclient/pkg/protocol"
)

// Record is a single framed TLS record.
//
// https://tools.ietf.org/html/rfc5246#section-6.2
type Record struct {
	ContentType protocol.ContentType
	Version     protocol.Version
	Payload     []byte
}

// Header returns the record header describing r.
func (r *Record) Header() Header {
	return Header{
		ContentType: r.ContentType,
		Version:     r.Version,
		ContentLen:  uint16(len(r.Payload)), //nolint:gosec // G115, bounded by Marshal
	}
}

// Marshal encodes the Record to binary.
func (r *Record) Marshal() ([]byte, error) {
	if len(r.Payload) > MaxCiphertextLength {
		return nil, errRecordOverflow
	}
	h := r.Header()
	rawHeader, err := h.Marshal()
	if err != nil {
		return nil, err
	}

	return append(rawHeader, r.Payload...), nil
}

// Unmarshal populates the Record from binary. data must hold exactly one record.
func (r *Record) Unmarshal(data []byte) error {
	var h Header
	if err := h.Unmarshal(data); err != nil {
		return err
	}
	if len(data)-HeaderSize != int(h.ContentLen) {
		return errInvalidPacketLength
	}

	r.ContentType = h.ContentType
	r.Version = h.Version
	r.Payload = append([]byte{}, data[HeaderSize:]...)

	return nil
}
