// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/logging"
	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/handshake"
	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

// handshakeReader splits inbound handshake records into whole messages.
// A record may carry several messages and a message may span records.
type handshakeReader struct {
	next   recordlayer.Reader
	digest *digest
	log    logging.LeveledLogger

	// buf holds the bytes of messages not yet returned.
	buf []byte
}

// readMessage returns the next handshake message. HelloRequest is dropped
// and never reaches the transcript. Every other message is added to the
// transcript as it appeared on the wire.
func (r *handshakeReader) readMessage(ctx context.Context) (*handshake.Handshake, error) {
	for {
		raw, err := r.readRaw(ctx)
		if err != nil {
			return nil, err
		}

		msg := &handshake.Handshake{}
		if err := msg.Unmarshal(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProtocol, err) //nolint:errorlint
		}
		if msg.Header.Type == handshake.TypeHelloRequest {
			r.log.Debug("ignoring HelloRequest")

			continue
		}

		if r.digest != nil {
			_, _ = r.digest.Write(raw)
		}

		return msg, nil
	}
}

// readRaw returns the bytes of the next message, header included.
func (r *handshakeReader) readRaw(ctx context.Context) ([]byte, error) {
	for {
		if len(r.buf) >= handshake.HeaderLength {
			var header handshake.Header
			if err := header.Unmarshal(r.buf); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrProtocol, err) //nolint:errorlint
			}
			n := handshake.HeaderLength + int(header.Length)
			if len(r.buf) >= n {
				raw := r.buf[:n:n]
				r.buf = r.buf[n:]
				if len(r.buf) == 0 {
					r.buf = nil
				}

				return raw, nil
			}
		}

		record, err := r.next.ReadRecord(ctx)
		if err != nil {
			return nil, err
		}
		switch {
		case record.ContentType != protocol.ContentTypeHandshake:
			return nil, fmt.Errorf("%w: unexpected %s record during handshake", ErrProtocol, record.ContentType)
		case len(record.Payload) == 0:
			return nil, fmt.Errorf("%w: empty handshake record", ErrProtocol)
		}
		r.buf = append(r.buf, record.Payload...)
	}
}

// expectMessage reads the next message and checks its type.
func (r *handshakeReader) expectMessage(ctx context.Context, typ handshake.Type) (handshake.Message, error) {
	msg, err := r.readMessage(ctx)
	if err != nil {
		return nil, err
	}
	if msg.Header.Type != typ {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrProtocol, typ, msg.Header.Type)
	}

	return msg.Message, nil
}

var errCCSNotOnBoundary = errors.New("ChangeCipherSpec inside a handshake message") //nolint:err113

// readChangeCipherSpec waits for the peer's ChangeCipherSpec record. It must
// not interrupt a partially received handshake message.
func (r *handshakeReader) readChangeCipherSpec(ctx context.Context) error {
	if len(r.buf) != 0 {
		return fmt.Errorf("%w: %v", ErrProtocol, errCCSNotOnBoundary) //nolint:errorlint
	}

	record, err := r.next.ReadRecord(ctx)
	if err != nil {
		return err
	}
	if record.ContentType != protocol.ContentTypeChangeCipherSpec {
		return fmt.Errorf("%w: expected ChangeCipherSpec, got %s record", ErrProtocol, record.ContentType)
	}

	var ccs protocol.ChangeCipherSpec
	if err := ccs.Unmarshal(record.Payload); err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err) //nolint:errorlint
	}

	return nil
}
