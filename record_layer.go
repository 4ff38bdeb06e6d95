// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/alert"
	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

/*
  The record stack of a connection, bottom to top:

  Inbound:   transport -> protectedReader -> alertReader -> handshakeReader / Conn.Read
  Outbound:  Conn.Write / handshaker -> digestingWriter -> protectedWriter -> transport

  protectedReader and protectedWriter pass records through unchanged until
  ChangeCipherSpec activates their cipher in that direction. digestingWriter
  sees outbound handshake bytes before encryption so the transcript matches
  what the server hashes after decryption.
*/

// protectedWriter encrypts outbound records once an encryptor is activated.
type protectedWriter struct {
	next      recordlayer.Writer
	encryptor *CipherEncryptor
}

func (w *protectedWriter) activate(encryptor *CipherEncryptor) {
	w.encryptor = encryptor
}

func (w *protectedWriter) WriteRecord(ctx context.Context, r *recordlayer.Record) error {
	if w.encryptor != nil {
		protected, err := w.encryptor.Encrypt(r)
		if err != nil {
			return err
		}
		r = protected
	}

	if err := w.next.WriteRecord(ctx, r); err != nil {
		return transportError(err)
	}

	return nil
}

// digestingWriter feeds the payload of outbound handshake records to the transcript.
type digestingWriter struct {
	next   recordlayer.Writer
	digest *digest
}

func (w *digestingWriter) WriteRecord(ctx context.Context, r *recordlayer.Record) error {
	if w.digest != nil && r.ContentType == protocol.ContentTypeHandshake {
		_, _ = w.digest.Write(r.Payload)
	}

	return w.next.WriteRecord(ctx, r)
}

// protectedReader decrypts inbound records once a decryptor is activated.
type protectedReader struct {
	next      recordlayer.Reader
	decryptor *CipherDecryptor
}

func (r *protectedReader) activate(decryptor *CipherDecryptor) {
	r.decryptor = decryptor
}

func (r *protectedReader) ReadRecord(ctx context.Context) (*recordlayer.Record, error) {
	record, err := r.next.ReadRecord(ctx)
	if err != nil {
		return nil, readError(err)
	}

	if r.decryptor == nil {
		return record, nil
	}

	return r.decryptor.Decrypt(record)
}

// readError separates malformed framing from a failing transport.
func readError(err error) error {
	var (
		fatalErr *protocol.FatalError
		tempErr  *protocol.TemporaryError
	)
	switch {
	case errors.Is(err, ErrTransportClosed):
		return err
	case errors.As(err, &fatalErr), errors.As(err, &tempErr):
		return fmt.Errorf("%w: %v", ErrProtocol, err) //nolint:errorlint
	}

	return transportError(err)
}

// alertReader turns inbound alert records into errors.
type alertReader struct {
	next recordlayer.Reader
}

func (r *alertReader) ReadRecord(ctx context.Context) (*recordlayer.Record, error) {
	record, err := r.next.ReadRecord(ctx)
	if err != nil {
		return nil, err
	}
	if record.ContentType != protocol.ContentTypeAlert {
		return record, nil
	}

	return nil, alertToError(record.Payload)
}

func alertToError(payload []byte) error {
	a := &alert.Alert{}
	if len(payload) != 2 {
		return fmt.Errorf("%w: malformed alert of %d bytes", ErrProtocol, len(payload))
	}
	if err := a.Unmarshal(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err) //nolint:errorlint
	}
	if a.Description == alert.CloseNotify {
		return ErrPeerClosed
	}

	return &AlertError{Level: a.Level, Description: a.Description}
}
