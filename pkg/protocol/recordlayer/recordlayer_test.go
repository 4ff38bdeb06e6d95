// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yinpeng/tlsclient/pkg/protocol"
)

func TestRecordUnmarshal(t *testing.T) {
	for _, test := range []struct {
		Name      string
		Data      []byte
		Want      *Record
		WantError error
	}{
		{
			Name: "Change Cipher Spec",
			Data: []byte{0x14, 0x03, 0x03, 0x00, 0x01, 0x01},
			Want: &Record{
				ContentType: protocol.ContentTypeChangeCipherSpec,
				Version:     protocol.Version1_2,
				Payload:     []byte{0x01},
			},
		},
		{
			Name:      "Short header",
			Data:      []byte{0x14, 0x03},
			WantError: errBufferTooSmall,
		},
		{
			Name:      "Declared length too long",
			Data:      []byte{0x16, 0x03, 0x03, 0x00, 0x05, 0x01},
			WantError: errInvalidPacketLength,
		},
		{
			Name:      "Invalid content type",
			Data:      []byte{0x30, 0x03, 0x03, 0x00, 0x00},
			WantError: errInvalidContentType,
		},
		{
			Name:      "DTLS version",
			Data:      []byte{0x16, 0xfe, 0xfd, 0x00, 0x00},
			WantError: errUnsupportedProtocolVersion,
		},
		{
			Name:      "Overflow",
			Data:      []byte{0x17, 0x03, 0x03, 0x48, 0x01},
			WantError: errRecordOverflow,
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			r := &Record{}
			err := r.Unmarshal(test.Data)
			if test.WantError != nil {
				assert.ErrorIs(t, err, test.WantError)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.Want, r)

			raw, err := r.Marshal()
			require.NoError(t, err)
			assert.Equal(t, test.Data, raw)
		})
	}
}

func TestConnReadWrite(t *testing.T) {
	report := test.CheckRoutines(t)
	defer report()

	ca, cb := net.Pipe()
	defer func() {
		_ = ca.Close()
		_ = cb.Close()
	}()

	writer, reader := NewConn(ca), NewConn(cb)
	want := &Record{
		ContentType: protocol.ContentTypeApplicationData,
		Version:     protocol.Version1_2,
		Payload:     []byte("hello"),
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- writer.WriteRecord(context.Background(), want)
	}()

	got, err := reader.ReadRecord(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, <-errChan)
}

func TestConnReadCancel(t *testing.T) {
	report := test.CheckRoutines(t)
	defer report()

	ca, cb := net.Pipe()
	defer func() {
		_ = ca.Close()
		_ = cb.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := NewConn(ca).ReadRecord(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewConn(ca).ReadRecord(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnReadEOF(t *testing.T) {
	ca, cb := net.Pipe()
	go func() {
		_, _ = cb.Write([]byte{0x16, 0x03, 0x03, 0x00, 0x04, 0x01})
		_ = cb.Close()
	}()

	_, err := NewConn(ca).ReadRecord(context.Background())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "unexpected error %v", err)
	_ = ca.Close()
}
