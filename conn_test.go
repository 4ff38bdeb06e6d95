// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/handshake"
	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

func establish(t *testing.T) *handshakeRun {
	t.Helper()

	run := startHandshake(t, peerBehavior{}, nil)
	require.NoError(t, run.err)

	return run
}

// closeRun closes the client and waits for the peer to see close_notify.
func closeRun(t *testing.T, run *handshakeRun) {
	t.Helper()

	require.NoError(t, run.conn.Close())
	result := <-run.done
	_ = run.serverSide.Close()
	assert.ErrorIs(t, result.err, ErrPeerClosed)
}

func TestConnNilTransport(t *testing.T) {
	_, err := Client(context.Background(), nil, &Config{})
	assert.ErrorIs(t, err, errNilTransport)

	_, err = ClientConn(context.Background(), nil, &Config{})
	assert.ErrorIs(t, err, errNilTransport)

	_, err = Dial(context.Background(), "tcp", "127.0.0.1:1", nil)
	assert.ErrorIs(t, err, errNoConfigProvided)
}

func TestConnInvalidConfig(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer func() {
		_ = clientSide.Close()
		_ = serverSide.Close()
	}()

	_, err := ClientConn(context.Background(), clientSide, &Config{MaxKeyStrength: 7})
	assert.ErrorIs(t, err, errInvalidMaxKeyStrength)

	_, err = ClientWithOptions(context.Background(), clientSide, WithCipherSuites())
	assert.ErrorIs(t, err, errEmptyCipherSuites)
}

func TestConnAddrs(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)
	assert.Equal(t, run.clientSide.LocalAddr(), run.conn.LocalAddr())
	assert.Equal(t, run.clientSide.RemoteAddr(), run.conn.RemoteAddr())
	closeRun(t, run)

	assert.Nil(t, (&Conn{}).LocalAddr())
	assert.Nil(t, (&Conn{}).RemoteAddr())
}

func TestConnZeroLengthRead(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)
	n, err := run.conn.Read(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
	closeRun(t, run)
}

func TestConnSmallReads(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)
	_, err := run.conn.Write([]byte("abcdef"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := run.conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf[:n]))
	n, err = run.conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(buf[:n]))

	closeRun(t, run)
}

func TestConnRecordInterface(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)
	ctx := context.Background()

	require.NoError(t, run.conn.WriteRecord(ctx, &recordlayer.Record{
		ContentType: protocol.ContentTypeApplicationData,
		Version:     protocol.Version1_2,
		Payload:     []byte("record"),
	}))
	record, err := run.conn.ReadRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.ContentTypeApplicationData, record.ContentType)
	assert.Equal(t, []byte("record"), record.Payload)

	closeRun(t, run)
}

func TestConnIgnoresHelloRequest(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)
	ctx := context.Background()

	// The pipe is unbuffered and the peer echoes synchronously, so read
	// concurrently with the writes.
	type readResult struct {
		data []byte
		err  error
	}
	readDone := make(chan readResult, 1)
	go func() {
		buf := make([]byte, 5)
		_, err := io.ReadFull(run.conn, buf)
		readDone <- readResult{buf, err}
	}()

	// The peer echoes records, so this comes back as a server HelloRequest.
	require.NoError(t, run.conn.WriteRecord(ctx, &recordlayer.Record{
		ContentType: protocol.ContentTypeHandshake,
		Version:     protocol.Version1_2,
		Payload:     []byte{0, 0, 0, 0, 0, 0, 0, 0},
	}))
	_, err := run.conn.Write([]byte("after"))
	require.NoError(t, err)

	result := <-readDone
	require.NoError(t, result.err)
	assert.Equal(t, "after", string(result.data))

	closeRun(t, run)
}

func TestConnRejectsRenegotiation(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)

	raw, err := (&handshake.Handshake{Message: &handshake.MessageServerHelloDone{}}).Marshal()
	require.NoError(t, err)
	require.NoError(t, run.conn.WriteRecord(context.Background(), &recordlayer.Record{
		ContentType: protocol.ContentTypeHandshake,
		Version:     protocol.Version1_2,
		Payload:     raw,
	}))

	_, err = run.conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrProtocol)
	_, err = run.conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrProtocol)

	closeRun(t, run)
}

func TestConnReadDeadline(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)

	require.NoError(t, run.conn.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, err := run.conn.Read(make([]byte, 1))
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	// Read errors are terminal.
	require.NoError(t, run.conn.SetReadDeadline(time.Time{}))
	_, err = run.conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, errDeadlineExceeded)

	closeRun(t, run)
}

func TestConnWriteDeadline(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)

	require.NoError(t, run.conn.SetWriteDeadline(time.Now().Add(-time.Second)))
	_, err := run.conn.Write([]byte("late"))
	assert.ErrorIs(t, err, errDeadlineExceeded)

	require.NoError(t, run.conn.SetDeadline(time.Time{}))
	_, err = run.conn.Write([]byte("still late"))
	assert.ErrorIs(t, err, errDeadlineExceeded)

	// No close_notify can follow a failed write.
	require.NoError(t, run.conn.Close())
	_ = run.finish()
}

func TestConnClose(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)
	closeRun(t, run)

	assert.ErrorIs(t, run.conn.Close(), ErrConnClosed)

	_, err := run.conn.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrConnClosed)
	_, err = run.conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrConnClosed)
	_, err = run.conn.ReadRecord(context.Background())
	assert.ErrorIs(t, err, ErrConnClosed)
	assert.ErrorIs(t, run.conn.WriteRecord(context.Background(), &recordlayer.Record{}), ErrConnClosed)

	assert.Nil(t, run.conn.out.encryptor.cipher)
	assert.Nil(t, run.conn.decryptor.cipher)
}

func TestConnCloseUnblocksRead(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	run := establish(t)

	readErr := make(chan error, 1)
	go func() {
		_, err := run.conn.Read(make([]byte, 1))
		readErr <- err
	}()

	// Give the reader a chance to block.
	time.Sleep(50 * time.Millisecond)
	closeRun(t, run)
	assert.ErrorIs(t, <-readErr, ErrConnClosed)
}

func TestOnlyHelloRequests(t *testing.T) {
	for _, tc := range []struct {
		payload []byte
		want    bool
	}{
		{[]byte{0, 0, 0, 0}, true},
		{[]byte{0, 0, 0, 0, 0, 0, 0, 0}, true},
		{nil, false},
		{[]byte{0, 0, 0}, false},
		{[]byte{0, 0, 0, 1}, false},
		{[]byte{byte(handshake.TypeServerHelloDone), 0, 0, 0}, false},
		{[]byte{0, 0, 0, 0, byte(handshake.TypeFinished), 0, 0, 0}, false},
	} {
		assert.Equal(t, tc.want, onlyHelloRequests(tc.payload), "%x", tc.payload)
	}
}

func TestConnectionStateClone(t *testing.T) {
	conn := &Conn{state: State{SessionID: []byte{1, 2}, ServerName: "localhost"}}

	state := conn.ConnectionState()
	state.SessionID[0] = 9
	assert.Equal(t, []byte{1, 2}, conn.ConnectionState().SessionID)
}
