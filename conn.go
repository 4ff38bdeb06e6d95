// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package tlsclient implements the client side of TLS 1.2 (RFC 5246).
package tlsclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/deadline"
	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/alert"
	"github.com/yinpeng/tlsclient/pkg/protocol/handshake"
	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

const closeNotifyTimeout = 5 * time.Second

// Conn represents a TLS 1.2 connection after a successful handshake.
// Read and Write may be called concurrently with each other.
type Conn struct {
	// closer is the net.Conn owned by this Conn, nil for caller owned transports.
	closer  io.Closer
	netConn net.Conn

	in        recordlayer.Reader
	decryptor *CipherDecryptor
	out       *protectedWriter
	state     State
	log       logging.LeveledLogger

	readMu  sync.Mutex
	readBuf []byte
	readErr error

	writeMu  sync.Mutex
	writeErr error

	closed        atomic.Bool
	readDeadline  *deadline.Deadline
	writeDeadline *deadline.Deadline
}

// Client runs a TLS 1.2 handshake over an ordered record transport. The
// transport stays owned by the caller, Close does not close it.
func Client(ctx context.Context, transport recordlayer.ReadWriter, config *Config) (*Conn, error) {
	if transport == nil {
		return nil, errNilTransport
	}

	return handshakeClient(ctx, transport, nil, config)
}

// ClientConn runs a TLS 1.2 handshake over conn. On success the returned
// Conn owns conn. On failure conn is left open for the caller.
func ClientConn(ctx context.Context, conn net.Conn, config *Config) (*Conn, error) {
	if conn == nil {
		return nil, errNilTransport
	}

	return handshakeClient(ctx, recordlayer.NewConn(conn), conn, config)
}

// ClientWithOptions is ClientConn configured with functional options.
func ClientWithOptions(ctx context.Context, conn net.Conn, opts ...ClientOption) (*Conn, error) {
	config, err := buildClientConfig(opts...)
	if err != nil {
		return nil, err
	}

	return ClientConn(ctx, conn, config)
}

// Dial connects to addr and runs the handshake. An empty ServerName is
// taken from the host part of addr.
func Dial(ctx context.Context, network, addr string, config *Config) (*Conn, error) {
	if config == nil {
		return nil, errNoConfigProvided
	}
	if config.ServerName == "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			withName := *config
			withName.ServerName = host
			config = &withName
		}
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn, err := ClientConn(ctx, conn, config)
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	return tlsConn, nil
}

func handshakeClient(
	ctx context.Context, transport recordlayer.ReadWriter, netConn net.Conn, config *Config,
) (*Conn, error) {
	cfg, err := newHandshakeConfig(config)
	if err != nil {
		return nil, err
	}

	hs := newHandshaker(cfg, transport)
	state, err := hs.run(ctx)
	if err != nil {
		return nil, &HandshakeError{Err: err}
	}

	conn := &Conn{
		in:            &alertReader{next: hs.in},
		decryptor:     hs.decryptor,
		out:           hs.out,
		state:         *state,
		log:           cfg.log,
		readDeadline:  deadline.New(),
		writeDeadline: deadline.New(),
	}
	if netConn != nil {
		conn.netConn = netConn
		conn.closer = netConn
	}
	conn.log.Debugf("handshake complete with %s", state.CipherSuite)

	return conn, nil
}

// ConnectionState returns the negotiated parameters of the connection.
func (c *Conn) ConnectionState() State {
	return c.state.clone()
}

// ReadRecord returns the next decrypted record. Alerts are returned as errors.
func (c *Conn) ReadRecord(ctx context.Context) (*recordlayer.Record, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if c.closed.Load() {
		return nil, ErrConnClosed
	}
	if c.readErr != nil {
		return nil, c.readErr
	}

	record, err := c.in.ReadRecord(ctx)
	if err != nil {
		return nil, c.readFailed(err)
	}

	return record, nil
}

// WriteRecord encrypts and writes r.
func (c *Conn) WriteRecord(ctx context.Context, r *recordlayer.Record) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.writeRecord(ctx, r)
}

func (c *Conn) writeRecord(ctx context.Context, r *recordlayer.Record) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	if err := c.out.WriteRecord(ctx, r); err != nil {
		c.writeErr = err
		if errors.Is(err, context.DeadlineExceeded) {
			c.writeErr = errDeadlineExceeded
		}

		return c.writeErr
	}

	return nil
}

// readFailed records a terminal read error. A close_notify ends the
// stream with io.EOF.
func (c *Conn) readFailed(err error) error {
	switch {
	case c.closed.Load():
		err = ErrConnClosed
	case errors.Is(err, ErrPeerClosed):
		err = io.EOF
	case errors.Is(err, context.DeadlineExceeded):
		err = errDeadlineExceeded
	}
	c.readErr = err

	return err
}

// Read reads application data from the connection.
func (c *Conn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	c.readMu.Lock()
	defer c.readMu.Unlock()

	for len(c.readBuf) == 0 {
		if c.closed.Load() {
			return 0, ErrConnClosed
		}
		if c.readErr != nil {
			return 0, c.readErr
		}

		record, err := c.in.ReadRecord(c.readDeadline)
		if err != nil {
			return 0, c.readFailed(err)
		}

		switch record.ContentType {
		case protocol.ContentTypeApplicationData:
			c.readBuf = record.Payload
		case protocol.ContentTypeHandshake:
			if !onlyHelloRequests(record.Payload) {
				return 0, c.readFailed(fmt.Errorf("%w: renegotiation is not supported", ErrProtocol))
			}
			c.log.Debug("ignoring HelloRequest")
		default:
			return 0, c.readFailed(fmt.Errorf("%w: unexpected %s record", ErrProtocol, record.ContentType))
		}
	}

	n := copy(p, c.readBuf)
	c.readBuf = c.readBuf[n:]

	return n, nil
}

// onlyHelloRequests reports whether payload is one or more empty HelloRequest messages.
func onlyHelloRequests(payload []byte) bool {
	if len(payload) == 0 || len(payload)%handshake.HeaderLength != 0 {
		return false
	}
	for i := 0; i < len(payload); i += handshake.HeaderLength {
		var header handshake.Header
		if err := header.Unmarshal(payload[i:]); err != nil {
			return false
		}
		if header.Type != handshake.TypeHelloRequest || header.Length != 0 {
			return false
		}
	}

	return true
}

// Write writes len(p) bytes from p to the connection.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrConnClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	written := 0
	for len(p) > 0 {
		n := min(len(p), recordlayer.MaxPlaintextLength)
		if err := c.writeRecord(c.writeDeadline, &recordlayer.Record{
			ContentType: protocol.ContentTypeApplicationData,
			Version:     protocol.Version1_2,
			Payload:     p[:n],
		}); err != nil {
			return written, err
		}
		written += n
		p = p[n:]
	}

	return written, nil
}

// Close sends close_notify, zeroes the record keys and closes the owned
// net.Conn. Pending reads are unblocked.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrConnClosed
	}

	if c.writeMu.TryLock() {
		c.sendCloseNotify()
	} else {
		// A blocked Write holds the lock; give up on close_notify.
		c.writeDeadline.Set(aLongTimeAgo)
		c.writeMu.Lock()
	}
	c.out.encryptor.Close()
	c.writeErr = ErrConnClosed
	c.writeMu.Unlock()

	var err error
	if c.closer != nil {
		err = c.closer.Close()
	}

	c.readDeadline.Set(aLongTimeAgo)
	c.readMu.Lock()
	c.decryptor.Close()
	c.readBuf = nil
	c.readMu.Unlock()

	return err
}

// sendCloseNotify must be called with writeMu held.
func (c *Conn) sendCloseNotify() {
	if c.writeErr != nil {
		return
	}

	payload, _ := (&alert.Alert{Level: alert.Warning, Description: alert.CloseNotify}).Marshal()
	ctx, cancel := context.WithTimeout(context.Background(), closeNotifyTimeout)
	defer cancel()

	err := c.out.WriteRecord(ctx, &recordlayer.Record{
		ContentType: protocol.ContentTypeAlert,
		Version:     protocol.Version1_2,
		Payload:     payload,
	})
	if err != nil {
		c.log.Debugf("failed to send close_notify: %v", err)
	}
}

// LocalAddr implements net.Conn.LocalAddr.
func (c *Conn) LocalAddr() net.Addr {
	if c.netConn == nil {
		return nil
	}

	return c.netConn.LocalAddr()
}

// RemoteAddr implements net.Conn.RemoteAddr.
func (c *Conn) RemoteAddr() net.Addr {
	if c.netConn == nil {
		return nil
	}

	return c.netConn.RemoteAddr()
}

// SetDeadline implements net.Conn.SetDeadline.
func (c *Conn) SetDeadline(t time.Time) error {
	c.readDeadline.Set(t)

	return c.SetWriteDeadline(t)
}

// SetReadDeadline implements net.Conn.SetReadDeadline.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.readDeadline.Set(t)

	return nil
}

// SetWriteDeadline implements net.Conn.SetWriteDeadline.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline.Set(t)

	return nil
}

// aLongTimeAgo unblocks I/O waiting on a deadline.
var aLongTimeAgo = time.Unix(1, 0) //nolint:gochecknoglobals

var _ net.Conn = (*Conn)(nil)
