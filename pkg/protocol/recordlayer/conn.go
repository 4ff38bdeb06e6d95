// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import (
	"context"
	"io"
	"net"
	"sync"
	"time"
)

// Reader delivers framed records in transport order.
type Reader interface {
	ReadRecord(ctx context.Context) (*Record, error)
}

// Writer accepts framed records in transport order.
type Writer interface {
	WriteRecord(ctx context.Context, r *Record) error
}

// ReadWriter is the ordered record transport a handshake runs over.
type ReadWriter interface {
	Reader
	Writer
}

// aLongTimeAgo unblocks pending I/O once a context is done.
var aLongTimeAgo = time.Unix(1, 0) //nolint:gochecknoglobals

// Conn frames TLS records on top of a byte stream.
type Conn struct {
	nextConn net.Conn

	readMu  sync.Mutex
	writeMu sync.Mutex
	header  [HeaderSize]byte
}

// NewConn wraps a stream connection.
func NewConn(nextConn net.Conn) *Conn {
	return &Conn{nextConn: nextConn}
}

// ReadRecord reads the next record. It unblocks with ctx.Err() when ctx is done.
func (c *Conn) ReadRecord(ctx context.Context) (*Record, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	stop, err := watchContext(ctx, c.nextConn.SetReadDeadline)
	if err != nil {
		return nil, err
	}
	defer stop()

	if _, err = io.ReadFull(c.nextConn, c.header[:]); err != nil {
		return nil, contextError(ctx, err)
	}
	var h Header
	if err = h.Unmarshal(c.header[:]); err != nil {
		return nil, err
	}

	payload := make([]byte, h.ContentLen)
	if _, err = io.ReadFull(c.nextConn, payload); err != nil {
		if err == io.EOF { //nolint:errorlint
			err = io.ErrUnexpectedEOF
		}

		return nil, contextError(ctx, err)
	}

	return &Record{ContentType: h.ContentType, Version: h.Version, Payload: payload}, nil
}

// WriteRecord writes r as a single record.
func (c *Conn) WriteRecord(ctx context.Context, r *Record) error {
	raw, err := r.Marshal()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	stop, err := watchContext(ctx, c.nextConn.SetWriteDeadline)
	if err != nil {
		return err
	}
	defer stop()

	if _, err = c.nextConn.Write(raw); err != nil {
		return contextError(ctx, err)
	}

	return nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nextConn.Close()
}

func watchContext(ctx context.Context, setDeadline func(time.Time) error) (func() bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline, _ := ctx.Deadline()
	if err := setDeadline(deadline); err != nil {
		return nil, err
	}

	return context.AfterFunc(ctx, func() {
		_ = setDeadline(aLongTimeAgo)
	}), nil
}

// contextError prefers the context's error over the deadline error it caused.
func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return err
}
