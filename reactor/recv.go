// File: reactor/recv.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Inbound path: stream framing, datagrams and accepting peers.

package reactor

import (
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/internal/wire"
	"github.com/momentics/hioload-net/pool"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// read performs one read, mapping would-block to api.ErrBlocked and
// retrying interrupted calls.
func (c *Connection) read(p []byte) (int, error) {
	for {
		n, err := c.r.ops.recv(c.FD(), p)
		switch {
		case err == nil:
			c.r.metrics.BytesReceived.Add(n)
			return n, nil
		case interrupted(err):
			continue
		case wouldBlock(err):
			return 0, api.ErrBlocked
		default:
			return 0, api.Wrap(api.CodeSocketError, err, "read")
		}
	}
}

// handleReadable runs the receive path for the connection's role. A
// non-nil error means the connection must be closed.
func (c *Connection) handleReadable() error {
	switch c.state {
	case api.StateTCPServer:
		c.accept()
		return nil
	case api.StateUDPServer:
		return c.receiveDatagram()
	case api.StateTCPClient, api.StateTCPConnection:
		return c.receiveStream()
	default:
		return nil
	}
}

// receiveStream delivers every complete message currently readable.
func (c *Connection) receiveStream() error {
	for !c.deleteMe {
		var (
			msg *pool.Message
			err error
		)
		if c.raw {
			msg, err = c.in.ReadRaw(c.read, c.r.alloc)
		} else {
			msg, err = c.in.ReadFrame(c.read, c.r.alloc)
		}
		if err != nil {
			if errors.Is(err, wire.ErrTooLarge) {
				c.r.metrics.ProtocolErrors.Inc()
				c.r.log.Warn("oversized message", "fd", c.FD(), "index", c.index, "err", err)
			}
			return err
		}
		if msg == nil {
			return nil
		}
		if err := c.deliver(msg); err != nil {
			return err
		}
	}
	return nil
}

// receiveDatagram reads exactly one datagram, sized with pendingReq. Read
// failures drop the datagram but keep the socket.
func (c *Connection) receiveDatagram() error {
	fd := c.FD()
	size, err := unix.IoctlGetInt(fd, pendingReq)
	if err != nil {
		return api.Wrap(api.CodeSocketError, err, "pending datagram size")
	}
	if size <= 0 {
		// empty datagram or nothing queued; a one-byte read consumes the former
		var scratch [1]byte
		_, _ = c.r.ops.recv(fd, scratch[:])
		return nil
	}
	msg := c.r.alloc.Alloc(size)
	n, err := c.read(msg.Bytes())
	if err != nil {
		c.r.alloc.Free(msg)
		if !errors.Is(err, api.ErrBlocked) {
			c.r.metrics.DatagramsDropped.Inc()
			c.r.log.Warn("udp read failed", "fd", fd, "port", c.port, "err", err)
		}
		return nil
	}
	msg.Truncate(n)
	return c.deliver(msg)
}

// deliver hands msg to the owner. Without an owner the message is
// discarded. A rejection is terminal for stream connections only.
func (c *Connection) deliver(msg *pool.Message) error {
	c.r.metrics.MessagesReceived.Inc()
	if c.owner == nil {
		c.r.alloc.Free(msg)
		return nil
	}
	if err := c.owner.Deliver(msg); err != nil {
		if c.state.IsStream() {
			return errors.Wrap(err, "deliver")
		}
		c.r.log.Debug("datagram rejected", "port", c.port, "err", err)
	}
	return nil
}

// accept takes one pending peer off the listening socket and registers it
// as a TCP_CONNECTION. Failures are logged and leave the listener open.
func (c *Connection) accept() {
	r := c.r
	nfd, _, err := unix.Accept(c.FD())
	if err != nil {
		if !wouldBlock(err) && !interrupted(err) && !errors.Is(err, unix.ECONNABORTED) {
			r.log.Warn("accept failed", "fd", c.FD(), "port", c.port, "err", err)
		}
		return
	}
	unix.CloseOnExec(nfd)
	if err := prepareStream(nfd); err != nil {
		_ = unix.Close(nfd)
		r.log.Warn("accepted socket setup failed", "fd", nfd, "err", err)
		return
	}
	conn := r.Register(nfd, api.StateTCPConnection, 0)
	r.metrics.Accepted.Inc()
	if c.owner == nil {
		conn.Close()
		return
	}
	if err := c.owner.Accepted(conn); err != nil {
		r.log.Debug("connection rejected", "fd", nfd, "index", conn.index, "err", err)
		conn.Close()
	}
}

// handleWritable completes a pending connect or resumes a blocked send.
func (c *Connection) handleWritable() {
	if c.state == api.StateTCPConnecting {
		if err := c.connectError(); err != nil {
			c.r.log.Debug("connect failed", "fd", c.FD(), "index", c.index, "err", err)
			c.Close()
			return
		}
		c.connected()
		if c.deleteMe {
			return
		}
	}
	if c.out.Len() == 0 {
		c.clearWrite()
		return
	}
	// ErrBlocked re-arms write interest; hard errors already closed c
	_ = c.Send(false)
}
