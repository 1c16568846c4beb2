// File: reactor/send.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Outbound path: queueing, gathered writes and backpressure.

package reactor

import (
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/internal/wire"
	"github.com/momentics/hioload-net/pool"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Enqueue appends msg to the outbound queue and, when the queue was empty
// and the connect has finished, tries one non-blocking send right away.
// It returns nil when everything has been written and api.ErrBlocked while
// messages remain queued; the queue owns msg in both cases. On any other
// error msg has been freed.
func (c *Connection) Enqueue(msg *pool.Message) error {
	if !c.state.IsStream() {
		c.r.alloc.Free(msg)
		if c.state == api.StateClosed {
			return api.ErrFailed
		}
		return api.ErrNotSupported
	}
	first := c.out.Len() == 0
	c.out.Push(msg)
	if first && c.state != api.StateTCPConnecting {
		return c.Send(false)
	}
	return api.ErrBlocked
}

// CanSend reports whether a new message would be written without queueing
// behind another one.
func (c *Connection) CanSend() error {
	switch c.state {
	case api.StateTCPClient, api.StateTCPConnection:
		if c.out.Len() > 0 {
			return api.ErrBlocked
		}
		return nil
	case api.StateTCPConnecting:
		return api.ErrBlocked
	default:
		return api.ErrFailed
	}
}

// SendTCP is the producer-facing send. When block is set and a message is
// already pending, the queue is flushed with a blocking send first, so one
// caller never has more than one message waiting. A flush failure drops msg
// and is returned. Backpressure on the new message is not an error.
func (c *Connection) SendTCP(block bool, msg *pool.Message) error {
	if block && c.out.Len() > 0 {
		if err := c.Send(true); err != nil {
			c.r.alloc.Free(msg)
			return err
		}
	}
	err := c.Enqueue(msg)
	if errors.Is(err, api.ErrBlocked) {
		return nil
	}
	return err
}

// Send drains the outbound queue. Non-blocking mode writes what the socket
// accepts and returns api.ErrBlocked with write interest registered when
// it stops early. Blocking mode waits for writability until the queue is
// empty or the connection fails. Hard write errors close the connection.
func (c *Connection) Send(block bool) error {
	switch c.state {
	case api.StateTCPClient, api.StateTCPConnection:
	case api.StateTCPConnecting:
		if !block {
			return api.ErrBlocked
		}
		if err := c.awaitConnect(); err != nil {
			return err
		}
	default:
		return api.ErrFailed
	}

	r := c.r
	for {
		msg := c.out.Front()
		if msg == nil {
			c.clearWrite()
			return nil
		}
		bufs := c.pending(msg)
		if bufs == nil {
			c.finishFront()
			continue
		}
		n, err := r.ops.send(c.FD(), bufs, sendFlags)
		switch {
		case err == nil:
		case interrupted(err):
			continue
		case wouldBlock(err):
			if !block {
				c.wantWrite()
				r.metrics.SendBlocked.Inc()
				return api.ErrBlocked
			}
			if err := c.waitWritable(); err != nil {
				return err
			}
			continue
		default:
			r.log.Debug("send failed", "fd", c.FD(), "index", c.index, "err", err)
			c.Close()
			return api.Wrap(api.CodeSocketError, err, "send")
		}
		r.metrics.BytesSent.Add(n)
		c.sent += n
		if c.sent >= c.frameLen(msg) {
			c.finishFront()
		}
	}
}

// pending returns the unsent part of msg as gather buffers: the rest of the
// length prefix followed by the payload, or nil for an empty raw message.
func (c *Connection) pending(msg *pool.Message) [][]byte {
	payload := msg.Bytes()
	if c.raw {
		if c.sent >= len(payload) {
			return nil
		}
		return [][]byte{payload[c.sent:]}
	}
	if c.sent < wire.HeaderSize {
		wire.PutHeader(c.hdr[:], uint32(len(payload)))
		return [][]byte{c.hdr[c.sent:], payload}
	}
	return [][]byte{payload[c.sent-wire.HeaderSize:]}
}

func (c *Connection) frameLen(msg *pool.Message) int {
	if c.raw {
		return msg.Len()
	}
	return wire.HeaderSize + msg.Len()
}

func (c *Connection) finishFront() {
	c.r.alloc.Free(c.out.Pop())
	c.sent = 0
	c.r.metrics.MessagesSent.Inc()
}

// waitWritable blocks in poll(2) on this descriptor alone.
func (c *Connection) waitWritable() error {
	pfd := []unix.PollFd{{Fd: int32(c.FD()), Events: unix.POLLOUT}}
	for {
		_, err := c.r.ops.poll(pfd, -1)
		if err == nil {
			break
		}
		if !interrupted(err) {
			c.Close()
			return api.Wrap(api.CodeSocketError, err, "poll")
		}
	}
	switch ev := pfd[0].Revents; {
	case ev&(unix.POLLERR|unix.POLLNVAL) != 0:
		err := c.connectError()
		c.Close()
		return api.Wrap(api.CodeSocketError, err, "wait writable")
	case ev&unix.POLLHUP != 0 && ev&unix.POLLOUT == 0:
		c.Close()
		return api.ErrHangup
	}
	return nil
}

// awaitConnect finishes a pending connect synchronously.
func (c *Connection) awaitConnect() error {
	if err := c.waitWritable(); err != nil {
		return err
	}
	if err := c.connectError(); err != nil {
		c.Close()
		return api.Wrap(api.CodeSocketError, err, "connect")
	}
	c.connected()
	return nil
}
