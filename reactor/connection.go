// File: reactor/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One tracked socket and its lifecycle.

package reactor

import (
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/internal/wire"
	"github.com/momentics/hioload-net/pool"
	"golang.org/x/sys/unix"
)

// Connection is a socket tracked by a Reactor: its role, receive
// accumulator, outbound queue and owner. The descriptor itself lives in
// the reactor's pollfd slot at Index. Connections are created by the
// factory methods or by accepting, and disappear only through Close
// followed by a sweep.
type Connection struct {
	r     *Reactor
	index int
	state api.ConnState
	port  int
	raw   bool
	owner Owner

	in   wire.Accumulator
	out  *pool.Queue
	sent int // bytes of the front message already written, prefix included
	hdr  [wire.HeaderSize]byte

	deleteMe bool
}

func newConnection(r *Reactor, state api.ConnState, port int) *Connection {
	c := &Connection{
		r:     r,
		index: -1,
		state: state,
		port:  port,
		out:   pool.NewQueue(),
	}
	c.in.MaxSize = r.cfg.MaxMessageSize
	return c
}

// Index returns the position in the reactor's table, or -1 after removal.
func (c *Connection) Index() int { return c.index }

// State returns the current role/state.
func (c *Connection) State() api.ConnState { return c.state }

// Port returns the bound port for servers and 0 for stream peers.
func (c *Connection) Port() int { return c.port }

// Raw reports whether the connection sends and receives unframed bytes.
func (c *Connection) Raw() bool { return c.raw }

// SetRaw switches a stream connection between length-prefixed and raw
// framing.
func (c *Connection) SetRaw(raw bool) error {
	switch {
	case c.state == api.StateClosed:
		return api.ErrFailed
	case c.state == api.StateUDPServer:
		return api.ErrNotSupported
	}
	c.raw = raw
	return nil
}

// Owner returns the delegate, possibly nil.
func (c *Connection) Owner() Owner { return c.owner }

// SetOwner installs the delegate that receives callbacks.
func (c *Connection) SetOwner(o Owner) { c.owner = o }

// FD returns the socket descriptor, or -1 once closed or removed.
func (c *Connection) FD() int {
	if c.index < 0 {
		return -1
	}
	return int(c.r.reg.fds[c.index].Fd)
}

// PendingDelete reports whether the connection is closed and waiting for
// the sweep.
func (c *Connection) PendingDelete() bool { return c.deleteMe }

// Queued returns the number of outbound messages not yet fully written.
func (c *Connection) Queued() int { return c.out.Len() }

// Close releases everything the connection holds: queued and partially
// received messages, and the descriptor. The object stays in the table
// until the next sweep. Closing twice is a no-op.
func (c *Connection) Close() {
	if c.deleteMe {
		return
	}
	r := c.r
	c.deleteMe = true
	c.in.Reset(r.alloc)
	dropped := c.out.Drain(r.alloc.Free)
	c.sent = 0
	fd := c.FD()
	if fd >= 0 {
		if c.state.IsStream() {
			// best effort; a connect still in progress reports ENOTCONN
			_ = unix.Shutdown(fd, unix.SHUT_WR)
		}
		if err := unix.Close(fd); err != nil {
			r.log.Debug("close failed", "fd", fd, "err", err)
		}
	}
	if c.index >= 0 {
		pfd := &r.reg.fds[c.index]
		pfd.Fd = -1
		pfd.Events = 0
		pfd.Revents = 0
	}
	r.log.Debug("socket closed", "fd", fd, "index", c.index, "state", c.state, "dropped", dropped)
	c.state = api.StateClosed
	r.reg.deletePending = true
	r.metrics.Closed.Inc()
}

func (c *Connection) wantWrite() {
	if c.index >= 0 {
		c.r.reg.fds[c.index].Events |= unix.POLLOUT
	}
}

func (c *Connection) clearWrite() {
	if c.index >= 0 {
		c.r.reg.fds[c.index].Events &^= unix.POLLOUT
	}
}

// connected finishes a client connect.
func (c *Connection) connected() {
	c.state = api.StateTCPClient
	if err := disableSigpipe(c.FD()); err != nil {
		c.r.log.Debug("sigpipe suppression failed", "fd", c.FD(), "err", err)
	}
	c.r.metrics.Connected.Inc()
	c.r.log.Debug("connected", "fd", c.FD(), "index", c.index)
	if c.owner != nil {
		c.owner.Connected()
	}
}

// connectError returns the pending socket error of a connecting socket.
func (c *Connection) connectError() error {
	soerr, err := unix.GetsockoptInt(c.FD(), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if soerr != 0 {
		return unix.Errno(soerr)
	}
	return nil
}
