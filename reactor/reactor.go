// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Poll-driven event loop over the socket table.

package reactor

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/logging"
	"github.com/momentics/hioload-net/netaddr"
	"github.com/momentics/hioload-net/pool"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Reactor owns every tracked socket and drives them from Poll. It is not
// safe for concurrent use: one goroutine creates sockets, polls and sends.
type Reactor struct {
	cfg     control.Config
	reg     registry
	ops     socketOps
	alloc   pool.Allocator
	log     *log.Logger
	metrics *control.Metrics

	udpSend    *SendSocket
	bcast      *SendSocket
	internalIP string

	dispatching bool
	sweeping    bool
	closed      bool
	released    bool
	closeErr    error
}

// New creates a reactor. With cfg.NetworkEnabled the broadcast socket is
// opened and the internal IP looked up; otherwise only loopback traffic
// is expected.
func New(cfg control.Config, opts ...Option) (*Reactor, error) {
	r := &Reactor{
		cfg:        cfg,
		ops:        sysOps{},
		internalIP: netaddr.LocalhostHex,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.alloc == nil {
		r.alloc = pool.NewSlabAllocator()
	}
	if r.log == nil {
		r.log = logging.New(os.Stderr, cfg.LogLevel, "hionet")
	}
	if r.metrics == nil {
		r.metrics = control.NewMetrics(r.Len)
	}

	var err error
	if r.udpSend, err = NewUDPSendSocket(); err != nil {
		return nil, err
	}
	if cfg.NetworkEnabled {
		if r.bcast, err = NewBroadcastSocket(); err != nil {
			_ = r.udpSend.Close()
			return nil, err
		}
		ip, found := netaddr.InternalIP()
		r.internalIP = ip
		if !found {
			r.log.Warn("no external IPv4 interface, using localhost")
		}
	}
	r.log.Debug("reactor started", "network", cfg.NetworkEnabled, "ip", r.internalIP)
	return r, nil
}

// Config returns the settings the reactor was built with.
func (r *Reactor) Config() control.Config { return r.cfg }

// Allocator returns the allocator for message buffers. Messages passed to
// Enqueue and the send helpers must come from it.
func (r *Reactor) Allocator() pool.Allocator { return r.alloc }

// Metrics returns the reactor's counters.
func (r *Reactor) Metrics() *control.Metrics { return r.metrics }

// Logger returns the reactor's logger.
func (r *Reactor) Logger() *log.Logger { return r.log }

// InternalIP returns this host's IPv4 address as 8 hex digits.
func (r *Reactor) InternalIP() string { return r.internalIP }

// NetworkFound reports whether an external interface address is in use.
func (r *Reactor) NetworkFound() bool { return r.internalIP != netaddr.LocalhostHex }

// Poll runs one cycle: sweep what the previous cycle closed, poll every
// descriptor once, dispatch the ready ones and sweep again. Connections
// registered during dispatch are first visited on the next call. A Close
// from a callback stops the pass; the final sweep then tears down.
func (r *Reactor) Poll() error {
	if r.closed {
		return api.ErrFailed
	}
	if r.reg.deletePending {
		r.Sweep()
	}
	if len(r.reg.fds) == 0 {
		return nil
	}
	timeout := int(r.cfg.PollTimeout.Milliseconds())
	if _, err := r.ops.poll(r.reg.fds, timeout); err != nil {
		if interrupted(err) {
			return nil
		}
		return errors.Wrap(api.Wrap(api.CodeSocketError, err, "poll"), "reactor")
	}

	r.dispatching = true
	n := len(r.reg.fds)
	for i := 0; i < n && !r.closed; i++ {
		ev := r.reg.fds[i].Revents
		if ev == 0 {
			continue
		}
		r.reg.fds[i].Revents = 0
		r.dispatch(r.reg.conns[i], ev)
	}
	r.dispatching = false

	r.Sweep()
	if r.closed {
		return r.closeErr
	}
	return nil
}

// dispatch handles one event class, picked in the order error, hangup,
// writable, readable.
func (r *Reactor) dispatch(c *Connection, ev int16) {
	if c.deleteMe {
		return
	}
	switch {
	case ev&unix.POLLERR != 0:
		err := c.connectError()
		r.log.Debug("socket error", "fd", c.FD(), "index", c.index, "state", c.state, "err", err)
		c.Close()
	case ev&unix.POLLHUP != 0:
		r.log.Debug("hangup", "fd", c.FD(), "index", c.index, "state", c.state)
		c.Close()
	case ev&unix.POLLOUT != 0:
		c.handleWritable()
	case ev&unix.POLLIN != 0:
		if err := c.handleReadable(); err != nil {
			if !errors.Is(err, api.ErrHangup) {
				r.log.Debug("receive failed", "fd", c.FD(), "index", c.index, "err", err)
			}
			c.Close()
		}
	case ev&unix.POLLNVAL != 0:
		r.log.Warn("invalid descriptor", "fd", c.FD(), "index", c.index)
		c.Close()
	}
}

// Close shuts down every connection, removes them and releases the send
// sockets. The reactor cannot be used afterwards. Called from an owner
// callback, the removal completes when the running Poll or Sweep ends.
func (r *Reactor) Close() error {
	if r.closed {
		return r.closeErr
	}
	r.closed = true
	for _, c := range r.reg.conns {
		c.Close()
	}
	r.reg.deletePending = true
	r.Sweep()
	return r.closeErr
}

// release empties the table and closes the send sockets. Owners may
// register or close connections from Removed, so it loops until the
// table stays empty.
func (r *Reactor) release() int {
	r.released = true
	removed := 0
	for len(r.reg.conns) > 0 {
		for _, c := range r.reg.conns {
			c.Close()
		}
		r.reg.deletePending = true
		removed += r.Sweep()
	}
	for _, s := range []*SendSocket{r.udpSend, r.bcast} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && r.closeErr == nil {
			r.closeErr = err
		}
	}
	r.log.Debug("reactor closed", "removed", removed)
	return removed
}
