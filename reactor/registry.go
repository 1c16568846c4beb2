// File: reactor/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Table of tracked sockets: a pollfd slice handed straight to poll(2) and a
// parallel slice of connections, kept in lock-step.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-net/api"
	"golang.org/x/sys/unix"
)

// registry invariants: len(fds) == len(conns), conns[i].index == i, and
// fds[i] is the descriptor of conns[i] (-1 once closed).
type registry struct {
	fds           []unix.PollFd
	conns         []*Connection
	deletePending bool
}

func (g *registry) add(c *Connection, fd int) {
	c.index = len(g.conns)
	g.fds = append(g.fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	g.conns = append(g.conns, c)
}

// remove moves the last entry into c's slot and shrinks both slices.
func (g *registry) remove(c *Connection) {
	i := c.index
	last := len(g.conns) - 1
	if i != last {
		g.fds[i] = g.fds[last]
		moved := g.conns[last]
		g.conns[i] = moved
		moved.index = i
	}
	g.fds = g.fds[:last]
	g.conns[last] = nil
	g.conns = g.conns[:last]
	c.index = -1
}

func (g *registry) verify() error {
	if len(g.fds) != len(g.conns) {
		return fmt.Errorf("registry: %d pollfds but %d connections", len(g.fds), len(g.conns))
	}
	for i, c := range g.conns {
		if c == nil {
			return fmt.Errorf("registry: nil connection at %d", i)
		}
		if c.index != i {
			return fmt.Errorf("registry: connection at %d records index %d", i, c.index)
		}
		if c.state == api.StateClosed && g.fds[i].Fd != -1 {
			return fmt.Errorf("registry: closed connection at %d still has fd %d", i, g.fds[i].Fd)
		}
	}
	return nil
}

// Register adds fd to the table in the given state and returns its
// connection. The descriptor must already be configured; Register only
// tracks it.
func (r *Reactor) Register(fd int, state api.ConnState, port int) *Connection {
	c := newConnection(r, state, port)
	r.reg.add(c, fd)
	r.log.Debug("socket registered", "fd", fd, "index", c.index, "state", state, "port", port)
	return c
}

// Unregister removes c from the table, closing it first if needed, and
// notifies its owner. While Poll is dispatching or a sweep is running,
// removal is left to that sweep.
func (r *Reactor) Unregister(c *Connection) {
	if c.index < 0 || c.r != r {
		return
	}
	if c.state != api.StateClosed {
		c.Close()
	}
	if r.dispatching || r.sweeping {
		return
	}
	r.unregister(c)
}

func (r *Reactor) unregister(c *Connection) {
	r.log.Debug("socket removed", "index", c.index, "port", c.port)
	r.reg.remove(c)
	if c.owner != nil {
		c.owner.Removed()
	}
}

// Sweep removes every connection marked for deletion, repeating until a
// full pass finds none, since an owner's Removed may close further
// connections. Returns the number removed. Calls made while Poll is
// dispatching or from inside another sweep do nothing. A sweep that
// finds the reactor closed finishes its teardown.
func (r *Reactor) Sweep() int {
	if r.dispatching || r.sweeping {
		return 0
	}
	r.sweeping = true
	removed := 0
	for r.reg.deletePending {
		r.reg.deletePending = false
		for i := 0; i < len(r.reg.conns); {
			c := r.reg.conns[i]
			if c.deleteMe {
				// the last entry now sits at i; look at i again
				r.unregister(c)
				removed++
			} else {
				i++
			}
		}
	}
	r.sweeping = false
	if r.closed && !r.released {
		removed += r.release()
	}
	return removed
}

// Len returns the number of tracked connections, closed ones included
// until the next sweep.
func (r *Reactor) Len() int { return len(r.reg.conns) }

// Connection returns the connection at table index i.
func (r *Reactor) Connection(i int) *Connection { return r.reg.conns[i] }
