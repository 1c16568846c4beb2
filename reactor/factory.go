// File: reactor/factory.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Constructors for tracked sockets. Every failure closes the partially
// built descriptor; nothing is registered unless setup succeeded.

package reactor

import (
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/netaddr"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func newSocket(typ, proto int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, typ, proto)
	if err != nil {
		return -1, api.Wrap(api.CodeSocketError, err, "socket create")
	}
	unix.CloseOnExec(fd)
	return fd, nil
}

// prepareStream applies the options every stream socket carries.
func prepareStream(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return api.Wrap(api.CodeSocketError, err, "set nonblock")
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		return api.Wrap(api.CodeSocketError, err, "set TCP_NODELAY")
	}
	if err := disableSigpipe(fd); err != nil {
		return api.Wrap(api.CodeSocketError, err, "suppress SIGPIPE")
	}
	return nil
}

// bindAny binds fd to INADDR_ANY:port and returns the port actually bound,
// which differs from port only when port is 0.
func bindAny(fd, port int, reuse bool) (int, error) {
	if reuse {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return 0, api.Wrap(api.CodeSocketError, err, "set SO_REUSEADDR")
		}
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		return 0, errors.WithMessagef(api.Wrap(api.CodeSocketError, err, "bind"), "port %d", port)
	}
	if port != 0 {
		return port, nil
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, api.Wrap(api.CodeSocketError, err, "getsockname")
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok || sa4.Port == 0 {
		return 0, errors.Wrap(api.ErrSocket, "no port assigned")
	}
	return sa4.Port, nil
}

// CreateTCPServer listens on port, or on an ephemeral port when port is 0;
// Port on the result reports the one bound.
func (r *Reactor) CreateTCPServer(port int) (*Connection, error) {
	fd, err := newSocket(unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, err
	}
	bound, err := bindAny(fd, port, true)
	if err == nil {
		err = unix.SetNonblock(fd, true)
	}
	if err == nil {
		if lerr := unix.Listen(fd, r.cfg.ListenBacklog); lerr != nil {
			err = api.Wrap(api.CodeSocketError, lerr, "listen")
		}
	}
	if err != nil {
		_ = unix.Close(fd)
		r.log.Warn("tcp server setup failed", "port", port, "err", err)
		return nil, err
	}
	c := r.Register(fd, api.StateTCPServer, bound)
	r.log.Info("tcp server listening", "port", bound, "index", c.index)
	return c, nil
}

// CreateTCPClient resolves host and starts a non-blocking connect.
func (r *Reactor) CreateTCPClient(host string, port int) (*Connection, error) {
	addr, err := netaddr.Resolve(host, port, true)
	if err != nil {
		return nil, err
	}
	return r.CreateTCPClientAddr(addr)
}

// CreateTCPClientAddr starts a non-blocking connect to addr. The result is
// normally TCP_CONNECTING and becomes TCP_CLIENT on the writable event that
// follows; an immediate connect yields TCP_CLIENT without a Connected call.
func (r *Reactor) CreateTCPClientAddr(addr *netaddr.Address) (*Connection, error) {
	fd, err := newSocket(unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, err
	}
	if err := prepareStream(fd); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	state := api.StateTCPClient
	switch err := unix.Connect(fd, addr.Sockaddr()); {
	case err == nil:
	case errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EINTR):
		state = api.StateTCPConnecting
	default:
		_ = unix.Close(fd)
		r.log.Debug("connect failed", "addr", addr, "err", err)
		return nil, errors.WithMessagef(api.Wrap(api.CodeSocketError, err, "connect"), "to %s", addr)
	}
	c := r.Register(fd, state, 0)
	if state == api.StateTCPConnecting {
		c.wantWrite()
	}
	r.log.Debug("tcp client created", "addr", addr, "fd", fd, "index", c.index, "state", state)
	return c, nil
}

// CreateUDPServer binds a datagram socket to port (0 for ephemeral).
// reuse must be false for ports where another process binding the same
// port would receive this one's traffic.
func (r *Reactor) CreateUDPServer(port int, reuse bool) (*Connection, error) {
	fd, err := newSocket(unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return nil, err
	}
	bound, err := bindAny(fd, port, reuse)
	if err == nil {
		if nerr := unix.SetNonblock(fd, true); nerr != nil {
			err = api.Wrap(api.CodeSocketError, nerr, "set nonblock")
		}
	}
	if err != nil {
		_ = unix.Close(fd)
		r.log.Debug("udp server setup failed", "port", port, "reuse", reuse, "err", err)
		return nil, err
	}
	c := r.Register(fd, api.StateUDPServer, bound)
	r.log.Info("udp server bound", "port", bound, "index", c.index)
	return c, nil
}
