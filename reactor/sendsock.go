// File: reactor/sendsock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Send-only datagram sockets. They are never registered or polled.

package reactor

import (
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/netaddr"
	"github.com/momentics/hioload-net/pool"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// SendSocket is an unbound datagram socket used with SendTo.
type SendSocket struct {
	fd int
}

// NewUDPSendSocket creates a plain datagram socket.
func NewUDPSendSocket() (*SendSocket, error) {
	fd, err := newSocket(unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return nil, err
	}
	return &SendSocket{fd: fd}, nil
}

// NewBroadcastSocket creates a datagram socket with SO_BROADCAST set.
func NewBroadcastSocket() (*SendSocket, error) {
	s, err := NewUDPSendSocket()
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
		_ = s.Close()
		return nil, api.Wrap(api.CodeSocketError, err, "set SO_BROADCAST")
	}
	return s, nil
}

// SendTo writes payload as one datagram to addr.
func (s *SendSocket) SendTo(addr *netaddr.Address, payload []byte) error {
	if s.fd < 0 {
		return api.ErrFailed
	}
	for {
		err := unix.Sendto(s.fd, payload, sendFlags, addr.Sockaddr())
		if err == nil {
			return nil
		}
		if !interrupted(err) {
			return errors.WithMessagef(api.Wrap(api.CodeSocketError, err, "sendto"), "to %s", addr)
		}
	}
}

// FD returns the descriptor, or -1 after Close.
func (s *SendSocket) FD() int { return s.fd }

// Close releases the descriptor.
func (s *SendSocket) Close() error {
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}

// SendUDP sends msg as one datagram to addr and frees it.
func (r *Reactor) SendUDP(addr *netaddr.Address, msg *pool.Message) error {
	defer r.alloc.Free(msg)
	if err := r.udpSend.SendTo(addr, msg.Bytes()); err != nil {
		r.log.Debug("udp send failed", "addr", addr, "err", err)
		return err
	}
	r.metrics.MessagesSent.Inc()
	r.metrics.BytesSent.Add(msg.Len())
	return nil
}

// SendUDPLocal sends msg to 127.0.0.1:port and frees it.
func (r *Reactor) SendUDPLocal(port int, msg *pool.Message) error {
	addr, err := netaddr.FromIP4([]byte{127, 0, 0, 1}, port)
	if err != nil {
		r.alloc.Free(msg)
		return err
	}
	return r.SendUDP(addr, msg)
}

// SendBroadcast sends msg to 255.255.255.255:port. The caller keeps msg.
// Requires a reactor built with NetworkEnabled.
func (r *Reactor) SendBroadcast(port int, msg *pool.Message) error {
	if r.bcast == nil {
		return errors.Wrap(api.ErrNotSupported, "network disabled")
	}
	addr, err := netaddr.FromIP4([]byte{255, 255, 255, 255}, port)
	if err != nil {
		return err
	}
	if err := r.bcast.SendTo(addr, msg.Bytes()); err != nil {
		r.log.Warn("broadcast failed", "port", port, "err", err)
		return err
	}
	r.metrics.MessagesSent.Inc()
	r.metrics.BytesSent.Add(msg.Len())
	return nil
}
