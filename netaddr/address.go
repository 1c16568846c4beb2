// File: netaddr/address.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// IPv4 socket addresses resolved from hostnames, dotted quads, "localhost"
// or the 8-digit hex form used by discovery.

package netaddr

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"

	"github.com/momentics/hioload-net/api"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// LocalhostHex is the hex form of 127.0.0.1.
const LocalhostHex = "7f000001"

// Address is a resolved IPv4 address and port.
type Address struct {
	ip   [4]byte
	port int
}

// Resolve looks up host and builds an address for port. An empty host means
// "localhost". tcp selects the stream or datagram lookup.
func Resolve(host string, port int, tcp bool) (*Address, error) {
	if host == "" {
		host = "localhost"
	}
	if port < 0 || port > 0xFFFF {
		return nil, errors.Wrapf(api.ErrHostname, "port %d out of range", port)
	}
	hostport := net.JoinHostPort(host, strconv.Itoa(port))
	var ip net.IP
	if tcp {
		a, err := net.ResolveTCPAddr("tcp4", hostport)
		if err != nil {
			return nil, api.Wrap(api.CodeHostnameToAddr, err, "resolve "+host)
		}
		ip = a.IP
	} else {
		a, err := net.ResolveUDPAddr("udp4", hostport)
		if err != nil {
			return nil, api.Wrap(api.CodeHostnameToAddr, err, "resolve "+host)
		}
		ip = a.IP
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, errors.Wrapf(api.ErrHostname, "%s has no IPv4 address", host)
	}
	addr := &Address{port: port}
	copy(addr.ip[:], ip4)
	return addr, nil
}

// FromHex resolves an address given in 8-digit hex form, e.g. "7f000001".
func FromHex(hexIP string, port int, tcp bool) (*Address, error) {
	dot, err := HexToDot(hexIP)
	if err != nil {
		return nil, err
	}
	return Resolve(dot, port, tcp)
}

// FromIP4 builds an address without any lookup.
func FromIP4(ip net.IP, port int) (*Address, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, errors.Wrapf(api.ErrHostname, "%v is not an IPv4 address", ip)
	}
	addr := &Address{port: port}
	copy(addr.ip[:], ip4)
	return addr, nil
}

// Port returns the port number.
func (a *Address) Port() int { return a.port }

// SetPort retargets the address.
func (a *Address) SetPort(port int) { a.port = port }

// IP returns a copy of the IPv4 address.
func (a *Address) IP() net.IP { return net.IPv4(a.ip[0], a.ip[1], a.ip[2], a.ip[3]).To4() }

// Hex returns the 8-digit hex form of the IP.
func (a *Address) Hex() string { return hex.EncodeToString(a.ip[:]) }

// Sockaddr returns the address in the form the socket calls expect.
func (a *Address) Sockaddr() *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{Port: a.port, Addr: a.ip}
}

func (a *Address) String() string {
	return net.JoinHostPort(a.IP().String(), strconv.Itoa(a.port))
}

// HexToDot converts "7f000001" to "127.0.0.1".
func HexToDot(hexIP string) (string, error) {
	if len(hexIP) != 8 {
		return "", errors.Wrapf(api.ErrHostname, "hex address %q must have 8 digits", hexIP)
	}
	b, err := hex.DecodeString(hexIP)
	if err != nil {
		return "", api.Wrap(api.CodeHostnameToAddr, err, "hex address "+hexIP)
	}
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3]), nil
}

// HexToInt parses an unprefixed hex number such as a port in discovery keys.
func HexToInt(h string) (int, error) {
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "hex number %q", h)
	}
	return int(v), nil
}

// ToHex converts an IPv4 address to its 8-digit hex form.
func ToHex(ip net.IP) (string, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return "", errors.Wrapf(api.ErrHostname, "%v is not an IPv4 address", ip)
	}
	return hex.EncodeToString(ip4), nil
}
