// File: netaddr/interfaces.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package netaddr

import "net"

// InternalIP returns the hex form of the first non-loopback IPv4 interface
// address, or LocalhostHex when there is none. found is false in the latter
// case.
func InternalIP() (hexIP string, found bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return LocalhostHex, false
	}
	hexIP = ""
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipn, ok := a.(*net.IPNet)
			if !ok || ipn.IP.To4() == nil {
				continue
			}
			h, _ := ToHex(ipn.IP)
			if h != LocalhostHex {
				return h, true
			}
			hexIP = h
		}
	}
	if hexIP == "" {
		hexIP = LocalhostHex
	}
	return hexIP, false
}
