//go:build darwin
// +build darwin

// File: reactor/sockopt_darwin.go
// Author: momentics <momentics@gmail.com>
//
// Darwin has no MSG_NOSIGNAL; SIGPIPE is disabled per socket instead.

package reactor

import "golang.org/x/sys/unix"

const sendFlags = 0

func disableSigpipe(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_NOSIGPIPE, 1)
}
