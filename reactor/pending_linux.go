//go:build linux
// +build linux

// File: reactor/pending_linux.go
// Author: momentics <momentics@gmail.com>

package reactor

import "golang.org/x/sys/unix"

// pendingReq is the ioctl reporting the size of the next queued datagram.
const pendingReq = unix.SIOCINQ
