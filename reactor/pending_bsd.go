//go:build darwin || freebsd || netbsd || openbsd || dragonfly
// +build darwin freebsd netbsd openbsd dragonfly

// File: reactor/pending_bsd.go
// Author: momentics <momentics@gmail.com>

package reactor

import "golang.org/x/sys/unix"

// pendingReq is the ioctl reporting the bytes queued for reading.
const pendingReq = unix.FIONREAD
