//go:build linux || freebsd || netbsd || openbsd || dragonfly
// +build linux freebsd netbsd openbsd dragonfly

// File: reactor/sockopt_nosignal.go
// Author: momentics <momentics@gmail.com>
//
// Platforms where SIGPIPE is suppressed per send call.

package reactor

import "golang.org/x/sys/unix"

const sendFlags = unix.MSG_NOSIGNAL

func disableSigpipe(int) error { return nil }
