// File: reactor/ops.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket calls on the send/receive hot path.

package reactor

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// socketOps is the seam between the state machines and the kernel.
type socketOps interface {
	send(fd int, bufs [][]byte, flags int) (int, error)
	recv(fd int, p []byte) (int, error)
	poll(fds []unix.PollFd, timeout int) (int, error)
}

type sysOps struct{}

// send gathers bufs into one sendmsg so a length prefix and its payload
// leave in the same segment.
func (sysOps) send(fd int, bufs [][]byte, flags int) (int, error) {
	return unix.SendmsgBuffers(fd, bufs, nil, nil, flags)
}

func (sysOps) recv(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func (sysOps) poll(fds []unix.PollFd, timeout int) (int, error) {
	return unix.Poll(fds, timeout)
}

// wouldBlock reports the errno values that mean "try again on the next
// readiness event".
func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func interrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}
