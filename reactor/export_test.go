package reactor

import "golang.org/x/sys/unix"

// WriteShaper sits between a reactor and the kernel to force short writes
// (MaxWrite bytes per call) or a full send buffer (Blocked).
type WriteShaper struct {
	inner    socketOps
	MaxWrite int
	Blocked  bool
	Writes   int
}

// ShapeWrites installs a WriteShaper on r.
func ShapeWrites(r *Reactor) *WriteShaper {
	w := &WriteShaper{inner: r.ops}
	r.ops = w
	return w
}

func (w *WriteShaper) send(fd int, bufs [][]byte, flags int) (int, error) {
	if w.Blocked {
		return 0, unix.EAGAIN
	}
	if w.MaxWrite > 0 {
		bufs = limitBuffers(bufs, w.MaxWrite)
	}
	w.Writes++
	return w.inner.send(fd, bufs, flags)
}

func (w *WriteShaper) recv(fd int, p []byte) (int, error) { return w.inner.recv(fd, p) }

func (w *WriteShaper) poll(fds []unix.PollFd, timeout int) (int, error) {
	return w.inner.poll(fds, timeout)
}

func limitBuffers(bufs [][]byte, max int) [][]byte {
	var out [][]byte
	for _, b := range bufs {
		if max == 0 {
			break
		}
		if len(b) > max {
			b = b[:max]
		}
		out = append(out, b)
		max -= len(b)
	}
	return out
}

// InboundPending reports whether a partial message is buffered.
func (c *Connection) InboundPending() bool { return c.in.Pending() }

// Verify checks the table invariants.
func Verify(r *Reactor) error { return r.reg.verify() }
