// File: internal/wire/accumulator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Resumable receive state for one stream connection.

package wire

import (
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/pool"
	"github.com/pkg/errors"
)

// ReadFunc performs one non-blocking read. It returns api.ErrBlocked when no
// data is available yet; any other error is terminal for the connection. A
// zero-length read with a nil error means the peer shut down.
type ReadFunc func(p []byte) (int, error)

// ErrTooLarge is returned when a peer announces a message above the limit.
var ErrTooLarge = api.NewError(api.CodeFail, "message exceeds size limit")

// Accumulator holds the bytes received so far for the in-progress message:
// first up to HeaderSize prefix bytes, then up to length payload bytes. It
// is cleared only when a full message is handed out or on Reset.
type Accumulator struct {
	hdr    [HeaderSize]byte
	hdrGot int
	msg    *pool.Message
	got    int

	// MaxSize bounds the announced length. Zero means unlimited.
	MaxSize uint32
}

// Pending reports whether a partial message is buffered.
func (a *Accumulator) Pending() bool {
	return a.hdrGot > 0 || a.msg != nil
}

// Reset drops any partial message, returning its buffer to alloc.
func (a *Accumulator) Reset(alloc pool.Allocator) {
	if a.msg != nil {
		alloc.Free(a.msg)
	}
	a.clear()
}

func (a *Accumulator) clear() {
	a.msg = nil
	a.got = 0
	a.hdrGot = 0
}

// ReadFrame advances the length-prefixed state machine with at most one
// read per stage. It returns the completed message, or (nil, nil) when more
// bytes are needed, or a terminal error: api.ErrHangup on orderly shutdown,
// ErrTooLarge, or whatever read reported. The accumulator is reset on any
// terminal error.
func (a *Accumulator) ReadFrame(read ReadFunc, alloc pool.Allocator) (*pool.Message, error) {
	if a.hdrGot < HeaderSize {
		n, err := read(a.hdr[a.hdrGot:])
		if done, err := a.check(n, err, alloc); done {
			return nil, err
		}
		a.hdrGot += n
		if a.hdrGot < HeaderSize {
			return nil, nil
		}
		length := Header(a.hdr[:])
		if a.MaxSize > 0 && length > a.MaxSize {
			a.Reset(alloc)
			return nil, errors.Wrapf(ErrTooLarge, "announced %d bytes, limit %d", length, a.MaxSize)
		}
		a.msg = alloc.Alloc(int(length))
		a.got = 0
	}

	payload := a.msg.Bytes()
	if a.got < len(payload) {
		n, err := read(payload[a.got:])
		if done, err := a.check(n, err, alloc); done {
			return nil, err
		}
		a.got += n
		if a.got < len(payload) {
			return nil, nil
		}
	}
	msg := a.msg
	a.clear()
	return msg, nil
}

// ReadRaw reads one unframed chunk of up to RawChunkSize bytes and returns
// it as a message.
func (a *Accumulator) ReadRaw(read ReadFunc, alloc pool.Allocator) (*pool.Message, error) {
	msg := alloc.Alloc(RawChunkSize)
	n, err := read(msg.Bytes())
	if done, err := a.check(n, err, alloc); done {
		alloc.Free(msg)
		return nil, err
	}
	msg.Truncate(n)
	return msg, nil
}

// check maps a read result. done is true when the caller must stop, with
// err nil for "not ready yet".
func (a *Accumulator) check(n int, err error, alloc pool.Allocator) (bool, error) {
	switch {
	case err != nil && errors.Is(err, api.ErrBlocked):
		return true, nil
	case err != nil:
		a.Reset(alloc)
		return true, err
	case n == 0:
		a.Reset(alloc)
		return true, api.ErrHangup
	}
	return false, nil
}
