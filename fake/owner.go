// Package fake
// Author: momentics <momentics@gmail.com>
//
// Recording Owner implementation for reactor tests.

package fake

import (
	"github.com/momentics/hioload-net/pool"
	"github.com/momentics/hioload-net/reactor"
)

// Owner records every callback it receives. Delivered payloads are copied
// and the message is returned to Alloc when set.
type Owner struct {
	// Alloc receives delivered messages back; nil leaves them to the GC.
	Alloc pool.Allocator
	// AcceptErr and DeliverErr are returned from the matching callbacks.
	AcceptErr  error
	DeliverErr error
	// OnAccepted runs for every accepted connection before AcceptErr is
	// returned; tests use it to install an owner on the new peer.
	OnAccepted func(conn *reactor.Connection)
	// OnDeliver runs after a payload is recorded.
	OnDeliver func()
	// OnRemoved runs inside Removed.
	OnRemoved func()

	Accepts  []*reactor.Connection
	Connects int
	Messages [][]byte
	Removals int
}

// NewOwner returns an owner that frees delivered messages to alloc.
func NewOwner(alloc pool.Allocator) *Owner {
	return &Owner{Alloc: alloc}
}

// Accepted implements reactor.Owner.
func (o *Owner) Accepted(conn *reactor.Connection) error {
	o.Accepts = append(o.Accepts, conn)
	if o.OnAccepted != nil {
		o.OnAccepted(conn)
	}
	return o.AcceptErr
}

// Connected implements reactor.Owner.
func (o *Owner) Connected() { o.Connects++ }

// Deliver implements reactor.Owner.
func (o *Owner) Deliver(msg *pool.Message) error {
	o.Messages = append(o.Messages, append([]byte(nil), msg.Bytes()...))
	if o.Alloc != nil {
		o.Alloc.Free(msg)
	}
	if o.OnDeliver != nil {
		o.OnDeliver()
	}
	return o.DeliverErr
}

// Removed implements reactor.Owner.
func (o *Owner) Removed() {
	o.Removals++
	if o.OnRemoved != nil {
		o.OnRemoved()
	}
}

// Joined concatenates every delivered payload.
func (o *Owner) Joined() []byte {
	var out []byte
	for _, m := range o.Messages {
		out = append(out, m...)
	}
	return out
}
