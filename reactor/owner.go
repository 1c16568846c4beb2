// File: reactor/owner.go
// Author: momentics <momentics@gmail.com>

package reactor

import "github.com/momentics/hioload-net/pool"

// Owner receives lifecycle and delivery callbacks from a Connection. The
// connection holds it without owning it; a nil Owner is allowed and
// inbound messages are then discarded.
type Owner interface {
	// Accepted is called on the listening connection's owner for every
	// new peer. Returning an error closes conn immediately.
	Accepted(conn *Connection) error
	// Connected reports that a client connect finished.
	Connected()
	// Deliver hands over a complete inbound message; the callee owns msg.
	// An error closes TCP connections; UDP sockets stay open.
	Deliver(msg *pool.Message) error
	// Removed is called right before the connection leaves the table.
	// References to it must be dropped.
	Removed()
}
