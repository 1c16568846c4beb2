// File: pool/message.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Message buffers exchanged between the reactor and its owners.

package pool

// Message is a variable-length payload with exactly one owner at a time:
// the code that allocated it, the queue it was pushed into, or the
// delivery callee. Ownership moves on every hand-off; whoever holds it last
// returns it with Allocator.Free.
type Message struct {
	data  []byte
	class int // index into sizeClasses, -1 for heap buffers
}

// NewMessage wraps payload in a heap-backed message.
func NewMessage(payload []byte) *Message {
	return &Message{data: payload, class: -1}
}

// Bytes returns the payload. The slice is only valid while the caller owns
// the message.
func (m *Message) Bytes() []byte { return m.data }

// Len returns the payload length in bytes.
func (m *Message) Len() int { return len(m.data) }

// Truncate shortens the payload to n bytes. Used after a read that returned
// fewer bytes than were allocated.
func (m *Message) Truncate(n int) {
	if n < 0 || n > len(m.data) {
		panic("pool: truncate out of range")
	}
	m.data = m.data[:n]
}
