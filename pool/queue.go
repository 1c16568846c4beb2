// File: pool/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Owned FIFO of messages backed by a ring-buffer deque.

package pool

import "github.com/eapache/queue"

// Queue is a FIFO of messages. It owns every message pushed into it until
// the message is popped or drained. Not safe for concurrent use.
type Queue struct {
	q *queue.Queue
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{q: queue.New()}
}

// Push appends m at the tail.
func (q *Queue) Push(m *Message) {
	q.q.Add(m)
}

// Front returns the head without removing it, or nil when empty.
func (q *Queue) Front() *Message {
	if q.q.Length() == 0 {
		return nil
	}
	return q.q.Peek().(*Message)
}

// Pop removes and returns the head, or nil when empty.
func (q *Queue) Pop() *Message {
	if q.q.Length() == 0 {
		return nil
	}
	return q.q.Remove().(*Message)
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return q.q.Length()
}

// Drain pops every message and hands it to free. Returns the count.
func (q *Queue) Drain(free func(*Message)) int {
	n := 0
	for q.q.Length() > 0 {
		free(q.q.Remove().(*Message))
		n++
	}
	return n
}
