// Package pool
// Author: momentics <momentics@gmail.com>
//
// Message buffers, their allocators and the owned FIFO used for outbound
// queues.
// Allocators hand out exact-length messages from power-of-two size classes;
// see bufferpool.go for the classes and queue.go for the FIFO.
package pool
