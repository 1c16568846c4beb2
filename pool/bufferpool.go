// File: pool/bufferpool.go
// Package pool implements message allocation with size class subpooling and
// the FIFO used for outbound queues.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync/atomic"

// Predefined (power-of-two) buffer size classes (bytes).
// Larger requests fall through to the Go heap.
var sizeClasses = [...]int{
	64,
	256,
	512,
	2 * 1024,
	8 * 1024,
	32 * 1024,
	128 * 1024,
	512 * 1024,
	1 * 1024 * 1024,
}

// sizeClassFor returns the index of the smallest class >= size, or -1.
func sizeClassFor(size int) int {
	for i, c := range sizeClasses {
		if size <= c {
			return i
		}
	}
	return -1
}

// Allocator produces and reclaims variable-length message buffers.
type Allocator interface {
	// Alloc returns a message whose payload is exactly size bytes long.
	Alloc(size int) *Message
	// Free takes ownership of m back. m must not be used afterwards.
	Free(m *Message)
}

// Stats aggregates allocation accounting.
type Stats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
}

// HeapAllocator allocates every message from the Go heap.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(size int) *Message { return &Message{data: make([]byte, size), class: -1} }

func (HeapAllocator) Free(*Message) {}

// SlabAllocator recycles messages through one SyncPool per size class and
// keeps allocation counters, which makes leaks visible in tests.
type SlabAllocator struct {
	classes [len(sizeClasses)]ObjectPool[*Message]
	alloc   atomic.Int64
	free    atomic.Int64
}

// NewSlabAllocator creates an allocator with empty subpools.
func NewSlabAllocator() *SlabAllocator {
	s := &SlabAllocator{}
	for i := range s.classes {
		size := sizeClasses[i]
		class := i
		s.classes[i] = NewSyncPool(func() *Message {
			return &Message{data: make([]byte, size), class: class}
		})
	}
	return s
}

// Alloc returns a message of exactly size bytes.
func (s *SlabAllocator) Alloc(size int) *Message {
	s.alloc.Add(1)
	class := sizeClassFor(size)
	if class < 0 {
		return &Message{data: make([]byte, size), class: -1}
	}
	m := s.classes[class].Get()
	m.data = m.data[:size]
	return m
}

// Free returns m to its subpool. Heap-sized messages are left to the GC.
func (s *SlabAllocator) Free(m *Message) {
	if m == nil {
		return
	}
	s.free.Add(1)
	if m.class < 0 {
		m.data = nil
		return
	}
	m.data = m.data[:cap(m.data)]
	s.classes[m.class].Put(m)
}

// Stats returns a snapshot of the allocation counters.
func (s *SlabAllocator) Stats() Stats {
	a, f := s.alloc.Load(), s.free.Load()
	return Stats{TotalAlloc: a, TotalFree: f, InUse: a - f}
}
