// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

// ObjectPool is a generic object pool.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool wraps sync.Pool with a typed interface. The slab allocator keeps
// one per size class.
type SyncPool[T any] struct {
	pool sync.Pool
}

// NewSyncPool creates a SyncPool that builds new objects with creator.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	sp := &SyncPool[T]{}
	sp.pool.New = func() any { return creator() }
	return sp
}

// Get returns a pooled object or a new one.
func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

// Put makes obj available for reuse.
func (sp *SyncPool[T]) Put(obj T) {
	sp.pool.Put(obj)
}
