// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Debug probes for internal inspection. Probes run on the goroutine that
// owns the inspected state; the published snapshot may be read anywhere.

package control

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DebugProbes holds registered probe functions and the last snapshot.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
	latest atomic.Pointer[map[string]any]
}

// NewDebugProbes creates a probe registry with the platform probes set.
func NewDebugProbes() *DebugProbes {
	dp := &DebugProbes{
		probes: make(map[string]func() any),
	}
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS
	})
	return dp
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.probes))
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

// Publish runs every probe and stores the result for Latest. Call it from
// the goroutine that owns the probed state.
func (dp *DebugProbes) Publish() {
	state := dp.DumpState()
	dp.latest.Store(&state)
}

// Latest returns the last published snapshot, or nil before the first
// Publish.
func (dp *DebugProbes) Latest() map[string]any {
	if p := dp.latest.Load(); p != nil {
		return *p
	}
	return nil
}
