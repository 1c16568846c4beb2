// File: reactor/probes.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/pool"
)

// ConnInfo describes one table entry for debugging.
type ConnInfo struct {
	Index   int    `json:"index"`
	FD      int    `json:"fd"`
	State   string `json:"state"`
	Port    int    `json:"port"`
	Raw     bool   `json:"raw,omitempty"`
	Queued  int    `json:"queued"`
	Partial bool   `json:"partial,omitempty"`
}

// Snapshot describes every tracked connection.
func (r *Reactor) Snapshot() []ConnInfo {
	out := make([]ConnInfo, 0, len(r.reg.conns))
	for i, c := range r.reg.conns {
		out = append(out, ConnInfo{
			Index:   i,
			FD:      int(r.reg.fds[i].Fd),
			State:   c.state.String(),
			Port:    c.port,
			Raw:     c.raw,
			Queued:  c.out.Len(),
			Partial: c.in.Pending(),
		})
	}
	return out
}

// RegisterProbes adds the reactor's probes to dp. The probes read reactor
// state, so dp.Publish must run on the polling goroutine.
func (r *Reactor) RegisterProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("reactor.connections", func() any { return r.Snapshot() })
	dp.RegisterProbe("reactor.internal_ip", func() any { return r.internalIP })
	if s, ok := r.alloc.(*pool.SlabAllocator); ok {
		dp.RegisterProbe("reactor.allocator", func() any { return s.Stats() })
	}
}
