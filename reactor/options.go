// File: reactor/options.go
// Package reactor defines functional options for New.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"github.com/charmbracelet/log"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/pool"
)

// Option customizes reactor initialization.
type Option func(*Reactor)

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reactor) {
		r.log = l
	}
}

// WithAllocator sets the allocator every message buffer comes from.
func WithAllocator(a pool.Allocator) Option {
	return func(r *Reactor) {
		r.alloc = a
	}
}

// WithMetrics shares a metrics instance instead of creating one.
func WithMetrics(m *control.Metrics) Option {
	return func(r *Reactor) {
		r.metrics = m
	}
}
