// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Per-reactor transport counters backed by a private metrics set.

package control

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics holds the counters one Reactor updates. Each instance owns its
// own set, so several reactors in a process never collide on names.
type Metrics struct {
	set *metrics.Set

	MessagesSent     *metrics.Counter
	MessagesReceived *metrics.Counter
	BytesSent        *metrics.Counter
	BytesReceived    *metrics.Counter
	Accepted         *metrics.Counter
	Connected        *metrics.Counter
	Closed           *metrics.Counter
	SendBlocked      *metrics.Counter
	ProtocolErrors   *metrics.Counter
	DatagramsDropped *metrics.Counter
}

// NewMetrics creates the counters. live reports the current number of
// tracked connections and may be nil.
func NewMetrics(live func() int) *Metrics {
	s := metrics.NewSet()
	m := &Metrics{
		set:              s,
		MessagesSent:     s.NewCounter("hionet_messages_sent_total"),
		MessagesReceived: s.NewCounter("hionet_messages_received_total"),
		BytesSent:        s.NewCounter("hionet_bytes_sent_total"),
		BytesReceived:    s.NewCounter("hionet_bytes_received_total"),
		Accepted:         s.NewCounter("hionet_connections_accepted_total"),
		Connected:        s.NewCounter("hionet_connections_connected_total"),
		Closed:           s.NewCounter("hionet_connections_closed_total"),
		SendBlocked:      s.NewCounter("hionet_send_blocked_total"),
		ProtocolErrors:   s.NewCounter("hionet_protocol_errors_total"),
		DatagramsDropped: s.NewCounter("hionet_datagrams_dropped_total"),
	}
	if live != nil {
		s.NewGauge("hionet_connections", func() float64 { return float64(live()) })
	}
	return m
}

// WritePrometheus writes every metric in Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}
