// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration and metrics for the transport engine.
//
// Provides:
//   - Config, the reactor settings with defaults and viper loading
//   - Metrics, per-reactor counters exported in Prometheus text format
package control
