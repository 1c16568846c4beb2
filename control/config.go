// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Reactor configuration with defaults and viper binding.

package control

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings a Reactor is built with.
type Config struct {
	// NetworkEnabled creates the broadcast socket and looks up the
	// internal IP. When false only loopback traffic is expected.
	NetworkEnabled bool
	// ListenBacklog is passed to listen(2) for TCP servers.
	ListenBacklog int
	// MaxMessageSize bounds the length a stream peer may announce.
	// Zero disables the check.
	MaxMessageSize uint32
	// PollTimeout is the readiness poll timeout. Zero polls without
	// waiting, for hosts that interleave other work.
	PollTimeout time.Duration
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		NetworkEnabled: true,
		ListenBacklog:  10,
		MaxMessageSize: 64 << 20,
		PollTimeout:    0,
		LogLevel:       "warn",
	}
}

// Config keys understood by LoadConfig.
const (
	KeyNetworkEnabled = "network-enabled"
	KeyListenBacklog  = "listen-backlog"
	KeyMaxMessageSize = "max-message-size"
	KeyPollTimeout    = "poll-timeout"
	KeyLogLevel       = "log-level"
)

// SetDefaults registers DefaultConfig values on v and enables HIONET_*
// environment overrides.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault(KeyNetworkEnabled, d.NetworkEnabled)
	v.SetDefault(KeyListenBacklog, d.ListenBacklog)
	v.SetDefault(KeyMaxMessageSize, d.MaxMessageSize)
	v.SetDefault(KeyPollTimeout, d.PollTimeout)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetEnvPrefix("hionet")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// LoadConfig reads a Config from v. Keys that are unset keep their defaults.
func LoadConfig(v *viper.Viper) Config {
	cfg := DefaultConfig()
	if v.IsSet(KeyNetworkEnabled) {
		cfg.NetworkEnabled = v.GetBool(KeyNetworkEnabled)
	}
	if v.IsSet(KeyListenBacklog) {
		cfg.ListenBacklog = v.GetInt(KeyListenBacklog)
	}
	if v.IsSet(KeyMaxMessageSize) {
		cfg.MaxMessageSize = v.GetUint32(KeyMaxMessageSize)
	}
	if v.IsSet(KeyPollTimeout) {
		cfg.PollTimeout = v.GetDuration(KeyPollTimeout)
	}
	if v.IsSet(KeyLogLevel) {
		cfg.LogLevel = v.GetString(KeyLogLevel)
	}
	return cfg
}
