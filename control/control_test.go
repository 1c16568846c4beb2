package control

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	if got := LoadConfig(v); got != DefaultConfig() {
		t.Fatalf("empty viper gave %+v", got)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyNetworkEnabled, false)
	v.Set(KeyListenBacklog, 64)
	v.Set(KeyPollTimeout, "5ms")
	v.Set(KeyMaxMessageSize, 1024)
	v.Set(KeyLogLevel, "debug")
	cfg := LoadConfig(v)
	want := Config{
		NetworkEnabled: false,
		ListenBacklog:  64,
		MaxMessageSize: 1024,
		PollTimeout:    5 * time.Millisecond,
		LogLevel:       "debug",
	}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HIONET_LISTEN_BACKLOG", "99")
	v := viper.New()
	SetDefaults(v)
	if got := LoadConfig(v).ListenBacklog; got != 99 {
		t.Fatalf("ListenBacklog = %d", got)
	}
}

func TestMetricsExport(t *testing.T) {
	live := 3
	m := NewMetrics(func() int { return live })
	m.MessagesSent.Inc()
	m.BytesSent.Add(14)
	var buf bytes.Buffer
	m.WritePrometheus(&buf)
	out := buf.String()
	for _, want := range []string{
		"hionet_messages_sent_total 1",
		"hionet_bytes_sent_total 14",
		"hionet_connections 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	a, b := NewMetrics(nil), NewMetrics(nil)
	a.Closed.Inc()
	if b.Closed.Get() != 0 {
		t.Fatal("metrics sets must not be shared")
	}
}

func TestDebugProbesPublish(t *testing.T) {
	dp := NewDebugProbes()
	if dp.Latest() != nil {
		t.Fatal("snapshot before first Publish")
	}
	n := 0
	dp.RegisterProbe("counter", func() any { n++; return n })
	dp.Publish()
	first := dp.Latest()
	if first["counter"] != 1 || first["platform.cpus"] == nil {
		t.Fatalf("snapshot %v", first)
	}
	dp.Publish()
	if dp.Latest()["counter"] != 2 || first["counter"] != 1 {
		t.Fatal("published snapshots must be independent")
	}
}
