// File: cmd/hionet/commands/util.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/logging"
	"github.com/momentics/hioload-net/reactor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to wrap the help text at.
	Wrap int = 50

	// the CLI has nothing else to do between polls, so it lets poll wait
	defaultPollTimeout = 10 * time.Millisecond

	probeInterval = 250 * time.Millisecond
)

// WrapString wraps a string at Wrap characters.
func WrapString(text string) string {
	var lines []string
	var line strings.Builder
	width := 0
	for _, word := range strings.Fields(text) {
		if width > 0 && width+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
			width = 0
		}
		if width > 0 {
			line.WriteString(" ")
			width++
		}
		line.WriteString(word)
		width += len(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// initConfig loads .env files and enables HIONET_* overrides.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	control.SetDefaults(viper.GetViper())
	viper.SetDefault(control.KeyPollTimeout, defaultPollTimeout)
	viper.SetDefault(control.KeyLogLevel, "info")
}

// session is one reactor plus what the CLI needs around it.
type session struct {
	r       *reactor.Reactor
	log     *log.Logger
	metrics *control.Metrics
	probes  *control.DebugProbes
	live    atomic.Int64 // connection count published by the poll goroutine
	cfg     control.Config
}

// newSession binds cmd's flags and builds a reactor from the merged
// configuration.
func newSession(cmd *cobra.Command, prefix string) (*session, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	s := &session{cfg: control.LoadConfig(viper.GetViper())}
	s.log = logging.New(os.Stderr, s.cfg.LogLevel, prefix)
	// metrics are read from the HTTP goroutine, so the gauge must not
	// touch the reactor
	s.metrics = control.NewMetrics(func() int { return int(s.live.Load()) })
	r, err := reactor.New(s.cfg, reactor.WithLogger(s.log), reactor.WithMetrics(s.metrics))
	if err != nil {
		return nil, errors.Wrap(err, "create reactor")
	}
	s.r = r
	s.probes = control.NewDebugProbes()
	r.RegisterProbes(s.probes)
	return s, nil
}

// pollLoop drives the reactor until ctx ends or done reports true. It is
// the only goroutine that touches the reactor.
func (s *session) pollLoop(ctx context.Context, done func() bool) error {
	var published time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := s.r.Poll(); err != nil {
			return err
		}
		s.live.Store(int64(s.r.Len()))
		if now := time.Now(); now.Sub(published) >= probeInterval {
			s.probes.Publish()
			published = now
		}
		if done != nil && done() {
			return nil
		}
	}
}

// serveMetrics exposes the reactor's counters in Prometheus format, and
// the last debug snapshot as JSON, until ctx ends.
func (s *session) serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		s.metrics.WritePrometheus(w)
	})
	mux.HandleFunc("/debug/state", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(s.probes.Latest())
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("metrics endpoint", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics server")
	}
	return nil
}
