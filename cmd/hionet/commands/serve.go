// File: cmd/hionet/commands/serve.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/pool"
	"github.com/momentics/hioload-net/reactor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a framed TCP echo server and a UDP listener",
	Long: `Run a framed TCP echo server and a UDP listener.

Every length-prefixed message received on a TCP connection is sent back
unchanged. Datagrams arriving on the UDP port are logged and dropped.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 7400, WrapString("TCP port to listen on, 0 for an ephemeral port"))
	serveCmd.Flags().Int("udp-port", 7401, WrapString("UDP port to bind, -1 to disable"))
	serveCmd.Flags().Bool("udp-reuse", false, WrapString("allow other processes to bind the UDP port too"))
	serveCmd.Flags().String("metrics-addr", "", WrapString("serve Prometheus metrics on this address, e.g. :9100"))
}

// listener owns the TCP server socket and hands every peer an echo owner.
type listener struct {
	s *session
}

func (l *listener) Accepted(conn *reactor.Connection) error {
	conn.SetOwner(&echoPeer{s: l.s, conn: conn})
	l.s.log.Info("peer accepted", "index", conn.Index())
	return nil
}

func (l *listener) Connected() {}

func (l *listener) Deliver(msg *pool.Message) error {
	l.s.r.Allocator().Free(msg)
	return nil
}

func (l *listener) Removed() {
	l.s.log.Warn("tcp listener removed")
}

type echoPeer struct {
	s    *session
	conn *reactor.Connection
}

func (p *echoPeer) Accepted(*reactor.Connection) error { return api.ErrNotSupported }

func (p *echoPeer) Connected() {}

// Deliver queues msg straight back; the out-queue takes ownership.
func (p *echoPeer) Deliver(msg *pool.Message) error {
	p.s.log.Debug("echo", "index", p.conn.Index(), "bytes", msg.Len())
	return p.conn.SendTCP(false, msg)
}

func (p *echoPeer) Removed() {
	p.s.log.Info("peer removed")
}

type datagramSink struct {
	s    *session
	port int
}

func (d *datagramSink) Accepted(*reactor.Connection) error { return api.ErrNotSupported }

func (d *datagramSink) Connected() {}

func (d *datagramSink) Deliver(msg *pool.Message) error {
	d.s.log.Info("datagram", "port", d.port, "bytes", msg.Len())
	d.s.r.Allocator().Free(msg)
	return nil
}

func (d *datagramSink) Removed() {
	d.s.log.Warn("udp listener removed", "port", d.port)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd, "serve")
	if err != nil {
		return err
	}
	defer s.r.Close()

	srv, err := s.r.CreateTCPServer(viper.GetInt("port"))
	if err != nil {
		return err
	}
	srv.SetOwner(&listener{s: s})
	s.log.Info("echo server", "port", srv.Port(), "ip", s.r.InternalIP())

	if port := viper.GetInt("udp-port"); port >= 0 {
		udp, err := s.r.CreateUDPServer(port, viper.GetBool("udp-reuse"))
		if err != nil {
			return err
		}
		udp.SetOwner(&datagramSink{s: s, port: udp.Port()})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.pollLoop(ctx, nil)
	})
	if addr := viper.GetString("metrics-addr"); addr != "" {
		group.Go(func() error {
			return s.serveMetrics(ctx, addr)
		})
	}
	err = group.Wait()
	s.log.Info("shutting down", "connections", s.r.Len())
	return err
}
