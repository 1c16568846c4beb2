// File: cmd/hionet/commands/send.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/pool"
	"github.com/momentics/hioload-net/reactor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send framed messages to an echo server and wait for the replies",
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().String("host", "localhost", WrapString("server host name, dotted IPv4 or 8-digit hex address"))
	sendCmd.Flags().Int("port", 7400, WrapString("server TCP port"))
	sendCmd.Flags().Int("count", 10, WrapString("number of messages"))
	sendCmd.Flags().Int("size", 64, WrapString("payload bytes per message, at least 4"))
	sendCmd.Flags().Duration("timeout", 5*time.Second, WrapString("how long to wait for all replies"))
}

// replies counts echoed messages and checks their sequence numbers.
type replies struct {
	s        *session
	size     int
	next     uint32
	received int
	bad      int
	removed  bool
}

func (p *replies) Accepted(*reactor.Connection) error { return api.ErrNotSupported }

func (p *replies) Connected() {
	p.s.log.Debug("connected")
}

func (p *replies) Deliver(msg *pool.Message) error {
	defer p.s.r.Allocator().Free(msg)
	b := msg.Bytes()
	if len(b) != p.size || binary.BigEndian.Uint32(b) != p.next {
		p.bad++
	}
	p.next++
	p.received++
	return nil
}

func (p *replies) Removed() { p.removed = true }

func runSend(cmd *cobra.Command, _ []string) error {
	count := viper.GetInt("count")
	size := viper.GetInt("size")
	if size < 4 {
		return errors.Errorf("size %d is below the 4-byte sequence number", size)
	}
	s, err := newSession(cmd, "send")
	if err != nil {
		return err
	}
	defer s.r.Close()

	host := viper.GetString("host")
	if len(host) == 8 {
		if dot, err := hexHost(host); err == nil {
			host = dot
		}
	}
	conn, err := s.r.CreateTCPClient(host, viper.GetInt("port"))
	if err != nil {
		return err
	}
	owner := &replies{s: s, size: size}
	conn.SetOwner(owner)

	alloc := s.r.Allocator()
	start := time.Now()
	for i := 0; i < count; i++ {
		msg := alloc.Alloc(size)
		b := msg.Bytes()
		binary.BigEndian.PutUint32(b, uint32(i))
		for j := 4; j < len(b); j++ {
			b[j] = byte(j)
		}
		// blocking flush keeps at most one message queued behind the socket
		if err := conn.SendTCP(true, msg); err != nil {
			return errors.Wrapf(err, "message %d", i)
		}
		if err := s.r.Poll(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
	defer cancel()
	if err := s.pollLoop(ctx, func() bool {
		return owner.received >= count || owner.removed
	}); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("sent %d, received %d, mismatched %d in %v\n", count, owner.received, owner.bad, elapsed.Round(time.Microsecond))
	switch {
	case owner.bad > 0:
		return errors.Errorf("%d replies did not match", owner.bad)
	case owner.received < count:
		return errors.Errorf("only %d of %d replies arrived", owner.received, count)
	}
	return nil
}
