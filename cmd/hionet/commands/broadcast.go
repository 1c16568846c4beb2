// File: cmd/hionet/commands/broadcast.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"fmt"

	"github.com/momentics/hioload-net/netaddr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast [message]",
	Short: "Send one UDP datagram to the broadcast address, localhost or a host",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBroadcast,
}

func init() {
	broadcastCmd.Flags().Int("port", 7401, WrapString("destination UDP port"))
	broadcastCmd.Flags().Bool("local", false, WrapString("send to 127.0.0.1 instead of broadcasting"))
	broadcastCmd.Flags().String("to", "", WrapString("send to this host instead of broadcasting"))
}

func hexHost(h string) (string, error) {
	return netaddr.HexToDot(h)
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	text := "hionet " + Version
	if len(args) == 1 {
		text = args[0]
	}
	s, err := newSession(cmd, "broadcast")
	if err != nil {
		return err
	}
	defer s.r.Close()

	alloc := s.r.Allocator()
	msg := alloc.Alloc(len(text))
	copy(msg.Bytes(), text)
	port := viper.GetInt("port")

	switch to := viper.GetString("to"); {
	case to != "":
		addr, err := netaddr.Resolve(to, port, false)
		if err != nil {
			return err
		}
		if err := s.r.SendUDP(addr, msg); err != nil {
			return err
		}
		fmt.Printf("sent %d bytes to %s\n", len(text), addr)
	case viper.GetBool("local"):
		if err := s.r.SendUDPLocal(port, msg); err != nil {
			return err
		}
		fmt.Printf("sent %d bytes to 127.0.0.1:%d\n", len(text), port)
	default:
		err := s.r.SendBroadcast(port, msg)
		alloc.Free(msg)
		if err != nil {
			return err
		}
		ip, _ := netaddr.HexToDot(s.r.InternalIP())
		fmt.Printf("broadcast %d bytes to port %d from %s\n", len(text), port, ip)
	}
	return nil
}
