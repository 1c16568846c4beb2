// File: cmd/hionet/commands/root.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package commands implements the hionet command line: a framed echo
// server, a load client and a broadcast sender, all driven by one reactor.
package commands

import (
	"fmt"
	"os"

	"github.com/momentics/hioload-net/control"
	"github.com/spf13/cobra"
)

// Version is the CLI release.
const Version = "0.3.0"

var (
	// RootCmd is the base command when called without any subcommands.
	RootCmd = &cobra.Command{
		Use:   "hionet",
		Short: "single-threaded socket reactor",
		Long: fmt.Sprintf(`hionet (v%s)

Length-prefixed TCP and UDP messaging driven by a poll(2) reactor.
Settings come from flags, HIONET_* environment variables or a .env file.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of hionet",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hionet v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(sendCmd)
	RootCmd.AddCommand(broadcastCmd)
	RootCmd.AddCommand(versionCmd)

	d := control.DefaultConfig()
	flags := RootCmd.PersistentFlags()
	flags.String(control.KeyLogLevel, "info", WrapString("log level (debug, info, warn, error)"))
	flags.Bool(control.KeyNetworkEnabled, d.NetworkEnabled, WrapString("open the broadcast socket and look up the internal IP"))
	flags.Int(control.KeyListenBacklog, d.ListenBacklog, WrapString("listen(2) backlog for TCP servers"))
	flags.Uint32(control.KeyMaxMessageSize, d.MaxMessageSize, WrapString("largest message a peer may announce, 0 for no limit"))
	flags.Duration(control.KeyPollTimeout, defaultPollTimeout, WrapString("how long one poll may wait for readiness"))
}

// Execute runs the root command. Called once by main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
