// File: cmd/hionet/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Command hionet runs and exercises the socket reactor from the shell.
package main

import "github.com/momentics/hioload-net/cmd/hionet/commands"

func main() {
	commands.Execute()
}
