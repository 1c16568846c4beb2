// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor owns every tracked socket and drives them from a single
// goroutine with poll(2). It frames messages on stream sockets, accepts and
// connects TCP peers, receives datagrams, and hands completed messages to
// each connection's Owner.
//
// A Reactor is not safe for concurrent use. The host calls Poll repeatedly
// from one goroutine, interleaving its own work; all callbacks run inside
// Poll (or inside the factory and send calls that trigger them).
//
// Connections are never removed while Poll is dispatching. Close releases
// the socket and buffers immediately and marks the connection; the next
// sweep removes it from the table and calls Owner.Removed. Unregister and
// Sweep called from an owner callback leave removal to the running pass,
// and a Reactor.Close from a callback stops dispatch and tears down when
// that pass ends.
package reactor
