// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// ConnState enumerates the role and state of a tracked socket.
type ConnState int

const (
	StateUDPServer ConnState = iota
	StateTCPServer
	StateTCPConnecting
	StateTCPClient
	StateTCPConnection
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUDPServer:
		return "NET_UDP_SERVER"
	case StateTCPServer:
		return "NET_TCP_SERVER"
	case StateTCPConnecting:
		return "NET_TCP_CONNECTING"
	case StateTCPClient:
		return "NET_TCP_CLIENT"
	case StateTCPConnection:
		return "NET_TCP_CONNECTION"
	case StateClosed:
		return "NET_INFO_CLOSED"
	default:
		return "unknown"
	}
}

// IsStream reports whether the state belongs to a connected or connecting
// TCP endpoint, the ones that carry framed messages.
func (s ConnState) IsStream() bool {
	return s == StateTCPConnecting || s == StateTCPClient || s == StateTCPConnection
}
