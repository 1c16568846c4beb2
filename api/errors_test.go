package api_test

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/momentics/hioload-net/api"
	"github.com/pkg/errors"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want api.ErrorCode
	}{
		{"nil", nil, api.CodeOK},
		{"sentinel", api.ErrBlocked, api.CodeBlocked},
		{"wrapped", errors.Wrap(api.ErrHangup, "fd 7"), api.CodeTCPHangup},
		{"cause", api.Wrap(api.CodeSocketError, syscall.ECONNRESET, "send"), api.CodeSocketError},
		{"foreign", fmt.Errorf("boom"), api.CodeFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := api.CodeOf(tc.err); got != tc.want {
				t.Errorf("CodeOf(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := errors.WithMessage(api.Wrap(api.CodeSocketError, syscall.EPIPE, "send"), "connection 3")
	if !errors.Is(err, api.ErrSocket) {
		t.Fatalf("expected %v to match ErrSocket", err)
	}
	if errors.Is(err, api.ErrBlocked) {
		t.Fatalf("socket error must not match ErrBlocked")
	}
	if !errors.Is(err, syscall.EPIPE) {
		t.Fatalf("cause must stay reachable through the chain")
	}
}

func TestErrorContext(t *testing.T) {
	err := api.NewError(api.CodeFail, "bind").WithContext("port", 8080)
	if err.Error() != "bind (context: map[port:8080])" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestConnStateString(t *testing.T) {
	if api.StateTCPClient.String() != "NET_TCP_CLIENT" {
		t.Errorf("got %s", api.StateTCPClient)
	}
	if !api.StateTCPConnecting.IsStream() || api.StateUDPServer.IsStream() || api.StateTCPServer.IsStream() {
		t.Errorf("IsStream classification wrong")
	}
}
