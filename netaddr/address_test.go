package netaddr

import (
	"net"
	"testing"

	"github.com/momentics/hioload-net/api"
	"github.com/pkg/errors"
)

func TestHexToDot(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"7f000001", "127.0.0.1", true},
		{"c0a80a2A", "192.168.10.42", true},
		{"ffffffff", "255.255.255.255", true},
		{"7f00001", "", false},
		{"7f00000g", "", false},
	}
	for _, tc := range cases {
		got, err := HexToDot(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("HexToDot(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, api.ErrHostname) {
			t.Errorf("HexToDot(%q) expected hostname error, got %v", tc.in, err)
		}
	}
}

func TestHexToInt(t *testing.T) {
	if v, err := HexToInt("d431"); err != nil || v != 54321 {
		t.Errorf("got %d %v", v, err)
	}
	if _, err := HexToInt("xyz"); err == nil {
		t.Error("expected error")
	}
}

func TestResolveLocalhost(t *testing.T) {
	for _, host := range []string{"", "localhost", "127.0.0.1"} {
		a, err := Resolve(host, 8000, true)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", host, err)
		}
		if a.Hex() != LocalhostHex || a.Port() != 8000 {
			t.Errorf("Resolve(%q) = %s", host, a)
		}
		sa := a.Sockaddr()
		if sa.Port != 8000 || sa.Addr != [4]byte{127, 0, 0, 1} {
			t.Errorf("sockaddr mismatch %+v", sa)
		}
	}
}

func TestFromHexAndSetPort(t *testing.T) {
	a, err := FromHex(LocalhostHex, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	a.SetPort(4242)
	if a.String() != "127.0.0.1:4242" {
		t.Errorf("got %s", a)
	}
}

func TestResolveFailure(t *testing.T) {
	_, err := Resolve("no-such-host.invalid", 80, true)
	if api.CodeOf(err) != api.CodeHostnameToAddr {
		t.Fatalf("expected hostname failure, got %v", err)
	}
	_, err = Resolve("localhost", 70000, true)
	if !errors.Is(err, api.ErrHostname) {
		t.Fatalf("expected port range failure, got %v", err)
	}
}

func TestToHexRejectsIPv6(t *testing.T) {
	if _, err := ToHex(net.ParseIP("::1")); err == nil {
		t.Error("expected error for IPv6")
	}
	if h, _ := ToHex(net.IPv4(10, 0, 0, 1)); h != "0a000001" {
		t.Errorf("got %s", h)
	}
}

func TestInternalIP(t *testing.T) {
	h, found := InternalIP()
	if len(h) != 8 {
		t.Fatalf("InternalIP returned %q", h)
	}
	if found && h == LocalhostHex {
		t.Fatal("found must not report loopback")
	}
}
