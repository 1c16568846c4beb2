package reactor

import (
	"math/rand"
	"testing"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/logging"
	"github.com/momentics/hioload-net/pool"
	"golang.org/x/sys/unix"
)

func testReactor(t *testing.T) *Reactor {
	t.Helper()
	cfg := control.DefaultConfig()
	cfg.NetworkEnabled = false
	r, err := New(cfg, WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// pipeFD returns the read end of a fresh pipe; the write end is closed at
// cleanup. The reactor owns the returned descriptor.
func pipeFD(t *testing.T) int {
	t.Helper()
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { _ = unix.Close(p[1]) })
	return p[0]
}

type removeCounter struct {
	removed   int
	onRemoved func()
}

func (o *removeCounter) Accepted(*Connection) error  { return nil }
func (o *removeCounter) Connected()                  {}
func (o *removeCounter) Deliver(*pool.Message) error { return nil }
func (o *removeCounter) Removed() {
	o.removed++
	if o.onRemoved != nil {
		o.onRemoved()
	}
}

func TestRegistryIndexInvariant(t *testing.T) {
	r := testReactor(t)
	rng := rand.New(rand.NewSource(7))
	var live []*Connection
	for step := 0; step < 400; step++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			c := r.Register(pipeFD(t), api.StateUDPServer, step)
			live = append(live, c)
		} else {
			k := rng.Intn(len(live))
			r.Unregister(live[k])
			if live[k].Index() != -1 {
				t.Fatalf("step %d: removed connection kept index %d", step, live[k].Index())
			}
			live = append(live[:k], live[k+1:]...)
		}
		if err := r.reg.verify(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if r.Len() != len(live) {
			t.Fatalf("step %d: Len = %d, want %d", step, r.Len(), len(live))
		}
		for _, c := range live {
			if r.Connection(c.Index()) != c {
				t.Fatalf("step %d: table slot %d holds another connection", step, c.Index())
			}
			if c.FD() < 0 {
				t.Fatalf("step %d: live connection lost its descriptor", step)
			}
		}
	}
}

func TestSweepCascades(t *testing.T) {
	r := testReactor(t)
	a := r.Register(pipeFD(t), api.StateTCPServer, 1)
	b := r.Register(pipeFD(t), api.StateTCPConnection, 0)
	c := r.Register(pipeFD(t), api.StateTCPConnection, 0)
	keep := r.Register(pipeFD(t), api.StateUDPServer, 2)

	oa := &removeCounter{onRemoved: b.Close}
	ob := &removeCounter{onRemoved: c.Close}
	oc := &removeCounter{}
	a.SetOwner(oa)
	b.SetOwner(ob)
	c.SetOwner(oc)

	a.Close()
	if a.State() != api.StateClosed || !a.PendingDelete() || a.FD() != -1 {
		t.Fatalf("close left state %v, fd %d", a.State(), a.FD())
	}
	if r.Len() != 4 {
		t.Fatalf("Close must not remove; Len = %d", r.Len())
	}
	if n := r.Sweep(); n != 3 {
		t.Fatalf("Sweep removed %d, want 3", n)
	}
	if oa.removed != 1 || ob.removed != 1 || oc.removed != 1 {
		t.Fatalf("removals a=%d b=%d c=%d", oa.removed, ob.removed, oc.removed)
	}
	if r.Len() != 1 || r.Connection(0) != keep || keep.Index() != 0 {
		t.Fatalf("survivor not compacted to slot 0")
	}
	if err := r.reg.verify(); err != nil {
		t.Fatal(err)
	}
	if n := r.Sweep(); n != 0 {
		t.Fatalf("second Sweep removed %d", n)
	}
}

func TestUnregisterDuringDispatchIsDeferred(t *testing.T) {
	r := testReactor(t)
	c := r.Register(pipeFD(t), api.StateUDPServer, 0)
	o := &removeCounter{}
	c.SetOwner(o)

	r.dispatching = true
	r.Unregister(c)
	r.dispatching = false
	if r.Len() != 1 || o.removed != 0 {
		t.Fatalf("removal was not deferred: Len=%d removed=%d", r.Len(), o.removed)
	}
	if !c.PendingDelete() {
		t.Fatal("connection not marked")
	}
	r.Sweep()
	if r.Len() != 0 || o.removed != 1 {
		t.Fatalf("sweep: Len=%d removed=%d", r.Len(), o.removed)
	}
}

func TestUnregisterFromRemovedDuringSweep(t *testing.T) {
	r := testReactor(t)
	a := r.Register(pipeFD(t), api.StateTCPConnection, 0)
	keep := r.Register(pipeFD(t), api.StateUDPServer, 1)
	b := r.Register(pipeFD(t), api.StateTCPConnection, 0)

	ob := &removeCounter{}
	oa := &removeCounter{onRemoved: func() {
		r.Unregister(b)
		if b.Index() < 0 {
			t.Error("Unregister removed synchronously inside a sweep")
		}
	}}
	a.SetOwner(oa)
	b.SetOwner(ob)

	a.Close()
	if n := r.Sweep(); n != 2 {
		t.Fatalf("Sweep removed %d, want 2", n)
	}
	if oa.removed != 1 || ob.removed != 1 {
		t.Fatalf("removals a=%d b=%d", oa.removed, ob.removed)
	}
	if r.Len() != 1 || r.Connection(0) != keep {
		t.Fatalf("Len = %d after sweep", r.Len())
	}
	if err := r.reg.verify(); err != nil {
		t.Fatal(err)
	}
}

func TestSweepWhileDispatchingWaits(t *testing.T) {
	r := testReactor(t)
	c := r.Register(pipeFD(t), api.StateUDPServer, 0)
	o := &removeCounter{}
	c.SetOwner(o)
	c.Close()

	r.dispatching = true
	if n := r.Sweep(); n != 0 {
		t.Fatalf("Sweep during dispatch removed %d", n)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 1 || o.removed != 0 {
		t.Fatalf("table changed during dispatch: Len=%d removed=%d", r.Len(), o.removed)
	}
	r.dispatching = false

	r.Sweep()
	if r.Len() != 0 || o.removed != 1 {
		t.Fatalf("teardown incomplete: Len=%d removed=%d", r.Len(), o.removed)
	}
	if !r.released {
		t.Fatal("send sockets not released")
	}
}
