package wire

import (
	"bytes"
	"syscall"
	"testing"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/pool"
	"github.com/pkg/errors"
)

// chunkReader serves src in pieces of at most chunk bytes and reports
// api.ErrBlocked between pieces, the way a non-blocking socket would.
type chunkReader struct {
	src     []byte
	chunk   int
	blocked bool
}

func (r *chunkReader) read(p []byte) (int, error) {
	if r.blocked {
		r.blocked = false
		return 0, api.ErrBlocked
	}
	if len(r.src) == 0 {
		return 0, api.ErrBlocked
	}
	n := r.chunk
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.src) {
		n = len(r.src)
	}
	copy(p, r.src[:n])
	r.src = r.src[n:]
	r.blocked = true
	return n, nil
}

func TestFrameRoundTripAnyChunking(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("x"),
		[]byte("0123456789"),
		bytes.Repeat([]byte{0xAB}, 1000),
	}
	for _, chunk := range []int{1, 2, 3, 4, 5, 7, 64, 4096} {
		var stream []byte
		for _, p := range payloads {
			stream = Append(stream, p)
		}
		alloc := pool.NewSlabAllocator()
		r := &chunkReader{src: stream, chunk: chunk}
		var acc Accumulator
		var got [][]byte
		for steps := 0; len(got) < len(payloads); steps++ {
			if steps > 10*len(stream)+100 {
				t.Fatalf("chunk %d: no progress after %d steps", chunk, steps)
			}
			msg, err := acc.ReadFrame(r.read, alloc)
			if err != nil {
				t.Fatalf("chunk %d: unexpected error %v", chunk, err)
			}
			if msg != nil {
				got = append(got, append([]byte(nil), msg.Bytes()...))
				alloc.Free(msg)
				if acc.Pending() {
					t.Fatalf("chunk %d: accumulator not reset after a message", chunk)
				}
			}
		}
		for i := range payloads {
			if !bytes.Equal(got[i], payloads[i]) {
				t.Errorf("chunk %d: message %d = %x, want %x", chunk, i, got[i], payloads[i])
			}
		}
		if st := alloc.Stats(); st.InUse != 0 {
			t.Errorf("chunk %d: %d buffers leaked", chunk, st.InUse)
		}
	}
}

func TestZeroLengthFrameConsumesOnlyHeader(t *testing.T) {
	stream := Append(nil, nil)
	stream = append(stream, 0xFF) // first byte of the next header
	r := &chunkReader{src: stream, chunk: 64}
	var acc Accumulator
	msg, err := acc.ReadFrame(r.read, pool.HeapAllocator{})
	if err != nil || msg == nil || msg.Len() != 0 {
		t.Fatalf("got msg=%v err=%v", msg, err)
	}
	if len(r.src) != 1 {
		t.Fatalf("header read consumed %d extra bytes", 1-len(r.src))
	}
}

func TestReadFrameHangupMidMessage(t *testing.T) {
	alloc := pool.NewSlabAllocator()
	var acc Accumulator
	stream := Append(nil, []byte("hello"))[:6]
	r := &chunkReader{src: stream, chunk: 6}
	if msg, err := acc.ReadFrame(r.read, alloc); msg != nil || err != nil {
		t.Fatalf("expected not ready, got %v %v", msg, err)
	}
	if !acc.Pending() {
		t.Fatal("partial payload must be pending")
	}
	eof := func([]byte) (int, error) { return 0, nil }
	_, err := acc.ReadFrame(eof, alloc)
	if !errors.Is(err, api.ErrHangup) {
		t.Fatalf("expected hangup, got %v", err)
	}
	if acc.Pending() || alloc.Stats().InUse != 0 {
		t.Fatal("hangup must release the partial message")
	}
}

func TestReadFrameHardError(t *testing.T) {
	var acc Accumulator
	boom := api.Wrap(api.CodeSocketError, syscall.ECONNRESET, "recv")
	_, err := acc.ReadFrame(func([]byte) (int, error) { return 0, boom }, pool.HeapAllocator{})
	if !errors.Is(err, api.ErrSocket) {
		t.Fatalf("got %v", err)
	}
}

func TestReadFrameRejectsOversize(t *testing.T) {
	acc := Accumulator{MaxSize: 16}
	r := &chunkReader{src: Append(nil, make([]byte, 17)), chunk: 4}
	_, err := acc.ReadFrame(r.read, pool.HeapAllocator{})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("got %v", err)
	}
}

func TestReadRaw(t *testing.T) {
	alloc := pool.NewSlabAllocator()
	var acc Accumulator
	r := &chunkReader{src: bytes.Repeat([]byte("a"), 700), chunk: 1000}
	msg, err := acc.ReadRaw(r.read, alloc)
	if err != nil || msg.Len() != RawChunkSize {
		t.Fatalf("first chunk: %v len=%d", err, msg.Len())
	}
	alloc.Free(msg)
	msg, err = acc.ReadRaw(r.read, alloc)
	if err != nil || msg != nil {
		t.Fatalf("expected not ready, got %v %v", msg, err)
	}
	msg, err = acc.ReadRaw(r.read, alloc)
	if err != nil || msg.Len() != 700-RawChunkSize {
		t.Fatalf("second chunk: %v", err)
	}
	alloc.Free(msg)
	if alloc.Stats().InUse != 0 {
		t.Fatal("leak")
	}
}

func TestHeaderByteOrder(t *testing.T) {
	var b [HeaderSize]byte
	PutHeader(b[:], 0x01020304)
	if !bytes.Equal(b[:], []byte{1, 2, 3, 4}) {
		t.Fatalf("got %x", b)
	}
	if Header(b[:]) != 0x01020304 {
		t.Fatal("decode mismatch")
	}
}
