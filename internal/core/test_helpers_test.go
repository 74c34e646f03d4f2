package core

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/ballrelay/internal/proto"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeTransport is an in-memory Transport. The test plays the remote peer:
// it feeds frames into in and reads what the server wrote from out.
type fakeTransport struct {
	in         chan []byte
	out        chan []byte
	closed     chan struct{}
	once       sync.Once
	failWrites bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-f.in:
		return frame, nil
	case <-f.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) WriteFrame(ctx context.Context, frame []byte) error {
	if f.failWrites {
		return errBrokenPipe
	}
	select {
	case f.out <- frame:
		return nil
	case <-f.closed:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeTransport) hangUp() {
	f.once.Do(func() { close(f.closed) })
}

type testClient struct {
	id   uint32
	tr   *fakeTransport
	done chan error
}

// connect serves a new fake connection and waits for its Init frame.
func connect(t *testing.T, ctx context.Context, hub *Hub) *testClient {
	t.Helper()

	tr := newFakeTransport()
	done := make(chan error, 1)
	go func() {
		done <- hub.Serve(ctx, tr, Peer{Remote: "test"})
	}()

	init, ok := mustFrame(t, tr.out).(proto.Init)
	if !ok {
		t.Fatalf("expected Init as first frame")
	}
	return &testClient{id: init.ID, tr: tr, done: done}
}

func (c *testClient) send(t *testing.T, msg proto.Inbound) {
	t.Helper()

	frame, err := proto.EncodeInbound(msg)
	if err != nil {
		t.Fatalf("encode %s: %v", msg.Tag(), err)
	}
	c.tr.in <- frame
}

func (c *testClient) disconnect(t *testing.T) {
	t.Helper()

	c.tr.hangUp()
	select {
	case err := <-c.done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("client %d did not shut down", c.id)
	}
}

func mustFrame(t *testing.T, ch <-chan []byte) proto.Outbound {
	t.Helper()

	select {
	case frame := <-ch:
		msg, err := proto.DecodeOutbound(frame)
		if err != nil {
			t.Fatalf("decode outbound frame: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("expected frame not received")
		return nil
	}
}

func expectNoFrame(t *testing.T, ch <-chan []byte) {
	t.Helper()

	select {
	case frame := <-ch:
		msg, err := proto.DecodeOutbound(frame)
		t.Fatalf("unexpected frame %+v (err %v)", msg, err)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
