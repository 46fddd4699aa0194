package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

// fakeConn records text frames and blocks reads until closed
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) SetReadLimit(int64)                {}
func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	if mt != websocket.TextMessage {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	for i, f := range c.frames {
		out[i] = string(f)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_TopicFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test")
	go h.Run(ctx)

	all, one, other := newFakeConn(), newFakeConn(), newFakeConn()
	for conn, topic := range map[*fakeConn]string{all: "", one: "s1", other: "s2"} {
		go NewClient(h, conn, topic).Run()
	}
	waitFor(t, func() bool { return h.ClientCount() == 3 })

	if err := h.Publish("s1", map[string]string{"stage": "video"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	h.Publish("", map[string]string{"stage": "notice"})

	waitFor(t, func() bool { return len(all.received()) == 2 && len(one.received()) == 2 })
	time.Sleep(20 * time.Millisecond)

	if got := other.received(); len(got) != 1 || got[0] != `{"stage":"notice"}` {
		t.Errorf("other topic received %v, want only the untargeted notice", got)
	}
	if got := one.received(); got[0] != `{"stage":"video"}` {
		t.Errorf("subscriber received %v", got)
	}
}

func TestHub_DisconnectAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := New("test")
	go h.Run(ctx)
	waitFor(t, h.IsRunning)

	a, b := newFakeConn(), newFakeConn()
	go NewClient(h, a, "").Run()
	go NewClient(h, b, "").Run()
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	a.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return !h.IsRunning() })
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount after shutdown = %d", h.ClientCount())
	}

	// Registering after shutdown must not block
	done := make(chan struct{})
	go func() {
		NewClient(h, newFakeConn(), "")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NewClient blocked on a stopped hub")
	}
}

func TestNewClient_HubNotStarted(t *testing.T) {
	h := New("test")
	conn := newFakeConn()

	done := make(chan struct{})
	go func() {
		NewClient(h, conn, "abc").Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("client blocked on a hub that was never started")
	}

	select {
	case <-conn.closed:
	default:
		t.Error("Expected connection to be closed")
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", h.ClientCount())
	}
}

func TestHub_PublishUnencodable(t *testing.T) {
	h := New("test")
	if err := h.Publish("s", func() {}); err == nil {
		t.Error("expected encode error")
	}
}
