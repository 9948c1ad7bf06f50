package telnet

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tallgrass/internal/config"
	"github.com/cory-johannsen/tallgrass/internal/testutil"
)

// echoHandler echoes lines back and remembers each session id.
type echoHandler struct {
	mu  sync.Mutex
	ids []string
}

func (h *echoHandler) HandleSession(_ context.Context, id string, conn *Conn) error {
	h.mu.Lock()
	h.ids = append(h.ids, id)
	h.mu.Unlock()
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if line == "quit" {
			return conn.WriteLine("bye")
		}
		if err := conn.WriteLine("echo: " + line); err != nil {
			return err
		}
	}
}

func (h *echoHandler) sessions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ids...)
}

func startAcceptor(t *testing.T, h SessionHandler) (*Acceptor, chan error) {
	t.Helper()
	cfg := config.TelnetConfig{Host: "127.0.0.1", ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	acc := NewAcceptor(cfg, h, zaptest.NewLogger(t))
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() { errCh <- acc.Serve(l) }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	return acc, errCh
}

func TestAcceptor_EchoAndQuit(t *testing.T) {
	h := &echoHandler{}
	acc, errCh := startAcceptor(t, h)

	client := testutil.NewTelnetClient(t, acc.Addr())
	client.Send("hello")
	client.ReadUntil("echo: hello", 2*time.Second)
	client.Send("quit")
	client.ReadUntil("bye", 2*time.Second)

	require.Eventually(t, func() bool { return acc.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
	acc.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("acceptor did not stop in time")
	}
	assert.Len(t, h.sessions(), 1)
}

func TestAcceptor_UniqueSessionIDs(t *testing.T) {
	h := &echoHandler{}
	acc, _ := startAcceptor(t, h)
	defer acc.Stop()

	const n = 3
	for i := 0; i < n; i++ {
		c := testutil.NewTelnetClient(t, acc.Addr())
		c.Send("ping")
		c.ReadUntil("echo: ping", 2*time.Second)
	}
	ids := h.sessions()
	require.Len(t, ids, n)
	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate session id %s", id)
		seen[id] = true
	}
	assert.Equal(t, n, acc.Active())
}

func TestAcceptor_StopUnblocksIdleSessions(t *testing.T) {
	h := &echoHandler{}
	acc, errCh := startAcceptor(t, h)

	c := testutil.NewTelnetClient(t, acc.Addr())
	c.Send("ping")
	c.ReadUntil("echo: ping", 2*time.Second)

	stopped := make(chan struct{})
	go func() {
		acc.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on an idle session")
	}
	assert.NoError(t, <-errCh)
	assert.Equal(t, 0, acc.Active())
	acc.Stop()
}
